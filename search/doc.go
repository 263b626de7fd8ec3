// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search provides region-aware lexical search over the resource catalog.
//
// A query passes through several stages:
//   - Normalizer parses boolean markers, joins lexicon phrases, detects the
//     region token and expands keywords with synonyms and a recency token
//   - RegionSearch searches the region-filtered resources in AND mode and
//     falls back to a capped OR search over the whole catalog
//   - Scorer counts matched tokens and adds a bonus for year or era matches
//   - Formatter renders the candidates as text blocks
//
// Searcher ties the stages to a session.Registry so repeated queries and
// zero-result outcomes produce escalating guidance instead of results.
package search
