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

package search

import "errors"

var (
	// ErrCatalogRequired is returned when a resource source is not provided.
	ErrCatalogRequired = errors.New("resource catalog required")

	// ErrRegistryRequired is returned when a session registry is not provided.
	ErrRegistryRequired = errors.New("session registry required")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid search option")

	// ErrInvalidLexicon is returned when a lexicon file cannot be parsed.
	ErrInvalidLexicon = errors.New("invalid lexicon")
)

// Tags prefixed to tool output that is not a result listing.
const (
	TagSearchError = "(SEARCH_ERROR)"
	TagNoResult    = "(NO_RESULT)"
)
