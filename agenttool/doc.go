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

// Package agenttool exposes the local resource search to LLM agents.
//
// Two surfaces are provided: eino invokable tools for in-process agent
// graphs, and an MCP server for external agents speaking the Model Context
// Protocol over stdio. Both return the plain strings produced by
// search.Searcher, so guidance tags such as (NO_RESULT_1) reach the agent
// unchanged.
package agenttool
