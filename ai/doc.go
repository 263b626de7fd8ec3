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

// Package ai defines the embedding abstraction used by the suggestion path
// and the re-embedding job.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible servers through langchaingo
//   - ai/gemini: the Gemini API through google.golang.org/genai
//   - ai/mock: deterministic test double
//
// Public constructors (openai.NewEmbedder, gemini.NewEmbedder) return the
// ai.Embedder interface. mock.NewMockEmbedder returns the concrete type so
// tests can inject behavior and inspect call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingModel("embeddinggemma"))
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "household finances consultation")
package ai
