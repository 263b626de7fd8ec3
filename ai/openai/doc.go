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

// Package openai implements ai.Embedder for OpenAI-compatible APIs.
//
// It uses the langchaingo library to talk to OpenAI or compatible services
// such as Ollama, LocalAI or vLLM.
//
// # Usage
//
//	config := &ai.Config{
//	    EmbeddingHost:  "http://localhost:11434",  // /v1 added automatically
//	    EmbeddingModel: "embeddinggemma",
//	}
//
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vector, err := embedder.EmbedText(ctx, "sample text")
package openai
