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

package ai

import (
	"errors"
	"strings"
)

// Embedding backends.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the settings of an embedding backend.
type Config struct {
	// Provider selects the backend: "openai" for any OpenAI-compatible
	// server (Ollama, vLLM, LocalAI) or "gemini" for the Gemini API.
	Provider string

	// EmbeddingHost is the base URL for OpenAI-compatible APIs.
	// Example: "http://localhost:11434/v1". Ignored for gemini.
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-004"
	EmbeddingModel string

	// APIKey authenticates against the backend. Local OpenAI-compatible
	// servers usually need none.
	APIKey string
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// WithProvider sets the backend.
func WithProvider(provider string) ConfigOption {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithEmbeddingHost sets the OpenAI-compatible base URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// DefaultConfig returns a config for a local OpenAI-compatible server.
func DefaultConfig() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
	}
}

// NewConfig returns DefaultConfig with opts applied.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize canonicalizes the provider name and, for OpenAI-compatible
// backends, makes sure the host ends in /v1.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider == ProviderOpenAI && c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		// Remove trailing slash if present before adding /v1
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/")
		c.EmbeddingHost = c.EmbeddingHost + "/v1"
	}
}

// Validate normalizes the config and checks the fields the provider needs.
func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	switch c.Provider {
	case ProviderOpenAI:
		if c.EmbeddingHost == "" {
			return errors.New("ai config: EmbeddingHost is required")
		}
	case ProviderGemini:
		if c.APIKey == "" {
			return errors.New("ai config: APIKey is required for gemini")
		}
	default:
		return errors.New("ai config: unknown provider " + c.Provider)
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	return nil
}
