package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, ProviderOpenAI, cfg.Provider)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithProvider(ProviderGemini),
			WithEmbeddingHost("http://custom:8080/v1"),
			WithEmbeddingModel("text-embedding-004"),
			WithAPIKey("secret"),
		)

		assert.Equal(t, ProviderGemini, cfg.Provider)
		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
		assert.Equal(t, "secret", cfg.APIKey)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name             string
		provider         string
		host             string
		expectedProvider string
		expectedHost     string
	}{
		{name: "already has /v1", provider: "openai", host: "http://localhost:11434/v1", expectedProvider: "openai", expectedHost: "http://localhost:11434/v1"},
		{name: "missing /v1", provider: "openai", host: "http://localhost:11434", expectedProvider: "openai", expectedHost: "http://localhost:11434/v1"},
		{name: "has trailing slash", provider: "openai", host: "http://localhost:11434/", expectedProvider: "openai", expectedHost: "http://localhost:11434/v1"},
		{name: "empty host", provider: "openai", host: "", expectedProvider: "openai", expectedHost: ""},
		{name: "empty provider defaults to openai", provider: "", host: "http://embed:8080", expectedProvider: "openai", expectedHost: "http://embed:8080/v1"},
		{name: "gemini host untouched", provider: " Gemini ", host: "http://embed:8080", expectedProvider: "gemini", expectedHost: "http://embed:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, EmbeddingHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expectedProvider, cfg.Provider)
			assert.Equal(t, tt.expectedHost, cfg.EmbeddingHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid openai config", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434", EmbeddingModel: "embeddinggemma"}

		require.NoError(t, cfg.Validate())
		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})

	t.Run("valid gemini config", func(t *testing.T) {
		cfg := &Config{Provider: ProviderGemini, EmbeddingModel: "text-embedding-004", APIKey: "k"}
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "missing embedding host", cfg: &Config{EmbeddingModel: "m"}, wantErr: "EmbeddingHost"},
		{name: "missing embedding model", cfg: &Config{EmbeddingHost: "http://h/v1"}, wantErr: "EmbeddingModel"},
		{name: "gemini without key", cfg: &Config{Provider: ProviderGemini, EmbeddingModel: "m"}, wantErr: "APIKey"},
		{name: "unknown provider", cfg: &Config{Provider: "cohere", EmbeddingModel: "m"}, wantErr: "unknown provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "生活", Truncate("生活困窮", 2))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "", Truncate("", 3))
}
