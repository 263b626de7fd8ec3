// Package gemini implements ai.Embedder for the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/shigen/ai"
	"google.golang.org/genai"
)

// Embedder implements ai.Embedder using Gemini embedding models.
type Embedder struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewEmbedder creates a Gemini embedder from config.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(ctx context.Context, config *ai.Config) (ai.Embedder, error) {
	if config.Provider == "" {
		config.Provider = ai.ProviderGemini
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  config.EmbeddingModel,
		logger: slog.Default().With("component", "gemini-embedder"),
	}, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple texts in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	e.logger.Debug("generating embeddings for texts", "count", len(texts), "model", e.model)

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		t = ai.Truncate(strings.TrimSpace(t), ai.MaxInputRunes)
		if t == "" {
			t = " "
		}
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyEmbedding, len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb != nil {
			vectors[i] = emb.Values
		}
	}
	return vectors, nil
}
