package ai

import (
	"context"
	"errors"
)

// ErrEmptyEmbedding is returned when a backend answers without a vector.
var ErrEmptyEmbedding = errors.New("embedding backend returned no vector")

// Embedder generates vector embeddings from text for similarity ranking.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// MaxInputRunes bounds the text sent to an embedding backend.
const MaxInputRunes = 8000

// Truncate shortens text to at most n runes.
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
