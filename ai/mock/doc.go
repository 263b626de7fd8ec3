// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without an embedding service and makes vectors
// deterministic: the same text always yields the same unit vector.
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{1, 0, 0}, nil
//	}
//	count := embedder.CallCount()
package mock
