package ingestion

import "errors"

var (
	// ErrResourceRepositoryRequired is returned when a resource repository is not provided.
	ErrResourceRepositoryRequired = errors.New("resource repository required")

	// ErrEmbedderRequired is returned when an embedding processor has no embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
