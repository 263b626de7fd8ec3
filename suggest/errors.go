package suggest

import "errors"

var (
	// ErrCatalogRequired is returned when a suggester is created without a catalog.
	ErrCatalogRequired = errors.New("catalog required")

	// ErrEmbedderRequired is returned when a suggester has no embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrEmptyAssessment is returned when the assessment yields no text.
	ErrEmptyAssessment = errors.New("assessment has no text")
)
