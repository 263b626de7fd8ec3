package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
)

// embeddingProcessor generates embeddings for stored resources.
type embeddingProcessor struct {
	repository storage.ResourceRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(repository storage.ResourceRepository, embedder ai.Embedder, logger *slog.Logger) (*embeddingProcessor, error) {
	if repository == nil {
		return nil, ErrResourceRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		repository: repository,
		embedder:   embedder,
		logger:     logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the corpus of the specified resources and stores the vectors.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) (int, error) {
	ep.logger.Debug("processing resources for embeddings", "resources", len(ids))

	slices.Sort(ids)

	resources, err := ep.repository.GetResources(ctx, ids...)
	if err != nil {
		ep.logger.Error("error retrieving resources", "err", err)
		return 0, err
	}
	if len(resources) == 0 {
		return 0, nil
	}

	texts := make([]string, len(resources))
	for i, r := range resources {
		texts[i] = core.ResourceCorpus(r)
	}

	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return 0, err
	}

	if len(embeddings) != len(resources) {
		return 0, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(resources), len(embeddings))
	}

	for i := range embeddings {
		resources[i].Vector = embeddings[i]
	}

	updated, err := ep.repository.UpdateResources(ctx, resources...)
	if err != nil {
		return 0, err
	}
	return len(updated), nil
}
