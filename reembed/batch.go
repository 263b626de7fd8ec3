package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
	"golang.org/x/time/rate"
)

// BatchProcessor embeds one batch of resources and writes the vectors back.
type BatchProcessor struct {
	repo       storage.ResourceRepository
	embedder   ai.Embedder
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewBatchProcessor creates a batch processor. A nil limiter disables pacing.
func NewBatchProcessor(repo storage.ResourceRepository, embedder ai.Embedder, limiter *rate.Limiter, maxRetries int, retryDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:       repo,
		embedder:   embedder,
		limiter:    limiter,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		logger:     slog.Default().With("component", "reembed"),
	}
}

// Process embeds the corpus of every resource in batch and updates them in
// storage. Returns the number of resources written.
func (p *BatchProcessor) Process(ctx context.Context, batch []*core.Resource) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	texts := make([]string, len(batch))
	for i, r := range batch {
		texts[i] = core.ResourceCorpus(r)
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		var err error
		vectors, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingMismatch, len(vectors), len(texts))
		}
		return nil
	}, p.maxRetries, p.retryDelay)
	if err != nil {
		return 0, fmt.Errorf("embed batch of %d: %w", len(batch), err)
	}

	updated := make([]*core.Resource, len(batch))
	for i, r := range batch {
		c := r.Clone()
		c.Vector = NormalizeVector(vectors[i])
		updated[i] = c
	}

	if _, err := p.repo.UpdateResources(ctx, updated...); err != nil {
		return 0, fmt.Errorf("update resources: %w", err)
	}
	p.logger.Debug("batch embedded", "resources", len(updated))
	return len(updated), nil
}
