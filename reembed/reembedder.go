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

package reembed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
	"golang.org/x/time/rate"
)

// Config holds reembedding settings.
type Config struct {
	BatchSize      int
	ReportInterval int
	MaxRetries     int
	RetryDelay     time.Duration

	// Concurrency is the number of batches embedded at once.
	Concurrency int

	// RequestsPerSecond paces embedding requests. Zero means unlimited.
	RequestsPerSecond float64

	// OnlyMissing skips resources that already carry a vector.
	OnlyMissing bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		Concurrency:    2,
	}
}

// Summary reports the outcome of a run.
type Summary struct {
	Total    int
	Embedded int
	Failed   int
	Elapsed  time.Duration
}

// Reembedder regenerates the vectors of all stored resources.
type Reembedder struct {
	repo     storage.ResourceRepository
	embedder ai.Embedder
	config   Config
	progress io.Writer
	logger   *slog.Logger
}

// NewReembedder creates a reembedder. progress may be nil to disable the progress line.
func NewReembedder(repo storage.ResourceRepository, embedder ai.Embedder, config Config, progress io.Writer) *Reembedder {
	if progress == nil {
		progress = io.Discard
	}
	return &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "reembed"),
	}
}

// Run reembeds every resource. Batches that still fail after retries are
// counted in Summary.Failed and do not stop the run. Cancellation does.
func (r *Reembedder) Run(ctx context.Context) (*Summary, error) {
	var filter func(*core.Resource) bool
	if r.config.OnlyMissing {
		filter = func(res *core.Resource) bool { return len(res.Vector) == 0 }
	}
	iterator := NewResourceIterator(r.repo, r.config.BatchSize, filter)

	total, err := iterator.Count(ctx)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Total: total}
	if total == 0 {
		r.logger.Info("no resources to reembed")
		return summary, nil
	}

	var limiter *rate.Limiter
	if r.config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.RequestsPerSecond), 1)
	}
	processor := NewBatchProcessor(r.repo, r.embedder, limiter, max(r.config.MaxRetries, 1), r.config.RetryDelay)

	pool, err := ants.NewPool(max(r.config.Concurrency, 1))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	err = iterator.ForEach(ctx, func(batch []*core.Resource) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			n, err := processor.Process(ctx, batch)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					r.logger.Error("batch failed", "resources", len(batch), "err", err)
				}
				failed.Add(int64(len(batch)))
				tracker.Add(0, len(batch))
				return
			}
			embedded.Add(int64(n))
			tracker.Add(n, 0)
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
		return nil
	})
	wg.Wait()
	tracker.Finish()

	summary.Embedded = int(embedded.Load())
	summary.Failed = int(failed.Load())
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	r.logger.Info("reembed complete", "total", summary.Total, "embedded", summary.Embedded,
		"failed", summary.Failed, "elapsed", summary.Elapsed)
	return summary, nil
}
