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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/shigen/ai"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
)

// DefaultBatchSize is the number of resources written per transaction.
const DefaultBatchSize = 100

// Options controls a single import.
type Options struct {
	// Overwrite replaces resources that already exist. Otherwise they are skipped.
	Overwrite bool

	// DryRun computes the report without writing anything.
	DryRun bool
}

// Report summarizes an import.
type Report struct {
	Total                     int
	Created                   int
	Updated                   int
	Skipped                   int
	SkippedInvalidServiceName int
	MissingFieldCounts        map[string]int
	Embedded                  int
	EmbedFailures             int
	DryRun                    bool
}

// Importer upserts resources into a ResourceRepository.
type Importer struct {
	repository storage.ResourceRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	poolSize   int
	batchSize  int
	logger     *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}
		im.poolSize = size
		return nil
	}
}

// WithBatchSize sets how many resources are written or embedded together.
func WithBatchSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		im.batchSize = size
		return nil
	}
}

// WithEmbedder embeds every written resource after the import.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(im *Importer) error {
		im.embedder = embedder
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates a new importer.
func NewImporter(repository storage.ResourceRepository, opts ...Option) (*Importer, error) {
	if repository == nil {
		return nil, ErrResourceRepositoryRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	im := &Importer{
		repository: repository,
		poolSize:   poolSize,
		batchSize:  DefaultBatchSize,
		logger:     slog.Default().With("component", "ingestion"),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if err := opt(im); err != nil {
			return nil, err
		}
	}

	if im.embedder != nil {
		pool, err := ants.NewPool(im.poolSize)
		if err != nil {
			return nil, err
		}
		im.pool = pool
	}
	return im, nil
}

// Release releases resources including worker pools.
// The importer should not be used after calling Release.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

// ImportRecords coerces raw catalog records and imports them.
// Records that cannot be coerced count as invalid service names.
func (im *Importer) ImportRecords(ctx context.Context, records []map[string]any, opts Options) (*Report, error) {
	resources := make([]*core.Resource, 0, len(records))
	invalid := 0
	for _, rec := range records {
		r, err := core.ResourceFromRecord(rec)
		if err != nil {
			invalid++
			continue
		}
		resources = append(resources, r)
	}

	report, err := im.Import(ctx, resources, opts)
	if report != nil {
		report.Total += invalid
		report.SkippedInvalidServiceName += invalid
	}
	return report, err
}

// Import writes resources to the repository.
//
// Resources without a service name are rejected and counted. Resources whose
// key already exists, in the store or earlier in the same input, are skipped
// unless opts.Overwrite is set. Nothing is written when opts.DryRun is set.
func (im *Importer) Import(ctx context.Context, resources []*core.Resource, opts Options) (*Report, error) {
	report := &Report{
		Total:              len(resources),
		MissingFieldCounts: make(map[string]int),
		DryRun:             opts.DryRun,
	}

	valid := make([]*core.Resource, 0, len(resources))
	seen := make(map[core.ID]struct{}, len(resources))
	for _, r := range resources {
		if err := core.ValidateResource(r); err != nil {
			report.SkippedInvalidServiceName++
			continue
		}
		c := r.Clone()
		c.Id = core.IDFromServiceName(c.ServiceName)
		if _, dup := seen[c.Id]; dup {
			report.Skipped++
			continue
		}
		seen[c.Id] = struct{}{}

		for _, field := range core.MissingFields(c) {
			report.MissingFieldCounts[field]++
		}
		valid = append(valid, c)
	}

	var creates, updates []*core.Resource
	for start := 0; start < len(valid); start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		chunk := valid[start:min(start+im.batchSize, len(valid))]

		ids := make([]core.ID, len(chunk))
		for i, r := range chunk {
			ids[i] = r.Id
		}
		existing, err := im.repository.GetResources(ctx, ids...)
		if err != nil {
			return report, fmt.Errorf("look up existing resources: %w", err)
		}
		stored := make(map[core.ID]*core.Resource, len(existing))
		for _, r := range existing {
			stored[r.Id] = r
		}

		for _, r := range chunk {
			prev, ok := stored[r.Id]
			switch {
			case !ok:
				creates = append(creates, r)
			case opts.Overwrite:
				if r.Vector == nil && core.ResourceCorpus(prev) == core.ResourceCorpus(r) {
					r.Vector = prev.Vector
				}
				updates = append(updates, r)
			default:
				report.Skipped++
			}
		}
	}
	report.Created = len(creates)
	report.Updated = len(updates)

	if opts.DryRun {
		im.logger.Info("dry run complete", "created", report.Created, "updated", report.Updated, "skipped", report.Skipped)
		return report, nil
	}

	if err := im.write(ctx, creates, im.repository.AddResources); err != nil {
		return report, fmt.Errorf("add resources: %w", err)
	}
	if err := im.write(ctx, updates, im.repository.UpdateResources); err != nil {
		return report, fmt.Errorf("update resources: %w", err)
	}

	im.logger.Info("import complete",
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"invalid", report.SkippedInvalidServiceName)

	if im.embedder != nil {
		written := append(append([]*core.Resource{}, creates...), updates...)
		report.Embedded, report.EmbedFailures = im.embed(ctx, written)
	}
	return report, nil
}

func (im *Importer) write(ctx context.Context, resources []*core.Resource, fn func(context.Context, ...*core.Resource) ([]*core.Resource, error)) error {
	for start := 0; start < len(resources); start += im.batchSize {
		chunk := resources[start:min(start+im.batchSize, len(resources))]
		if _, err := fn(ctx, chunk...); err != nil {
			return err
		}
	}
	return nil
}

// embed generates vectors for the written resources in batches on the pool.
// Failed batches are logged and counted, never fatal to the import.
func (im *Importer) embed(ctx context.Context, resources []*core.Resource) (int, int) {
	proc, err := newEmbeddingProcessor(im.repository, im.embedder, im.logger)
	if err != nil {
		im.logger.Error("error creating embedding processor", "err", err)
		return 0, len(resources)
	}

	var (
		wg       sync.WaitGroup
		embedded atomic.Int64
		failed   atomic.Int64
	)
	for start := 0; start < len(resources); start += im.batchSize {
		chunk := resources[start:min(start+im.batchSize, len(resources))]
		ids := make([]core.ID, len(chunk))
		for i, r := range chunk {
			ids[i] = r.Id
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			n, err := proc.process(ctx, ids...)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					im.logger.Error("error processing embeddings", "resources", len(ids), "err", err)
				}
				failed.Add(int64(len(ids)))
				return
			}
			embedded.Add(int64(n))
		}
		if err := im.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return int(embedded.Load()), int(failed.Load())
}
