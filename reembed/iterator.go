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

	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
)

const (
	// DefaultBatchSize is the default number of resources embedded per request
	DefaultBatchSize = 100
)

// ResourceIterator walks all stored resources in batches.
type ResourceIterator struct {
	repo      storage.ResourceRepository
	batchSize int
	filter    func(*core.Resource) bool
}

// NewResourceIterator creates a new resource iterator.
// batchSize: number of resources per batch (defaults when <= 0)
// filter: optional; resources for which it returns false are skipped
func NewResourceIterator(repo storage.ResourceRepository, batchSize int, filter func(*core.Resource) bool) *ResourceIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ResourceIterator{
		repo:      repo,
		batchSize: batchSize,
		filter:    filter,
	}
}

// ForEach streams resources and calls fn with each full batch, then with the
// final partial one. Iteration stops on the first error from the stream or fn.
func (it *ResourceIterator) ForEach(ctx context.Context, fn func([]*core.Resource) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	batch := make([]*core.Resource, 0, it.batchSize)
	for r, err := range it.repo.StreamResources(ctx) {
		if err != nil {
			return err
		}
		if it.filter != nil && !it.filter(r) {
			continue
		}
		batch = append(batch, r)
		if len(batch) == it.batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = make([]*core.Resource, 0, it.batchSize)
		}
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

// Count returns how many resources ForEach would visit.
func (it *ResourceIterator) Count(ctx context.Context) (int, error) {
	if it.filter == nil {
		return it.repo.CountResources(ctx)
	}
	n := 0
	for r, err := range it.repo.StreamResources(ctx) {
		if err != nil {
			return 0, err
		}
		if it.filter(r) {
			n++
		}
	}
	return n, nil
}
