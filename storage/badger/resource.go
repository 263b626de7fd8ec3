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

package badger

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/shigen/core"
	"github.com/poiesic/shigen/storage"
)

// errStopIteration ends a stream whose consumer stopped early.
var errStopIteration = errors.New("iteration stopped")

// ResourceRepository implements storage.ResourceRepository for BadgerDB.
type ResourceRepository struct {
	backend *Backend
}

var _ storage.ResourceRepository = (*ResourceRepository)(nil)

// NewResourceRepository creates a new ResourceRepository.
func NewResourceRepository(backend *Backend) (*ResourceRepository, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	return &ResourceRepository{
		backend: backend,
	}, nil
}

// Close releases resources. ResourceRepository has no resources to release;
// the backend is closed by its owner.
func (r *ResourceRepository) Close() error {
	return nil
}

// AddResources stores new resources.
func (r *ResourceRepository) AddResources(ctx context.Context, resources ...*core.Resource) ([]*core.Resource, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, res := range resources {
			if err := core.ValidateResource(res); err != nil {
				return err
			}
			res.Id = res.Key()

			key := makeResourceKey(res.Id)
			existing, err := readResource(tx, key)
			if err != nil {
				return err
			}
			if existing != nil {
				return storage.ErrDuplicateKey
			}

			res.InsertedAt = now
			res.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalResource(res)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return resources, err
}

// UpdateResources replaces existing resources.
func (r *ResourceRepository) UpdateResources(ctx context.Context, resources ...*core.Resource) ([]*core.Resource, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC()
		for _, res := range resources {
			if err := core.ValidateResource(res); err != nil {
				return err
			}
			res.Id = res.Key()

			key := makeResourceKey(res.Id)
			old, err := readResource(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			res.InsertedAt = old.InsertedAt
			res.UpdatedAt = now
			if err := tx.Set(key, storage.MarshalResource(res)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return resources, err
}

// DeleteResources removes resources by their IDs.
func (r *ResourceRepository) DeleteResources(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeResourceKey(id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return storage.ErrNotFound
				}
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetResource retrieves a single resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id core.ID) (*core.Resource, error) {
	var result *core.Resource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readResource(tx, makeResourceKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetResources retrieves multiple resources by their IDs.
func (r *ResourceRepository) GetResources(ctx context.Context, ids ...core.ID) ([]*core.Resource, error) {
	var result []*core.Resource
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			res, err := readResource(tx, makeResourceKey(id))
			if err != nil {
				return err
			}
			if res != nil {
				result = append(result, res)
			}
		}
		return nil
	}, false)
	return result, err
}

// StreamResources yields every stored resource in key order.
func (r *ResourceRepository) StreamResources(ctx context.Context) iter.Seq2[*core.Resource, error] {
	return func(yield func(*core.Resource, error) bool) {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(resourcePrefix)
			it := tx.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				var res *core.Resource
				err := it.Item().Value(func(val []byte) error {
					var err error
					res, err = storage.UnmarshalResource(val)
					return err
				})
				if err != nil {
					return err
				}
				if !yield(res, nil) {
					return errStopIteration
				}
			}
			return nil
		}, false)

		if err != nil && !errors.Is(err, errStopIteration) {
			yield(nil, err)
		}
	}
}

// CountResources returns the number of stored resources.
func (r *ResourceRepository) CountResources(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(resourcePrefix)
		opts.PrefetchValues = false
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readResource returns nil without error when the key does not exist.
func readResource(tx *badger.Txn, key []byte) (*core.Resource, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var res *core.Resource
	err = item.Value(func(val []byte) error {
		var err error
		res, err = storage.UnmarshalResource(val)
		return err
	})
	return res, err
}
