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

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry manages session lifecycles over a Store.
// Sessions exist only between Begin (or Ensure) and End; there is no implicit session.
type Registry struct {
	store Store

	mu    sync.Mutex
	locks map[string]*sessionLock

	now    func() time.Time
	logger *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a registry backed by store.
func NewRegistry(store Store, opts ...RegistryOption) (*Registry, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	r := &Registry{
		store:  store,
		locks:  make(map[string]*sessionLock),
		now:    time.Now,
		logger: slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// sessionLock serializes access to one session. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (r *Registry) lock(id string) func() {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &sessionLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, id)
		}
		r.mu.Unlock()
	}
}

// lockCount returns the number of lock entries held.
func (r *Registry) lockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// Begin starts a planning session. An existing session with the same ID is
// reset; an empty ID gets a new random one.
func (r *Registry) Begin(ctx context.Context, id string) (*State, error) {
	if id == "" {
		id = uuid.NewString()
	}
	unlock := r.lock(id)
	defer unlock()

	state := NewState(id, r.now())
	if err := r.store.Save(ctx, state); err != nil {
		return nil, err
	}
	r.logger.Debug("session begun", "session", id)
	return state, nil
}

// Ensure returns the session, beginning it when it does not exist.
// Unlike Begin it never resets an existing session.
func (r *Registry) Ensure(ctx context.Context, id string) (*State, error) {
	if id == "" {
		return r.Begin(ctx, id)
	}
	unlock := r.lock(id)
	defer unlock()

	state, err := r.store.Load(ctx, id)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	state = NewState(id, r.now())
	if err := r.store.Save(ctx, state); err != nil {
		return nil, err
	}
	r.logger.Debug("session begun", "session", id)
	return state, nil
}

// Get returns a copy of the session state.
func (r *Registry) Get(ctx context.Context, id string) (*State, error) {
	return r.store.Load(ctx, id)
}

// Update loads the session, applies fn and saves the result while holding
// the session's lock. If fn returns an error nothing is saved.
func (r *Registry) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	unlock := r.lock(id)
	defer unlock()

	state, err := r.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(state); err != nil {
		return nil, err
	}
	state.UpdatedAt = r.now()
	if err := r.store.Save(ctx, state); err != nil {
		return nil, err
	}
	return state.Clone(), nil
}

// Reset clears an existing session's history and counters.
func (r *Registry) Reset(ctx context.Context, id string) error {
	_, err := r.Update(ctx, id, func(s *State) error {
		s.Reset()
		return nil
	})
	if err == nil {
		r.logger.Debug("session reset", "session", id)
	}
	return err
}

// End removes the session.
func (r *Registry) End(ctx context.Context, id string) error {
	unlock := r.lock(id)
	err := r.store.Delete(ctx, id)
	unlock()
	if err == nil {
		r.logger.Debug("session ended", "session", id)
	}
	return err
}
