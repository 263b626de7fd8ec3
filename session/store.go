package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

var (
	// ErrSessionNotFound is returned for an unknown or evicted session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreRequired is returned when a Registry is built without a store.
	ErrStoreRequired = errors.New("session store required")
)

// DefaultCapacity bounds the number of sessions a MemoryStore keeps.
const DefaultCapacity = 1024

// Store persists session state by ID.
type Store interface {
	// Load returns a copy of the state, or ErrSessionNotFound.
	Load(ctx context.Context, id string) (*State, error)
	// Save stores a copy of state under state.ID.
	Save(ctx context.Context, state *State) error
	// Delete removes the session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error
}

// MemoryStore is a bounded in-process Store. The least recently used
// sessions are evicted once capacity is reached, and with a TTL a session
// not saved within it is gone on the next load.
type MemoryStore struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	state   *State
	expires time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL expires sessions ttl after their last save. Zero disables expiry.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.ttl = max(ttl, 0)
	}
}

// WithStoreClock sets the time source used for expiry.
func WithStoreClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemoryStore creates a store holding at most capacity sessions.
func NewMemoryStore(capacity int, opts ...MemoryOption) (*MemoryStore, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	m := &MemoryStore{cache: cache, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry := v.(memoryEntry)
	if !entry.expires.IsZero() && !m.now().Before(entry.expires) {
		m.cache.Remove(id)
		return nil, ErrSessionNotFound
	}
	return entry.state.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, state *State) error {
	entry := memoryEntry{state: state.Clone()}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.cache.Add(state.ID, entry)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Remove(id)
	return nil
}

// Len returns the number of sessions held.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
