// Package redis stores session states in Redis as JSON documents with a
// sliding expiry.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/shigen/session"
	"github.com/redis/go-redis/v9"
)

// Store is a session.Store backed by Redis.
type Store struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	closer io.Closer
}

var _ session.Store = (*Store)(nil)

// NewStore creates a store. A positive ttl is refreshed on every save.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Dial connects to url and returns a store that owns the client.
// Close releases it.
func Dial(ctx context.Context, url string, ttl time.Duration) (*Store, error) {
	client, err := Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	s := NewStore(client, ttl)
	s.closer = client
	return s, nil
}

// Close closes the client when the store owns it. Stores built with
// NewStore leave the client to the caller.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Connect parses url, pings the server and returns a client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *Store) key(id string) string {
	return fmt.Sprintf("search_session:%s", id)
}

func (s *Store) Load(ctx context.Context, id string) (*session.State, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, session.ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	var state session.State
	if err := json.Unmarshal(b, &state); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &state, nil
}

func (s *Store) Save(ctx context.Context, state *session.State) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", state.ID, err)
	}
	// Set with expiration 0 keeps the key forever.
	if err := s.rdb.Set(ctx, s.key(state.ID), b, max(s.ttl, 0)).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
