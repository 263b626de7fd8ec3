package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/shigen/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("SHIGEN_TEST_REDIS_URL")
	if url == "" {
		t.Skip("SHIGEN_TEST_REDIS_URL not set")
	}
	store, err := Dial(context.Background(), url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test-" + uuid.NewString()
	t.Cleanup(func() { store.Delete(ctx, id) })

	state := session.NewState(id, time.Now().UTC().Truncate(time.Second))
	state.RecordAttempt("nanyo city food")
	state.RecordFailure()
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, state.History, loaded.History)
	assert.Equal(t, 1, loaded.Attempts)
	assert.Equal(t, 1, loaded.Failures)
	assert.True(t, state.CreatedAt.Equal(loaded.CreatedAt))

	ttl, err := store.rdb.TTL(ctx, store.key(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestStore_Missing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "missing-"+uuid.NewString())
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "missing-"+uuid.NewString()))
}

func TestStore_WithRegistry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	registry, err := session.NewRegistry(store)
	require.NoError(t, err)

	state, err := registry.Begin(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { registry.End(ctx, state.ID) })

	_, err = registry.Update(ctx, state.ID, func(s *session.State) error {
		s.RecordAttempt("q")
		return nil
	})
	require.NoError(t, err)

	got, err := registry.Get(ctx, state.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"q"}, got.History)
}
