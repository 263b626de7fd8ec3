package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Lifecycle(t *testing.T) {
	s := NewState("s1", time.Now())
	assert.Equal(t, PhaseFresh, s.Phase())
	assert.False(t, s.CheckRepeat("food bank"))

	s.RecordAttempt("food bank")
	assert.Equal(t, PhaseAttempted, s.Phase())
	assert.True(t, s.CheckRepeat("food bank"))
	assert.False(t, s.CheckRepeat("Food Bank"), "comparison is exact")

	assert.Equal(t, TierBroaden, s.RecordFailure())
	assert.Equal(t, PhaseFailed, s.Phase())
	assert.Equal(t, TierLastAttempt, s.RecordFailure())
	assert.Equal(t, TierStop, s.RecordFailure())
	assert.Equal(t, TierStop, s.RecordFailure())
	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 4, s.Failures)

	s.Reset()
	assert.Equal(t, PhaseFresh, s.Phase())
	assert.Empty(t, s.History)
	assert.Equal(t, "s1", s.ID)
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		failures int
		want     Tier
	}{
		{0, TierNone},
		{1, TierBroaden},
		{2, TierLastAttempt},
		{3, TierStop},
		{10, TierStop},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, TierFor(tt.failures))
		})
	}
}

func TestGuidance_Escalates(t *testing.T) {
	g := DefaultGuidance()
	messages := []string{g.Repeat, g.ForTier(TierBroaden), g.ForTier(TierLastAttempt), g.ForTier(TierStop)}
	seen := map[string]bool{}
	for _, m := range messages {
		require.NotEmpty(t, m)
		assert.False(t, seen[m], "guidance strings are distinct")
		seen[m] = true
	}
	assert.Contains(t, g.ForTier(TierStop), TagStop)
	assert.Contains(t, g.ForTier(TierStop), "not permitted")
	assert.Empty(t, g.ForTier(TierNone))

	custom := Guidance{Stop: "stop now"}.WithDefaults()
	assert.Equal(t, "stop now", custom.Stop)
	assert.Equal(t, g.Broaden, custom.Broaden)
}

func TestMemoryStore_Evicts(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.Save(ctx, NewState(id, time.Now())))
	}
	_, err = store.Load(ctx, "a") // a becomes most recently used
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, NewState("c", time.Now())))

	assert.Equal(t, 2, store.Len())
	_, err = store.Load(ctx, "b")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Load(ctx, "a")
	assert.NoError(t, err)
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store, err := NewMemoryStore(4, WithTTL(time.Hour), WithStoreClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewState("a", now)))
	now = now.Add(50 * time.Minute)
	_, err = store.Load(ctx, "a")
	require.NoError(t, err)

	// saving slides the expiry
	require.NoError(t, store.Save(ctx, NewState("a", now)))
	now = now.Add(50 * time.Minute)
	_, err = store.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, store.Len())

	t.Run("zero ttl never expires", func(t *testing.T) {
		store, err := NewMemoryStore(4, WithTTL(0), WithStoreClock(clock))
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, NewState("a", now)))
		now = now.Add(24 * 365 * time.Hour)
		_, err = store.Load(ctx, "a")
		assert.NoError(t, err)
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store, err := NewMemoryStore(0)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, NewState("a", time.Now())))
	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	loaded.RecordAttempt("q")

	again, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, again.History)
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	store, err := NewMemoryStore(16)
	require.NoError(t, err)
	r, err := NewRegistry(store)
	require.NoError(t, err)
	return r
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("nil store", func(t *testing.T) {
		_, err := NewRegistry(nil)
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("begin assigns id", func(t *testing.T) {
		r := newRegistry(t)
		s, err := r.Begin(ctx, "")
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = r.Update(ctx, "nope", func(*State) error { return nil })
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, r.Reset(ctx, "nope"), ErrSessionNotFound)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Begin(ctx, "one")
		require.NoError(t, err)
		_, err = r.Begin(ctx, "two")
		require.NoError(t, err)

		_, err = r.Update(ctx, "one", func(s *State) error {
			s.RecordAttempt("q")
			s.RecordFailure()
			return nil
		})
		require.NoError(t, err)

		two, err := r.Get(ctx, "two")
		require.NoError(t, err)
		assert.Equal(t, PhaseFresh, two.Phase())
	})

	t.Run("failed update is not saved", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Begin(ctx, "x")
		require.NoError(t, err)
		boom := errors.New("boom")
		_, err = r.Update(ctx, "x", func(s *State) error {
			s.RecordAttempt("q")
			return boom
		})
		assert.ErrorIs(t, err, boom)
		s, err := r.Get(ctx, "x")
		require.NoError(t, err)
		assert.Empty(t, s.History)
	})

	t.Run("begin resets and end evicts", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Begin(ctx, "x")
		require.NoError(t, err)
		_, err = r.Update(ctx, "x", func(s *State) error {
			s.RecordAttempt("q")
			return nil
		})
		require.NoError(t, err)

		s, err := r.Begin(ctx, "x")
		require.NoError(t, err)
		assert.Empty(t, s.History)

		require.NoError(t, r.End(ctx, "x"))
		_, err = r.Get(ctx, "x")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("ensure keeps existing state", func(t *testing.T) {
		r := newRegistry(t)
		s, err := r.Ensure(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "x", s.ID)

		_, err = r.Update(ctx, "x", func(s *State) error {
			s.RecordAttempt("q")
			return nil
		})
		require.NoError(t, err)

		s, err = r.Ensure(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"q"}, s.History)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Begin(ctx, "x")
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.Update(ctx, "x", func(s *State) error {
					s.Attempts++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		s, err := r.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, 50, s.Attempts)
	})

	t.Run("lock entries are released", func(t *testing.T) {
		r := newRegistry(t)
		for i := 0; i < 100; i++ {
			id := string(rune('a'+i%26)) + string(rune('0'+i/26))
			_, err := r.Begin(ctx, id)
			require.NoError(t, err)
			_, err = r.Update(ctx, id, func(s *State) error {
				s.RecordAttempt("q")
				return nil
			})
			require.NoError(t, err)
		}
		assert.Zero(t, r.lockCount())
	})

	t.Run("end does not split the session lock", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Begin(ctx, "x")
		require.NoError(t, err)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			inside   int
			overlaps int
		)
		critical := func(s *State) error {
			mu.Lock()
			inside++
			if inside > 1 {
				overlaps++
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			return nil
		}
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, _ = r.Ensure(ctx, "x")
				_, _ = r.Update(ctx, "x", critical)
			}()
			go func() {
				defer wg.Done()
				_ = r.End(ctx, "x")
			}()
		}
		wg.Wait()

		assert.Zero(t, overlaps)
		assert.Zero(t, r.lockCount())
	})
}
