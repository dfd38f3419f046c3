package summarycache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryStore(5*time.Minute, 100).WithClock(clock.Now), clock
}

func TestGetReturnsStoredValue(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "the summary"))

	got, hit, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "the summary", got)
}

func TestMissOnUnknownKey(t *testing.T) {
	store, _ := newTestStore()

	_, hit, err := store.Get(context.Background(), "nope")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", "v"))

	clock.now = clock.now.Add(5 * time.Minute)
	_, hit, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit, "entry at exactly the TTL boundary is still live")

	clock.now = clock.now.Add(time.Second)
	_, hit, err = store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit)
}

func TestExpiredGetKeepsConcurrentRefresh(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	now := base
	refreshed := false
	// The clock callback refreshes the key on Get's first expiry check,
	// which is the gap between the read lock and the write lock. The
	// delete must then leave the fresh entry alone.
	store.WithClock(func() time.Time {
		if !refreshed && now.After(base) {
			refreshed = true
			require.NoError(t, store.Set(ctx, "k", "fresh"))
		}
		return now
	})

	require.NoError(t, store.Set(ctx, "k", "stale"))
	now = base.Add(5*time.Minute + time.Second)

	_, hit, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, hit, "the stale read still reports a miss")

	got, hit, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, "fresh", got)
}

func TestSweepRemovesExpiredEntriesAboveLimit(t *testing.T) {
	store, clock := newTestStore()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("old-%d", i), "v"))
	}
	clock.now = clock.now.Add(6 * time.Minute)

	// The 101st entry trips the sweep and the expired hundred go away.
	require.NoError(t, store.Set(ctx, "fresh", "v"))
	require.Equal(t, 1, store.Len())

	_, hit, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, hit)
}

func TestSweepKeepsLiveEntries(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < 101; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("k-%d", i), "v"))
	}
	// Nothing has expired, so the sweep removes nothing.
	require.Equal(t, 101, store.Len())
}
