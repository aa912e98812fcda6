package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clockedStore returns a store on a controllable clock.
func clockedStore(t *testing.T, start time.Time) (*MemoryStore, *time.Time) {
	t.Helper()
	s := NewMemoryStore()
	current := start
	s.now = func() time.Time { return current }
	return s, &current
}

func TestMemoryStoreCountsWithinWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, _ := clockedStore(t, start)
	ctx := context.Background()

	// Limit 2: two hits pass, the third is denied without consuming
	// quota or moving the window.
	d, err := s.Take(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Denied)
	assert.Equal(t, int64(1), d.Remaining)

	d, err = s.Take(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Denied)
	assert.Equal(t, int64(0), d.Remaining)

	d, err = s.Take(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Denied)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Equal(t, start.Add(time.Minute).Unix(), d.ResetUnix)
}

func TestMemoryStoreResetsAfterWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, clock := clockedStore(t, start)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Take(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
	}

	// One full window later the counter starts fresh.
	*clock = start.Add(time.Minute)
	d, err := s.Take(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Denied)
	assert.Equal(t, int64(1), d.Remaining)
	assert.Equal(t, start.Add(2*time.Minute).Unix(), d.ResetUnix)
}

func TestMemoryStoreResetStableWithinWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, clock := clockedStore(t, start)
	ctx := context.Background()

	d1, err := s.Take(ctx, "k", 10, time.Minute)
	require.NoError(t, err)

	*clock = start.Add(20 * time.Second)
	d2, err := s.Take(ctx, "k", 10, time.Minute)
	require.NoError(t, err)

	// The reset time is pinned to the window start, not the last hit.
	assert.Equal(t, d1.ResetUnix, d2.ResetUnix)
}

func TestMemoryStoreConservation(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, _ := clockedStore(t, start)
	ctx := context.Background()

	var allowed int
	for i := 0; i < 20; i++ {
		d, err := s.Take(ctx, "k", 5, time.Minute)
		require.NoError(t, err)
		if !d.Denied {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s, _ := clockedStore(t, start)
	ctx := context.Background()

	d, err := s.Take(ctx, "rate_limit:pairs:10.0.0.1", 1, time.Minute)
	require.NoError(t, err)
	require.False(t, d.Denied)

	d, err = s.Take(ctx, "rate_limit:pairs:10.0.0.1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, d.Denied)

	// A different client is untouched.
	d, err = s.Take(ctx, "rate_limit:pairs:10.0.0.2", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Denied)
}
