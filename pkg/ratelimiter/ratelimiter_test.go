package ratelimiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newBucket(t *testing.T, c *clock) *ratelimiter.Bucket {
	t.Helper()
	b, err := ratelimiter.NewBucket(
		ratelimiter.NewMemoryStore(ratelimiter.WithClock(c.Now)),
		ratelimiter.Config{Capacity: 5, RefillRate: 1, RefillInterval: 30 * time.Second},
	)
	require.NoError(t, err)
	return b
}

func TestBucket_ExhaustAndRefill(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	b := newBucket(t, c)

	for i := range 5 {
		res, err := b.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res, err := b.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, c.Now().Add(30*time.Second), res.RetryAt)

	// Denied calls do not push the refill further away.
	c.Advance(29 * time.Second)
	res, _ = b.Allow(ctx, "alice")
	assert.False(t, res.Allowed)

	c.Advance(time.Second)
	res, err = b.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestBucket_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBucket(t, &clock{now: time.Now()})

	for range 5 {
		_, _ = b.Allow(ctx, "alice")
	}
	res, err := b.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestBucket_FullRefillAfterIdle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := &clock{now: time.Now()}
	b := newBucket(t, c)

	for range 5 {
		_, _ = b.Allow(ctx, "alice")
	}
	c.Advance(24 * time.Hour)

	res, err := b.Status(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Remaining)
	assert.True(t, res.RetryAt.IsZero())
}

func TestBucket_Reset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBucket(t, &clock{now: time.Now()})

	for range 5 {
		_, _ = b.Allow(ctx, "alice")
	}
	require.NoError(t, b.Reset(ctx, "alice"))
	res, err := b.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 4, res.Remaining)
}

func TestBucket_AllowN(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBucket(t, &clock{now: time.Now()})

	_, err := b.AllowN(ctx, "alice", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)

	res, err := b.AllowN(ctx, "alice", 6)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 5, res.Remaining, "all or nothing")
}

func TestNewBucket_InvalidConfig(t *testing.T) {
	t.Parallel()
	store := ratelimiter.NewMemoryStore()

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(store, cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucket_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	b := newBucket(t, &clock{now: time.Now()})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := b.Allow(ctx, "alice")
			if err == nil && res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}
