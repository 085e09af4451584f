package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "rl:"}, mr
}

func TestAllowCountsDownThenRejects(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	allowed, remaining, _, err := limiter.Allow(ctx, "quota", time.Second, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 1, remaining)

	allowed, remaining, _, err = limiter.Allow(ctx, "quota", time.Second, 2)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 0, remaining)

	allowed, remaining, _, err = limiter.Allow(ctx, "quota", time.Second, 2)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, 0, remaining)
}

func TestAllowWindowSlides(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()
	window := 2 * time.Second

	allowed, _, _, err := limiter.Allow(ctx, "quota", window, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "quota", window, 1)
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(window)

	allowed, _, _, err = limiter.Allow(ctx, "quota", window, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllowDisabledWithoutClient(t *testing.T) {
	limiter := Limiter{}
	allowed, _, _, err := limiter.Allow(context.Background(), "quota", time.Second, 5)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestAllowKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()

	allowed, _, _, err := limiter.Allow(ctx, "a", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, _, _, err = limiter.Allow(ctx, "b", time.Second, 1)
	require.NoError(t, err)
	require.True(t, allowed)
}
