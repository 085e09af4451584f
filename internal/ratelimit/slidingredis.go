package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window counter over a Redis sorted set. Each request
// becomes a member scored by its arrival time; expired members are pruned on
// every check, so the window slides continuously rather than in fixed buckets.
type Limiter struct {
	Client *redis.Client
	Prefix string

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records one request under key and reports whether the window still has
// room. A nil client or non-positive limit disables limiting entirely.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := l.now()
	reset = now.Add(window)
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, reset, nil
	}

	bucket := l.Prefix + key
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)
	entry := redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	}

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", cutoff)
	pipe.ZAdd(ctx, bucket, entry)
	count := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}

	used := int(count.Val())
	remaining = max - used
	if remaining < 0 {
		remaining = 0
	}
	return used <= max, remaining, reset, nil
}
