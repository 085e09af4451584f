package rates

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cached layers a Redis cache over a slower Source. Rates are stored as
// decimal strings; a cache failure falls through to the source rather than
// failing the lookup.
type Cached struct {
	Client *redis.Client
	Source Source
	TTL    time.Duration
	Prefix string
}

func (c *Cached) key(currency string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "rates:"
	}
	return prefix + strings.ToUpper(strings.TrimSpace(currency))
}

// RateToBase implements Source.
func (c *Cached) RateToBase(ctx context.Context, currency string) (decimal.Decimal, error) {
	if c == nil || c.Source == nil {
		return decimal.Zero, ErrUnknownCurrency
	}
	if c.Client != nil {
		cached, err := c.Client.Get(ctx, c.key(currency)).Result()
		if err == nil {
			if rate, parseErr := decimal.NewFromString(cached); parseErr == nil {
				return rate, nil
			}
		}
	}
	rate, err := c.Source.RateToBase(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}
	if c.Client != nil {
		ttl := c.TTL
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		_ = c.Client.Set(ctx, c.key(currency), rate.String(), ttl).Err()
	}
	return rate, nil
}
