package rates

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownCurrency indicates no rate is stored for the requested currency.
var ErrUnknownCurrency = errors.New("rates: unknown currency")

// Source resolves a currency's conversion rate relative to the base currency.
type Source interface {
	RateToBase(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Static serves rates from an in-memory table. Useful for tests and seeded
// single-currency deployments.
type Static map[string]decimal.Decimal

// RateToBase implements Source.
func (s Static) RateToBase(_ context.Context, currency string) (decimal.Decimal, error) {
	rate, ok := s[strings.ToUpper(strings.TrimSpace(currency))]
	if !ok {
		return decimal.Zero, ErrUnknownCurrency
	}
	return rate, nil
}
