package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/rates"
)

// Rates reads currency conversion rates. Implements rates.Source.
type Rates struct {
	DB DB
}

// RateToBase returns the stored rate-to-base for a currency code.
func (r Rates) RateToBase(ctx context.Context, currency string) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	var text string
	err := r.DB.QueryRow(ctx, `SELECT rate_to_base::text FROM currency_rates WHERE code = $1`, code).Scan(&text)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %s", rates.ErrUnknownCurrency, code)
		}
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate_to_base: %w", err)
	}
	return rate, nil
}

// UpsertRate stores or replaces a currency rate. Used by the seeder.
func (r Rates) UpsertRate(ctx context.Context, currency string, rate decimal.Decimal) error {
	code := strings.ToUpper(strings.TrimSpace(currency))
	_, err := r.DB.Exec(ctx, `
		INSERT INTO currency_rates (code, rate_to_base) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET rate_to_base = EXCLUDED.rate_to_base, updated_at = now()`,
		code, rate.String())
	return err
}
