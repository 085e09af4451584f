// Command seeder loads a baseline set of currency rates and sample discount
// rules into the database. Intended for local development and demos.
package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/config"
	"github.com/noah-isme/promo-engine/internal/discount"
	"github.com/noah-isme/promo-engine/internal/obs"
	"github.com/noah-isme/promo-engine/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", "info")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	ratesRepo := repo.Rates{DB: pool}
	seedRates := map[string]string{
		cfg.BaseCurrency: "1",
		"EUR":            "1.08",
		"GBP":            "1.27",
		"IDR":            "0.000061",
	}
	for code, rate := range seedRates {
		if err := ratesRepo.UpsertRate(ctx, code, decimal.RequireFromString(rate)); err != nil {
			logger.Fatal().Err(err).Str("currency", code).Msg("seed rate")
		}
		logger.Info().Str("currency", code).Str("rate", rate).Msg("rate seeded")
	}

	rulesRepo := repo.Rules{DB: pool}
	samples := []discount.Rule{
		{
			Code:       "WELCOME10",
			Name:       "10% off the whole order",
			PercentOff: decimal.RequireFromString("10"),
			Target:     discount.TargetOrder,
			Active:     true,
		},
		{
			Code:              "CHEAPFREE",
			Name:              "Cheapest item free",
			PercentOff:        decimal.RequireFromString("100"),
			Target:            discount.TargetCheapest,
			ExcludeDiscounted: true,
			Active:            true,
		},
		{
			Code:           "5OFF",
			Name:           "Five off, shipping included",
			AmountOff:      decimal.RequireFromString("5"),
			AmountCurrency: cfg.BaseCurrency,
			Target:         discount.TargetOrder,
			Active:         true,
		},
		{
			Code:         "SHIPFREE",
			Name:         "Free shipping",
			FreeShipping: true,
			Active:       true,
		},
	}
	for _, rule := range samples {
		created, err := rulesRepo.Create(ctx, rule)
		if err != nil {
			logger.Warn().Err(err).Str("code", rule.Code).Msg("seed rule skipped")
			continue
		}
		logger.Info().Str("code", created.Code).Str("id", created.ID.String()).Msg("rule seeded")
	}
}
