package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/discount"
	"github.com/noah-isme/promo-engine/internal/events"
	"github.com/noah-isme/promo-engine/internal/money"
	"github.com/noah-isme/promo-engine/internal/obs"
)

// ErrInvalidInput is returned when the provided payload cannot form a session.
var ErrInvalidInput = errors.New("invalid input")

// ErrRuleInactive indicates a referenced rule exists but is not applicable now.
var ErrRuleInactive = errors.New("rule not active")

// RuleLoader resolves rule codes to full rules, preserving request order.
type RuleLoader interface {
	ListByCodes(ctx context.Context, codes []string) ([]discount.Rule, error)
}

// Service computes discount quotes: it builds a calculation session from a
// request, runs the proration engine over it and reports the outcomes.
type Service struct {
	Rules  RuleLoader
	Engine *discount.Engine
	Bus    *events.Bus
	Policy discount.Policy
	Now    func() time.Time
	Logger zerolog.Logger
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Request describes one cart to be quoted.
type Request struct {
	Currency  string        `json:"currency" validate:"required,len=3"`
	Lines     []LineInput   `json:"lines" validate:"required,min=1,dive"`
	Shipping  money.Amount  `json:"shipping"`
	RuleCodes []string      `json:"ruleCodes" validate:"dive,required"`
}

// LineInput is one cart row in a quote request.
type LineInput struct {
	ProductID       string       `json:"productId" validate:"required,uuid"`
	VariantID       string       `json:"variantId" validate:"omitempty,uuid"`
	CustomizationID string       `json:"customizationId" validate:"omitempty,uuid"`
	Qty             int          `json:"qty" validate:"min=0"`
	OnSale          bool         `json:"onSale"`
	UnitPrice       money.Amount `json:"unitPrice"`
}

// LineResult reports one line's totals before and after discounting.
type LineResult struct {
	ProductID    string       `json:"productId"`
	VariantID    string       `json:"variantId,omitempty"`
	Qty          int          `json:"qty"`
	InitialTotal money.Amount `json:"initialTotal"`
	FinalTotal   money.Amount `json:"finalTotal"`
}

// OutcomeResult reports the discounts one rule produced.
type OutcomeResult struct {
	Code    string         `json:"code"`
	Amounts []money.Amount `json:"amounts"`
	Total   money.Amount   `json:"total"`
}

// Result is a fully computed quote.
type Result struct {
	QuoteID          string          `json:"quoteId"`
	Currency         string          `json:"currency"`
	Lines            []LineResult    `json:"lines"`
	Outcomes         []OutcomeResult `json:"outcomes"`
	ItemsTotal       money.Amount    `json:"itemsTotal"`
	ShippingInitial  money.Amount    `json:"shippingInitial"`
	ShippingDiscount money.Amount    `json:"shippingDiscount"`
	Total            money.Amount    `json:"total"`
}

// Compute runs the proration engine over the requested cart. A failed rule
// application leaves the session partially discounted; the whole result is
// discarded, never an individual rule.
func (s *Service) Compute(ctx context.Context, req Request) (Result, error) {
	if s == nil || s.Engine == nil {
		return Result{}, errors.New("quote service not configured")
	}
	start := time.Now()

	lines, err := buildLines(req.Lines)
	if err != nil {
		return Result{}, err
	}

	var rules []discount.Rule
	if len(req.RuleCodes) > 0 {
		if s.Rules == nil {
			return Result{}, errors.New("quote service has no rule loader")
		}
		rules, err = s.Rules.ListByCodes(ctx, req.RuleCodes)
		if err != nil {
			return Result{}, fmt.Errorf("load rules: %w", err)
		}
		now := s.now()
		for _, rule := range rules {
			if !rule.ValidAt(now) {
				return Result{}, fmt.Errorf("%w: %s", ErrRuleInactive, rule.Code)
			}
		}
	}

	session := discount.NewSession(req.Currency, s.Policy, lines, req.Shipping, rules)
	if err := s.Engine.ApplyAll(ctx, session); err != nil {
		obs.CountQuote("error")
		return Result{}, err
	}
	for _, rule := range rules {
		obs.CountRuleApplied(rule.Target.String())
	}

	result := buildResult(req, session)
	obs.CountQuote("ok")
	obs.ObserveQuoteDuration(float64(time.Since(start)) / float64(time.Millisecond))
	granted, _ := totalGranted(result).Float64()
	obs.ObserveQuoteDiscount(granted)

	if s.Bus != nil {
		quoteID := uuid.MustParse(result.QuoteID)
		if _, err := s.Bus.Emit(ctx, events.TopicQuoteComputed, quoteID, result); err != nil {
			s.Logger.Warn().Err(err).Str("quote_id", result.QuoteID).Msg("emit quote event")
		}
	}
	return result, nil
}

func buildLines(inputs []LineInput) ([]*discount.Line, error) {
	lines := make([]*discount.Line, 0, len(inputs))
	for i, in := range inputs {
		productID, err := uuid.Parse(in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse product id: %w", i, ErrInvalidInput)
		}
		variantID, err := parseOptionalUUID(in.VariantID)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse variant id: %w", i, ErrInvalidInput)
		}
		customizationID, err := parseOptionalUUID(in.CustomizationID)
		if err != nil {
			return nil, fmt.Errorf("line %d: parse customization id: %w", i, ErrInvalidInput)
		}
		if in.Qty < 0 {
			return nil, fmt.Errorf("line %d: qty must not be negative: %w", i, ErrInvalidInput)
		}
		lines = append(lines, discount.NewLine(productID, variantID, customizationID, in.Qty, in.OnSale, in.UnitPrice))
	}
	return lines, nil
}

func parseOptionalUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(value)
}

func buildResult(req Request, session *discount.Session) Result {
	result := Result{
		QuoteID:          uuid.NewString(),
		Currency:         req.Currency,
		ItemsTotal:       session.ItemsTotal(),
		ShippingInitial:  session.Shipping.Initial,
		ShippingDiscount: session.Shipping.Discount,
		Total:            session.Total(),
	}
	for _, l := range session.Lines {
		lr := LineResult{
			ProductID:    l.ProductID.String(),
			Qty:          l.Qty,
			InitialTotal: l.InitialUnitPrice.MulInt(l.Qty),
			FinalTotal:   l.Total,
		}
		if l.VariantID != uuid.Nil {
			lr.VariantID = l.VariantID.String()
		}
		result.Lines = append(result.Lines, lr)
	}
	for _, o := range session.Outcomes() {
		result.Outcomes = append(result.Outcomes, OutcomeResult{
			Code:    o.Code,
			Amounts: o.Amounts,
			Total:   o.Total(),
		})
	}
	return result
}

func totalGranted(result Result) decimal.Decimal {
	total := decimal.Zero
	for _, o := range result.Outcomes {
		total = total.Add(o.Total.TaxIncl)
	}
	return total
}
