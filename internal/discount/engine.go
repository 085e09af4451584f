package discount

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/promo-engine/internal/money"
)

// RateSource resolves a currency's conversion rate relative to the base
// currency. Lookup failures propagate to the caller unchanged.
type RateSource interface {
	RateToBase(ctx context.Context, currency string) (decimal.Decimal, error)
}

// SelectionRef is one entry of a resolved product selection. A Nil VariantID
// matches every variant of the product.
type SelectionRef struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// SelectionResolver resolves a selection-targeted rule against the current
// cart contents.
type SelectionResolver interface {
	Resolve(ctx context.Context, rule Rule, lines []*Line) ([]SelectionRef, error)
}

// StaticSelection is an in-memory SelectionResolver keyed by rule ID.
type StaticSelection map[uuid.UUID][]SelectionRef

// Resolve implements SelectionResolver.
func (s StaticSelection) Resolve(_ context.Context, rule Rule, _ []*Line) ([]SelectionRef, error) {
	return s[rule.ID], nil
}

// Engine applies an ordered list of rules to a calculation session. It holds
// no per-session state; one session is processed by one caller at a time.
type Engine struct {
	Rates        RateSource
	Selections   SelectionResolver
	Interceptors []Interceptor
}

// ApplyAll applies every rule in session order, including shipping effects.
// If rule N fails, rules 1..N-1 remain applied; the caller discards the
// whole session rather than rolling back.
func (e *Engine) ApplyAll(ctx context.Context, s *Session) error {
	for _, rule := range s.Rules {
		if err := e.ApplyOne(ctx, s, rule, true); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAllExceptShipping applies every rule without ever touching the
// shipping fees. Used to compute a shipping-free baseline before free
// shipping rules are prorated.
func (e *Engine) ApplyAllExceptShipping(ctx context.Context, s *Session) error {
	for _, rule := range s.Rules {
		if err := e.ApplyOne(ctx, s, rule, false); err != nil {
			return err
		}
	}
	return nil
}

// ApplyOne applies a single rule to the session. Calling it twice for the
// same rule double-discounts; the engine does not guard against reapplication.
func (e *Engine) ApplyOne(ctx context.Context, s *Session, rule Rule, includeShipping bool) error {
	for _, ic := range e.Interceptors {
		if ic == nil {
			continue
		}
		handled, err := ic.TryApply(ctx, rule, s, includeShipping)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	// Order-level percent rules bypass per-line proration entirely under the
	// order-level policy: one lump sum over products plus initial shipping.
	if s.Policy == PolicyOrderLevel && rule.Target == TargetOrder && rule.HasPercent() {
		base := s.ItemsTotal().Add(s.Shipping.Initial)
		s.Outcome(rule).Record(base.Percent(rule.PercentOff))
		return nil
	}

	if rule.FreeShipping && includeShipping {
		applied := s.Shipping.ApplyDiscount(s.Shipping.Remaining())
		s.Outcome(rule).Record(applied)
	}

	if rule.Gift != nil {
		e.applyGift(s, rule)
	}

	if rule.HasPercent() {
		if err := e.applyPercent(ctx, s, rule); err != nil {
			return err
		}
	}

	if rule.HasAmount() {
		if err := e.applyAmount(ctx, s, rule, includeShipping); err != nil {
			return err
		}
	}

	return nil
}

// applyGift zeroes out one unit of the gifted product. Customized lines are
// never eligible.
func (e *Engine) applyGift(s *Session, rule Rule) {
	for _, l := range s.Lines {
		if l.CustomizationID != uuid.Nil {
			continue
		}
		if !l.Matches(rule.Gift.ProductID, rule.Gift.VariantID) {
			continue
		}
		applied := l.ApplyFlatDiscount(l.InitialUnitPrice)
		s.Outcome(rule).Record(applied)
		return
	}
}

func (e *Engine) applyPercent(ctx context.Context, s *Session, rule Rule) error {
	switch rule.Target {
	case TargetOrder:
		out := s.Outcome(rule)
		for _, l := range s.Lines {
			if l.Qty == 0 {
				// Out-of-stock lines keep an explicit zero entry in the outcome.
				out.Record(money.Zero)
				continue
			}
			if rule.ExcludeDiscounted && l.OnSale {
				continue
			}
			out.Record(l.ApplyFlatDiscount(l.Total.Percent(rule.PercentOff)))
		}

	case TargetProduct:
		for _, l := range s.Lines {
			if l.ProductID != rule.TargetProductID {
				continue
			}
			s.Outcome(rule).Record(l.ApplyFlatDiscount(l.Total.Percent(rule.PercentOff)))
		}

	case TargetCheapest:
		var cheapest *Line
		for _, l := range s.Lines {
			if l.Qty <= 0 {
				continue
			}
			if rule.ExcludeDiscounted && l.OnSale {
				continue
			}
			// First line with the strictly lowest tax-included unit price wins.
			if cheapest == nil || l.InitialUnitPrice.TaxIncl.LessThan(cheapest.InitialUnitPrice.TaxIncl) {
				cheapest = l
			}
		}
		if cheapest != nil {
			// One unit, computed from the initial unit price rather than the
			// running total, applied as a flat discount.
			flat := cheapest.InitialUnitPrice.Percent(rule.PercentOff)
			s.Outcome(rule).Record(cheapest.ApplyFlatDiscount(flat))
		}

	case TargetSelection:
		if e.Selections == nil {
			return nil
		}
		refs, err := e.Selections.Resolve(ctx, rule, s.Lines)
		if err != nil {
			return err
		}
		for _, l := range s.Lines {
			if rule.ExcludeDiscounted && l.OnSale {
				continue
			}
			if !selectionContains(refs, l) {
				continue
			}
			s.Outcome(rule).Record(l.ApplyFlatDiscount(l.Total.Percent(rule.PercentOff)))
		}
	}
	return nil
}

// applyAmount distributes a fixed amount across the concerned lines in
// proportion to their running totals, then routes any remainder to shipping
// under the order-level policy.
func (e *Engine) applyAmount(ctx context.Context, s *Session, rule Rule, includeShipping bool) error {
	var concerned []*Line
	switch rule.Target {
	case TargetOrder:
		concerned = s.Lines
	case TargetProduct:
		for _, l := range s.Lines {
			if l.ProductID == rule.TargetProductID {
				concerned = append(concerned, l)
			}
		}
	default:
		// Amount discounts are intentionally disabled for cheapest/selection targets.
		return nil
	}
	if len(concerned) == 0 {
		return nil
	}

	requested, err := e.convert(ctx, rule.AmountOff, rule.AmountCurrency, s.Currency)
	if err != nil {
		return err
	}

	total := money.Zero
	for _, l := range concerned {
		total = total.Add(l.Total)
	}
	basisTotal := total.Basis(rule.AmountTaxIncluded)

	// The distributed discount never exceeds the concerned total, but the
	// uncapped requested value survives for the shipping remainder below.
	capped := decimal.Min(requested, basisTotal)

	out := s.Outcome(rule)
	if basisTotal.IsPositive() && capped.IsPositive() {
		for _, l := range concerned {
			lineBasis := l.Total.Basis(rule.AmountTaxIncluded)
			if !lineBasis.IsPositive() {
				continue
			}
			share := capped.Mul(lineBasis).Div(basisTotal)
			amount := money.FromBasis(share, rule.AmountTaxIncluded, l.Total.TaxRate())
			out.Record(l.ApplyFlatDiscount(amount))
		}
	}

	if s.Policy == PolicyOrderLevel && rule.Target == TargetOrder && includeShipping {
		remainder := requested.Sub(basisTotal)
		if remainder.IsPositive() {
			// The complementary basis comes from the shipping fee's own
			// implied rate, not from whichever line happened to iterate last.
			amount := money.FromBasis(remainder, rule.AmountTaxIncluded, s.Shipping.Initial.TaxRate())
			applied := s.Shipping.ApplyDiscount(amount)
			if !applied.IsZero() {
				out.Record(applied)
			}
		}
	}

	return nil
}

// convert applies the linear two-step conversion between currencies. A zero
// source rate silently yields a zero value.
func (e *Engine) convert(ctx context.Context, value decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == "" || from == to || e.Rates == nil {
		return value, nil
	}
	src, err := e.Rates.RateToBase(ctx, from)
	if err != nil {
		return decimal.Zero, err
	}
	if src.IsZero() {
		return decimal.Zero, nil
	}
	dst, err := e.Rates.RateToBase(ctx, to)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Div(src).Mul(dst), nil
}

func selectionContains(refs []SelectionRef, l *Line) bool {
	for _, ref := range refs {
		if ref.ProductID != l.ProductID {
			continue
		}
		if ref.VariantID == uuid.Nil || ref.VariantID == l.VariantID {
			return true
		}
	}
	return false
}
