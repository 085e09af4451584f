package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Target selects which lines a rule applies to.
type Target int

const (
	// TargetOrder applies the rule across every line in the cart.
	TargetOrder Target = iota
	// TargetProduct restricts the rule to a single product.
	TargetProduct
	// TargetCheapest applies the rule to one unit of the cheapest eligible line.
	TargetCheapest
	// TargetSelection restricts the rule to a resolved set of product/variant pairs.
	TargetSelection
)

// String returns the storage identifier for the target kind.
func (t Target) String() string {
	switch t {
	case TargetProduct:
		return "product"
	case TargetCheapest:
		return "cheapest"
	case TargetSelection:
		return "selection"
	default:
		return "order"
	}
}

// ParseTarget maps a storage identifier back to a Target. Unknown values
// resolve to TargetOrder.
func ParseTarget(s string) Target {
	switch s {
	case "product":
		return TargetProduct
	case "cheapest":
		return TargetCheapest
	case "selection":
		return TargetSelection
	default:
		return TargetOrder
	}
}

// Gift identifies the product (and optionally a specific variant) a rule
// gives away for free. A Nil VariantID matches any variant.
type Gift struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// Rule captures one discount rule as applied by the engine. AmountOff is
// expressed in AmountCurrency at the basis indicated by AmountTaxIncluded.
type Rule struct {
	ID                uuid.UUID
	Code              string
	Name              string
	PercentOff        decimal.Decimal
	AmountOff         decimal.Decimal
	AmountCurrency    string
	AmountTaxIncluded bool
	Target            Target
	TargetProductID   uuid.UUID
	ExcludeDiscounted bool
	FreeShipping      bool
	Gift              *Gift

	Active    bool
	ValidFrom *time.Time
	ValidTo   *time.Time
}

// HasPercent reports whether the rule carries a percentage component.
func (r Rule) HasPercent() bool {
	return r.PercentOff.IsPositive()
}

// HasAmount reports whether the rule carries an amount component.
func (r Rule) HasAmount() bool {
	return r.AmountOff.IsPositive()
}

// ValidAt reports whether the rule may be applied at the given instant.
func (r Rule) ValidAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return false
	}
	return true
}
