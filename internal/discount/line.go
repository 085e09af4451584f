package discount

import (
	"github.com/google/uuid"

	"github.com/noah-isme/promo-engine/internal/money"
)

// Line is one cart row for the duration of a calculation pass.
// InitialUnitPrice is a snapshot taken before any rule runs; Total is the
// running line total that later rules observe already discounted.
type Line struct {
	ProductID        uuid.UUID
	VariantID        uuid.UUID
	CustomizationID  uuid.UUID
	Qty              int
	OnSale           bool
	InitialUnitPrice money.Amount
	Total            money.Amount
}

// NewLine initialises the running total from the unit price snapshot.
func NewLine(productID, variantID, customizationID uuid.UUID, qty int, onSale bool, unitPrice money.Amount) *Line {
	return &Line{
		ProductID:        productID,
		VariantID:        variantID,
		CustomizationID:  customizationID,
		Qty:              qty,
		OnSale:           onSale,
		InitialUnitPrice: unitPrice,
		Total:            unitPrice.MulInt(qty),
	}
}

// ApplyFlatDiscount subtracts the amount from the running total, clamping at
// zero per basis, and returns the amount actually applied. The running total
// never increases during a pass.
func (l *Line) ApplyFlatDiscount(amount money.Amount) money.Amount {
	applied := amount.Min(l.Total)
	if applied.TaxIncl.IsNegative() || applied.TaxExcl.IsNegative() {
		return money.Zero
	}
	l.Total = l.Total.Sub(applied)
	return applied
}

// Matches reports whether the line belongs to the given product, and to the
// given variant when one is specified.
func (l *Line) Matches(productID, variantID uuid.UUID) bool {
	if l.ProductID != productID {
		return false
	}
	if variantID == uuid.Nil {
		return true
	}
	return l.VariantID == variantID
}

// Shipping tracks the shipping fee and the cumulative shipping discount for
// one calculation pass.
type Shipping struct {
	Initial  money.Amount
	Discount money.Amount
}

// Remaining returns the shipping fee still payable.
func (s *Shipping) Remaining() money.Amount {
	return s.Initial.Sub(s.Discount)
}

// ApplyDiscount increases the cumulative shipping discount, capped at the
// remaining fee, and returns the amount actually applied.
func (s *Shipping) ApplyDiscount(amount money.Amount) money.Amount {
	applied := amount.Min(s.Remaining())
	if applied.TaxIncl.IsNegative() || applied.TaxExcl.IsNegative() {
		return money.Zero
	}
	s.Discount = s.Discount.Add(applied)
	return applied
}
