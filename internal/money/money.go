package money

import "github.com/shopspring/decimal"

// Amount carries a monetary value at both tax bases. Values are immutable;
// arithmetic returns new instances.
type Amount struct {
	TaxIncl decimal.Decimal `json:"taxIncl"`
	TaxExcl decimal.Decimal `json:"taxExcl"`
}

// Zero is the additive identity at both bases.
var Zero = Amount{}

// New builds an amount from both tax bases.
func New(taxIncl, taxExcl decimal.Decimal) Amount {
	return Amount{TaxIncl: taxIncl, TaxExcl: taxExcl}
}

// FromStrings parses both bases. It panics on malformed input and is meant
// for fixtures and seeds, not request handling.
func FromStrings(taxIncl, taxExcl string) Amount {
	return Amount{
		TaxIncl: decimal.RequireFromString(taxIncl),
		TaxExcl: decimal.RequireFromString(taxExcl),
	}
}

// FromBasis builds an amount from a single-basis value, deriving the
// complementary basis from the supplied tax rate.
func FromBasis(value decimal.Decimal, taxIncluded bool, rate decimal.Decimal) Amount {
	factor := decimal.NewFromInt(1).Add(rate)
	if taxIncluded {
		excl := value
		if factor.IsPositive() {
			excl = value.Div(factor)
		}
		return Amount{TaxIncl: value, TaxExcl: excl}
	}
	return Amount{TaxIncl: value.Mul(factor), TaxExcl: value}
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{TaxIncl: a.TaxIncl.Add(b.TaxIncl), TaxExcl: a.TaxExcl.Add(b.TaxExcl)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{TaxIncl: a.TaxIncl.Sub(b.TaxIncl), TaxExcl: a.TaxExcl.Sub(b.TaxExcl)}
}

// Min returns the basis-wise minimum of a and b.
func (a Amount) Min(b Amount) Amount {
	return Amount{
		TaxIncl: decimal.Min(a.TaxIncl, b.TaxIncl),
		TaxExcl: decimal.Min(a.TaxExcl, b.TaxExcl),
	}
}

// MulInt scales both bases by an integer quantity.
func (a Amount) MulInt(n int) Amount {
	factor := decimal.NewFromInt(int64(n))
	return Amount{TaxIncl: a.TaxIncl.Mul(factor), TaxExcl: a.TaxExcl.Mul(factor)}
}

// Percent returns pct percent of the amount at both bases.
func (a Amount) Percent(pct decimal.Decimal) Amount {
	hundred := decimal.NewFromInt(100)
	return Amount{
		TaxIncl: a.TaxIncl.Mul(pct).Div(hundred),
		TaxExcl: a.TaxExcl.Mul(pct).Div(hundred),
	}
}

// Basis selects one of the two bases.
func (a Amount) Basis(taxIncluded bool) decimal.Decimal {
	if taxIncluded {
		return a.TaxIncl
	}
	return a.TaxExcl
}

// TaxRate derives the rate implied by the two bases. A non-positive
// tax-excluded value yields a zero rate rather than an error.
func (a Amount) TaxRate() decimal.Decimal {
	if !a.TaxExcl.IsPositive() {
		return decimal.Zero
	}
	return a.TaxIncl.Sub(a.TaxExcl).Div(a.TaxExcl)
}

// IsZero reports whether both bases are zero.
func (a Amount) IsZero() bool {
	return a.TaxIncl.IsZero() && a.TaxExcl.IsZero()
}

// Equal reports basis-wise equality.
func (a Amount) Equal(b Amount) bool {
	return a.TaxIncl.Equal(b.TaxIncl) && a.TaxExcl.Equal(b.TaxExcl)
}
