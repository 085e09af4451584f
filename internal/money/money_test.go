package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTaxRate(t *testing.T) {
	a := FromStrings("12.00", "10.00")
	if !a.TaxRate().Equal(decimal.RequireFromString("0.2")) {
		t.Fatalf("expected implied rate 0.2, got %s", a.TaxRate())
	}
}

func TestTaxRateZeroExcluded(t *testing.T) {
	a := FromStrings("5.00", "0.00")
	if !a.TaxRate().IsZero() {
		t.Fatalf("expected zero rate for zero tax-excluded basis, got %s", a.TaxRate())
	}
}

func TestFromBasisRoundTrip(t *testing.T) {
	rate := decimal.RequireFromString("0.2")
	a := FromBasis(decimal.RequireFromString("6.00"), false, rate)
	if !a.TaxIncl.Equal(decimal.RequireFromString("7.2")) {
		t.Fatalf("expected 7.2 tax included, got %s", a.TaxIncl)
	}
	b := FromBasis(decimal.RequireFromString("7.2"), true, rate)
	if !b.TaxExcl.Equal(decimal.RequireFromString("6")) {
		t.Fatalf("expected 6 tax excluded, got %s", b.TaxExcl)
	}
}

func TestPercent(t *testing.T) {
	a := FromStrings("20.00", "16.00")
	got := a.Percent(decimal.NewFromInt(10))
	want := FromStrings("2.00", "1.60")
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMinAndArithmetic(t *testing.T) {
	a := FromStrings("10.00", "8.00")
	b := FromStrings("6.00", "9.00")
	min := a.Min(b)
	if !min.TaxIncl.Equal(decimal.RequireFromString("6.00")) || !min.TaxExcl.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("unexpected basis-wise min: %v", min)
	}
	if !a.Sub(a).IsZero() {
		t.Fatal("a - a should be zero")
	}
	if !a.Add(Zero).Equal(a) {
		t.Fatal("a + 0 should equal a")
	}
	if !a.MulInt(3).TaxExcl.Equal(decimal.RequireFromString("24.00")) {
		t.Fatalf("unexpected MulInt result: %v", a.MulInt(3))
	}
}
