// Package vat splits gross amounts into their net and VAT components using
// exact decimal arithmetic.
package vat

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places amounts are rounded to.
const Places = 2

// Tolerance is the largest rounding difference accepted between a split and
// the amount it was computed from: one hundredth of the currency unit.
var Tolerance = decimal.New(1, -Places)

// Split is a gross amount decomposed for VAT.
type Split struct {
	Gross     decimal.Decimal
	NonLiable decimal.Decimal // part of Gross not subject to VAT
	Net       decimal.Decimal // VAT-liable part excluding VAT
	VAT       decimal.Decimal
	Rate      decimal.Decimal
}

// Liable returns the VAT-liable part of the gross amount, VAT included.
func (s Split) Liable() decimal.Decimal {
	return s.Net.Add(s.VAT)
}

// Exclusive returns the gross amount without VAT.
func (s Split) Exclusive() decimal.Decimal {
	return s.Net.Add(s.NonLiable)
}

// Check verifies that the components add up to the gross amount and that the
// VAT matches the rate, both within Tolerance.
func (s Split) Check() error {
	if diff := s.Net.Add(s.VAT).Add(s.NonLiable).Sub(s.Gross).Abs(); diff.GreaterThan(Tolerance) {
		return fmt.Errorf("vat split of %s does not add up (off by %s)", s.Gross, diff)
	}
	if diff := s.Net.Mul(s.Rate).Sub(s.VAT).Abs(); diff.GreaterThan(Tolerance) {
		return fmt.Errorf("vat %s of net %s does not match rate %s", s.VAT, s.Net, s.Rate)
	}
	return nil
}

// Decompose splits gross, which includes VAT at rate on everything except
// nonLiable. Net is rounded to Places and VAT takes the remainder, so
// Net + VAT + NonLiable equals Gross exactly. Signs follow gross.
func Decompose(gross, rate, nonLiable decimal.Decimal) Split {
	liable := gross.Sub(nonLiable)
	net := liable.Div(decimal.NewFromInt(1).Add(rate)).Round(Places)

	return Split{
		Gross:     gross,
		NonLiable: nonLiable,
		Net:       net,
		VAT:       liable.Sub(net),
		Rate:      rate,
	}
}

// GrossUp adds VAT at rate to a net amount. VAT is rounded to Places.
func GrossUp(net, rate decimal.Decimal) Split {
	tax := net.Mul(rate).Round(Places)

	return Split{
		Gross:     net.Add(tax),
		NonLiable: decimal.Zero,
		Net:       net,
		VAT:       tax,
		Rate:      rate,
	}
}

// None returns the split of an amount that carries no VAT.
func None(gross decimal.Decimal) Split {
	return Split{
		Gross:     gross,
		NonLiable: gross,
		Net:       decimal.Zero,
		VAT:       decimal.Zero,
		Rate:      decimal.Zero,
	}
}
