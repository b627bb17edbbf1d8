package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/vat"
)

// FormatAmount renders an amount with two decimals, as written to the ledger.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(vat.Places)
}

// AmountEqual checks if two amounts are equal within tolerance.
func AmountEqual(a, b decimal.Decimal, tolerance decimal.Decimal) bool {
	diff := a.Sub(b).Abs()
	return diff.LessThanOrEqual(tolerance)
}

// signLike returns the absolute value of d carrying the sign of ref.
func signLike(d, ref decimal.Decimal) decimal.Decimal {
	if ref.IsNegative() {
		return d.Abs().Neg()
	}
	return d.Abs()
}
