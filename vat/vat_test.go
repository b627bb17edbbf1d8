package vat

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name      string
		gross     string
		rate      string
		nonLiable string
		net       string
		vat       string
	}{
		{"standard rate", "125.00", "0.25", "0", "100.00", "25.00"},
		{"negative gross", "-125.00", "0.25", "0", "-100.00", "-25.00"},
		{"non liable part", "145.00", "0.25", "20.00", "100.00", "25.00"},
		{"rounding", "100.00", "0.25", "0", "80.00", "20.00"},
		{"odd cents", "99.99", "0.25", "0", "79.99", "20.00"},
		{"zero rate", "50.00", "0", "0", "50.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Decompose(d(tt.gross), d(tt.rate), d(tt.nonLiable))
			assert.True(t, s.Net.Equal(d(tt.net)), "net %s", s.Net)
			assert.True(t, s.VAT.Equal(d(tt.vat)), "vat %s", s.VAT)
			assert.True(t, s.Net.Add(s.VAT).Add(s.NonLiable).Equal(s.Gross))
			assert.NoError(t, s.Check())
		})
	}
}

func TestDecomposeManyAmountsAddUp(t *testing.T) {
	rate := d("0.25")
	for cents := int64(1); cents < 5000; cents += 37 {
		gross := decimal.New(cents, -2)
		s := Decompose(gross, rate, decimal.Zero)
		assert.NoError(t, s.Check(), "gross %s", gross)
		assert.True(t, s.Liable().Equal(gross))
	}
}

func TestGrossUp(t *testing.T) {
	s := GrossUp(d("1000.00"), d("0.25"))
	assert.True(t, s.VAT.Equal(d("250")))
	assert.True(t, s.Gross.Equal(d("1250")))
	assert.NoError(t, s.Check())

	s = GrossUp(d("33.33"), d("0.25"))
	assert.True(t, s.VAT.Equal(d("8.33")))
	assert.True(t, s.Gross.Equal(d("41.66")))
}

func TestNone(t *testing.T) {
	s := None(d("-40"))
	assert.True(t, s.VAT.IsZero())
	assert.True(t, s.Exclusive().Equal(d("-40")))
	assert.NoError(t, s.Check())
}

func TestCheckDetectsBrokenSplit(t *testing.T) {
	s := Split{Gross: d("125"), Net: d("100"), VAT: d("20"), Rate: d("0.25")}
	assert.Error(t, s.Check())
}
