package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a locale formatted amount such as "-1.234,56" into a
// decimal. thousandsSep is stripped and the remaining separator of '.' and ','
// is treated as the decimal separator.
func ParseAmount(value string, thousandsSep rune) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	decimalSep := ","
	if thousandsSep == ',' {
		decimalSep = "."
	}

	s = strings.ReplaceAll(s, string(thousandsSep), "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.Replace(s, decimalSep, ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", value, err)
	}

	return d, nil
}

// parseNumber parses a plain number that may use either '.' or ',' as the
// decimal separator and has no thousands grouping (hours, prices).
func parseNumber(value string) (decimal.Decimal, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.Replace(s, ",", ".", 1)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q: %w", value, err)
	}
	return d, nil
}

func parseDate(value, layout string) (time.Time, error) {
	t, err := time.Parse(layout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (layout %s)", value, layout)
	}
	return t, nil
}
