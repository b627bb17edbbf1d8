package render

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	// DefaultCurrencyColumn is the column amounts are right-aligned to.
	DefaultCurrencyColumn = 52

	// MinimumSpacing separates an account from its amount when the account
	// is too long to align.
	MinimumSpacing = 2
)

// Beancount renders transactions as beancount entries without any template
// file:
//
//	2024-03-05 * "OFFICE SUPPLY CO"
//	  vat: 25.00 DKK
//	  Expenses:Office:Supplies                    125.00 DKK
//	  Assets:Bank:BankErhverv                    -125.00 DKK
type Beancount struct {
	CurrencyColumn int
}

// Option configures a Beancount renderer.
type Option func(*Beancount)

// WithCurrencyColumn sets the column amounts are aligned to.
func WithCurrencyColumn(col int) Option {
	return func(b *Beancount) {
		b.CurrencyColumn = col
	}
}

// NewBeancount creates a Beancount renderer.
func NewBeancount(opts ...Option) *Beancount {
	b := &Beancount{CurrencyColumn: DefaultCurrencyColumn}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render implements Renderer. The template id is ignored.
func (b *Beancount) Render(_ string, flat map[string]string) (string, error) {
	var buf strings.Builder

	buf.WriteString(flat["date"])
	buf.WriteString(" * ")
	buf.WriteString(quote(flat["narration"]))
	if extra := flat["extra_text"]; extra != "" && extra != flat["narration"] {
		buf.WriteByte(' ')
		buf.WriteString(quote(extra))
	}
	if link := flat["link"]; link != "" {
		buf.WriteString(" ^")
		buf.WriteString(link)
	}
	buf.WriteByte('\n')

	currency := flat["currency"]
	if v := flat["vat"]; v != "" && !isZero(v) {
		buf.WriteString("  vat: ")
		buf.WriteString(v)
		buf.WriteByte(' ')
		buf.WriteString(currency)
		buf.WriteByte('\n')
	}

	n, _ := strconv.Atoi(flat["postings"])
	for i := 1; i <= n; i++ {
		key := strconv.Itoa(i)
		buf.WriteString(b.Posting(flat["account"+key], flat["amount"+key], currency))
		buf.WriteByte('\n')
	}

	return buf.String(), nil
}

// Posting renders one indented posting line with the amount aligned to the
// currency column. Display width is measured per rune, so accounts with
// non-ASCII letters align like ASCII ones.
func (b *Beancount) Posting(account, amount, currency string) string {
	prefix := "  " + account

	padding := b.CurrencyColumn - runewidth.StringWidth(prefix) - len(amount)
	if padding < MinimumSpacing {
		padding = MinimumSpacing
	}

	return prefix + strings.Repeat(" ", padding) + amount + " " + currency
}

func quote(s string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range s {
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteRune(c)
		}
	}
	buf.WriteByte('"')
	return buf.String()
}

func isZero(amount string) bool {
	return strings.Trim(amount, "-0.") == ""
}
