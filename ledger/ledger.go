// Package ledger builds balanced double-entry transactions from classified bank
// statement lines, time-billing lines and payroll runs, and accumulates the
// chart of accounts they reference.
//
// The builder validates that:
//   - Every transaction balances to zero within one hundredth of the currency unit
//   - Every VAT split adds up to the amount it was computed from
//   - Every posting account starts with a known root (Assets, Liabilities, ...)
//
// Classification problems (unmatched descriptions, unknown accounts, missing
// templates or prices) are collected across all records of a run and returned
// together as *ClassificationErrors; no transactions are returned in that case.
// Invariant violations are returned immediately.
//
// Example usage:
//
//	b := ledger.NewBuilder(cfg, classifier, templates, prices)
//	result, err := b.Build(ctx, ledger.Input{Bank: records})
//	if err != nil {
//	    var cerr *ledger.ClassificationErrors
//	    if errors.As(err, &cerr) {
//	        for _, e := range cerr.Errors {
//	            fmt.Println(e)
//	        }
//	    }
//	}
package ledger

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/vat"
)

// Leg tells which step of a bank record a transaction books.
type Leg string

const (
	// LegBooked books an expense or income against a clearing account.
	LegBooked Leg = "booked"
	// LegPaid settles an amount against the bank account.
	LegPaid Leg = "paid"
	// LegInvoice books a billing record.
	LegInvoice Leg = "invoice"
	// LegPayroll books one payroll component.
	LegPayroll Leg = "payroll"
	// LegClosing moves VAT balances into the payable VAT account.
	LegClosing Leg = "closing"
)

// Posting is one signed amount applied to one account.
type Posting struct {
	Account string
	Amount  decimal.Decimal
}

// Transaction is a balanced set of two or three postings. It is immutable once
// built; accessors return copies.
type Transaction struct {
	date       time.Time
	narration  string
	extraText  string
	templateID string
	leg        Leg
	link       string
	postings   []Posting
	split      vat.Split
}

// Date returns the posting date.
func (t *Transaction) Date() time.Time { return t.date }

// Narration returns the transaction text.
func (t *Transaction) Narration() string { return t.narration }

// ExtraText returns the secondary text.
func (t *Transaction) ExtraText() string { return t.extraText }

// TemplateID returns the identifier of the render template.
func (t *Transaction) TemplateID() string { return t.templateID }

// Leg returns which step of its record the transaction books.
func (t *Transaction) Leg() Leg { return t.leg }

// Link returns the id shared by the legs of one bank record, if any.
func (t *Transaction) Link() string { return t.link }

// VAT returns the VAT split attached to the transaction. The rate is zero
// when no VAT applies.
func (t *Transaction) VAT() vat.Split { return t.split }

// Postings returns a copy of the postings in order.
func (t *Transaction) Postings() []Posting {
	out := make([]Posting, len(t.postings))
	copy(out, t.postings)
	return out
}

// Accounts returns the posting accounts in order.
func (t *Transaction) Accounts() []string {
	accounts := make([]string, len(t.postings))
	for i, p := range t.postings {
		accounts[i] = p.Account
	}
	return accounts
}

// Residual returns the sum of all posting amounts.
func (t *Transaction) Residual() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range t.postings {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Flat returns the key/value view handed to the render collaborator.
//
// Keys: date, narration, extra_text, template, leg, link, currency, postings,
// account1..accountN, amount1..amountN, amount1_negated.., gross, net,
// vat_free, vat, vat_negated, vat_rate, vat_pct.
func (t *Transaction) Flat(currency string) map[string]string {
	flat := map[string]string{
		"date":        t.date.Format("2006-01-02"),
		"narration":   t.narration,
		"extra_text":  t.extraText,
		"template":    t.templateID,
		"leg":         string(t.leg),
		"link":        t.link,
		"currency":    currency,
		"postings":    strconv.Itoa(len(t.postings)),
		"gross":       FormatAmount(t.split.Gross),
		"net":         FormatAmount(t.split.Net),
		"vat_free":    FormatAmount(t.split.NonLiable),
		"vat":         FormatAmount(t.split.VAT),
		"vat_negated": FormatAmount(t.split.VAT.Neg()),
		"vat_rate":    t.split.Rate.String(),
		"vat_pct":     t.split.Rate.Shift(2).String(),
	}

	for i, p := range t.postings {
		n := strconv.Itoa(i + 1)
		flat["account"+n] = p.Account
		flat["amount"+n] = FormatAmount(p.Amount)
		flat["amount"+n+"_negated"] = FormatAmount(p.Amount.Neg())
	}

	return flat
}
