package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BankRecord is one line of a bank statement.
type BankRecord struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Total       decimal.Decimal
	Line        int
}

// DirectoryEntry maps an account token to its account group.
type DirectoryEntry struct {
	Token string
	Group string
}

// Path returns the full hierarchical account path.
func (e DirectoryEntry) Path() string {
	return e.Group + ":" + e.Token
}

// PatternRule selects Token when Pattern matches a description.
type PatternRule struct {
	Pattern string
	Token   string
	Line    int
}

// TemplateRow describes how records of an account group are posted.
type TemplateRow struct {
	GroupKey   string
	TemplateID string
	Accounts   [3]string // secondary account slots 2, 3 and 4
	Postings   int
	VAT        bool
}

// PricePoint is a unit price effective from a date.
type PricePoint struct {
	Token     string
	PriceType string
	Effective time.Time
	Price     decimal.Decimal
}

// BillingRecord is one line of the time-billing log.
type BillingRecord struct {
	Token        string
	Date         time.Time
	Text         string
	Hours        decimal.Decimal
	SupportHours decimal.Decimal
	Line         int
}

// AccountOverride pins the account of a bank record identified by date and
// description, bypassing pattern matching.
type AccountOverride struct {
	Date        time.Time
	Description string
	Token       string
	VATFree     decimal.Decimal
}

// PayrollRecord is one payroll run.
type PayrollRecord struct {
	Date           time.Time
	PeriodText     string
	Payout         decimal.Decimal
	ATP            decimal.Decimal
	ATax           decimal.Decimal
	AMContribution decimal.Decimal
	Fee            decimal.Decimal
}

// BankRecords loads a bank statement in file order.
func (r *Reader) BankRecords(filename string) ([]BankRecord, error) {
	rows, err := r.readRows(filename, 5)
	if err != nil {
		return nil, err
	}

	records := make([]BankRecord, 0, len(rows))
	for _, rw := range rows {
		date, err := parseDate(rw.field(0), r.bankDateLayout)
		if err != nil {
			return nil, rw.errorf("%v", err)
		}
		amount, err := ParseAmount(rw.field(3), r.thousandsSeparator)
		if err != nil {
			return nil, rw.errorf("amount: %v", err)
		}
		total, err := ParseAmount(rw.field(4), r.thousandsSeparator)
		if err != nil {
			return nil, rw.errorf("running total: %v", err)
		}

		records = append(records, BankRecord{
			Date:        date,
			Description: rw.field(2),
			Amount:      amount,
			Total:       total,
			Line:        rw.line,
		})
	}

	return records, nil
}

// Directory loads the account directory.
func (r *Reader) Directory(filename string) ([]DirectoryEntry, error) {
	rows, err := r.readRows(filename, 2)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(rows))
	for _, rw := range rows {
		e := DirectoryEntry{Token: rw.field(0), Group: rw.field(1)}
		if e.Token == "" || e.Group == "" {
			return nil, rw.errorf("account token and group are required")
		}
		if strings.Contains(e.Token, ":") {
			return nil, rw.errorf("account token %q must not contain ':'", e.Token)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// PatternRules loads the account pattern rules in configuration order.
func (r *Reader) PatternRules(filename string) ([]PatternRule, error) {
	rows, err := r.readRows(filename, 2)
	if err != nil {
		return nil, err
	}

	rules := make([]PatternRule, 0, len(rows))
	for _, rw := range rows {
		rule := PatternRule{Pattern: rw.field(0), Token: rw.field(1), Line: rw.line}
		if rule.Pattern == "" || rule.Token == "" {
			return nil, rw.errorf("pattern and account token are required")
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// Templates loads the transaction template table.
func (r *Reader) Templates(filename string) ([]TemplateRow, error) {
	rows, err := r.readRows(filename, 2)
	if err != nil {
		return nil, err
	}

	templates := make([]TemplateRow, 0, len(rows))
	for _, rw := range rows {
		t := TemplateRow{
			GroupKey:   rw.field(0),
			TemplateID: rw.field(1),
			Accounts:   [3]string{rw.field(2), rw.field(3), rw.field(4)},
			Postings:   2,
		}
		if t.TemplateID == "" {
			return nil, rw.errorf("template id is required")
		}

		if s := rw.field(5); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || (n != 2 && n != 3) {
				return nil, rw.errorf("posting count must be 2 or 3, got %q", s)
			}
			t.Postings = n
		}

		vat, err := parseFlag(rw.field(6))
		if err != nil {
			return nil, rw.errorf("vat flag: %v", err)
		}
		t.VAT = vat

		templates = append(templates, t)
	}

	return templates, nil
}

// Prices loads the price table.
func (r *Reader) Prices(filename string) ([]PricePoint, error) {
	rows, err := r.readRows(filename, 4)
	if err != nil {
		return nil, err
	}

	points := make([]PricePoint, 0, len(rows))
	for _, rw := range rows {
		effective, err := parseDate(rw.field(2), r.shortDateLayout)
		if err != nil {
			return nil, rw.errorf("%v", err)
		}
		price, err := parseNumber(rw.field(3))
		if err != nil {
			return nil, rw.errorf("price: %v", err)
		}

		points = append(points, PricePoint{
			Token:     rw.field(0),
			PriceType: rw.field(1),
			Effective: effective,
			Price:     price,
		})
	}

	return points, nil
}

// BillingRecords loads the time-billing log.
func (r *Reader) BillingRecords(filename string) ([]BillingRecord, error) {
	rows, err := r.readRows(filename, 4)
	if err != nil {
		return nil, err
	}

	records := make([]BillingRecord, 0, len(rows))
	for _, rw := range rows {
		date, err := parseDate(rw.field(1), r.shortDateLayout)
		if err != nil {
			return nil, rw.errorf("%v", err)
		}
		hours, err := parseNumber(rw.field(3))
		if err != nil {
			return nil, rw.errorf("hours: %v", err)
		}
		support, err := parseNumber(rw.field(4))
		if err != nil {
			return nil, rw.errorf("support hours: %v", err)
		}
		if hours.IsNegative() || support.IsNegative() {
			return nil, rw.errorf("hours must not be negative")
		}

		records = append(records, BillingRecord{
			Token:        rw.field(0),
			Date:         date,
			Text:         rw.field(2),
			Hours:        hours,
			SupportHours: support,
			Line:         rw.line,
		})
	}

	return records, nil
}

// InvoiceLinks loads the bank-to-invoice map keyed by "<token>_<YYYYMMDD>".
func (r *Reader) InvoiceLinks(filename string) (map[string]string, error) {
	rows, err := r.readRows(filename, 1)
	if err != nil {
		return nil, err
	}

	links := make(map[string]string, len(rows))
	for _, rw := range rows {
		links[rw.field(0)] = rw.field(1)
	}

	return links, nil
}

// AccountOverrides loads the per-period account overrides.
func (r *Reader) AccountOverrides(filename string) ([]AccountOverride, error) {
	rows, err := r.readRows(filename, 3)
	if err != nil {
		return nil, err
	}

	overrides := make([]AccountOverride, 0, len(rows))
	for _, rw := range rows {
		date, err := parseDate(rw.field(0), r.bankDateLayout)
		if err != nil {
			return nil, rw.errorf("%v", err)
		}

		o := AccountOverride{Date: date, Description: rw.field(1), Token: rw.field(2)}
		if s := rw.field(3); s != "" {
			o.VATFree, err = ParseAmount(s, r.thousandsSeparator)
			if err != nil {
				return nil, rw.errorf("vat-free amount: %v", err)
			}
		}
		overrides = append(overrides, o)
	}

	return overrides, nil
}

// PayrollRecords loads the payroll table. Dates are MMDD within year.
func (r *Reader) PayrollRecords(filename string, year int) ([]PayrollRecord, error) {
	rows, err := r.readRows(filename, 7)
	if err != nil {
		return nil, err
	}

	records := make([]PayrollRecord, 0, len(rows))
	for _, rw := range rows {
		date, err := parseDate(fmt.Sprintf("%04d%s", year, rw.field(0)), "20060102")
		if err != nil {
			return nil, rw.errorf("%v", err)
		}

		rec := PayrollRecord{Date: date, PeriodText: rw.field(1)}
		for i, dst := range []*decimal.Decimal{&rec.Payout, &rec.ATP, &rec.ATax, &rec.AMContribution, &rec.Fee} {
			if rw.field(i+2) == "" {
				continue
			}
			*dst, err = ParseAmount(rw.field(i+2), r.thousandsSeparator)
			if err != nil {
				return nil, rw.errorf("column %d: %v", i+3, err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "nej", "no":
		return false, nil
	case "true", "ja", "yes":
		return true, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return false, fmt.Errorf("invalid flag %q", s)
	}
	return n > 0, nil
}
