package table

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func writeTable(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		value string
		sep   rune
		want  string
	}{
		{"danish grouping", "-1.234,56", '.', "-1234.56"},
		{"danish plain", "125,00", '.', "125"},
		{"english grouping", "1,234.56", ',', "1234.56"},
		{"no decimals", "-40", '.', "-40"},
		{"padded", "  12,5 ", '.', "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.value, tt.sep)
			assert.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseAmount("abc", '.')
		assert.Error(t, err)

		_, err = ParseAmount("", '.')
		assert.Error(t, err)
	})
}

func TestBankRecords(t *testing.T) {
	path := writeTable(t, "bank.csv", `05-03-2024;x;OFFICE SUPPLY CO;-125,00;10.875,00

06-03-2024;x;"Kunde ""A"" betaling";1.250,00;12.125,00
`)

	records, err := New().BankRecords(path)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(records))

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.Equal(t, "OFFICE SUPPLY CO", records[0].Description)
	assert.True(t, records[0].Amount.Equal(decimal.RequireFromString("-125")))
	assert.True(t, records[0].Total.Equal(decimal.RequireFromString("10875")))
	assert.Equal(t, 1, records[0].Line)

	assert.Equal(t, `Kunde "A" betaling`, records[1].Description)
	assert.Equal(t, 3, records[1].Line)
}

func TestBankRecordsInvalid(t *testing.T) {
	t.Run("BadDate", func(t *testing.T) {
		path := writeTable(t, "bank.csv", "2024-03-05;x;SHOP;-1,00;0,00\n")
		_, err := New().BankRecords(path)

		var recErr *RecordError
		assert.True(t, errors.As(err, &recErr))
		assert.Equal(t, 1, recErr.Line)
	})

	t.Run("TooFewFields", func(t *testing.T) {
		path := writeTable(t, "bank.csv", "05-03-2024;x;SHOP\n")
		_, err := New().BankRecords(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "expected at least 5 fields")
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := New().BankRecords(filepath.Join(t.TempDir(), "nope.csv"))
		assert.IsError(t, err, ErrNotExist)
	})
}

func TestTemplates(t *testing.T) {
	path := writeTable(t, "transaction_type.csv", `Expenses;med_moms;;;;3;1
Expenses:Office;uden_moms;Liabilities:Kreditorer:Kontor;;;2;0
Income;salg;Assets:Debitorer;Liabilities:Moms:SalgMoms
`)

	rows, err := New().Templates(path)
	assert.NoError(t, err)
	assert.Equal(t, []TemplateRow{
		{GroupKey: "Expenses", TemplateID: "med_moms", Postings: 3, VAT: true},
		{GroupKey: "Expenses:Office", TemplateID: "uden_moms", Accounts: [3]string{"Liabilities:Kreditorer:Kontor"}, Postings: 2},
		{GroupKey: "Income", TemplateID: "salg", Accounts: [3]string{"Assets:Debitorer", "Liabilities:Moms:SalgMoms"}, Postings: 2},
	}, rows)

	t.Run("InvalidPostingCount", func(t *testing.T) {
		path := writeTable(t, "transaction_type.csv", "Expenses;x;;;;4;0\n")
		_, err := New().Templates(path)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "posting count must be 2 or 3")
	})
}

func TestDirectoryRejectsColonToken(t *testing.T) {
	path := writeTable(t, "account.csv", "Office:Paper;Expenses\n")
	_, err := New().Directory(path)
	assert.Error(t, err)
}

func TestPricesAndBilling(t *testing.T) {
	prices := writeTable(t, "prices.csv", "acme;Timepris;240101;100\nacme;Support;240101;50,5\n")
	points, err := New().Prices(prices)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(points))
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), points[0].Effective)
	assert.True(t, points[1].Price.Equal(decimal.RequireFromString("50.5")))

	billing := writeTable(t, "salg.csv", "acme;240315;Marts 2024;10;2,5\nacme;240415;April 2024;8\n")
	records, err := New().BillingRecords(billing)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(records))
	assert.True(t, records[0].SupportHours.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, records[1].SupportHours.IsZero())

	t.Run("NegativeHours", func(t *testing.T) {
		billing := writeTable(t, "salg.csv", "acme;240315;Marts;-1;0\n")
		_, err := New().BillingRecords(billing)
		assert.Error(t, err)
	})
}

func TestAccountOverridesAndLinks(t *testing.T) {
	overrides := writeTable(t, "account_override.csv", "05-03-2024;OFFICE SUPPLY CO;kontor;20,00\n06-03-2024;MOBILEPAY;telefon\n")
	got, err := New().AccountOverrides(overrides)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(got))
	assert.Equal(t, "kontor", got[0].Token)
	assert.True(t, got[0].VATFree.Equal(decimal.NewFromInt(20)))
	assert.True(t, got[1].VATFree.IsZero())

	links := writeTable(t, "bank_to_invoice.csv", "kontor_20240305;2024-02-28\n")
	m, err := New().InvoiceLinks(links)
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"kontor_20240305": "2024-02-28"}, m)
}

func TestPayrollRecords(t *testing.T) {
	path := writeTable(t, "loen.csv", "0131;Januar;20.000,00;284,00;8.000,00;2.300,00;\n")
	records, err := New().PayrollRecords(path, 2024)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(records))
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.True(t, records[0].Payout.Equal(decimal.NewFromInt(20000)))
	assert.True(t, records[0].Fee.IsZero())
}

func TestParseFlag(t *testing.T) {
	for in, want := range map[string]bool{"": false, "0": false, "1": true, "2": true, "ja": true, "false": false} {
		got, err := parseFlag(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got, "flag %q", in)
	}

	_, err := parseFlag("maybe")
	assert.Error(t, err)
}
