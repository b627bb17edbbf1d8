package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/haskoe/ledger/table"
)

func TestChartDeclarations(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{
			bank(1, date(2024, 3, 5), "OFFICE SUPPLY CO", "-125.00"),
			bank(2, date(2024, 3, 6), "OFFICE SUPPLY CO", "-50.00"),
			bank(3, date(2024, 3, 7), "ACME HOSTING", "-250.00"),
		},
	})
	assert.NoError(t, err)

	chart := NewChart("Equity:Afrunding", "Assets:Bank:BankErhverv")
	chart.Accumulate(result.All()...)

	want := "1900-01-01 open Assets:Bank:BankErhverv DKK\n" +
		"1900-01-01 open Assets:Moms:KoebMoms DKK\n" +
		"1900-01-01 open Equity:Afrunding DKK\n" +
		"1900-01-01 open Expenses:IT:Hosting DKK\n" +
		"1900-01-01 open Expenses:Office:Supplies DKK\n" +
		"1900-01-01 open Liabilities:Kreditorer:Hosting DKK\n"
	assert.Equal(t, want, chart.Declarations(date(1900, 1, 1), "DKK"))
	assert.Equal(t, 6, chart.Len())
}

func TestChartIgnoresBlankAccounts(t *testing.T) {
	chart := NewChart("", "  ")
	chart.Add("Assets:Bank")
	chart.Add("Assets:Bank")

	assert.Equal(t, []string{"Assets:Bank"}, chart.Accounts())
}
