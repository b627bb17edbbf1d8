package ledger

import (
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/haskoe/ledger/table"
)

func TestTransactionFlat(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 5), "OFFICE SUPPLY CO", "-125.00")},
	})
	assert.NoError(t, err)

	flat := result.Bank[0].Flat("DKK")
	assert.Equal(t, map[string]string{
		"date":            "2024-03-05",
		"narration":       "OFFICE SUPPLY CO",
		"extra_text":      "OFFICE SUPPLY CO",
		"template":        "udgift_moms",
		"leg":             "paid",
		"link":            "",
		"currency":        "DKK",
		"postings":        "2",
		"gross":           "125.00",
		"net":             "100.00",
		"vat_free":        "0.00",
		"vat":             "25.00",
		"vat_negated":     "-25.00",
		"vat_rate":        "0.25",
		"vat_pct":         "25",
		"account1":        "Expenses:Office:Supplies",
		"amount1":         "125.00",
		"amount1_negated": "-125.00",
		"account2":        "Assets:Bank:BankErhverv",
		"amount2":         "-125.00",
		"amount2_negated": "125.00",
	}, flat)
}

func TestTransactionPostingsAreCopies(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 5), "OFFICE SUPPLY CO", "-125.00")},
	})
	assert.NoError(t, err)

	txn := result.Bank[0]
	ps := txn.Postings()
	ps[0].Account = "Expenses:Changed"
	assert.Equal(t, "Expenses:Office:Supplies", txn.Accounts()[0])
}

func TestResultAll(t *testing.T) {
	r := &Result{
		Bank:    []*Transaction{{narration: "bank"}},
		Billing: []*Transaction{{narration: "billing"}},
		Payroll: []*Transaction{{narration: "payroll"}},
	}

	var got []string
	for _, txn := range r.All() {
		got = append(got, txn.Narration())
	}
	assert.Equal(t, []string{"bank", "billing", "payroll"}, got)
}
