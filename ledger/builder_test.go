package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/price"
	"github.com/haskoe/ledger/table"
	"github.com/haskoe/ledger/template"
	"github.com/haskoe/ledger/vat"
)

type fixture struct {
	rules     []table.PatternRule
	directory []table.DirectoryEntry
	templates []table.TemplateRow
	prices    []table.PricePoint
	overrides []table.AccountOverride
	strict    bool
}

func defaultFixture() fixture {
	return fixture{
		rules: []table.PatternRule{
			{Pattern: "office supply", Token: "Supplies", Line: 1},
			{Pattern: "acme hosting", Token: "Hosting", Line: 2},
			{Pattern: "kunde betaling", Token: "acme", Line: 3},
			{Pattern: "gebyr", Token: "Gebyr", Line: 4},
		},
		directory: []table.DirectoryEntry{
			{Token: "Supplies", Group: "Expenses:Office"},
			{Token: "Hosting", Group: "Expenses:IT"},
			{Token: "acme", Group: "Income:Salg"},
			{Token: "Gebyr", Group: "Expenses:Bank"},
		},
		templates: []table.TemplateRow{
			{GroupKey: "Expenses:Office", TemplateID: "udgift_moms", Postings: 2, VAT: true},
			{GroupKey: "Expenses:IT", TemplateID: "kreditor_moms", Postings: 3, VAT: true},
			{GroupKey: "Income:Salg", TemplateID: "faktura", Postings: 3, VAT: true},
			{GroupKey: "", TemplateID: "uden_moms", Postings: 2},
		},
		prices: []table.PricePoint{
			{Token: "acme", PriceType: price.HourlyRate, Effective: date(2024, 1, 1), Price: dec("500")},
			{Token: "acme", PriceType: price.SupportRate, Effective: date(2024, 1, 1), Price: dec("300")},
		},
	}
}

func (f fixture) builder(t *testing.T) *Builder {
	t.Helper()

	var opts []account.MatcherOption
	if f.strict {
		opts = append(opts, account.WithStrictMatching())
	}
	matcher, err := account.NewMatcher(f.rules, opts...)
	assert.NoError(t, err)
	directory, err := account.NewDirectory(f.directory)
	assert.NoError(t, err)
	templates, err := template.NewResolver(f.templates)
	assert.NoError(t, err)
	prices, err := price.NewResolver(f.prices)
	assert.NoError(t, err)

	classifier := account.NewClassifier(matcher, directory, account.NewOverrides(f.overrides))
	return NewBuilder(NewConfig(), classifier, templates, prices)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func bank(line int, day time.Time, description, amount string) table.BankRecord {
	return table.BankRecord{Date: day, Description: description, Amount: dec(amount), Line: line}
}

// postings renders postings as "account amount" for comparison.
func postings(txn *Transaction) []string {
	var out []string
	for _, p := range txn.Postings() {
		out = append(out, p.Account+" "+FormatAmount(p.Amount))
	}
	return out
}

func TestBuildBankTwoPostingsWithVAT(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 5), "OFFICE SUPPLY CO", "-125.00")},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Bank))

	txn := result.Bank[0]
	assert.Equal(t, []string{
		"Expenses:Office:Supplies 125.00",
		"Assets:Bank:BankErhverv -125.00",
	}, postings(txn))
	assert.Equal(t, "udgift_moms", txn.TemplateID())
	assert.Equal(t, LegPaid, txn.Leg())
	assert.Equal(t, "100.00", FormatAmount(txn.VAT().Net))
	assert.Equal(t, "25.00", FormatAmount(txn.VAT().VAT))
	assert.True(t, txn.Residual().IsZero())
}

func TestBuildBankThreePostings(t *testing.T) {
	tests := []struct {
		name        string
		record      table.BankRecord
		overrides   []table.AccountOverride
		wantBooked  []string
		wantPaid    []string
		wantVATFree string
	}{
		{
			name:   "OutgoingWithVAT",
			record: bank(1, date(2024, 3, 6), "ACME HOSTING 0324", "-250.00"),
			wantBooked: []string{
				"Expenses:IT:Hosting 200.00",
				"Assets:Moms:KoebMoms 50.00",
				"Liabilities:Kreditorer:Hosting -250.00",
			},
			wantPaid: []string{
				"Liabilities:Kreditorer:Hosting 250.00",
				"Assets:Bank:BankErhverv -250.00",
			},
			wantVATFree: "0.00",
		},
		{
			name:   "IncomingWithVAT",
			record: bank(1, date(2024, 3, 7), "KUNDE BETALING", "1250.00"),
			wantBooked: []string{
				"Income:Salg:acme -1000.00",
				"Liabilities:Moms:SalgMoms -250.00",
				"Assets:Debitorer:acme 1250.00",
			},
			wantPaid: []string{
				"Assets:Debitorer:acme -1250.00",
				"Assets:Bank:BankErhverv 1250.00",
			},
			wantVATFree: "0.00",
		},
		{
			name:   "OverrideWithVATFreeAmount",
			record: bank(1, date(2024, 3, 8), "FLYBILLET 123", "-125.00"),
			overrides: []table.AccountOverride{
				{Date: date(2024, 3, 8), Description: "flybillet 123", Token: "Hosting", VATFree: dec("25")},
			},
			wantBooked: []string{
				"Expenses:IT:Hosting 105.00",
				"Assets:Moms:KoebMoms 20.00",
				"Liabilities:Kreditorer:Hosting -125.00",
			},
			wantPaid: []string{
				"Liabilities:Kreditorer:Hosting 125.00",
				"Assets:Bank:BankErhverv -125.00",
			},
			wantVATFree: "25.00",
		},
		{
			name:   "ZeroVATPostingDropped",
			record: bank(1, date(2024, 3, 9), "ACME HOSTING REFUSION", "-80.00"),
			overrides: []table.AccountOverride{
				{Date: date(2024, 3, 9), Description: "ACME HOSTING REFUSION", Token: "Hosting", VATFree: dec("80")},
			},
			wantBooked: []string{
				"Expenses:IT:Hosting 80.00",
				"Liabilities:Kreditorer:Hosting -80.00",
			},
			wantPaid: []string{
				"Liabilities:Kreditorer:Hosting 80.00",
				"Assets:Bank:BankErhverv -80.00",
			},
			wantVATFree: "80.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			f.overrides = tt.overrides
			b := f.builder(t)

			result, err := b.Build(context.Background(), Input{Bank: []table.BankRecord{tt.record}})
			assert.NoError(t, err)
			assert.Equal(t, 2, len(result.Bank))

			booked, paid := result.Bank[0], result.Bank[1]
			assert.Equal(t, tt.wantBooked, postings(booked))
			assert.Equal(t, tt.wantPaid, postings(paid))
			assert.Equal(t, LegBooked, booked.Leg())
			assert.Equal(t, LegPaid, paid.Leg())
			assert.Equal(t, "uden_moms", paid.TemplateID())
			assert.Equal(t, tt.wantVATFree, FormatAmount(booked.VAT().NonLiable))
			assert.True(t, paid.VAT().VAT.IsZero())

			assert.NotZero(t, booked.Link())
			assert.Equal(t, booked.Link(), paid.Link())
		})
	}
}

func TestBuildTemplateAccountSlots(t *testing.T) {
	f := defaultFixture()
	f.templates = append(f.templates, table.TemplateRow{
		GroupKey:   "Expenses:IT:Hosting",
		TemplateID: "hosting",
		Accounts:   [3]string{"Liabilities:Kreditorer:Cloud", "Assets:Moms:EUKoebMoms", "Assets:Bank:Kreditkort"},
		Postings:   3,
		VAT:        true,
	})
	b := f.builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 6), "ACME HOSTING", "-250.00")},
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"Expenses:IT:Hosting 200.00",
		"Assets:Moms:EUKoebMoms 50.00",
		"Liabilities:Kreditorer:Cloud -250.00",
	}, postings(result.Bank[0]))
	assert.Equal(t, []string{
		"Liabilities:Kreditorer:Cloud 250.00",
		"Assets:Bank:Kreditkort -250.00",
	}, postings(result.Bank[1]))
	assert.Equal(t, "hosting", result.Bank[0].TemplateID())
}

func TestBuildHierarchicalTemplates(t *testing.T) {
	b := defaultFixture().builder(t)

	// Expenses:Bank has no template of its own; the catch-all applies.
	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 5), "GEBYR KONTO", "-15.00")},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(result.Bank))
	assert.Equal(t, "uden_moms", result.Bank[0].TemplateID())
	assert.Equal(t, []string{
		"Expenses:Bank:Gebyr 15.00",
		"Assets:Bank:BankErhverv -15.00",
	}, postings(result.Bank[0]))
	assert.True(t, result.Bank[0].VAT().VAT.IsZero())
}

func TestBuildProcessesBankRecordsInReverse(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{
			bank(1, date(2024, 3, 9), "GEBYR", "-10.00"),
			bank(2, date(2024, 3, 1), "OFFICE SUPPLY CO", "-125.00"),
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Bank))
	assert.Equal(t, date(2024, 3, 1), result.Bank[0].Date())
	assert.Equal(t, date(2024, 3, 9), result.Bank[1].Date())
}

func TestBuildCollectsClassificationErrors(t *testing.T) {
	f := defaultFixture()
	f.rules = append(f.rules, table.PatternRule{Pattern: "ghost", Token: "Ghost", Line: 5})
	b := f.builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{
			bank(1, date(2024, 3, 1), "OFFICE SUPPLY CO", "-125.00"),
			bank(2, date(2024, 3, 2), "UNKNOWN SHOP", "-10.00"),
			bank(3, date(2024, 3, 3), "ACME HOSTING", "-250.00"),
			bank(4, date(2024, 3, 4), "GHOST LTD", "-5.00"),
			bank(5, date(2024, 3, 5), "GEBYR", "-15.00"),
		},
	})
	assert.Zero(t, result)

	var cerr *ClassificationErrors
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, 2, len(cerr.Errors))

	// Records are processed last to first.
	assert.IsError(t, cerr.Errors[0], account.ErrUnknownAccount)
	assert.IsError(t, cerr.Errors[1], account.ErrUnmatchedDescription)

	var rerr *RecordError
	assert.True(t, errors.As(cerr.Errors[1], &rerr))
	assert.Equal(t, "bank", rerr.Kind)
	assert.Equal(t, 2, rerr.Line)
	assert.Contains(t, rerr.Error(), "UNKNOWN SHOP")
}

func TestBuildAmbiguousMatchInStrictMode(t *testing.T) {
	f := defaultFixture()
	f.rules = append(f.rules, table.PatternRule{Pattern: "acme hostin", Token: "Supplies", Line: 5})
	f.rules[1].Pattern = "acme hosti"
	f.rules = append(f.rules, table.PatternRule{Pattern: "cme hosting", Token: "Gebyr", Line: 6})
	f.strict = true
	b := f.builder(t)

	_, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 1), "ACME HOSTING", "-1.00")},
	})
	assert.IsError(t, err, account.ErrAmbiguousMatch)
}

func TestBuildMissingTemplate(t *testing.T) {
	f := defaultFixture()
	f.templates = f.templates[:3]
	b := f.builder(t)

	_, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 1), "GEBYR", "-15.00")},
	})
	assert.IsError(t, err, template.ErrMissingTemplate)

	var merr *template.MissingTemplateError
	assert.True(t, errors.As(err, &merr))
	assert.Equal(t, "Expenses:Bank:Gebyr", merr.Group)
}

func TestBuildInvalidAccountRoot(t *testing.T) {
	f := defaultFixture()
	f.directory = append(f.directory, table.DirectoryEntry{Token: "Misc", Group: "Diverse"})
	f.rules = append(f.rules, table.PatternRule{Pattern: "misc", Token: "Misc", Line: 5})
	b := f.builder(t)

	_, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 1), "MISC", "-15.00")},
	})

	var ierr *InvalidAccountError
	assert.True(t, errors.As(err, &ierr))
	assert.Equal(t, "Diverse:Misc", ierr.Account)
}

func TestBuildSkipsInvoicedBankRecords(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Bank: []table.BankRecord{
			bank(1, date(2024, 3, 7), "KUNDE BETALING", "1250.00"),
			bank(2, date(2024, 3, 8), "GEBYR", "-15.00"),
		},
		InvoiceLinks: map[string]string{BankKey("acme", date(2024, 3, 7)): "240301"},
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, len(result.Bank))
	assert.Equal(t, "Expenses:Bank:Gebyr", result.Bank[0].Accounts()[0])
}

func TestBuildIsDeterministic(t *testing.T) {
	in := Input{
		Bank: []table.BankRecord{
			bank(1, date(2024, 3, 6), "ACME HOSTING", "-250.00"),
			bank(2, date(2024, 3, 7), "KUNDE BETALING", "1250.00"),
		},
		Billing: []table.BillingRecord{
			{Token: "acme", Date: date(2024, 3, 31), Text: "Marts", Hours: dec("10"), Line: 1},
		},
	}

	first, err := defaultFixture().builder(t).Build(context.Background(), in)
	assert.NoError(t, err)
	second, err := defaultFixture().builder(t).Build(context.Background(), in)
	assert.NoError(t, err)

	assert.Equal(t, len(first.All()), len(second.All()))
	for i, txn := range first.All() {
		assert.Equal(t, txn.Flat("DKK"), second.All()[i].Flat("DKK"))
	}
}

func TestBuildBilling(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Billing: []table.BillingRecord{
			{Token: "acme", Date: date(2024, 3, 31), Text: "Udvikling marts", Hours: dec("10"), SupportHours: dec("2"), Line: 1},
			{Token: "acme", Date: date(2024, 4, 30), Text: "Udvikling april", Hours: dec("1.5"), Line: 2},
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, len(result.Billing))

	march := result.Billing[0]
	assert.Equal(t, []string{
		"Income:Salg:acme -5600.00",
		"Liabilities:Moms:SalgMoms -1400.00",
		"Assets:Debitorer:acme 7000.00",
	}, postings(march))
	assert.Equal(t, "faktura", march.TemplateID())
	assert.Equal(t, LegInvoice, march.Leg())
	assert.Equal(t, "Udvikling marts", march.Narration())

	assert.Equal(t, []string{
		"Income:Salg:acme -750.00",
		"Liabilities:Moms:SalgMoms -187.50",
		"Assets:Debitorer:acme 937.50",
	}, postings(result.Billing[1]))
}

func TestBuildBillingMissingPrice(t *testing.T) {
	f := defaultFixture()
	f.prices = f.prices[:1]
	b := f.builder(t)

	_, err := b.Build(context.Background(), Input{
		Billing: []table.BillingRecord{
			{Token: "acme", Date: date(2023, 12, 31), Text: "Before prices", Hours: dec("1"), Line: 1},
			{Token: "acme", Date: date(2024, 3, 31), Text: "No support price", Hours: dec("1"), SupportHours: dec("1"), Line: 2},
			{Token: "acme", Date: date(2024, 3, 31), Text: "Hours only", Hours: dec("1"), Line: 3},
		},
	})

	var cerr *ClassificationErrors
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, 2, len(cerr.Errors))

	var perr *price.MissingPriceError
	assert.True(t, errors.As(cerr.Errors[0], &perr))
	assert.Equal(t, price.HourlyRate, perr.PriceType)
	assert.True(t, errors.As(cerr.Errors[1], &perr))
	assert.Equal(t, price.SupportRate, perr.PriceType)
}

func TestBuildPayroll(t *testing.T) {
	b := defaultFixture().builder(t)

	result, err := b.Build(context.Background(), Input{
		Payroll: []table.PayrollRecord{{
			Date:           date(2024, 3, 28),
			PeriodText:     "marts 2024",
			Payout:         dec("20000"),
			ATP:            dec("94.65"),
			ATax:           dec("5000"),
			AMContribution: dec("1800"),
		}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, len(result.Payroll))

	assert.Equal(t, []string{
		"Expenses:Loen:ATP 94.65",
		"Liabilities:Loen:ATP -94.65",
	}, postings(result.Payroll[0]))
	assert.Equal(t, []string{
		"Expenses:Loen:Ansat 20000.00",
		"Liabilities:Loen:Ansat -20000.00",
	}, postings(result.Payroll[1]))
	assert.Equal(t, []string{
		"Expenses:Loen:Skat 6800.00",
		"Liabilities:Loen:Skat -6800.00",
	}, postings(result.Payroll[2]))

	assert.Equal(t, "Løn", result.Payroll[2].Narration())
	assert.Equal(t, "Løn Skat. Periode marts 2024", result.Payroll[2].ExtraText())
	assert.Equal(t, "uden_moms", result.Payroll[2].TemplateID())
}

func TestBuildCancelled(t *testing.T) {
	b := defaultFixture().builder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Build(ctx, Input{
		Bank: []table.BankRecord{bank(1, date(2024, 3, 5), "GEBYR", "-15.00")},
	})
	assert.IsError(t, err, context.Canceled)
}

func TestClosing(t *testing.T) {
	b := defaultFixture().builder(t)

	txn, err := b.Closing(date(2024, 6, 30), dec("250.00"), dec("-1000.40"))
	assert.NoError(t, err)
	assert.Equal(t, []string{
		"Assets:Moms:KoebMoms -250.00",
		"Liabilities:Moms:SalgMoms 1000.40",
		"Liabilities:Moms:SkyldigMoms -750.00",
		"Equity:Afrunding -0.40",
	}, postings(txn))
	assert.Equal(t, LegClosing, txn.Leg())

	txn, err = b.Closing(date(2024, 6, 30), dec("100"), dec("-500"))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(txn.Postings()))
}

func TestNewTransactionRejectsImbalance(t *testing.T) {
	b := defaultFixture().builder(t)

	_, err := b.newTransaction(date(2024, 3, 1), "broken", "", "uden_moms", LegPaid, "", []Posting{
		{Account: "Expenses:Office", Amount: dec("10.00")},
		{Account: "Assets:Bank", Amount: dec("-9.98")},
	}, vat.None(dec("10")))
	assert.IsError(t, err, ErrImbalancedTransaction)

	var ierr *ImbalancedTransactionError
	assert.True(t, errors.As(err, &ierr))
	assert.Equal(t, "0.02", FormatAmount(ierr.Residual))

	// One hundredth is within tolerance.
	_, err = b.newTransaction(date(2024, 3, 1), "rounded", "", "uden_moms", LegPaid, "", []Posting{
		{Account: "Expenses:Office", Amount: dec("10.00")},
		{Account: "Assets:Bank", Amount: dec("-9.99")},
	}, vat.None(dec("10")))
	assert.NoError(t, err)
}

func TestBankKey(t *testing.T) {
	assert.Equal(t, "acme_20240307", BankKey("acme", date(2024, 3, 7)))
}
