package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/price"
	"github.com/haskoe/ledger/table"
	"github.com/haskoe/ledger/telemetry"
	"github.com/haskoe/ledger/template"
	"github.com/haskoe/ledger/vat"
)

// linkNamespace seeds the name-based link ids of bank record legs.
var linkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/haskoe/ledger/link"))

// Payroll component names, used as the last segment of payroll accounts.
const (
	PayrollATP      = "ATP"
	PayrollEmployee = "Ansat"
	PayrollFee      = "Gebyr"
	PayrollTax      = "Skat"
)

// Input holds the records of one run.
type Input struct {
	Bank    []table.BankRecord
	Billing []table.BillingRecord
	Payroll []table.PayrollRecord

	// InvoiceLinks holds bank record keys (see BankKey) already booked
	// through an invoice; those records are skipped.
	InvoiceLinks map[string]string
}

// Result holds the transactions of a successful run, per record kind.
type Result struct {
	Bank    []*Transaction
	Billing []*Transaction
	Payroll []*Transaction

	// Skipped counts bank records found in the invoice links.
	Skipped int
}

// All returns every transaction: bank, then billing, then payroll.
func (r *Result) All() []*Transaction {
	all := make([]*Transaction, 0, len(r.Bank)+len(r.Billing)+len(r.Payroll))
	all = append(all, r.Bank...)
	all = append(all, r.Billing...)
	return append(all, r.Payroll...)
}

// Builder turns records into balanced transactions.
type Builder struct {
	config     *Config
	classifier *account.Classifier
	templates  *template.Resolver
	prices     *price.Resolver
}

// NewBuilder creates a Builder. prices may be nil when no billing records are
// processed.
func NewBuilder(config *Config, classifier *account.Classifier, templates *template.Resolver, prices *price.Resolver) *Builder {
	if config == nil {
		config = NewConfig()
	}
	return &Builder{
		config:     config,
		classifier: classifier,
		templates:  templates,
		prices:     prices,
	}
}

// BankKey identifies a bank record by account token and date in the
// bank-to-invoice map.
func BankKey(token string, date time.Time) string {
	return fmt.Sprintf("%s_%s", token, date.Format("20060102"))
}

// errorSet collects classification errors of one run.
type errorSet struct {
	errs []error
}

func (s *errorSet) add(kind string, line int, err error) {
	s.errs = append(s.errs, &RecordError{Kind: kind, Line: line, Err: err})
}

// Build processes every record of in. Classification errors are collected
// across all records; when there are any, no transactions are returned and
// the error is a *ClassificationErrors. Invariant violations abort the run.
func (b *Builder) Build(ctx context.Context, in Input) (*Result, error) {
	var errs errorSet
	result := &Result{}

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.bank (%d records)", len(in.Bank)))
	for i := len(in.Bank) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			timer.End()
			return nil, ctx.Err()
		default:
		}

		txns, skipped, err := b.bank(in.Bank[i], in.InvoiceLinks, &errs)
		if err != nil {
			timer.End()
			return nil, err
		}
		if skipped {
			result.Skipped++
		}
		result.Bank = append(result.Bank, txns...)
	}
	timer.End()

	timer = telemetry.StartTimer(ctx, fmt.Sprintf("ledger.billing (%d records)", len(in.Billing)))
	for _, rec := range in.Billing {
		txn, err := b.billing(rec, &errs)
		if err != nil {
			timer.End()
			return nil, err
		}
		if txn != nil {
			result.Billing = append(result.Billing, txn)
		}
	}
	timer.End()

	timer = telemetry.StartTimer(ctx, fmt.Sprintf("ledger.payroll (%d records)", len(in.Payroll)))
	for _, rec := range in.Payroll {
		txns, err := b.payroll(rec)
		if err != nil {
			timer.End()
			return nil, err
		}
		result.Payroll = append(result.Payroll, txns...)
	}
	timer.End()

	if len(errs.errs) > 0 {
		return nil, &ClassificationErrors{Errors: errs.errs}
	}

	return result, nil
}

// bank builds the legs of one bank record. Templates with three postings
// produce a booked leg against a clearing account and a paid leg settling the
// clearing account against the bank; two postings produce the paid leg only,
// directly against the resolved account.
func (b *Builder) bank(rec table.BankRecord, links map[string]string, errs *errorSet) ([]*Transaction, bool, error) {
	cl, err := b.classifier.Classify(rec.Date, rec.Description)
	if err != nil {
		errs.add("bank", rec.Line, err)
		return nil, false, nil
	}

	if _, ok := links[BankKey(cl.Token, rec.Date)]; ok {
		return nil, true, nil
	}

	tmpl, err := b.templates.Resolve(cl.Path)
	if err != nil {
		errs.add("bank", rec.Line, err)
		return nil, false, nil
	}

	// Postings against the bank carry the statement amount; the opposite
	// side carries counter.
	counter := rec.Amount.Neg()
	bank := tmpl.Account(4, b.config.BankAccount)

	if tmpl.Postings == 2 {
		split := vat.None(counter)
		if tmpl.VAT {
			split = vat.Decompose(counter, b.config.VATRate, signLike(cl.VATFree, counter))
		}
		postings := []Posting{
			{Account: cl.Path, Amount: counter},
			{Account: bank, Amount: rec.Amount},
		}
		if !checkAccounts("bank", rec.Line, rec.Date, rec.Description, postings, errs) {
			return nil, false, nil
		}
		txn, err := b.newTransaction(rec.Date, rec.Description, rec.Description, tmpl.ID, LegPaid, "", postings, split)
		if err != nil {
			return nil, false, err
		}
		return []*Transaction{txn}, false, nil
	}

	clearing := tmpl.Account(2, b.clearingAccount(cl.Token, rec.Amount))
	link := linkID(cl.Path, rec)

	var booked []Posting
	split := vat.None(counter)
	if tmpl.VAT {
		split = vat.Decompose(counter, b.config.VATRate, signLike(cl.VATFree, counter))
		booked = append(booked, Posting{Account: cl.Path, Amount: split.Exclusive()})
		if !split.VAT.IsZero() {
			booked = append(booked, Posting{Account: tmpl.Account(3, b.vatAccount(counter)), Amount: split.VAT})
		}
	} else {
		booked = append(booked, Posting{Account: cl.Path, Amount: counter})
	}
	booked = append(booked, Posting{Account: clearing, Amount: rec.Amount})

	paid := []Posting{
		{Account: clearing, Amount: counter},
		{Account: bank, Amount: rec.Amount},
	}

	if !checkAccounts("bank", rec.Line, rec.Date, rec.Description, append(booked, paid...), errs) {
		return nil, false, nil
	}

	bookedTxn, err := b.newTransaction(rec.Date, rec.Description, string(LegBooked), tmpl.ID, LegBooked, link, booked, split)
	if err != nil {
		return nil, false, err
	}
	paidTxn, err := b.newTransaction(rec.Date, rec.Description, string(LegPaid), b.config.PlainTemplate, LegPaid, link, paid, vat.None(counter))
	if err != nil {
		return nil, false, err
	}

	return []*Transaction{bookedTxn, paidTxn}, false, nil
}

// billing builds the invoice of one billing record: income and VAT credited,
// the debtor debited with the gross amount.
func (b *Builder) billing(rec table.BillingRecord, errs *errorSet) (*Transaction, error) {
	if b.prices == nil {
		return nil, fmt.Errorf("billing records given without a price table")
	}

	hourRate, err := b.prices.Find(rec.Token, price.HourlyRate, rec.Date)
	if err != nil {
		errs.add("billing", rec.Line, err)
		return nil, nil
	}
	net := rec.Hours.Mul(hourRate)

	if rec.SupportHours.IsPositive() {
		supportRate, err := b.prices.Find(rec.Token, price.SupportRate, rec.Date)
		if err != nil {
			errs.add("billing", rec.Line, err)
			return nil, nil
		}
		net = net.Add(rec.SupportHours.Mul(supportRate))
	}

	income := Join(b.config.IncomeGroup, rec.Token)
	tmpl, err := b.templates.Resolve(income)
	if err != nil {
		errs.add("billing", rec.Line, err)
		return nil, nil
	}

	split := vat.GrossUp(net.Round(vat.Places), b.config.VATRate)
	postings := []Posting{
		{Account: income, Amount: split.Net.Neg()},
		{Account: tmpl.Account(3, b.config.SalesVAT), Amount: split.VAT.Neg()},
		{Account: tmpl.Account(2, Join(b.config.DebtorPrefix, rec.Token)), Amount: split.Gross},
	}

	if !checkAccounts("billing", rec.Line, rec.Date, rec.Text, postings, errs) {
		return nil, nil
	}

	return b.newTransaction(rec.Date, rec.Text, rec.Token, tmpl.ID, LegInvoice, "", postings, split)
}

// payroll builds one VAT-free transaction per non-zero payroll component.
func (b *Builder) payroll(rec table.PayrollRecord) ([]*Transaction, error) {
	components := []struct {
		name   string
		amount decimal.Decimal
	}{
		{PayrollATP, rec.ATP},
		{PayrollEmployee, rec.Payout},
		{PayrollFee, rec.Fee},
		{PayrollTax, rec.ATax.Add(rec.AMContribution)},
	}

	var txns []*Transaction
	for _, c := range components {
		if c.amount.IsZero() {
			continue
		}

		postings := []Posting{
			{Account: Join(b.config.PayrollExpense, c.name), Amount: c.amount},
			{Account: Join(b.config.PayrollLiability, c.name), Amount: c.amount.Neg()},
		}
		extra := fmt.Sprintf("Løn %s. Periode %s", c.name, rec.PeriodText)

		txn, err := b.newTransaction(rec.Date, "Løn", extra, b.config.PlainTemplate, LegPayroll, "", postings, vat.None(c.amount))
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, nil
}

// Closing builds the transaction that moves the purchase and sales VAT
// balances of a period into the payable VAT account. purchase and sales are
// the account balances; both are zeroed. The settlement is truncated to whole
// currency units and the remainder goes to the rounding account.
func (b *Builder) Closing(date time.Time, purchase, sales decimal.Decimal) (*Transaction, error) {
	owed := purchase.Add(sales).Neg()
	settled := owed.Truncate(0)
	residue := owed.Sub(settled)

	postings := []Posting{
		{Account: b.config.PurchaseVAT, Amount: purchase.Neg()},
		{Account: b.config.SalesVAT, Amount: sales.Neg()},
		{Account: b.config.PayableVAT, Amount: settled.Neg()},
	}
	if !residue.IsZero() {
		postings = append(postings, Posting{Account: b.config.RoundingAccount, Amount: residue.Neg()})
	}

	return b.newTransaction(date, "Momsafregning", "VAT settlement", b.config.PlainTemplate, LegClosing, "", postings, vat.None(decimal.Zero))
}

func (b *Builder) newTransaction(date time.Time, narration, extra, templateID string, leg Leg, link string, postings []Posting, split vat.Split) (*Transaction, error) {
	txn := &Transaction{
		date:       date,
		narration:  narration,
		extraText:  extra,
		templateID: templateID,
		leg:        leg,
		link:       link,
		postings:   postings,
		split:      split,
	}

	if residual := txn.Residual(); !AmountEqual(residual, decimal.Zero, b.config.Tolerance) {
		return nil, &ImbalancedTransactionError{
			Date:      date,
			Narration: narration,
			Postings:  txn.Postings(),
			Residual:  residual,
		}
	}
	if err := split.Check(); err != nil {
		return nil, fmt.Errorf("%s: %q: %w", date.Format("2006-01-02"), narration, err)
	}

	return txn, nil
}

// checkAccounts records an InvalidAccountError for the first posting without
// a known account root and reports whether all accounts were valid.
func checkAccounts(kind string, line int, date time.Time, source string, postings []Posting, errs *errorSet) bool {
	for _, p := range postings {
		if ParseAccountType(p.Account) == AccountTypeUnknown {
			errs.add(kind, line, &InvalidAccountError{Date: date, Account: p.Account, Source: source})
			return false
		}
	}
	return true
}

func (b *Builder) clearingAccount(token string, amount decimal.Decimal) string {
	if amount.IsNegative() {
		return Join(b.config.CreditorPrefix, token)
	}
	return Join(b.config.DebtorPrefix, token)
}

func (b *Builder) vatAccount(counter decimal.Decimal) string {
	if counter.IsNegative() {
		return b.config.SalesVAT
	}
	return b.config.PurchaseVAT
}

func linkID(path string, rec table.BankRecord) string {
	name := strings.Join([]string{
		path,
		rec.Date.Format("20060102"),
		rec.Amount.String(),
		rec.Description,
		fmt.Sprint(rec.Line),
	}, "|")
	return uuid.NewSHA1(linkNamespace, []byte(name)).String()
}
