package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/journal"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/render"
	"github.com/haskoe/ledger/vat"
)

// VATPeriodMonths is the length of a VAT settlement period.
const VATPeriodMonths = 6

// OpenPayableVATError is returned when the previous VAT settlement has not
// been paid.
type OpenPayableVATError struct {
	Account string
	Balance decimal.Decimal
}

func (e *OpenPayableVATError) Error() string {
	return fmt.Sprintf("%s has an open balance of %s; settle it before closing the next VAT period",
		e.Account, ledger.FormatAmount(e.Balance))
}

// VATClosing is a prepared VAT settlement.
type VATClosing struct {
	Start       time.Time
	End         time.Time
	Purchase    decimal.Decimal
	Sales       decimal.Decimal
	Transaction *ledger.Transaction
	Text        string
}

// CloseVAT prepares the settlement of the VAT period ending at end: purchase
// and sales VAT of the preceding six months move into the payable VAT
// account. Nothing is appended to the journal.
func (c *Context) CloseVAT(ctx context.Context, j *journal.Journal, end time.Time) (*VATClosing, error) {
	accounts := c.Settings.Accounts

	open, err := j.BalanceAt(ctx, accounts.PayableVAT, end)
	if err != nil {
		return nil, err
	}
	if !open.IsZero() {
		return nil, &OpenPayableVATError{Account: accounts.PayableVAT, Balance: open}
	}

	start := VATPeriodStart(end)
	purchase, err := j.SumInPeriod(ctx, accounts.PurchaseVAT, start, end)
	if err != nil {
		return nil, err
	}
	sales, err := j.SumInPeriod(ctx, accounts.SalesVAT, start, end)
	if err != nil {
		return nil, err
	}
	purchase, sales = purchase.Round(vat.Places), sales.Round(vat.Places)

	txn, err := ledger.NewBuilder(c.Settings.Ledger(), nil, nil, nil).Closing(end, purchase, sales)
	if err != nil {
		return nil, err
	}
	text, err := render.Transactions(c.renderer, c.Settings.Currency, []*ledger.Transaction{txn})
	if err != nil {
		return nil, err
	}

	return &VATClosing{
		Start:       start,
		End:         end,
		Purchase:    purchase,
		Sales:       sales,
		Transaction: txn,
		Text:        text,
	}, nil
}

// CommitVAT appends a prepared settlement to the journal.
func (c *Context) CommitVAT(ctx context.Context, j *journal.Journal, closing *VATClosing) error {
	unlock, err := c.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	return j.AppendEntry(ctx, closing.Transaction, closing.Text)
}

// VATPeriodStart returns the first day of the month five months before end.
func VATPeriodStart(end time.Time) time.Time {
	return time.Date(end.Year(), end.Month()-(VATPeriodMonths-1), 1, 0, 0, 0, 0, end.Location())
}
