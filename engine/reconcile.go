package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/journal"
)

// Difference is a date on which the journal disagrees with the statement.
type Difference struct {
	Date      time.Time
	Journal   decimal.Decimal
	Statement decimal.Decimal
}

// Amount returns the statement balance minus the journal balance.
func (d Difference) Amount() decimal.Decimal {
	return d.Statement.Sub(d.Journal)
}

// Reconciliation is the outcome of comparing the bank account in the journal
// with the bank statement.
type Reconciliation struct {
	// Dates counts the dates present in both the journal and the statement.
	Dates int
	// First is the earliest differing date, nil when everything agrees.
	First *Difference
}

// Reconcile compares the closing balance of the bank account in the journal
// with the statement's running total, date by date, from the start of the
// period's year up to end.
func (c *Context) Reconcile(ctx context.Context, j *journal.Journal, period string, end time.Time) (*Reconciliation, error) {
	year, err := periodYear(period)
	if err != nil {
		return nil, err
	}

	records, err := c.reader.BankRecords(c.Settings.PeriodPath(period, BankTable))
	if err != nil {
		return nil, err
	}

	// Statements list the newest record first; the running total after the
	// last record of a day is the first one seen for that day.
	statement := make(map[time.Time]decimal.Decimal)
	for i := len(records) - 1; i >= 0; i-- {
		statement[records[i].Date] = records[i].Total
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	balances, err := j.BalanceInPeriod(ctx, c.Settings.Accounts.Bank, start, end)
	if err != nil {
		return nil, err
	}

	rec := &Reconciliation{}
	for _, b := range balances {
		total, ok := statement[b.Date]
		if !ok {
			continue
		}
		rec.Dates++
		if rec.First == nil && !b.Balance.Equal(total) {
			rec.First = &Difference{Date: b.Date, Journal: b.Balance, Statement: total}
		}
	}

	c.Logger.DebugContext(ctx, "Reconciled bank account",
		"account", c.Settings.Accounts.Bank,
		"dates", rec.Dates,
		"balanced", rec.First == nil)

	return rec, nil
}
