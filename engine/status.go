package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/journal"
)

// AccountBalance is the balance of one account at a date.
type AccountBalance struct {
	Account string
	Balance decimal.Decimal
}

// Status returns the balances of the bank and VAT accounts at end.
func (c *Context) Status(ctx context.Context, j *journal.Journal, end time.Time) ([]AccountBalance, error) {
	a := c.Settings.Accounts
	accounts := []string{a.Bank, a.PurchaseVAT, a.SalesVAT, a.PayableVAT}

	balances := make([]AccountBalance, 0, len(accounts))
	for _, name := range accounts {
		b, err := j.BalanceAt(ctx, name, end)
		if err != nil {
			return nil, err
		}
		balances = append(balances, AccountBalance{Account: name, Balance: b})
	}
	return balances, nil
}
