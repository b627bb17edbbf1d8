package engine

import (
	"context"
	"fmt"

	"github.com/haskoe/ledger/journal"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/render"
)

// Pending builds period and renders every transaction as a journal entry.
func (c *Context) Pending(ctx context.Context, period string) ([]journal.Entry, error) {
	run, err := c.Build(ctx, period)
	if err != nil {
		return nil, err
	}

	txns := run.Result.All()
	entries := make([]journal.Entry, len(txns))
	for i, txn := range txns {
		text, err := render.Transactions(c.renderer, c.Settings.Currency, []*ledger.Transaction{txn})
		if err != nil {
			return nil, err
		}
		entries[i] = journal.Entry{Transaction: txn, Text: text}
	}
	return entries, nil
}

// Approve appends the entries of period to the journal under the run lock.
func (c *Context) Approve(ctx context.Context, j *journal.Journal, period string, entries []journal.Entry) error {
	unlock, err := c.Lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := j.ApprovePeriod(ctx, period, entries); err != nil {
		return fmt.Errorf("failed to approve %s: %w", period, err)
	}

	c.Logger.InfoContext(ctx, "Approved period", "period", period, "entries", len(entries))
	return nil
}
