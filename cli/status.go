package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mattn/go-runewidth"

	"github.com/haskoe/ledger/engine"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/output"
)

type StatusCmd struct {
	End string `help:"Balance date, YYYY-MM-DD (default: today)."`
}

func (cmd *StatusCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "status")
	if err != nil {
		return err
	}
	defer s.report()

	now := time.Now()
	end, err := parseDate(cmd.End, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return err
	}

	c, err := s.engine()
	if err != nil {
		return err
	}
	j, err := s.journal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	balances, err := c.Status(s.ctx, j, end)
	if err != nil {
		return err
	}
	n, err := j.Count(s.ctx)
	if err != nil {
		return err
	}

	printInfof(s.stdout, "%d journal entries, balances at %s", n, end.Format("2006-01-02"))
	writeBalances(s.stdout, output.NewStyles(s.stdout), balances, s.settings.Currency)
	return nil
}

// writeBalances prints one aligned row per account.
func writeBalances(w io.Writer, styles *output.Styles, balances []engine.AccountBalance, currency string) {
	accountWidth, amountWidth := 0, 0
	for _, b := range balances {
		accountWidth = max(accountWidth, runewidth.StringWidth(b.Account))
		amountWidth = max(amountWidth, len(ledger.FormatAmount(b.Balance)))
	}

	for _, b := range balances {
		account := runewidth.FillRight(b.Account, accountWidth)
		amount := fmt.Sprintf("%*s", amountWidth, ledger.FormatAmount(b.Balance))
		_, _ = fmt.Fprintf(w, "  %s  %s %s\n", styles.Account(account), styles.Amount(amount), currency)
	}
}
