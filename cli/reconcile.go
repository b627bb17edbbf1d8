package cli

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/engine"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/output"
)

type ReconcileCmd struct {
	Period string `arg:"" help:"Period whose bank statement is compared."`
	End    string `help:"Last date compared, YYYY-MM-DD (default: end of the period's year)."`
}

func (cmd *ReconcileCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "reconcile "+cmd.Period)
	if err != nil {
		return err
	}
	defer s.report()

	yearEnd, err := engine.PeriodEnd(cmd.Period)
	if err != nil {
		return err
	}
	end, err := parseDate(cmd.End, yearEnd)
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

	rec, err := c.Reconcile(s.ctx, j, cmd.Period, end)
	if err != nil {
		return err
	}

	if rec.Dates == 0 {
		printWarning(s.stdout, "No dates in common between the journal and the bank statement")
		return nil
	}
	if rec.First == nil {
		printSuccess(s.stdout, fmt.Sprintf("Bank balance agrees with the statement on %d dates", rec.Dates))
		return nil
	}

	styles := output.NewStyles(s.stdout)
	d := rec.First
	printError(s.stdout, "Bank balance differs from the statement on "+d.Date.Format("2006-01-02"))
	_, _ = fmt.Fprintf(s.stdout, "  journal:    %s\n", styles.Amount(ledger.FormatAmount(d.Journal)))
	_, _ = fmt.Fprintf(s.stdout, "  statement:  %s\n", styles.Amount(ledger.FormatAmount(d.Statement)))
	_, _ = fmt.Fprintf(s.stdout, "  difference: %s\n", styles.Amount(ledger.FormatAmount(d.Amount())))
	return NewCommandError(ExitMismatch)
}
