package cli

import (
	"fmt"
	"time"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/output"
)

type VATCloseCmd struct {
	End    string `arg:"" help:"Last day of the VAT period, YYYY-MM-DD."`
	Commit bool   `help:"Append the settlement to the journal instead of only showing it."`
}

func (cmd *VATCloseCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "vat-close "+cmd.End)
	if err != nil {
		return err
	}
	defer s.report()

	end, err := parseDate(cmd.End, time.Time{})
	if err != nil {
		return err
	}
	if end.IsZero() {
		return fmt.Errorf("an end date is required")
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

	closing, err := c.CloseVAT(s.ctx, j, end)
	if err != nil {
		printError(s.stderr, err.Error())
		return NewCommandError(ExitFailure)
	}

	styles := output.NewStyles(s.stdout)
	printInfof(s.stdout, "VAT period %s to %s", closing.Start.Format("2006-01-02"), closing.End.Format("2006-01-02"))
	_, _ = fmt.Fprintf(s.stdout, "  purchase VAT: %s\n", styles.Amount(ledger.FormatAmount(closing.Purchase)))
	_, _ = fmt.Fprintf(s.stdout, "  sales VAT:    %s\n\n", styles.Amount(ledger.FormatAmount(closing.Sales)))
	_, _ = fmt.Fprint(s.stdout, closing.Text)

	if !cmd.Commit {
		_, _ = fmt.Fprintln(s.stdout)
		printInfof(s.stdout, "Run again with %s to append the settlement to the journal", styles.Keyword("--commit"))
		return nil
	}

	if err := c.CommitVAT(s.ctx, j, closing); err != nil {
		return err
	}
	printSuccess(s.stdout, "Appended the VAT settlement to "+pathStyle.Render(j.Path()))
	return nil
}
