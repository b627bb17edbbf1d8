package cli

import (
	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
)

// DoctorCmd provides utilities for debugging tables and templates.
type DoctorCmd struct {
	Tables TablesCmd `cmd:"" help:"Show the transactions built from a period's tables without writing anything."`
}

// TablesCmd dumps the flat template view of every transaction of a period.
type TablesCmd struct {
	Period string `arg:"" help:"Period to build."`
}

func (cmd *TablesCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "doctor tables "+cmd.Period)
	if err != nil {
		return err
	}
	defer s.report()

	c, err := s.engine()
	if err != nil {
		return err
	}
	run, err := c.Build(s.ctx, cmd.Period)
	if err != nil {
		return err
	}

	p := repr.New(s.stdout, repr.Indent("  "))
	for _, txn := range run.Result.All() {
		p.Println(txn.Flat(s.settings.Currency))
	}
	printInfof(s.stderr, "%d transactions, %d accounts, %d invoiced bank records skipped",
		len(run.Result.All()), run.Chart.Len(), run.Result.Skipped)
	return nil
}
