package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/engine"
	errfmt "github.com/haskoe/ledger/errors"
	"github.com/haskoe/ledger/ledger"
)

type GenerateCmd struct {
	Period string `arg:"" help:"Period directory, named by year (e.g. 2024 or 2024-1)."`
	Watch  bool   `help:"Regenerate whenever a table or template changes." short:"w"`
	Errors string `help:"Format of classification errors (text or json)." enum:"text,json" default:"text"`
}

func (cmd *GenerateCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "generate "+cmd.Period)
	if err != nil {
		return err
	}
	defer s.report()

	c, err := s.engine()
	if err != nil {
		return err
	}

	gen, err := c.Generate(s.ctx, cmd.Period)
	if err := cmd.print(s, gen, err); err != nil && !cmd.Watch {
		return err
	}
	if !cmd.Watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(s.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printInfof(s.stderr, "Watching %s for changes (Ctrl+C to stop)", pathStyle.Render(s.settings.CompanyDir()))
	return engine.Watch(ctx, c, cmd.Period, func(gen *engine.Generation, err error) {
		_ = cmd.print(s, gen, err)
	})
}

// print reports the outcome of one generation. Classification errors are
// rendered with the table lines they came from.
func (cmd *GenerateCmd) print(s *session, gen *engine.Generation, err error) error {
	if err == nil {
		for _, f := range gen.Files {
			printInfof(s.stdout, "Wrote %s", pathStyle.Render(f))
		}
		msg := fmt.Sprintf("Generated %d transactions for %s", len(gen.Result.All()), cmd.Period)
		if gen.Result.Skipped > 0 {
			msg += fmt.Sprintf(" (%d invoiced bank records skipped)", gen.Result.Skipped)
		}
		printSuccess(s.stdout, msg)
		return nil
	}

	if errors.Is(err, engine.ErrLocked) {
		printError(s.stderr, err.Error())
		return NewCommandError(ExitLocked)
	}

	var classErrs *ledger.ClassificationErrors
	if !errors.As(err, &classErrs) {
		printError(s.stderr, err.Error())
		return NewCommandError(ExitFailure)
	}

	if cmd.Errors == "json" {
		_, _ = fmt.Fprintln(s.stdout, errfmt.NewJSONFormatter().FormatAll(classErrs.Errors))
		return NewCommandError(ExitFailure)
	}

	renderer := NewErrorRenderer(cmd.sources(s))
	_, _ = fmt.Fprintln(s.stderr, renderer.RenderAll(classErrs.Errors))
	_, _ = fmt.Fprintln(s.stderr)
	printError(s.stderr, fmt.Sprintf("%d classification error(s) found, nothing written", len(classErrs.Errors)))
	return NewCommandError(ExitFailure)
}

func (cmd *GenerateCmd) sources(s *session) map[string][]byte {
	tables := map[string]string{
		"bank":    engine.BankTable,
		"billing": engine.BillingTable,
		"payroll": engine.PayrollTable,
	}

	sources := make(map[string][]byte, len(tables))
	for kind, name := range tables {
		if data, err := os.ReadFile(s.settings.PeriodPath(cmd.Period, name)); err == nil {
			sources[kind] = data
		}
	}
	return sources
}

