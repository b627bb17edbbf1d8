package cli

import (
	"errors"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/engine"
	"github.com/haskoe/ledger/journal"
)

// confirm asks before appending to the journal.
var confirm = promptYesNo

type ApproveCmd struct {
	Period string `arg:"" help:"Period to append to the journal."`
	Yes    bool   `help:"Approve without asking for confirmation." short:"y"`
}

func (cmd *ApproveCmd) Run(kctx *kong.Context, globals *Globals) error {
	s, err := newSession(kctx, globals, "approve "+cmd.Period)
	if err != nil {
		return err
	}
	defer s.report()

	c, err := s.engine()
	if err != nil {
		return err
	}
	j, err := s.journal()
	if err != nil {
		return err
	}
	defer func() { _ = j.Close() }()

	approved, err := j.Approved(s.ctx, cmd.Period)
	if err != nil {
		return err
	}
	if approved {
		printWarning(s.stdout, fmt.Sprintf("Period %s is already approved", cmd.Period))
		return nil
	}

	entries, err := c.Pending(s.ctx, cmd.Period)
	if err != nil {
		printError(s.stderr, err.Error())
		return NewCommandError(ExitFailure)
	}
	printInfof(s.stdout, "%d transactions pending for %s", len(entries), cmd.Period)

	if !cmd.Yes {
		ok, err := confirm(fmt.Sprintf("Append %d transactions to the journal?", len(entries)))
		if err != nil {
			return err
		}
		if !ok {
			printWarning(s.stdout, "Not approved (use --yes when not running in a terminal)")
			return nil
		}
	}

	err = c.Approve(s.ctx, j, cmd.Period, entries)
	switch {
	case errors.Is(err, journal.ErrAlreadyApproved):
		printWarning(s.stdout, fmt.Sprintf("Period %s is already approved", cmd.Period))
		return nil
	case errors.Is(err, engine.ErrLocked):
		printError(s.stderr, err.Error())
		return NewCommandError(ExitLocked)
	case err != nil:
		return err
	}

	printSuccess(s.stdout, fmt.Sprintf("Approved %s: %d transactions appended to %s",
		cmd.Period, len(entries), pathStyle.Render(j.Path())))
	return nil
}
