package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/alecthomas/kong"

	"github.com/haskoe/ledger/config"
	"github.com/haskoe/ledger/engine"
	"github.com/haskoe/ledger/journal"
	"github.com/haskoe/ledger/output"
	"github.com/haskoe/ledger/telemetry"
)

// session carries what every command needs: settings, logger and the
// telemetry of the run.
type session struct {
	ctx      context.Context
	settings *config.Settings
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer

	collector telemetry.Collector
	timer     telemetry.Timer
	once      sync.Once
}

func newSession(kctx *kong.Context, globals *Globals, name string) (*session, error) {
	level := slog.LevelInfo
	if globals.Debug {
		level = slog.LevelDebug
	}

	s := &session{
		ctx:    context.Background(),
		logger: slog.New(slog.NewTextHandler(kctx.Stderr, &slog.HandlerOptions{Level: level})),
		stdout: kctx.Stdout,
		stderr: kctx.Stderr,
	}

	if globals.Telemetry {
		s.collector = telemetry.NewTimingCollector()
		s.ctx = telemetry.WithCollector(s.ctx, s.collector)
		s.timer = s.collector.Start(name)
		s.ctx = telemetry.WithTimer(s.ctx, s.timer)
	}

	settings, err := config.Load(globals.Root, globals.Company)
	if err != nil {
		return nil, err
	}
	s.settings = settings
	s.logger.Debug("Loaded settings", "company", settings.CompanyDir(), "journal", settings.JournalDB)

	return s, nil
}

// engine loads the master data of the company.
func (s *session) engine() (*engine.Context, error) {
	return engine.NewContext(s.ctx, s.settings, s.logger)
}

func (s *session) journal() (*journal.Journal, error) {
	return journal.Open(s.settings.JournalDB)
}

// report writes the timing tree once, when telemetry is enabled.
func (s *session) report() {
	s.once.Do(func() {
		if s.collector == nil {
			return
		}
		s.timer.End()
		_, _ = fmt.Fprintln(s.stderr)
		s.collector.Report(s.stderr, output.NewStyles(s.stderr))
	})
}

// parseDate parses an optional YYYY-MM-DD flag value, returning fallback when
// it is empty.
func parseDate(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", value)
	}
	return t, nil
}
