package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/render"
	"github.com/haskoe/ledger/telemetry"
)

// ErrLocked is returned when another run holds the company lock.
var ErrLocked = errors.New("another run is in progress")

// Run is the outcome of building one period.
type Run struct {
	Period string
	Result *ledger.Result
	Chart  *ledger.Chart

	hasBilling bool
	hasPayroll bool
}

// Generation describes the files written by Generate.
type Generation struct {
	*Run
	Files []string
}

// Output is one generated file.
type Output struct {
	Path    string
	Content string
}

// Build loads the tables of period and builds its transactions. Nothing is
// written.
func (c *Context) Build(ctx context.Context, period string) (*Run, error) {
	year, err := periodYear(period)
	if err != nil {
		return nil, err
	}
	s := c.Settings

	timer := telemetry.StartTimer(ctx, "load period tables")
	bank, err := c.reader.BankRecords(s.PeriodPath(period, BankTable))
	if err != nil {
		timer.End()
		return nil, err
	}
	billing, err := optional(c.reader.BillingRecords(s.PeriodPath(period, BillingTable)))
	if err != nil {
		timer.End()
		return nil, err
	}
	payroll, err := optional(c.reader.PayrollRecords(s.PeriodPath(period, PayrollTable), year))
	if err != nil {
		timer.End()
		return nil, err
	}
	overrides, err := optional(c.reader.AccountOverrides(s.PeriodPath(period, OverrideTable)))
	if err != nil {
		timer.End()
		return nil, err
	}
	timer.End()

	c.Logger.DebugContext(ctx, "Loaded period tables",
		"period", period,
		"bank", len(bank),
		"billing", len(billing),
		"payroll", len(payroll),
		"overrides", len(overrides))

	result, err := c.Builder(account.NewOverrides(overrides)).Build(ctx, ledger.Input{
		Bank:         bank,
		Billing:      billing,
		Payroll:      payroll,
		InvoiceLinks: c.links,
	})
	if err != nil {
		return nil, err
	}

	chart := ledger.NewChart(s.StructuralAccounts()...)
	chart.Accumulate(result.All()...)

	return &Run{
		Period:     period,
		Result:     result,
		Chart:      chart,
		hasBilling: exists(s.PeriodPath(period, BillingTable)),
		hasPayroll: exists(s.PeriodPath(period, PayrollTable)),
	}, nil
}

// Outputs renders the files of a run.
func (c *Context) Outputs(run *Run) ([]Output, error) {
	s := c.Settings

	bank, err := render.Transactions(c.renderer, s.Currency, run.Result.Bank)
	if err != nil {
		return nil, err
	}
	outputs := []Output{{Path: s.GeneratedPath(run.Period + ".beancount"), Content: bank}}

	if run.hasBilling {
		text, err := render.Transactions(c.renderer, s.Currency, run.Result.Billing)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: s.GeneratedPath("salg.beancount"), Content: text})
	}
	if run.hasPayroll {
		text, err := render.Transactions(c.renderer, s.Currency, run.Result.Payroll)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, Output{Path: s.GeneratedPath("loen.beancount"), Content: text})
	}

	outputs = append(outputs, Output{
		Path:    s.ChartPath(),
		Content: run.Chart.Declarations(s.OpenDate, s.Currency),
	})
	return outputs, nil
}

// Generate builds period and writes its ledgers and the account declarations.
// Files are only written when every record was classified and rendered; a
// failed run leaves previous output untouched.
func (c *Context) Generate(ctx context.Context, period string) (*Generation, error) {
	unlock, err := c.Lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	timer := telemetry.StartTimer(ctx, "generate "+period)
	defer timer.End()
	ctx = telemetry.WithTimer(ctx, timer)

	run, err := c.Build(ctx, period)
	if err != nil {
		return nil, err
	}

	renderTimer := telemetry.StartTimer(ctx, "render")
	outputs, err := c.Outputs(run)
	renderTimer.End()
	if err != nil {
		return nil, err
	}

	writeTimer := telemetry.StartTimer(ctx, "write outputs")
	err = WriteAll(outputs)
	writeTimer.End()
	if err != nil {
		return nil, err
	}

	files := make([]string, len(outputs))
	for i, o := range outputs {
		files[i] = o.Path
	}

	c.Logger.InfoContext(ctx, "Generated ledgers",
		"period", period,
		"transactions", len(run.Result.All()),
		"skipped", run.Result.Skipped,
		"accounts", run.Chart.Len())

	return &Generation{Run: run, Files: files}, nil
}

// Lock takes the exclusive run lock of the company. The returned function
// releases it.
func (c *Context) Lock() (func(), error) {
	path := c.Settings.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, path)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			c.Logger.Warn("Failed to release run lock", "path", path, "error", err)
		}
	}, nil
}

// WriteAll writes every output to a temporary file next to its target, then
// renames them all into place. When any write fails, no target is touched.
func WriteAll(outputs []Output) error {
	temps := make([]string, 0, len(outputs))
	cleanup := func() {
		for _, t := range temps {
			_ = os.Remove(t)
		}
	}

	for _, o := range outputs {
		tmp, err := writeTemp(o)
		if err != nil {
			cleanup()
			return err
		}
		temps = append(temps, tmp)
	}

	for i, o := range outputs {
		if err := os.Rename(temps[i], o.Path); err != nil {
			cleanup()
			return fmt.Errorf("failed to replace %s: %w", o.Path, err)
		}
	}
	return nil
}

func writeTemp(o Output) (string, error) {
	dir := filepath.Dir(o.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(o.Path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for %s: %w", o.Path, err)
	}
	if _, err := f.WriteString(o.Content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", o.Path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", o.Path, err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// periodYear returns the calendar year a period belongs to. Periods are
// named by year, optionally followed by a suffix: "2024", "2024-1".
func periodYear(period string) (int, error) {
	if len(period) < 4 {
		return 0, fmt.Errorf("invalid period %q: must start with a year", period)
	}
	year, err := strconv.Atoi(period[:4])
	if err != nil || year < 1900 {
		return 0, fmt.Errorf("invalid period %q: must start with a year", period)
	}
	return year, nil
}

// PeriodEnd returns the last day of the year of period.
func PeriodEnd(period string) (time.Time, error) {
	year, err := periodYear(period)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
