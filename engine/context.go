// Package engine runs bookkeeping operations for one company: it loads the
// tables once per run, builds transactions for a period and writes the
// generated ledgers, and answers reconciliation, VAT closing and status
// queries against the journal.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/haskoe/ledger/account"
	"github.com/haskoe/ledger/config"
	"github.com/haskoe/ledger/ledger"
	"github.com/haskoe/ledger/price"
	"github.com/haskoe/ledger/render"
	"github.com/haskoe/ledger/table"
	"github.com/haskoe/ledger/telemetry"
	"github.com/haskoe/ledger/template"
)

// Table file names.
const (
	DirectoryTable   = "account.csv"
	PatternTable     = "account_regex.csv"
	TemplateTable    = "transaction_type.csv"
	PriceTable       = "prices.csv"
	InvoiceLinkTable = "bank_to_invoice.csv"

	BankTable     = "bank.csv"
	BillingTable  = "salg.csv"
	PayrollTable  = "loen.csv"
	OverrideTable = "account_override.csv"
)

// Context holds everything loaded once per run. It is read-only after
// NewContext returns.
type Context struct {
	Settings *config.Settings
	Logger   *slog.Logger

	reader    *table.Reader
	matcher   *account.Matcher
	directory *account.Directory
	templates *template.Resolver
	prices    *price.Resolver
	links     map[string]string
	renderer  render.Renderer
}

// NewContext loads the company-wide tables named by settings.
func NewContext(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*Context, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	timer := telemetry.StartTimer(ctx, "load master data")
	defer timer.End()

	c := &Context{
		Settings: settings,
		Logger:   logger,
		reader: table.New(
			table.WithThousandsSeparator(settings.ThousandsSeparator),
			table.WithBankDateLayout(settings.BankDateLayout),
			table.WithShortDateLayout(settings.ShortDateLayout),
		),
		renderer: render.NewTemplates(settings.TemplateDir, render.NewBeancount()),
	}

	entries, err := c.reader.Directory(settings.MasterDataPath(DirectoryTable))
	if err != nil {
		return nil, err
	}
	if c.directory, err = account.NewDirectory(entries); err != nil {
		return nil, err
	}
	for _, path := range c.directory.Paths() {
		if ledger.ParseAccountType(path) == ledger.AccountTypeUnknown {
			return nil, fmt.Errorf("%s: account %q must start with Assets, Liabilities, Equity, Income or Expenses",
				DirectoryTable, path)
		}
	}

	rules, err := c.reader.PatternRules(settings.MasterDataPath(PatternTable))
	if err != nil {
		return nil, err
	}
	var opts []account.MatcherOption
	if settings.StrictMatch {
		opts = append(opts, account.WithStrictMatching())
	}
	if c.matcher, err = account.NewMatcher(rules, opts...); err != nil {
		return nil, err
	}

	rows, err := c.reader.Templates(settings.MasterDataPath(TemplateTable))
	if err != nil {
		return nil, err
	}
	if c.templates, err = template.NewResolver(rows); err != nil {
		return nil, err
	}

	points, err := optional(c.reader.Prices(settings.MasterDataPath(PriceTable)))
	if err != nil {
		return nil, err
	}
	if c.prices, err = price.NewResolver(points); err != nil {
		return nil, err
	}

	if c.links, err = optional(c.reader.InvoiceLinks(settings.MasterDataPath(InvoiceLinkTable))); err != nil {
		return nil, err
	}

	logger.DebugContext(ctx, "Loaded master data",
		"accounts", c.directory.Len(),
		"patterns", len(rules),
		"templates", len(rows),
		"prices", len(points),
		"invoice_links", len(c.links))

	return c, nil
}

// Directory returns the account directory.
func (c *Context) Directory() *account.Directory {
	return c.directory
}

// Builder returns a transaction builder for the given period overrides.
func (c *Context) Builder(overrides *account.Overrides) *ledger.Builder {
	classifier := account.NewClassifier(c.matcher, c.directory, overrides)
	return ledger.NewBuilder(c.Settings.Ledger(), classifier, c.templates, c.prices)
}

// optional treats a missing table as an empty one.
func optional[T any](v T, err error) (T, error) {
	if errors.Is(err, table.ErrNotExist) {
		var zero T
		return zero, nil
	}
	return v, err
}
