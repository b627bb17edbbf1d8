// Package config loads the settings of a bookkeeping run.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults for a Danish small business
//  2. <root>/<company>/bogholder.yaml
//  3. environment variables, read from the process environment or from a
//     .env file in the company directory
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/haskoe/ledger/ledger"
)

// File names inside a company directory.
const (
	SettingsFile = "bogholder.yaml"
	EnvFile      = ".env"
)

// Environment variables overriding settings.
const (
	EnvRoot        = "BOGHOLDER_ROOT"
	EnvVATRate     = "BOGHOLDER_VAT_RATE"
	EnvBankAccount = "BOGHOLDER_BANK_ACCOUNT"
	EnvJournalDB   = "BOGHOLDER_JOURNAL_DB"
	EnvStrictMatch = "BOGHOLDER_STRICT_MATCH"
)

const (
	defaultRoot     = "."
	defaultCompany  = "firma"
	defaultOpenDate = "1900-01-01"
)

// Accounts names the accounts postings are made against.
type Accounts struct {
	Bank             string `yaml:"bank"`
	PurchaseVAT      string `yaml:"purchase_vat"`
	SalesVAT         string `yaml:"sales_vat"`
	PayableVAT       string `yaml:"payable_vat"`
	Rounding         string `yaml:"rounding"`
	CreditorPrefix   string `yaml:"creditor_prefix"`
	DebtorPrefix     string `yaml:"debtor_prefix"`
	IncomeGroup      string `yaml:"income_group"`
	PayrollExpense   string `yaml:"payroll_expense"`
	PayrollLiability string `yaml:"payroll_liability"`
}

// Settings holds everything a run needs besides the tables.
type Settings struct {
	Root    string
	Company string

	Currency      string
	VATRate       decimal.Decimal
	Tolerance     decimal.Decimal
	Accounts      Accounts
	PlainTemplate string

	// Structural lists the accounts declared even when no transaction uses
	// them. Empty means the set derived from Accounts; see StructuralAccounts.
	Structural []string
	OpenDate   time.Time

	BankDateLayout     string
	ShortDateLayout    string
	ThousandsSeparator rune

	StrictMatch bool
	JournalDB   string
	TemplateDir string
}

// file mirrors bogholder.yaml. Scalars that need parsing are strings; unset
// fields keep their defaults.
type file struct {
	Currency           string   `yaml:"currency"`
	VATRate            string   `yaml:"vat_rate"`
	Tolerance          string   `yaml:"tolerance"`
	Accounts           Accounts `yaml:"accounts"`
	PlainTemplate      string   `yaml:"plain_template"`
	Structural         []string `yaml:"structural_accounts"`
	OpenDate           string   `yaml:"open_date"`
	BankDateLayout     string   `yaml:"bank_date_layout"`
	ShortDateLayout    string   `yaml:"short_date_layout"`
	ThousandsSeparator string   `yaml:"thousands_separator"`
	StrictMatch        *bool    `yaml:"strict_match"`
	JournalDB          string   `yaml:"journal_db"`
	TemplateDir        string   `yaml:"template_dir"`
}

// Default returns the built-in settings for company below root.
func Default(root, company string) *Settings {
	c := ledger.NewConfig()
	open, _ := time.Parse("2006-01-02", defaultOpenDate)

	s := &Settings{
		Root:          root,
		Company:       company,
		Currency:      c.Currency,
		VATRate:       c.VATRate,
		Tolerance:     c.Tolerance,
		PlainTemplate: c.PlainTemplate,
		Accounts: Accounts{
			Bank:             c.BankAccount,
			PurchaseVAT:      c.PurchaseVAT,
			SalesVAT:         c.SalesVAT,
			PayableVAT:       c.PayableVAT,
			Rounding:         c.RoundingAccount,
			CreditorPrefix:   c.CreditorPrefix,
			DebtorPrefix:     c.DebtorPrefix,
			IncomeGroup:      c.IncomeGroup,
			PayrollExpense:   c.PayrollExpense,
			PayrollLiability: c.PayrollLiability,
		},
		OpenDate:           open,
		BankDateLayout:     "02-01-2006",
		ShortDateLayout:    "060102",
		ThousandsSeparator: '.',
	}
	s.JournalDB = filepath.Join(s.CompanyDir(), "journal.db")
	s.TemplateDir = filepath.Join(root, "templates")
	return s
}

// Load reads the settings of company below root. An empty root falls back to
// BOGHOLDER_ROOT, then the working directory; an empty company to "firma".
func Load(root, company string) (*Settings, error) {
	if company == "" {
		company = defaultCompany
	}

	env, err := environment(root, company)
	if err != nil {
		return nil, err
	}
	if root == "" {
		root = env.get(EnvRoot, defaultRoot)
		// The company .env may itself name the root.
		if env, err = environment(root, company); err != nil {
			return nil, err
		}
	}

	s := Default(root, company)
	if err := s.loadFile(filepath.Join(s.CompanyDir(), SettingsFile)); err != nil {
		return nil, err
	}
	if err := s.applyEnv(env); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}

	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", path, err)
	}

	setString(&s.Currency, f.Currency)
	setString(&s.PlainTemplate, f.PlainTemplate)
	setString(&s.BankDateLayout, f.BankDateLayout)
	setString(&s.ShortDateLayout, f.ShortDateLayout)
	setString(&s.JournalDB, s.resolve(f.JournalDB))
	setString(&s.TemplateDir, s.resolve(f.TemplateDir))
	s.Accounts.merge(f.Accounts)

	if len(f.Structural) > 0 {
		s.Structural = f.Structural
	}
	if f.StrictMatch != nil {
		s.StrictMatch = *f.StrictMatch
	}
	if f.VATRate != "" {
		if s.VATRate, err = decimal.NewFromString(f.VATRate); err != nil {
			return fmt.Errorf("%s: invalid vat_rate %q", path, f.VATRate)
		}
	}
	if f.Tolerance != "" {
		if s.Tolerance, err = decimal.NewFromString(f.Tolerance); err != nil {
			return fmt.Errorf("%s: invalid tolerance %q", path, f.Tolerance)
		}
	}
	if f.OpenDate != "" {
		if s.OpenDate, err = time.Parse("2006-01-02", f.OpenDate); err != nil {
			return fmt.Errorf("%s: invalid open_date %q", path, f.OpenDate)
		}
	}
	if f.ThousandsSeparator != "" {
		r, size := utf8.DecodeRuneInString(f.ThousandsSeparator)
		if size != len(f.ThousandsSeparator) {
			return fmt.Errorf("%s: thousands_separator must be a single character, got %q", path, f.ThousandsSeparator)
		}
		s.ThousandsSeparator = r
	}

	return nil
}

func (s *Settings) applyEnv(env environ) error {
	if v := env.get(EnvVATRate, ""); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q", EnvVATRate, v)
		}
		s.VATRate = rate
	}
	setString(&s.Accounts.Bank, env.get(EnvBankAccount, ""))
	setString(&s.JournalDB, s.resolve(env.get(EnvJournalDB, "")))

	if v := env.get(EnvStrictMatch, ""); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvStrictMatch, v, err)
		}
		s.StrictMatch = strict
	}
	return nil
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	if s.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	if s.Tolerance.IsNegative() {
		return fmt.Errorf("tolerance must not be negative")
	}
	for _, a := range s.StructuralAccounts() {
		if ledger.ParseAccountType(a) == ledger.AccountTypeUnknown {
			return fmt.Errorf("invalid structural account %q", a)
		}
	}
	return s.Ledger().Validate()
}

// StructuralAccounts returns the accounts every chart declares: the
// structural_accounts list when set, otherwise the VAT and rounding accounts
// in effect plus the fixed equity accounts.
func (s *Settings) StructuralAccounts() []string {
	if len(s.Structural) > 0 {
		return s.Structural
	}
	return []string{
		s.Accounts.Rounding,
		"Equity:Korrektion",
		"Equity:Opening-Balances",
		s.Accounts.PayableVAT,
		s.Accounts.SalesVAT,
		s.Accounts.PurchaseVAT,
	}
}

// Ledger returns the posting configuration.
func (s *Settings) Ledger() *ledger.Config {
	return &ledger.Config{
		Currency:         s.Currency,
		VATRate:          s.VATRate,
		BankAccount:      s.Accounts.Bank,
		PurchaseVAT:      s.Accounts.PurchaseVAT,
		SalesVAT:         s.Accounts.SalesVAT,
		PayableVAT:       s.Accounts.PayableVAT,
		RoundingAccount:  s.Accounts.Rounding,
		CreditorPrefix:   s.Accounts.CreditorPrefix,
		DebtorPrefix:     s.Accounts.DebtorPrefix,
		IncomeGroup:      s.Accounts.IncomeGroup,
		PayrollExpense:   s.Accounts.PayrollExpense,
		PayrollLiability: s.Accounts.PayrollLiability,
		PlainTemplate:    s.PlainTemplate,
		Tolerance:        s.Tolerance,
	}
}

// CompanyDir returns the directory of the company.
func (s *Settings) CompanyDir() string {
	return filepath.Join(s.Root, s.Company)
}

// MasterDataPath returns the path of a company-wide table.
func (s *Settings) MasterDataPath(name string) string {
	return filepath.Join(s.CompanyDir(), "stamdata", name)
}

// PeriodPath returns the path of a table of one accounting period.
func (s *Settings) PeriodPath(period, name string) string {
	return filepath.Join(s.CompanyDir(), period, name)
}

// GeneratedPath returns the path of a generated ledger file.
func (s *Settings) GeneratedPath(name string) string {
	return filepath.Join(s.CompanyDir(), "generated", name)
}

// ChartPath returns the path of the account declarations.
func (s *Settings) ChartPath() string {
	return filepath.Join(s.CompanyDir(), "kontoplan.beancount")
}

// LockPath returns the path of the run lock file.
func (s *Settings) LockPath() string {
	return filepath.Join(s.CompanyDir(), ".bogholder.lock")
}

// resolve makes relative paths relative to the company directory.
func (s *Settings) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.CompanyDir(), path)
}

func (a *Accounts) merge(o Accounts) {
	setString(&a.Bank, o.Bank)
	setString(&a.PurchaseVAT, o.PurchaseVAT)
	setString(&a.SalesVAT, o.SalesVAT)
	setString(&a.PayableVAT, o.PayableVAT)
	setString(&a.Rounding, o.Rounding)
	setString(&a.CreditorPrefix, o.CreditorPrefix)
	setString(&a.DebtorPrefix, o.DebtorPrefix)
	setString(&a.IncomeGroup, o.IncomeGroup)
	setString(&a.PayrollExpense, o.PayrollExpense)
	setString(&a.PayrollLiability, o.PayrollLiability)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// environ looks variables up in the process environment first, then in the
// values read from a .env file.
type environ map[string]string

func environment(root, company string) (environ, error) {
	if root == "" {
		root = os.Getenv(EnvRoot)
	}
	if root == "" {
		root = defaultRoot
	}

	values, err := godotenv.Read(filepath.Join(root, company, EnvFile))
	if errors.Is(err, fs.ErrNotExist) {
		return environ{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", EnvFile, err)
	}
	return values, nil
}

func (e environ) get(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v := e[key]; v != "" {
		return v
	}
	return fallback
}
