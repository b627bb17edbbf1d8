package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the accounts and rates the builder posts with.
// It's designed to be easily extended as more record kinds are supported.
type Config struct {
	Currency string
	VATRate  decimal.Decimal

	BankAccount      string
	PurchaseVAT      string // VAT paid on purchases (Assets)
	SalesVAT         string // VAT charged on sales (Liabilities)
	PayableVAT       string // VAT settled with the authorities
	RoundingAccount  string
	CreditorPrefix   string // clearing account prefix for outgoing payments
	DebtorPrefix     string // clearing account prefix for incoming payments
	IncomeGroup      string // group of billing income accounts
	PayrollExpense   string
	PayrollLiability string

	// PlainTemplate renders VAT-free legs such as payments.
	PlainTemplate string

	// Tolerance is the largest accepted residual of a transaction.
	Tolerance decimal.Decimal
}

// NewConfig creates a Config with the defaults of a Danish small business.
func NewConfig() *Config {
	return &Config{
		Currency:         "DKK",
		VATRate:          decimal.RequireFromString("0.25"),
		BankAccount:      "Assets:Bank:BankErhverv",
		PurchaseVAT:      "Assets:Moms:KoebMoms",
		SalesVAT:         "Liabilities:Moms:SalgMoms",
		PayableVAT:       "Liabilities:Moms:SkyldigMoms",
		RoundingAccount:  "Equity:Afrunding",
		CreditorPrefix:   "Liabilities:Kreditorer",
		DebtorPrefix:     "Assets:Debitorer",
		IncomeGroup:      "Income:Salg",
		PayrollExpense:   "Expenses:Loen",
		PayrollLiability: "Liabilities:Loen",
		PlainTemplate:    "uden_moms",
		Tolerance:        decimal.New(1, -2),
	}
}

// Validate checks that every configured account has a known root.
func (c *Config) Validate() error {
	accounts := map[string]string{
		"bank account":      c.BankAccount,
		"purchase vat":      c.PurchaseVAT,
		"sales vat":         c.SalesVAT,
		"payable vat":       c.PayableVAT,
		"rounding account":  c.RoundingAccount,
		"creditor prefix":   c.CreditorPrefix,
		"debtor prefix":     c.DebtorPrefix,
		"income group":      c.IncomeGroup,
		"payroll expense":   c.PayrollExpense,
		"payroll liability": c.PayrollLiability,
	}
	for _, name := range sortedKeys(accounts) {
		if ParseAccountType(accounts[name]) == AccountTypeUnknown {
			return fmt.Errorf("invalid %s %q", name, accounts[name])
		}
	}

	if c.VATRate.IsNegative() || c.VATRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("vat rate must be a fraction below 1 (0.25 for 25%%), got %s", c.VATRate)
	}
	if c.PlainTemplate == "" {
		return fmt.Errorf("plain template id is required")
	}
	return nil
}
