package ledger

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slices"
)

// Chart accumulates the distinct accounts referenced by a run.
type Chart struct {
	accounts map[string]struct{}
}

// NewChart creates a Chart seeded with structural accounts that must be
// declared even when no transaction references them.
func NewChart(structural ...string) *Chart {
	c := &Chart{accounts: make(map[string]struct{})}
	for _, a := range structural {
		c.Add(a)
	}
	return c
}

// Add records an account. Empty names are ignored.
func (c *Chart) Add(account string) {
	if account = strings.TrimSpace(account); account != "" {
		c.accounts[account] = struct{}{}
	}
}

// Accumulate records every posting account of txns.
func (c *Chart) Accumulate(txns ...*Transaction) {
	for _, txn := range txns {
		for _, p := range txn.postings {
			c.Add(p.Account)
		}
	}
}

// Accounts returns the accounts in lexicographic order.
func (c *Chart) Accounts() []string {
	accounts := make([]string, 0, len(c.accounts))
	for a := range c.accounts {
		accounts = append(accounts, a)
	}
	slices.Sort(accounts)
	return accounts
}

// Len returns the number of distinct accounts.
func (c *Chart) Len() int {
	return len(c.accounts)
}

// Declarations renders one open directive per account, sorted:
//
//	1900-01-01 open Assets:Bank:BankErhverv DKK
func (c *Chart) Declarations(openDate time.Time, currency string) string {
	var b strings.Builder
	for _, a := range c.Accounts() {
		_, _ = fmt.Fprintf(&b, "%s open %s %s\n", openDate.Format("2006-01-02"), a, currency)
	}
	return b.String()
}
