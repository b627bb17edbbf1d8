package ledger

import (
	"strings"
)

// AccountType is the root classification of an account path.
type AccountType int

const (
	AccountTypeUnknown AccountType = iota
	AccountTypeAssets
	AccountTypeLiabilities
	AccountTypeEquity
	AccountTypeIncome
	AccountTypeExpenses
)

var accountRoots = [...]string{
	AccountTypeUnknown:     "Unknown",
	AccountTypeAssets:      "Assets",
	AccountTypeLiabilities: "Liabilities",
	AccountTypeEquity:      "Equity",
	AccountTypeIncome:      "Income",
	AccountTypeExpenses:    "Expenses",
}

func (t AccountType) String() string {
	if t < 0 || int(t) >= len(accountRoots) {
		return accountRoots[AccountTypeUnknown]
	}
	return accountRoots[t]
}

// ParseAccountType reads the type from the first segment of an account path.
// Paths outside the five roots are AccountTypeUnknown.
func ParseAccountType(account string) AccountType {
	root, _, _ := strings.Cut(account, ":")
	for t := AccountTypeAssets; t <= AccountTypeExpenses; t++ {
		if accountRoots[t] == root {
			return t
		}
	}
	return AccountTypeUnknown
}

// Join builds an account path from segments, skipping empty ones.
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.Trim(s, ":"); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ":")
}
