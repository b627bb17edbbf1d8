package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrImbalancedTransaction is the sentinel for ImbalancedTransactionError.
var ErrImbalancedTransaction = errors.New("imbalanced transaction")

// ClassificationErrors wraps every classification error of a run.
type ClassificationErrors struct {
	Errors []error
}

func (e *ClassificationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d classification errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ClassificationErrors) Unwrap() []error {
	return e.Errors
}

// ImbalancedTransactionError is returned when postings do not sum to zero.
// It indicates a defect in the builder, never bad input.
type ImbalancedTransactionError struct {
	Date      time.Time
	Narration string
	Postings  []Posting
	Residual  decimal.Decimal
}

func (e *ImbalancedTransactionError) Error() string {
	return fmt.Sprintf("%s: Transaction %q does not balance: (%s)",
		e.Date.Format("2006-01-02"), e.Narration, FormatAmount(e.Residual))
}

func (e *ImbalancedTransactionError) Unwrap() error {
	return ErrImbalancedTransaction
}

// InvalidAccountError is returned when a posting account has no known root.
type InvalidAccountError struct {
	Date    time.Time
	Account string
	Source  string
}

func (e *InvalidAccountError) Error() string {
	return fmt.Sprintf("%s: Invalid account %q for %q (must start with Assets, Liabilities, Equity, Income or Expenses)",
		e.Date.Format("2006-01-02"), e.Account, e.Source)
}

// RecordError attaches the record a classification error came from.
type RecordError struct {
	Kind string // "bank", "billing" or "payroll"
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s line %d: %v", e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
