// Package template resolves the transaction template that governs how a
// classified record is posted: the number of postings, whether VAT applies and
// which secondary accounts take part.
//
// Templates are keyed by account-group prefix. Resolution walks from the most
// specific prefix to the least specific one, ending with the empty prefix as a
// catch-all, and returns the first template found.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haskoe/ledger/table"
)

// Separator delimits the segments of an account path.
const Separator = ":"

// ErrMissingTemplate is the sentinel for MissingTemplateError.
var ErrMissingTemplate = errors.New("missing template")

// MissingTemplateError is returned when no prefix of a group, including the
// empty prefix, has a template.
type MissingTemplateError struct {
	Group string
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("No transaction template for %s", e.Group)
}

func (e *MissingTemplateError) Unwrap() error {
	return ErrMissingTemplate
}

// Template describes the posting structure for an account group.
type Template struct {
	Key      string
	ID       string
	Accounts [3]string // secondary account slots 2, 3 and 4; empty when unset
	Postings int
	VAT      bool
}

// Account returns secondary account slot n (2, 3 or 4), or fallback when the
// slot is empty.
func (t Template) Account(n int, fallback string) string {
	if n < 2 || n > 4 {
		return fallback
	}
	if a := t.Accounts[n-2]; a != "" {
		return a
	}
	return fallback
}

// Resolver looks up templates by hierarchical group prefix.
type Resolver struct {
	byKey map[string]Template
}

// NewResolver indexes template rows by group key. A key listed twice is an error.
func NewResolver(rows []table.TemplateRow) (*Resolver, error) {
	r := &Resolver{byKey: make(map[string]Template, len(rows))}

	for _, row := range rows {
		key := strings.TrimSuffix(row.GroupKey, Separator)
		if _, ok := r.byKey[key]; ok {
			return nil, fmt.Errorf("template for %q is defined more than once", key)
		}
		r.byKey[key] = Template{
			Key:      key,
			ID:       row.TemplateID,
			Accounts: row.Accounts,
			Postings: row.Postings,
			VAT:      row.VAT,
		}
	}

	return r, nil
}

// Resolve returns the template of the most specific prefix of group.
func (r *Resolver) Resolve(group string) (Template, error) {
	for _, prefix := range Prefixes(group) {
		if t, ok := r.byKey[prefix]; ok {
			return t, nil
		}
	}
	return Template{}, &MissingTemplateError{Group: group}
}

// Prefixes returns group and each of its ancestors, most specific first,
// ending with the empty prefix.
//
//	Prefixes("Expenses:Office:Supplies")
//	// ["Expenses:Office:Supplies", "Expenses:Office", "Expenses", ""]
func Prefixes(group string) []string {
	if group == "" {
		return []string{""}
	}

	segments := strings.Split(group, Separator)
	prefixes := make([]string, 0, len(segments)+1)
	for i := len(segments); i > 0; i-- {
		prefixes = append(prefixes, strings.Join(segments[:i], Separator))
	}
	return append(prefixes, "")
}
