// Package render turns transactions into ledger-entry text.
//
// A Renderer receives a template id and the flat key/value view of one
// transaction. Templates renders user-supplied text/template files named
// <id>.tmpl and falls back to the built-in Beancount renderer for ids without
// a file.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/haskoe/ledger/ledger"
)

// ErrUnknownTemplate is returned when no template exists for an id.
var ErrUnknownTemplate = errors.New("unknown template")

// Renderer renders the flat view of one transaction.
type Renderer interface {
	Render(templateID string, flat map[string]string) (string, error)
}

// Transactions renders txns in order, separated by blank lines.
func Transactions(r Renderer, currency string, txns []*ledger.Transaction) (string, error) {
	var b strings.Builder
	for i, txn := range txns {
		text, err := r.Render(txn.TemplateID(), txn.Flat(currency))
		if err != nil {
			return "", fmt.Errorf("%s %q: %w", txn.Date().Format("2006-01-02"), txn.Narration(), err)
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(text, "\n"))
		b.WriteByte('\n')
	}
	return b.String(), nil
}
