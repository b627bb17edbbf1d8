package account

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/haskoe/ledger/table"
)

// Directory maps account tokens to their group and full account path.
// Lookups are case-insensitive.
type Directory struct {
	entries map[string]table.DirectoryEntry
}

// NewDirectory indexes entries, rejecting tokens that are listed twice.
func NewDirectory(entries []table.DirectoryEntry) (*Directory, error) {
	d := &Directory{entries: make(map[string]table.DirectoryEntry, len(entries))}

	for _, e := range entries {
		key := Fold(e.Token)
		if prev, ok := d.entries[key]; ok {
			return nil, fmt.Errorf("account %s is listed in both %s and %s", e.Token, prev.Group, e.Group)
		}
		d.entries[key] = e
	}

	return d, nil
}

// Resolve returns the directory entry for token.
func (d *Directory) Resolve(token string) (table.DirectoryEntry, error) {
	e, ok := d.entries[Fold(token)]
	if !ok {
		return table.DirectoryEntry{}, &UnknownAccountError{Token: token}
	}
	return e, nil
}

// Len returns the number of accounts in the directory.
func (d *Directory) Len() int {
	return len(d.entries)
}

// Paths returns every full account path, sorted.
func (d *Directory) Paths() []string {
	paths := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		paths = append(paths, e.Path())
	}
	sort.Strings(paths)
	return paths
}

// Overrides pins accounts for individual bank records of one period.
type Overrides struct {
	byKey map[string]table.AccountOverride
}

// NewOverrides indexes overrides by date and description.
func NewOverrides(overrides []table.AccountOverride) *Overrides {
	o := &Overrides{byKey: make(map[string]table.AccountOverride, len(overrides))}
	for _, ov := range overrides {
		o.byKey[overrideKey(ov.Date, ov.Description)] = ov
	}
	return o
}

// Lookup returns the override for a bank record, if one is configured.
func (o *Overrides) Lookup(date time.Time, description string) (table.AccountOverride, bool) {
	if o == nil {
		return table.AccountOverride{}, false
	}
	ov, ok := o.byKey[overrideKey(date, description)]
	return ov, ok
}

func overrideKey(date time.Time, description string) string {
	return date.Format("20060102") + "|" + Fold(description)
}

// Classification is the resolved account of a bank record.
type Classification struct {
	Token    string
	Group    string
	Path     string
	Pattern  string // matched pattern, empty for overrides
	Override bool
	VATFree  decimal.Decimal
}

// Classifier combines overrides, pattern matching and the directory.
type Classifier struct {
	matcher   *Matcher
	directory *Directory
	overrides *Overrides
}

// NewClassifier creates a Classifier. overrides may be nil.
func NewClassifier(matcher *Matcher, directory *Directory, overrides *Overrides) *Classifier {
	return &Classifier{matcher: matcher, directory: directory, overrides: overrides}
}

// Classify resolves the account of a bank record.
func (c *Classifier) Classify(date time.Time, description string) (Classification, error) {
	var cl Classification

	if ov, ok := c.overrides.Lookup(date, description); ok {
		cl.Token = ov.Token
		cl.Override = true
		cl.VATFree = ov.VATFree
	} else {
		m, err := c.matcher.Match(date, description)
		if err != nil {
			return Classification{}, err
		}
		cl.Token = m.Token
		cl.Pattern = m.Pattern
	}

	entry, err := c.directory.Resolve(cl.Token)
	if err != nil {
		return Classification{}, &UnknownAccountError{Date: date, Token: cl.Token, Description: description}
	}

	cl.Token = entry.Token
	cl.Group = entry.Group
	cl.Path = entry.Path()

	return cl, nil
}
