// Package account classifies free-text bank descriptions into accounts of the
// chart of accounts.
//
// Classification runs in three steps: a per-period override keyed by date and
// description wins outright; otherwise every pattern rule is tested against the
// description and the most specific match selects an account token; finally the
// token is resolved to its group and full path through the account directory.
package account

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"

	"github.com/haskoe/ledger/table"
)

// regexPrefix marks a pattern rule as a regular expression instead of a
// plain substring.
const regexPrefix = "re:"

// Match is a pattern rule that matched a description.
type Match struct {
	Token   string
	Pattern string
	Order   int // position of the rule in configuration order
}

type compiledRule struct {
	match  Match
	needle string
	re     *regexp.Regexp
}

func (r compiledRule) matches(folded string) bool {
	if r.re != nil {
		return r.re.MatchString(folded)
	}
	return strings.Contains(folded, r.needle)
}

// Matcher tests descriptions against the configured pattern rules.
type Matcher struct {
	rules  []compiledRule
	strict bool
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithStrictMatching reports equally specific matches for different accounts
// as an AmbiguousMatchError instead of picking the first configured rule.
func WithStrictMatching() MatcherOption {
	return func(m *Matcher) {
		m.strict = true
	}
}

// NewMatcher compiles pattern rules. Rules prefixed with "re:" are regular
// expressions; all others are substrings. Both match case-insensitively.
func NewMatcher(rules []table.PatternRule, opts ...MatcherOption) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for _, opt := range opts {
		opt(m)
	}

	for i, rule := range rules {
		cr := compiledRule{match: Match{Token: rule.Token, Pattern: rule.Pattern, Order: i}}

		if expr, ok := strings.CutPrefix(rule.Pattern, regexPrefix); ok {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("pattern rule %d: %w", rule.Line, err)
			}
			cr.re = re
			cr.match.Pattern = expr
		} else {
			cr.needle = Fold(rule.Pattern)
		}

		m.rules = append(m.rules, cr)
	}

	return m, nil
}

// Candidates returns every account selected by a rule matching description,
// one entry per account token. When several rules select the same token the
// most specific one is kept. Candidates are ordered most specific first, with
// configuration order breaking ties.
func (m *Matcher) Candidates(description string) []Match {
	folded := Fold(description)

	best := make(map[string]int)
	var candidates []Match
	for _, rule := range m.rules {
		if !rule.matches(folded) {
			continue
		}

		key := Fold(rule.match.Token)
		if i, ok := best[key]; ok {
			if moreSpecific(rule.match, candidates[i]) {
				candidates[i] = rule.match
			}
			continue
		}
		best[key] = len(candidates)
		candidates = append(candidates, rule.match)
	}

	slices.SortStableFunc(candidates, func(a, b Match) int {
		switch {
		case moreSpecific(a, b):
			return -1
		case moreSpecific(b, a):
			return 1
		}
		return 0
	})

	return candidates
}

// Match selects the account for description. The longest matching pattern
// wins; equal lengths go to the rule configured first.
func (m *Matcher) Match(date time.Time, description string) (Match, error) {
	candidates := m.Candidates(description)
	if len(candidates) == 0 {
		return Match{}, &UnmatchedDescriptionError{Date: date, Description: description}
	}

	if m.strict && len(candidates) > 1 && patternLen(candidates[0]) == patternLen(candidates[1]) {
		var tied []Match
		for _, c := range candidates {
			if patternLen(c) == patternLen(candidates[0]) {
				tied = append(tied, c)
			}
		}
		return Match{}, &AmbiguousMatchError{Date: date, Description: description, Candidates: tied}
	}

	return candidates[0], nil
}

func moreSpecific(a, b Match) bool {
	if la, lb := patternLen(a), patternLen(b); la != lb {
		return la > lb
	}
	return a.Order < b.Order
}

func patternLen(m Match) int {
	return utf8.RuneCountInString(m.Pattern)
}

// Fold returns the case-folded form of s. Tokens, patterns and descriptions
// are compared in this form everywhere.
func Fold(s string) string {
	return cases.Fold().String(s)
}
