package account

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrUnmatchedDescription = errors.New("unmatched description")
	ErrAmbiguousMatch       = errors.New("ambiguous match")
	ErrUnknownAccount       = errors.New("unknown account")
)

// UnmatchedDescriptionError is returned when no pattern rule matches a description.
type UnmatchedDescriptionError struct {
	Date        time.Time
	Description string
}

func (e *UnmatchedDescriptionError) Error() string {
	return fmt.Sprintf("%s: No account pattern matches %q", formatDate(e.Date), e.Description)
}

func (e *UnmatchedDescriptionError) Unwrap() error {
	return ErrUnmatchedDescription
}

// AmbiguousMatchError is returned in strict mode when equally specific patterns
// select different accounts.
type AmbiguousMatchError struct {
	Date        time.Time
	Description string
	Candidates  []Match
}

func (e *AmbiguousMatchError) Error() string {
	parts := make([]string, 0, len(e.Candidates))
	for _, c := range e.Candidates {
		parts = append(parts, fmt.Sprintf("%s (%q)", c.Token, c.Pattern))
	}
	return fmt.Sprintf("%s: Different accounts match %q: %s",
		formatDate(e.Date), e.Description, strings.Join(parts, ", "))
}

func (e *AmbiguousMatchError) Unwrap() error {
	return ErrAmbiguousMatch
}

// UnknownAccountError is returned when a matched account token has no
// directory entry.
type UnknownAccountError struct {
	Date        time.Time
	Token       string
	Description string
}

func (e *UnknownAccountError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("Account %s does not exist in the account directory", e.Token)
	}
	return fmt.Sprintf("%s: Account %s (matched from %q) does not exist in the account directory",
		formatDate(e.Date), e.Token, e.Description)
}

func (e *UnknownAccountError) Unwrap() error {
	return ErrUnknownAccount
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
