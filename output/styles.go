// Package output styles text written to the terminal. Styling follows the
// color profile of the writer, so piped output stays plain.
package output

import (
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI palette indices.
const (
	red     = "1"
	green   = "2"
	yellow  = "3"
	magenta = "5"
	cyan    = "6"
)

// Styles renders styled strings for one writer.
type Styles struct {
	output *termenv.Output
}

// NewStyles detects the color profile of w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

// NewStylesWithProfile uses profile instead of detecting one.
func NewStylesWithProfile(w io.Writer, profile termenv.Profile) *Styles {
	return &Styles{output: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

func (s *Styles) style(text, color string, bold bool) string {
	st := s.output.String(text)
	if color != "" {
		st = st.Foreground(s.output.Color(color))
	}
	if bold {
		st = st.Bold()
	}
	return st.String()
}

// Success is green and bold.
func (s *Styles) Success(text string) string { return s.style(text, green, true) }

// Error is red and bold.
func (s *Styles) Error(text string) string { return s.style(text, red, true) }

// Warning is yellow and bold.
func (s *Styles) Warning(text string) string { return s.style(text, yellow, true) }

// FilePath is cyan.
func (s *Styles) FilePath(text string) string { return s.style(text, cyan, false) }

// Account is yellow.
func (s *Styles) Account(text string) string { return s.style(text, yellow, false) }

// Keyword is bold.
func (s *Styles) Keyword(text string) string { return s.style(text, "", true) }

// Dim is faint, for secondary information.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Amount styles a formatted amount: negative amounts red, others magenta.
func (s *Styles) Amount(text string) string {
	if strings.HasPrefix(strings.TrimSpace(text), "-") {
		return s.style(text, red, false)
	}
	return s.style(text, magenta, false)
}

// Output returns the underlying termenv output.
func (s *Styles) Output() *termenv.Output {
	return s.output
}
