package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/haskoe/ledger/ledger"
)

var (
	errMarkerStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D7005F", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// contextLines is the number of table lines shown around a failing record.
const contextLines = 1

// ErrorRenderer renders errors with terminal styling and, for record errors,
// the surrounding lines of the table the record came from.
type ErrorRenderer struct {
	// sources maps a record kind ("bank", "billing", "payroll") to the
	// content of its table.
	sources map[string][]byte
}

// NewErrorRenderer creates a renderer with table contents for context.
func NewErrorRenderer(sources map[string][]byte) *ErrorRenderer {
	return &ErrorRenderer{sources: sources}
}

// Render formats a single error.
func (r *ErrorRenderer) Render(err error) string {
	var recErr *ledger.RecordError
	if errors.As(err, &recErr) && recErr.Line > 0 {
		if source, ok := r.sources[recErr.Kind]; ok {
			return r.renderWithSourceContext(recErr, source)
		}
	}
	return errorStyle.Render(err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = r.Render(err)
	}
	return strings.Join(parts, "\n\n")
}

func (r *ErrorRenderer) renderWithSourceContext(e *ledger.RecordError, source []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(e.Error()))
	buf.WriteString("\n\n")

	lines := strings.Split(strings.TrimRight(string(source), "\n"), "\n")
	first := max(e.Line-contextLines, 1)
	last := min(e.Line+contextLines, len(lines))

	width := len(fmt.Sprint(last))
	for n := first; n <= last; n++ {
		text := strings.TrimRight(lines[n-1], "\r")
		gutter := fmt.Sprintf("%*d | ", width, n)
		if n == e.Line {
			buf.WriteString(errMarkerStyle.Render("> " + gutter + text))
		} else {
			buf.WriteString(errContextStyle.Render("  " + gutter + text))
		}
		buf.WriteByte('\n')
	}

	return strings.TrimRight(buf.String(), "\n")
}
