package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/haskoe/ledger/output"
)

// slowStage marks stages worth highlighting in a report.
const slowStage = 100 * time.Millisecond

// writeTree writes root and its descendants:
//
//	generate 2024-1: 125ms
//	├─ tables: 12ms
//	├─ ledger.bank (48 records): 85ms
//	└─ write outputs: 20ms
func writeTree(w io.Writer, root *stage, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s\n", name, formatDuration(root.duration()))

	writeChildren(w, root.children, "", styles)
}

func writeChildren(w io.Writer, children []*stage, prefix string, styles *output.Styles) {
	for i, s := range children {
		branch, extension := "├─ ", "│  "
		if i == len(children)-1 {
			branch, extension = "└─ ", "   "
		}

		d := formatDuration(s.duration())
		if styles == nil {
			_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, s.name, d)
		} else {
			if s.duration() >= slowStage {
				d = styles.Warning(d)
			} else {
				d = styles.Dim(d)
			}
			_, _ = fmt.Fprintf(w, "%s%s: %s\n", styles.Dim(prefix+branch), s.name, d)
		}

		writeChildren(w, s.children, prefix+extension, styles)
	}
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
