package complete

import (
	"fmt"
	"io"
	"strings"
)

// WriteHelp prints aligned completion candidates to w, with the
// result's header when one is set. The entire output is built as a
// single string and written in one call so a readline wrapped writer
// triggers only one refresh cycle.
func WriteHelp(w io.Writer, res Result) {
	maxWidth := 20
	for _, c := range res.Candidates {
		if len(c.Text)+2 > maxWidth {
			maxWidth = len(c.Text) + 2
		}
	}
	var sb strings.Builder
	if res.Header != "" {
		sb.WriteString(res.Header)
		sb.WriteString("\n")
	}
	sb.WriteString("Possible completions:\n")
	for _, c := range res.Candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Text, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Text)
		}
	}
	io.WriteString(w, sb.String())
}
