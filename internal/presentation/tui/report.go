package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/arbor/pkg/condition"
	"github.com/muesli/termenv"
)

// PrintReport writes one line per validation issue, errors first, followed
// by a summary line.
func PrintReport(w io.Writer, res condition.ValidationResult) {
	out := termenv.NewOutput(w)
	red, yellow, green := out.Color("#ef4444"), out.Color("#f59e0b"), out.Color("#22c55e")

	for _, is := range res.Errors {
		fmt.Fprintf(w, "%s %s\n", out.String("✗ error").Foreground(red).Bold(), issueLine(is))
	}
	for _, is := range res.Warnings {
		fmt.Fprintf(w, "%s %s\n", out.String("! warn ").Foreground(yellow), issueLine(is))
	}

	summary := fmt.Sprintf("%d error(s), %d warning(s)", len(res.Errors), len(res.Warnings))
	if res.IsValid {
		fmt.Fprintln(w, out.String("Story is valid ✅ "+summary).Foreground(green))
		return
	}
	fmt.Fprintln(w, out.String("Validation failed: "+summary).Foreground(red))
}

func issueLine(is condition.Issue) string {
	if is.Path == "" {
		return fmt.Sprintf("[%s] %s", is.Code, is.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", is.Code, is.Path, is.Message)
}
