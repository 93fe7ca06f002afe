package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arbor banner. Colors are dropped when w is not a
// color-capable terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{`    __ _ _ __| |__   ___  _ __ `, "#34d399"},
		{`   / _' | '__| '_ \ / _ \| '__|`, "#10b981"},
		{`  | (_| | |  | |_) | (_) | |   `, "#059669"},
		{`   \__,_|_|  |_.__/ \___/|_|   `, "#047857"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, out.String("  "+version).Faint())
	}
	fmt.Fprintln(w)
}
