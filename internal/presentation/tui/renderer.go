package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns scene text (markdown) into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a glamour renderer wrapping at width columns. It
// detects a light or dark background. If glamour cannot be initialized the
// text is passed through unchanged.
func NewRenderer(width int) Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return PlainRenderer
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// PlainRenderer returns the text trimmed, with a trailing newline.
func PlainRenderer(markdown string) (string, error) {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return "", nil
	}
	return text + "\n", nil
}
