// Package logging builds the slog loggers shared by the arbor packages.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown log format %q", s)
	}
}

// UnmarshalText lets Format be read straight from the environment.
func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Options configures NewWith. A nil Output means stderr, keeping stdout free
// for command output.
type Options struct {
	Level  slog.Level
	Format Format
	Output io.Writer
}

// New returns a text logger on stderr at the given level.
func New(level slog.Level) *slog.Logger {
	return NewWith(Options{Level: level})
}

// NewWith builds a logger from opts. The "error" key is written as "err" so
// both handlers agree with the attributes used across the packages.
func NewWith(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	ho := &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if opts.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(out, ho))
	}
	return slog.New(slog.NewTextHandler(out, ho))
}

// NewNop returns a logger that discards everything; it is the default for
// library constructors.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
