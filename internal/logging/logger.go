// Package logging builds the zerolog loggers used by the CLI and examples.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New creates a JSON logger writing to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// NewConsole creates a human-readable logger for terminals. Color is off so
// output stays stable when piped.
func NewConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}

// NewNop returns a logger that discards everything.
func NewNop() zerolog.Logger {
	return zerolog.Nop()
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
