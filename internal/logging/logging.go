// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.WarnLevel

// ParseLevel parses a level name; "" is DefaultLevel.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parsing log level %q: %w", s, err)
	}
	return lvl, nil
}

// New returns a logger writing to w at level. A terminal gets the console
// format, anything else gets JSON lines.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
