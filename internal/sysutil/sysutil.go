// Package sysutil holds process-level helpers shared by the ridiculink
// commands: global logger setup and small argument helpers.
package sysutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLogLevel maps a LOG_LEVEL value to a zerolog level. Blank and
// unknown values mean info; "warning" is accepted for warn.
func ParseLogLevel(lvl string) zerolog.Level {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	l, err := zerolog.ParseLevel(lvl)
	if err != nil || l == zerolog.NoLevel || l == zerolog.TraceLevel || l == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return l
}

// SetupLogging sets the global level and timestamp format and points the
// global logger at w, as JSON or, when pretty, through a console writer.
func SetupLogging(w io.Writer, level string, pretty bool) {
	zerolog.SetGlobalLevel(ParseLogLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// FirstNonEmpty returns the first non-blank string from a variadic list.
// If all values are blank, it returns "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
