// Package logging builds the zerolog logger used by the command line tool
// and exposes it as a logr.Logger for the library packages.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
}

// New returns a logger writing to out. format is "console" or "json"; level
// is a zerolog level name ("debug", "info", ...). debug enables V(1) records
// of the library packages.
func New(out io.Writer, format, level string) (logr.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logr.Discard(), fmt.Errorf("log level: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "console", "":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02T15:04:05.000Z07:00"}
	case "json":
	default:
		return logr.Discard(), fmt.Errorf("log format %q, expected console or json", format)
	}

	zlog := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	// zerologr logs V(1) at debug level, so the level above filters it
	return zerologr.New(&zlog), nil
}
