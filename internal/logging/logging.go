// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/config"
)

const serviceName = "booklify-admin"

// ParseLevel maps a config level name to a zerolog level. Unknown names
// fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to out. Format "console" forces the human
// readable writer, "json" forces JSON, anything else picks the console writer
// only when out is a terminal.
func New(cfg config.Log, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	w := out
	if useConsole(cfg.Format, out) {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Setup installs the logger built from cfg as the global zerolog logger and
// returns it.
func Setup(cfg config.Log) zerolog.Logger {
	logger := New(cfg, os.Stderr)
	log.Logger = logger
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	return logger
}

func useConsole(format string, out io.Writer) bool {
	switch strings.ToLower(format) {
	case "console", "pretty":
		return true
	case "json":
		return false
	}
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
