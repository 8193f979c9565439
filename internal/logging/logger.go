// Package logging constructs the per-run zerolog logger. Stages receive the
// logger as a value; nothing in the repository logs through a package-level
// default.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/halolab/seisbatch/internal/config"
)

// New builds a console logger on stderr, optionally teeing structured JSON
// to cfg.LogFile. The returned closer flushes and closes the file sink; it
// is a no-op when no log file was requested.
func New(cfg *config.Config) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if cfg.Verbose {
		level = zerolog.DebugLevel
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    !colorEnabled(cfg.ColorMode),
	}

	var w io.Writer = console
	closer := func() error { return nil }

	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return zerolog.Logger{}, nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, err
		}
		w = zerolog.MultiLevelWriter(console, f)
		closer = f.Close
	}

	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closer, nil
}

// NewForWriter builds a plain logger on w, used by tests to capture output.
func NewForWriter(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

// ColorEnabled reports whether console output should use ANSI color for
// the given mode, honoring NO_COLOR and dumb terminals in auto mode.
func ColorEnabled(mode config.ColorMode) bool {
	return colorEnabled(mode)
}

func colorEnabled(mode config.ColorMode) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return isTerminal(os.Stderr)
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() {
	zerolog.DurationFieldUnit = time.Second
}
