package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func parseLogLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "invalid log level %q", s)
	}
	return lvl, nil
}

func defaultLogFile() string {
	return filepath.Join(os.TempDir(), "chatwidget.log")
}

// initLogger points the global logger at the right writer. A TUI owns the
// terminal, so its logs always go to a file.
func initLogger(level, file string, tui bool) (func() error, error) {
	lvl, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(lvl)

	if tui && file == "" {
		file = defaultLogFile()
	}

	var w io.Writer
	closeFn := func() error { return nil }
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.Wrapf(err, "open log file %s", file)
		}
		w = f
		closeFn = f.Close
	case isatty.IsTerminal(os.Stderr.Fd()):
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	default:
		w = os.Stderr
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return closeFn, nil
}
