// Package logging builds the process logger. The terminal belongs to the
// UI, so log output goes to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	// DebugEnv enables debug level logging when set to a true value.
	DebugEnv = "WAVESKETCH_DEBUG"
	// FileEnv names the file log lines are appended to.
	FileEnv = "WAVESKETCH_LOG"
)

// Config selects the log level and destination.
type Config struct {
	Debug bool
	Path  string
}

// FromEnv reads the logging configuration from the environment.
func FromEnv() Config {
	debug, err := strconv.ParseBool(os.Getenv(DebugEnv))
	if err != nil {
		debug = false
	}
	return Config{Debug: debug, Path: os.Getenv(FileEnv)}
}

// New returns a logger for cfg and a function that closes its output.
func New(cfg Config) (*logrus.Logger, func() error, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	if cfg.Debug {
		l.SetLevel(logrus.DebugLevel)
	}

	if cfg.Path == "" {
		l.SetOutput(io.Discard)
		return l, func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	l.SetOutput(f)
	return l, f.Close, nil
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
