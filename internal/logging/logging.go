// Package logging holds the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logger     zerolog.Logger
	loggerLock sync.RWMutex
	level      = zerolog.WarnLevel
)

func init() {
	logger = newLogger(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// SetLevel sets the global log level at runtime. Unknown names select warn.
func SetLevel(levelStr string) {
	loggerLock.Lock()
	level = ParseLevel(levelStr)
	logger = logger.Level(level)
	loggerLock.Unlock()
}

// ParseLevel converts a level name to a zerolog.Level.
func ParseLevel(levelStr string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// SetOutput redirects logging to w as JSON lines.
func SetOutput(w io.Writer) {
	loggerLock.Lock()
	logger = newLogger(w)
	loggerLock.Unlock()
}

// ToFile redirects logging to path, creating parent directories. The TUI
// uses this so log lines do not corrupt the terminal. The caller closes the
// returned file.
func ToFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	SetOutput(f)
	return f, nil
}

// DefaultFile returns $XDG_STATE_HOME/locus/locus.log, falling back to
// ~/.local/state.
func DefaultFile() string {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "locus", "locus.log")
}

func current() zerolog.Logger {
	loggerLock.RLock()
	defer loggerLock.RUnlock()
	return logger
}

// Debug logs a debug message
func Debug() *zerolog.Event {
	l := current()
	return l.Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	l := current()
	return l.Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	l := current()
	return l.Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	l := current()
	return l.Error()
}

// With returns a child logger tagged with component.
func With(component string) zerolog.Logger {
	return current().With().Str("component", component).Logger()
}
