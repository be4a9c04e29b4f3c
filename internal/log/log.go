// Package log builds the application's structured logger.
//
// While the TUI runs it owns the screen, so records go to a JSON log file.
// Without a file, records go to stderr only when stderr is not a terminal
// (redirected output can't corrupt the display); otherwise they are
// dropped. Every handler is wrapped so that warnings and errors also reach
// crash reporting when it is enabled.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"jiratui/internal/sentry"
)

// ParseLevel maps a config level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a logger writing at level to path (created if needed), and a
// close function for the underlying file. An empty path selects stderr or
// discard as described in the package doc.
func New(path string, level slog.Level) (*slog.Logger, func() error, error) {
	options := &slog.HandlerOptions{Level: level}

	if path == "" {
		var handler slog.Handler = slog.DiscardHandler
		if !term.IsTerminal(int(os.Stderr.Fd())) {
			handler = slog.NewJSONHandler(os.Stderr, options)
		}
		return slog.New(sentry.NewHandler(handler)), func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("mkdir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return NewWithWriter(file, level), file.Close, nil
}

// NewWithWriter returns a JSON logger on w.
func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(sentry.NewHandler(handler))
}
