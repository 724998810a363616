// Package testutil holds helpers shared by askdata's package tests.
package testutil

import (
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LoggerOption configures NewTestLogger.
type LoggerOption func(*loggerConfig)

type loggerConfig struct {
	level slog.Leveler
	attrs []slog.Attr
}

// WithLevel sets the minimum level logged. The default is debug.
func WithLevel(level slog.Leveler) LoggerOption {
	return func(c *loggerConfig) { c.level = level }
}

// WithAttrs adds attrs to every record.
func WithAttrs(attrs ...slog.Attr) LoggerOption {
	return func(c *loggerConfig) { c.attrs = append(c.attrs, attrs...) }
}

// NewTestLogger returns a logger that writes each record to t.Log, so output
// only shows for failing tests or under -v. Controllers and watchers log from
// their own goroutines; records that arrive after t finishes are dropped.
func NewTestLogger(t testing.TB, opts ...LoggerOption) *slog.Logger {
	t.Helper()

	cfg := loggerConfig{level: slog.LevelDebug}
	for _, opt := range opts {
		opt(&cfg)
	}

	w := &tbWriter{t: t}
	t.Cleanup(w.close)

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.level})
	return slog.New(h.WithAttrs(cfg.attrs))
}

// tbWriter forwards one slog line per Write to t.Log until close.
type tbWriter struct {
	t      testing.TB
	mu     sync.Mutex
	closed bool
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.t.Helper()
		w.t.Log(strings.TrimSuffix(string(p), "\n"))
	}
	return len(p), nil
}

func (w *tbWriter) close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}
