// Package testutil provides shared test helpers: loggers that write
// through the test, and a fixed clock for date functions.
package testutil

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// LogBuffer collects log output for assertions.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// NewCaptureLogger returns a logger that writes to t.Log() and to the
// returned buffer.
func NewCaptureLogger(t testing.TB) (*slog.Logger, *LogBuffer) {
	t.Helper()
	buf := &LogBuffer{}
	return slog.New(slog.NewTextHandler(testWriter{t: t, tee: buf}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})), buf
}

type testWriter struct {
	t   testing.TB
	tee *LogBuffer
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	if w.tee != nil {
		w.tee.mu.Lock()
		w.tee.buf.Write(p)
		w.tee.mu.Unlock()
	}
	w.t.Log(string(p))
	return len(p), nil
}
