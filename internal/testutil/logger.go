// Package testutil provides test helpers: a logger bound to the test and a
// scriptable in-memory backend.
package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// NewTestLogger returns a logger that writes to t.Log().
// Logs only appear on test failure or when running with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	logger, _ := NewRecordingLogger(t)
	return logger
}

// LogRecorder keeps every line logged through a recording logger.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewRecordingLogger returns a debug-level logger that writes to t.Log()
// and to the returned recorder.
func NewRecordingLogger(t testing.TB) (*slog.Logger, *LogRecorder) {
	t.Helper()
	rec := &LogRecorder{}
	logger := slog.New(slog.NewTextHandler(testWriter{t: t, rec: rec}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	return logger, rec
}

// Lines returns the recorded log lines containing every given substring.
func (r *LogRecorder) Lines(substrs ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, line := range strings.Split(strings.TrimSpace(r.buf.String()), "\n") {
		match := line != ""
		for _, s := range substrs {
			if !strings.Contains(line, s) {
				match = false
				break
			}
		}
		if match {
			out = append(out, line)
		}
	}
	return out
}

type testWriter struct {
	t   testing.TB
	rec *LogRecorder
}

func (w testWriter) Write(p []byte) (n int, err error) {
	w.t.Helper()
	w.rec.mu.Lock()
	w.rec.buf.Write(p)
	w.rec.mu.Unlock()
	w.t.Log(string(p))
	return len(p), nil
}
