package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"exrecon/internal/infrastructure"
)

// LogRecord is one captured log call with its attributes flattened.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record for later assertions.
// Handlers derived with WithAttrs share the same record store.
type LogCapture struct {
	store *logStore
	attrs []slog.Attr
	group string
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
	t       testing.TB
}

// NewLogCapture returns a logger writing into a new LogCapture. Records are
// also echoed to t.Log.
func NewLogCapture(t testing.TB) (*slog.Logger, *LogCapture) {
	h := &LogCapture{store: &logStore{t: t}}
	return slog.New(h), h
}

// Enabled implements slog.Handler
func (h *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler
func (h *LogCapture) Handle(ctx context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs()+1)
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs[key] = a.Value.Any()
		return true
	})
	if id := infrastructure.GetTraceID(ctx); id != "" {
		attrs["trace_id"] = id
	}

	s := h.store
	s.mu.Lock()
	s.records = append(s.records, LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	s.mu.Unlock()

	s.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	return nil
}

// WithAttrs implements slog.Handler
func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &LogCapture{store: h.store, attrs: merged, group: h.group}
}

// WithGroup implements slog.Handler
func (h *LogCapture) WithGroup(name string) slog.Handler {
	if h.group != "" {
		name = h.group + "." + name
	}
	return &LogCapture{store: h.store, attrs: h.attrs, group: name}
}

// Records returns a copy of everything captured so far.
func (h *LogCapture) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return append([]LogRecord(nil), h.store.records...)
}

// Find returns the records at level whose message contains msg.
func (h *LogCapture) Find(level slog.Level, msg string) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			out = append(out, r)
		}
	}
	return out
}

// AssertContains fails t unless a record at level contains msg.
func (h *LogCapture) AssertContains(t testing.TB, level slog.Level, msg string) LogRecord {
	t.Helper()
	found := h.Find(level, msg)
	if len(found) == 0 {
		t.Errorf("expected %s log containing %q", level, msg)
		for _, r := range h.Records() {
			t.Logf("  - [%s] %s %v", r.Level, r.Message, r.Attrs)
		}
		return LogRecord{}
	}
	return found[0]
}

// AssertNoErrors fails t if any error-level record was captured.
func (h *LogCapture) AssertNoErrors(t testing.TB) {
	t.Helper()
	for _, r := range h.Find(slog.LevelError, "") {
		t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
	}
}
