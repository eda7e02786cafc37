package logger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// TestEntry is one captured log call
type TestEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// entrySink collects entries from a TestLogger and all loggers derived from it
type entrySink struct {
	mu      sync.Mutex
	entries []TestEntry
}

func (s *entrySink) append(e TestEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *entrySink) snapshot() []TestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TestEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// TestLogger captures log entries for assertions in tests. Loggers derived
// via WithField/WithFields/WithError record into the same sink as the root.
type TestLogger struct {
	sink   *entrySink
	fields map[string]interface{}
}

// NewTestLogger creates a logger that records every entry instead of writing it
func NewTestLogger() *TestLogger {
	return &TestLogger{
		sink:   &entrySink{},
		fields: make(map[string]interface{}),
	}
}

// Entries returns a copy of all captured entries
func (t *TestLogger) Entries() []TestEntry {
	return t.sink.snapshot()
}

// EntriesAt returns captured entries at the given level
func (t *TestLogger) EntriesAt(level string) []TestEntry {
	var out []TestEntry
	for _, e := range t.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

func (t *TestLogger) record(level, msg string, extra map[string]interface{}) {
	fields := make(map[string]interface{}, len(t.fields)+len(extra))
	for k, v := range t.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	t.sink.append(TestEntry{Level: level, Message: msg, Fields: fields})
}

func (t *TestLogger) derive(extra map[string]interface{}) *TestLogger {
	child := &TestLogger{
		sink:   t.sink,
		fields: make(map[string]interface{}, len(t.fields)+len(extra)),
	}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	for k, v := range extra {
		child.fields[k] = v
	}
	return child
}

func (t *TestLogger) Debug(msg string) { t.record("debug", msg, nil) }
func (t *TestLogger) Info(msg string)  { t.record("info", msg, nil) }
func (t *TestLogger) Warn(msg string)  { t.record("warn", msg, nil) }
func (t *TestLogger) Error(msg string) { t.record("error", msg, nil) }
func (t *TestLogger) Fatal(msg string) { t.record("fatal", msg, nil) }

func (t *TestLogger) WithField(key string, value interface{}) Logger {
	return t.derive(map[string]interface{}{key: value})
}

func (t *TestLogger) WithFields(fields map[string]interface{}) Logger {
	return t.derive(fields)
}

func (t *TestLogger) WithError(err error) Logger {
	if err == nil {
		return t
	}
	return t.derive(map[string]interface{}{"error": err.Error()})
}

func (t *TestLogger) WithContext(ctx context.Context) Logger { return t }

func (t *TestLogger) DebugWithFields(msg string, fields map[string]interface{}) {
	t.record("debug", msg, fields)
}

func (t *TestLogger) InfoWithFields(msg string, fields map[string]interface{}) {
	t.record("info", msg, fields)
}

func (t *TestLogger) WarnWithFields(msg string, fields map[string]interface{}) {
	t.record("warn", msg, fields)
}

func (t *TestLogger) ErrorWithFields(msg string, fields map[string]interface{}) {
	t.record("error", msg, fields)
}

func (t *TestLogger) FatalWithFields(msg string, fields map[string]interface{}) {
	t.record("fatal", msg, fields)
}

func (t *TestLogger) GetZerolog() *zerolog.Logger { return nil }
