// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/keyip-smiles/internal/infrastructure/monitoring/logging"
)

// LogEntry is one captured log call.  Fields include those attached with
// With and WithContext.
type LogEntry struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the first field named key.
func (e LogEntry) Field(key string) (interface{}, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

type sink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// RecordingLogger implements logging.Logger and keeps every entry in memory.
// Children created with With or Named share the parent's entries.
type RecordingLogger struct {
	sink   *sink
	name   string
	fields []logging.Field
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{sink: &sink{}}
}

func (l *RecordingLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	l.sink.mu.Lock()
	l.sink.entries = append(l.sink.entries, LogEntry{Level: level, Logger: l.name, Message: msg, Fields: all})
	l.sink.mu.Unlock()
}

func (l *RecordingLogger) Debug(msg string, fields ...logging.Field) { l.log("debug", msg, fields) }
func (l *RecordingLogger) Info(msg string, fields ...logging.Field)  { l.log("info", msg, fields) }
func (l *RecordingLogger) Warn(msg string, fields ...logging.Field)  { l.log("warn", msg, fields) }
func (l *RecordingLogger) Error(msg string, fields ...logging.Field) { l.log("error", msg, fields) }

// Fatal records the entry without exiting.
func (l *RecordingLogger) Fatal(msg string, fields ...logging.Field) { l.log("fatal", msg, fields) }

func (l *RecordingLogger) With(fields ...logging.Field) logging.Logger {
	child := *l
	child.fields = append(append([]logging.Field{}, l.fields...), fields...)
	return &child
}

func (l *RecordingLogger) Named(name string) logging.Logger {
	child := *l
	if l.name == "" {
		child.name = name
	} else {
		child.name = l.name + "." + name
	}
	return &child
}

func (l *RecordingLogger) WithContext(ctx context.Context) logging.Logger {
	if id, ok := logging.RequestIDFromContext(ctx); ok {
		return l.With(logging.String("request_id", id))
	}
	return l
}

func (l *RecordingLogger) Sync() error { return nil }

// Entries returns a copy of everything logged so far.
func (l *RecordingLogger) Entries() []LogEntry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]LogEntry, len(l.sink.entries))
	copy(out, l.sink.entries)
	return out
}

// Find returns the first entry with level and msg.
func (l *RecordingLogger) Find(level, msg string) (LogEntry, bool) {
	for _, e := range l.Entries() {
		if e.Level == level && e.Message == msg {
			return e, true
		}
	}
	return LogEntry{}, false
}

func (l *RecordingLogger) Reset() {
	l.sink.mu.Lock()
	l.sink.entries = nil
	l.sink.mu.Unlock()
}
