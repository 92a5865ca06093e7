package logging

import (
	"context"
	"maps"
	"sync"
)

// Entry is one record kept by a CaptureLogger.
type Entry struct {
	Level   Level
	Message string
	Err     error
	Fields  Fields
}

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
}

// CaptureLogger keeps log entries in memory so callers can inspect what was logged.
// Loggers derived with WithFields share the same entry list.
type CaptureLogger struct {
	sink   *captureSink
	level  *Level
	fields Fields
}

// NewCaptureLogger returns a CaptureLogger that records every level.
func NewCaptureLogger() *CaptureLogger {
	level := DebugLevel
	return &CaptureLogger{sink: &captureSink{}, level: &level, fields: make(Fields)}
}

func (c *CaptureLogger) record(level Level, err error, msg string, fields ...Fields) {
	if level < *c.level {
		return
	}
	all := make(Fields, len(c.fields))
	maps.Copy(all, c.fields)
	for _, f := range fields {
		maps.Copy(all, f)
	}
	c.sink.mu.Lock()
	c.sink.entries = append(c.sink.entries, Entry{Level: level, Message: msg, Err: err, Fields: all})
	c.sink.mu.Unlock()
}

func (c *CaptureLogger) Debug(msg string, fields ...Fields) { c.record(DebugLevel, nil, msg, fields...) }
func (c *CaptureLogger) Info(msg string, fields ...Fields)  { c.record(InfoLevel, nil, msg, fields...) }
func (c *CaptureLogger) Warn(msg string, fields ...Fields)  { c.record(WarnLevel, nil, msg, fields...) }

func (c *CaptureLogger) Error(err error, msg string, fields ...Fields) {
	c.record(ErrorLevel, err, msg, fields...)
}

// Fatal records the entry; it never exits the process.
func (c *CaptureLogger) Fatal(err error, msg string, fields ...Fields) {
	c.record(FatalLevel, err, msg, fields...)
}

func (c *CaptureLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(c.fields)+len(fields))
	maps.Copy(merged, c.fields)
	maps.Copy(merged, fields)
	return &CaptureLogger{sink: c.sink, level: c.level, fields: merged}
}

func (c *CaptureLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return c.WithFields(fields)
	}
	return c
}

func (c *CaptureLogger) SetLevel(level Level) {
	*c.level = level
}

// Entries returns a copy of everything recorded so far.
func (c *CaptureLogger) Entries() []Entry {
	c.sink.mu.Lock()
	defer c.sink.mu.Unlock()
	out := make([]Entry, len(c.sink.entries))
	copy(out, c.sink.entries)
	return out
}

// Count returns how many entries were recorded at level.
func (c *CaptureLogger) Count(level Level) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}
