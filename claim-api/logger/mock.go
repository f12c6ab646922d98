package logger

import (
	"fmt"
	"sync"
)

// Entry is one message captured by MockELKLogger.
type Entry struct {
	Level  string
	Msg    string
	Fields []Field
}

// MockELKLogger keeps entries in memory instead of writing them anywhere.
type MockELKLogger struct {
	mu      sync.Mutex
	entries []Entry
}

var _ Logger = (*MockELKLogger)(nil)

func NewMockELKLogger() *MockELKLogger {
	return &MockELKLogger{}
}

func (m *MockELKLogger) record(level, msg string, fields []Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, Entry{Level: level, Msg: msg, Fields: fields})
}

// Entries returns a copy of everything logged so far.
func (m *MockELKLogger) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries...)
}

// Has reports whether a message was logged at level.
func (m *MockELKLogger) Has(level, msg string) bool {
	for _, e := range m.Entries() {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

func (m *MockELKLogger) SetLogLevel(string) {}

func (m *MockELKLogger) Info(msg string, fields ...Field)  { m.record("info", msg, fields) }
func (m *MockELKLogger) Warn(msg string, fields ...Field)  { m.record("warn", msg, fields) }
func (m *MockELKLogger) Error(msg string, fields ...Field) { m.record("error", msg, fields) }
func (m *MockELKLogger) Fatal(msg string, fields ...Field) { m.record("fatal", msg, fields) }
func (m *MockELKLogger) Debug(msg string, fields ...Field) { m.record("debug", msg, fields) }

func (m *MockELKLogger) Infof(format string, args ...interface{}) {
	m.record("info", fmt.Sprintf(format, args...), nil)
}

func (m *MockELKLogger) Warnf(format string, args ...interface{}) {
	m.record("warn", fmt.Sprintf(format, args...), nil)
}

func (m *MockELKLogger) Errorf(format string, args ...interface{}) {
	m.record("error", fmt.Sprintf(format, args...), nil)
}

func (m *MockELKLogger) Fatalf(format string, args ...interface{}) {
	m.record("fatal", fmt.Sprintf(format, args...), nil)
}

func (m *MockELKLogger) Debugf(format string, args ...interface{}) {
	m.record("debug", fmt.Sprintf(format, args...), nil)
}

func (m *MockELKLogger) SweetenFields(args []interface{}) []Field {
	return sweetenFields(args)
}
