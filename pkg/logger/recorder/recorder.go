// Package recorder provides an in-memory logging backend. It keeps every
// entry so that callers and tests can inspect what a batch operation
// reported without capturing stderr.
package recorder

import (
	"strings"
	"sync"
)

type Level string

const (
	LevelLog   Level = "log"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// Entry is one recorded log call.
type Entry struct {
	Level   Level
	Message string
	Keyvals []any
}

// Value returns the value logged for key, if any.
func (e Entry) Value(key string) (any, bool) {
	for i := 0; i+1 < len(e.Keyvals); i += 2 {
		if k, ok := e.Keyvals[i].(string); ok && k == key {
			return e.Keyvals[i+1], true
		}
	}
	return nil, false
}

// Recorder implements logger.LoggerInstance.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level Level, message string, keyvals []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kv := make([]any, len(keyvals))
	copy(kv, keyvals)
	r.entries = append(r.entries, Entry{Level: level, Message: message, Keyvals: kv})
}

func (r *Recorder) Log(message string, keyvals ...any)   { r.record(LevelLog, message, keyvals) }
func (r *Recorder) Debug(message string, keyvals ...any) { r.record(LevelDebug, message, keyvals) }
func (r *Recorder) Info(message string, keyvals ...any)  { r.record(LevelInfo, message, keyvals) }
func (r *Recorder) Warn(message string, keyvals ...any)  { r.record(LevelWarn, message, keyvals) }
func (r *Recorder) Error(message string, keyvals ...any) { r.record(LevelError, message, keyvals) }

// Fatal records the entry. Unlike the console backend it does not exit.
func (r *Recorder) Fatal(message string, keyvals ...any) { r.record(LevelFatal, message, keyvals) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Filter returns the entries at level whose message contains substr.
func (r *Recorder) Filter(level Level, substr string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops all recorded entries.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
