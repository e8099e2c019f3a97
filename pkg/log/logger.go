package log

import "time"

// Logger is the interface components use to record service events.
// Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records an event. Implementations must be thread-safe.
	// The event should be processed quickly; blocking delays the caller.
	Log(event Event)
}

// NoopLogger discards all events. Use when logging is disabled.
// NoopLogger is safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}

// OrNoop returns l, or NoopLogger if l is nil.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}

// Infof records an INFO event in the given category.
func Infof(l Logger, category Category, format string, args ...any) {
	emit(l, LevelInfo, category, format, args...)
}

// Warnf records a WARNING event in the given category.
func Warnf(l Logger, category Category, format string, args ...any) {
	emit(l, LevelWarning, category, format, args...)
}

// Debugf records a DEBUG event in the given category.
func Debugf(l Logger, category Category, format string, args ...any) {
	emit(l, LevelDebug, category, format, args...)
}

// Errorf records an ERROR event in the given category.
func Errorf(l Logger, category Category, format string, args ...any) {
	emit(l, LevelError, category, format, args...)
}

func emit(l Logger, level Level, category Category, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(NewEvent(level, category, format, args...))
}

// now is replaced in tests.
var now = time.Now
