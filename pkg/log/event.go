package log

import (
	"fmt"
	"strings"
	"time"
)

// Event represents one service log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// Level is the severity of the event.
	Level Level `cbor:"2,keyasint"`

	// Category classifies the component that produced the event.
	Category Category `cbor:"3,keyasint"`

	// Message is the human-readable event text.
	Message string `cbor:"4,keyasint"`

	// StreamID identifies the status stream (UUID), if any.
	StreamID string `cbor:"5,keyasint,omitempty"`

	// RemoteAddr is the peer address (IP:port), if any.
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Fields carries additional key/value context.
	Fields map[string]string `cbor:"7,keyasint,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(level Level, category Category, format string, args ...any) Event {
	return Event{
		Timestamp: now(),
		Level:     level,
		Category:  category,
		Message:   fmt.Sprintf(format, args...),
	}
}

// Line returns the event in the "[LEVEL] message" form served by the
// log endpoints.
func (e Event) Line() string {
	return "[" + e.Level.String() + "] " + e.Message
}

// Level is the severity of an event.
type Level uint8

const (
	// LevelDebug is verbose diagnostic output.
	LevelDebug Level = 0
	// LevelInfo is normal operation.
	LevelInfo Level = 1
	// LevelWarning indicates a recoverable problem.
	LevelWarning Level = 2
	// LevelError indicates a failed operation.
	LevelError Level = 3
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name (case-insensitive, "warn" accepted).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("invalid level %q (use debug, info, warning, error)", s)
	}
}

// Category classifies the component that produced an event.
type Category uint8

const (
	// CategorySystem covers process lifecycle (startup, shutdown, advertising).
	CategorySystem Category = 0
	// CategoryRequest covers poll-style HTTP requests.
	CategoryRequest Category = 1
	// CategoryStream covers status stream lifecycle.
	CategoryStream Category = 2
	// CategorySettings covers settings reads and merges.
	CategorySettings Category = 3
	// CategoryDiscovery covers printer discovery.
	CategoryDiscovery Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategorySystem:
		return "SYSTEM"
	case CategoryRequest:
		return "REQUEST"
	case CategoryStream:
		return "STREAM"
	case CategorySettings:
		return "SETTINGS"
	case CategoryDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(s) {
	case "system":
		return CategorySystem, nil
	case "request":
		return CategoryRequest, nil
	case "stream":
		return CategoryStream, nil
	case "settings":
		return CategorySettings, nil
	case "discovery":
		return CategoryDiscovery, nil
	default:
		return 0, fmt.Errorf("invalid category %q (use system, request, stream, settings, discovery)", s)
	}
}
