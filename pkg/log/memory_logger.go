package log

import "sync"

// DefaultMemoryCapacity is the number of events a MemoryLogger keeps when
// created with a non-positive capacity.
const DefaultMemoryCapacity = 200

// MemoryLogger keeps the most recent events in a fixed-size ring.
// It backs the live log endpoints.
type MemoryLogger struct {
	mu       sync.RWMutex
	events   []Event
	next     int
	full     bool
	minLevel Level
}

// NewMemoryLogger creates a MemoryLogger holding up to capacity events.
func NewMemoryLogger(capacity int) *MemoryLogger {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLogger{events: make([]Event, capacity)}
}

// SetMinLevel drops subsequent events below level.
func (m *MemoryLogger) SetMinLevel(level Level) {
	m.mu.Lock()
	m.minLevel = level
	m.mu.Unlock()
}

// Log stores the event, evicting the oldest one when the ring is full.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.Level < m.minLevel {
		return
	}

	m.events[m.next] = event
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
}

// Events returns the retained events, oldest first.
func (m *MemoryLogger) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.full {
		out := make([]Event, m.next)
		copy(out, m.events[:m.next])
		return out
	}

	out := make([]Event, 0, len(m.events))
	out = append(out, m.events[m.next:]...)
	out = append(out, m.events[:m.next]...)
	return out
}

// Lines returns the retained events formatted as "[LEVEL] message".
func (m *MemoryLogger) Lines() []string {
	events := m.Events()
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = e.Line()
	}
	return lines
}

// Len returns the number of retained events.
func (m *MemoryLogger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.full {
		return len(m.events)
	}
	return m.next
}

// Compile-time interface satisfaction check.
var _ Logger = (*MemoryLogger)(nil)
