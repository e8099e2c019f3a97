package settings

import (
	"sort"
	"sync"
)

// ChangeFunc observes a successful merge.
type ChangeFunc func(old, updated Settings)

// Store holds the current settings and serializes updates.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	current Settings

	observersMu sync.RWMutex
	observers   []ChangeFunc
}

// NewStore creates a store holding initial.
func NewStore(initial Settings) *Store {
	return &Store{current: initial.Clone()}
}

// Read returns a copy of the current settings. Later merges are not
// reflected in the returned value.
func (s *Store) Read() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Merge applies p field by field and returns the settings after the merge.
// Either every key in p is applied or, on error, none is.
func (s *Store) Merge(p Partial) (Settings, error) {
	s.mu.Lock()

	old := s.current
	next := old.Clone()
	if err := p.applyTo(&next); err != nil {
		s.mu.Unlock()
		return old.Clone(), err
	}
	s.current = next
	result := next.Clone()

	s.mu.Unlock()

	if len(p) > 0 {
		s.notify(old.Clone(), result.Clone())
	}
	return result, nil
}

// MergeJSON parses data as a partial update and merges it.
func (s *Store) MergeJSON(data []byte) (Settings, error) {
	p, err := ParsePartial(data)
	if err != nil {
		return s.Read(), err
	}
	return s.Merge(p)
}

// OnChange registers fn to be called after every non-empty successful merge.
// Observers run outside the store lock, in registration order.
func (s *Store) OnChange(fn ChangeFunc) {
	s.observersMu.Lock()
	s.observers = append(s.observers, fn)
	s.observersMu.Unlock()
}

func (s *Store) notify(old, updated Settings) {
	s.observersMu.RLock()
	observers := append([]ChangeFunc(nil), s.observers...)
	s.observersMu.RUnlock()

	for _, fn := range observers {
		fn(old, updated)
	}
}

// ChangedKeys returns the keys whose value differs between old and updated,
// sorted.
func ChangedKeys(old, updated Settings) []string {
	var keys []string
	for _, k := range []string{
		KeyDebounceMs, KeyElegooIP, KeyEnableWebsocket, KeyMmPerPulse,
		KeyMotionTimeoutMs, KeyPulsePin, KeyWifiPassword, KeyWifiSSID,
	} {
		if !fieldEqual(old.fieldRef(k), updated.fieldRef(k)) {
			keys = append(keys, k)
		}
	}
	seen := make(map[string]bool)
	for k, v := range updated.Extensions {
		seen[k] = true
		if ov, ok := old.Extensions[k]; !ok || string(ov) != string(v) {
			keys = append(keys, k)
		}
	}
	for k := range old.Extensions {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return sortedUnique(keys)
}

func fieldEqual(a, b any) bool {
	switch av := a.(type) {
	case *string:
		return *av == *b.(*string)
	case *int:
		return *av == *b.(*int)
	case *float64:
		return *av == *b.(*float64)
	case *bool:
		return *av == *b.(*bool)
	default:
		return false
	}
}

func sortedUnique(keys []string) []string {
	sort.Strings(keys)
	out := keys[:0]
	for _, k := range keys {
		if len(out) == 0 || k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}
