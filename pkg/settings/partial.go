package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed is returned when a settings update cannot be parsed.
var ErrMalformed = errors.New("malformed settings update")

// Partial is a settings update: the keys present are the fields to replace.
type Partial map[string]json.RawMessage

// ParsePartial parses a JSON object into a Partial. Anything other than a
// JSON object (invalid JSON, arrays, scalars, null) is rejected.
func ParsePartial(data []byte) (Partial, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrMalformed)
	}

	var p Partial
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p == nil {
		p = Partial{}
	}
	return p, nil
}

// PartialFromMap builds a Partial from decoded values, such as the settings
// section of a YAML config file.
func PartialFromMap(values map[string]any) (Partial, error) {
	p := make(Partial, len(values))
	for k, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: key %q: %v", ErrMalformed, k, err)
		}
		p[k] = raw
	}
	return p, nil
}

// Keys returns the keys of the update in sorted order.
func (p Partial) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// applyTo overwrites the fields of s named in p. On error s may be partially
// modified; callers apply to a copy.
func (p Partial) applyTo(s *Settings) error {
	for _, key := range p.Keys() {
		raw := p[key]
		ref := s.fieldRef(key)
		if ref == nil {
			if s.Extensions == nil {
				s.Extensions = make(map[string]json.RawMessage)
			}
			s.Extensions[key] = append(json.RawMessage(nil), raw...)
			continue
		}
		if err := json.Unmarshal(raw, ref); err != nil {
			return fmt.Errorf("%w: key %q: %v", ErrMalformed, key, err)
		}
	}
	return nil
}
