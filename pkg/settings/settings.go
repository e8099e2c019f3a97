package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// JSON keys of the known settings fields.
const (
	KeyWifiSSID        = "wifi_ssid"
	KeyWifiPassword    = "wifi_password"
	KeyElegooIP        = "elegoo_ip"
	KeyPulsePin        = "pulse_pin"
	KeyDebounceMs      = "debounce_ms"
	KeyMotionTimeoutMs = "motion_timeout_ms"
	KeyMmPerPulse      = "mm_per_pulse"
	KeyEnableWebsocket = "enable_websocket"
)

// Settings is the device configuration.
type Settings struct {
	// WifiSSID is the network the device joins.
	WifiSSID string

	// WifiPassword is the network passphrase.
	WifiPassword string

	// ElegooIP is the address of the monitored printer.
	ElegooIP string

	// PulsePin is the GPIO the motion sensor is wired to.
	PulsePin int

	// DebounceMs is the pulse debounce window.
	DebounceMs int

	// MotionTimeoutMs is how long without pulses counts as no motion.
	MotionTimeoutMs int

	// MmPerPulse converts movement pulses to filament length.
	MmPerPulse float64

	// EnableWebsocket toggles the upstream printer link.
	EnableWebsocket bool

	// Extensions holds keys this service does not know, verbatim.
	Extensions map[string]json.RawMessage
}

// Defaults returns the settings a fresh device starts with.
func Defaults() Settings {
	return Settings{
		WifiSSID:        "MyNetwork",
		WifiPassword:    "",
		ElegooIP:        "192.168.1.150",
		PulsePin:        4,
		DebounceMs:      50,
		MotionTimeoutMs: 1000,
		MmPerPulse:      1.0,
		EnableWebsocket: true,
	}
}

// fieldRef returns a pointer to the field stored under key, or nil if the
// key is not a known field.
func (s *Settings) fieldRef(key string) any {
	switch key {
	case KeyWifiSSID:
		return &s.WifiSSID
	case KeyWifiPassword:
		return &s.WifiPassword
	case KeyElegooIP:
		return &s.ElegooIP
	case KeyPulsePin:
		return &s.PulsePin
	case KeyDebounceMs:
		return &s.DebounceMs
	case KeyMotionTimeoutMs:
		return &s.MotionTimeoutMs
	case KeyMmPerPulse:
		return &s.MmPerPulse
	case KeyEnableWebsocket:
		return &s.EnableWebsocket
	default:
		return nil
	}
}

// IsKnownKey reports whether key names a typed settings field.
func IsKnownKey(key string) bool {
	var s Settings
	return s.fieldRef(key) != nil
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.Extensions != nil {
		out.Extensions = make(map[string]json.RawMessage, len(s.Extensions))
		for k, v := range s.Extensions {
			out.Extensions[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Equal reports whether two settings values are identical, including
// extensions (compared as compacted JSON).
func (s Settings) Equal(other Settings) bool {
	a, errA := json.Marshal(s)
	b, errB := json.Marshal(other)
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// knownFields is the serialized form of the typed fields.
type knownFields struct {
	WifiSSID        string  `json:"wifi_ssid"`
	WifiPassword    string  `json:"wifi_password"`
	ElegooIP        string  `json:"elegoo_ip"`
	PulsePin        int     `json:"pulse_pin"`
	DebounceMs      int     `json:"debounce_ms"`
	MotionTimeoutMs int     `json:"motion_timeout_ms"`
	MmPerPulse      float64 `json:"mm_per_pulse"`
	EnableWebsocket bool    `json:"enable_websocket"`
}

// MarshalJSON writes the known fields and the extensions as one flat object.
func (s Settings) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(knownFields{
		WifiSSID:        s.WifiSSID,
		WifiPassword:    s.WifiPassword,
		ElegooIP:        s.ElegooIP,
		PulsePin:        s.PulsePin,
		DebounceMs:      s.DebounceMs,
		MotionTimeoutMs: s.MotionTimeoutMs,
		MmPerPulse:      s.MmPerPulse,
		EnableWebsocket: s.EnableWebsocket,
	})
	if err != nil {
		return nil, err
	}
	if len(s.Extensions) == 0 {
		return known, nil
	}

	keys := make([]string, 0, len(s.Extensions))
	for k := range s.Extensions {
		if !IsKnownKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(known[:len(known)-1])
	for _, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		var value bytes.Buffer
		if err := json.Compact(&value, s.Extensions[k]); err != nil {
			return nil, fmt.Errorf("extension %q: %w", k, err)
		}
		buf.WriteByte(',')
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value.Bytes())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces s with the decoded object. Known keys absent from
// data are reset to zero; use Store.Merge for partial updates.
func (s *Settings) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	p, err := ParsePartial(data)
	if err != nil {
		return err
	}
	out := Settings{}
	if err := p.applyTo(&out); err != nil {
		return err
	}
	*s = out
	return nil
}
