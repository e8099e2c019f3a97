package status

import (
	"fmt"
	"math"
)

// Snapshot is one point-in-time device status.
type Snapshot struct {
	Stopped        bool         `json:"stopped"`
	FilamentRunout bool         `json:"filamentRunout"`
	Device         DeviceStatus `json:"device"`
	MAC            string       `json:"mac,omitempty"`
	IP             string       `json:"ip,omitempty"`
}

// DeviceStatus carries the link, print and filament metrics.
type DeviceStatus struct {
	IsConnected        bool        `json:"isConnected"`
	PrintState         PrintState  `json:"printState"`
	ExpectedFilamentMm float64     `json:"expectedFilamentMm"`
	ActualFilamentMm   float64     `json:"actualFilamentMm"`
	DeficitMm          float64     `json:"deficitMm"`
	MovementPulses     int64       `json:"movementPulses"`
	HardJamPercent     float64     `json:"hardJamPercent"`
	SoftJamPercent     float64     `json:"softJamPercent"`
	PassRatio          float64     `json:"passRatio"`
	RatioThreshold     float64     `json:"ratioThreshold"`
	Runout             RunoutState `json:"runout"`
	RefreshIntervalMs  int64       `json:"refreshIntervalMs"`
}

// RunoutState is the runout pause workflow sub-state.
type RunoutState struct {
	// PausePending is set while a pause has been requested but not issued.
	PausePending bool `json:"pausePending"`

	// RemainingMm is the filament distance left before the pause is issued.
	RemainingMm float64 `json:"remainingMm"`

	// Commanded is set once the pause has been sent to the printer.
	Commanded bool `json:"commanded"`
}

// PrintState is the printer's job phase: 0 idle, 1-7 printing phases.
type PrintState int

const (
	// PrintStateIdle means no job is running.
	PrintStateIdle PrintState = 0

	// MaxPrintState is the highest printing phase.
	MaxPrintState PrintState = 7
)

// IsPrinting reports whether a job is running.
func (p PrintState) IsPrinting() bool {
	return p > PrintStateIdle && p <= MaxPrintState
}

// String returns IDLE, PHASE_n or UNKNOWN.
func (p PrintState) String() string {
	switch {
	case p == PrintStateIdle:
		return "IDLE"
	case p.IsPrinting():
		return fmt.Sprintf("PHASE_%d", int(p))
	default:
		return "UNKNOWN"
	}
}

// Validate checks the snapshot invariants. Snapshots built by Model always
// pass; it exists for consumers that decode snapshots from the wire.
func (s Snapshot) Validate() error {
	d := s.Device
	for name, v := range map[string]float64{
		"expectedFilamentMm": d.ExpectedFilamentMm,
		"actualFilamentMm":   d.ActualFilamentMm,
		"deficitMm":          d.DeficitMm,
		"hardJamPercent":     d.HardJamPercent,
		"softJamPercent":     d.SoftJamPercent,
		"passRatio":          d.PassRatio,
		"ratioThreshold":     d.RatioThreshold,
		"runout.remainingMm": d.Runout.RemainingMm,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s %v is not finite", name, v)
		}
	}
	if d.PrintState < PrintStateIdle || d.PrintState > MaxPrintState {
		return fmt.Errorf("printState %d out of range [0,%d]", d.PrintState, MaxPrintState)
	}
	if d.ExpectedFilamentMm < 0 || d.ActualFilamentMm < 0 {
		return fmt.Errorf("negative filament length (expected %v, actual %v)", d.ExpectedFilamentMm, d.ActualFilamentMm)
	}
	if want := deficit(d.ExpectedFilamentMm, d.ActualFilamentMm); d.DeficitMm != want {
		return fmt.Errorf("deficitMm %v, want %v", d.DeficitMm, want)
	}
	if d.MovementPulses < 0 {
		return fmt.Errorf("movementPulses %d is negative", d.MovementPulses)
	}
	if !inPercentRange(d.HardJamPercent) || !inPercentRange(d.SoftJamPercent) {
		return fmt.Errorf("jam percentage out of range (hard %v, soft %v)", d.HardJamPercent, d.SoftJamPercent)
	}
	if d.PassRatio < 0 {
		return fmt.Errorf("passRatio %v is negative", d.PassRatio)
	}
	if d.Runout.RemainingMm < 0 {
		return fmt.Errorf("runout remainingMm %v is negative", d.Runout.RemainingMm)
	}
	if d.RefreshIntervalMs <= 0 {
		return fmt.Errorf("refreshIntervalMs %d must be positive", d.RefreshIntervalMs)
	}
	return nil
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}

func deficit(expected, actual float64) float64 {
	if d := expected - actual; d > 0 {
		return d
	}
	return 0
}
