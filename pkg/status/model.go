package status

import (
	"math"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
)

// Model defaults.
const (
	// DefaultRatioThreshold is the pass-ratio alarm threshold echoed to clients.
	DefaultRatioThreshold = 0.25

	// DefaultRefreshInterval is the status stream cadence.
	DefaultRefreshInterval = time.Second
)

// Calibration provides the settings the model applies to raw readings.
// *settings.Store satisfies it.
type Calibration interface {
	Read() settings.Settings
}

// Config holds static model parameters.
type Config struct {
	// RatioThreshold is echoed in every snapshot for client display.
	RatioThreshold float64

	// RefreshInterval is the cadence advertised in snapshots and used by
	// the stream publisher.
	RefreshInterval time.Duration

	// MAC and IP identify the device in snapshots; empty values are omitted.
	MAC string
	IP  string
}

// DefaultConfig returns the default model configuration.
func DefaultConfig() Config {
	return Config{
		RatioThreshold:  DefaultRatioThreshold,
		RefreshInterval: DefaultRefreshInterval,
	}
}

// Model produces status snapshots.
type Model struct {
	source      Source
	calibration Calibration
	config      Config
}

// NewModel creates a model reading from src. A nil calibration uses
// settings.Defaults. A non-positive refresh interval is replaced by the
// default; others are rounded to whole milliseconds so refreshIntervalMs
// matches the emission cadence exactly.
func NewModel(src Source, cal Calibration, cfg Config) *Model {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	cfg.RefreshInterval = cfg.RefreshInterval.Round(time.Millisecond)
	if cfg.RefreshInterval < time.Millisecond {
		cfg.RefreshInterval = time.Millisecond
	}
	return &Model{source: src, calibration: cal, config: cfg}
}

// RefreshInterval returns the cadence advertised in snapshots.
func (m *Model) RefreshInterval() time.Duration {
	return m.config.RefreshInterval
}

// Produce reads the source and the calibration once and builds a snapshot.
func (m *Model) Produce() Snapshot {
	cal := settings.Defaults()
	if m.calibration != nil {
		cal = m.calibration.Read()
	}
	return NewSnapshot(m.source.Read(), cal, m.config)
}

// NewSnapshot derives a snapshot from a raw reading and the calibration in
// effect. Out-of-range inputs are clamped.
func NewSnapshot(r Reading, cal settings.Settings, cfg Config) Snapshot {
	expected := nonNegative(r.ExpectedMm)
	pulses := r.MovementPulses
	if pulses < 0 {
		pulses = 0
	}
	actual := bounded(float64(pulses) * cal.MmPerPulse)

	passRatio := 0.0
	if expected > 0 {
		passRatio = bounded(actual / expected)
	}

	printState := r.PrintState
	if printState < PrintStateIdle || printState > MaxPrintState {
		printState = PrintStateIdle
	}

	return Snapshot{
		Stopped:        r.Stopped,
		FilamentRunout: r.FilamentRunout,
		Device: DeviceStatus{
			IsConnected:        r.LinkUp && cal.EnableWebsocket,
			PrintState:         printState,
			ExpectedFilamentMm: expected,
			ActualFilamentMm:   actual,
			DeficitMm:          deficit(expected, actual),
			MovementPulses:     pulses,
			HardJamPercent:     clampPercent(r.HardJamPercent),
			SoftJamPercent:     clampPercent(r.SoftJamPercent),
			PassRatio:          passRatio,
			RatioThreshold:     nonNegative(cfg.RatioThreshold),
			Runout: RunoutState{
				PausePending: r.RunoutPausePending,
				RemainingMm:  nonNegative(r.RunoutRemainingMm),
				Commanded:    r.RunoutCommanded,
			},
			RefreshIntervalMs: refreshMillis(cfg.RefreshInterval),
		},
		MAC: cfg.MAC,
		IP:  cfg.IP,
	}
}

// nonNegative maps negative, NaN and infinite values to 0.
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// bounded is nonNegative except that +Inf saturates at math.MaxFloat64,
// keeping overflowing products encodable.
func bounded(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return nonNegative(v)
}

func clampPercent(v float64) float64 {
	v = nonNegative(v)
	if v > 100 {
		return 100
	}
	return v
}

func refreshMillis(d time.Duration) int64 {
	if ms := d.Milliseconds(); ms > 0 {
		return ms
	}
	return 1
}
