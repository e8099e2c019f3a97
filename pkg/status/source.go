package status

import (
	"math/rand"
	"sync"
)

// Reading is one raw sample from the sensor side. Derived values are not
// part of a reading; Model computes them.
type Reading struct {
	Stopped        bool
	FilamentRunout bool

	// LinkUp reports whether the printer connection is healthy.
	LinkUp bool

	PrintState     PrintState
	ExpectedMm     float64
	MovementPulses int64
	HardJamPercent float64
	SoftJamPercent float64

	RunoutPausePending bool
	RunoutRemainingMm  float64
	RunoutCommanded    bool
}

// Source supplies sensor readings.
type Source interface {
	// Read returns the current reading. Implementations must be safe for
	// concurrent use.
	Read() Reading
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() Reading

// Read calls f.
func (f SourceFunc) Read() Reading { return f() }

// StaticSource always returns the same reading.
type StaticSource struct {
	mu      sync.RWMutex
	reading Reading
}

// NewStaticSource creates a source returning r.
func NewStaticSource(r Reading) *StaticSource {
	return &StaticSource{reading: r}
}

// Read returns the configured reading.
func (s *StaticSource) Read() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reading
}

// Set replaces the reading returned by subsequent reads.
func (s *StaticSource) Set(r Reading) {
	s.mu.Lock()
	s.reading = r
	s.mu.Unlock()
}

// SimulatedSource produces randomized readings shaped like a printer
// working through a job. The distributions are demo fixtures, not a model of
// the real sensor.
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedSource creates a simulated source seeded with seed.
func NewSimulatedSource(seed int64) *SimulatedSource {
	return &SimulatedSource{rng: rand.New(rand.NewSource(seed))}
}

// Read returns a new random reading.
func (s *SimulatedSource) Read() Reading {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.rng
	printing := r.Float64() > 0.3
	expected := r.Float64() * 500

	// At the nominal 1 mm/pulse the measured length lands at 85-115% of
	// the expected length.
	actual := expected * (0.85 + r.Float64()*0.3)

	reading := Reading{
		Stopped:        r.Float64() > 0.9,
		FilamentRunout: r.Float64() > 0.95,
		LinkUp:         r.Float64() > 0.1,
		ExpectedMm:     expected,
		MovementPulses: int64(actual + 0.5),
		HardJamPercent: r.Float64() * 40,
		SoftJamPercent: r.Float64() * 30,
	}
	if printing {
		reading.PrintState = PrintState(r.Intn(int(MaxPrintState)) + 1)
	}
	return reading
}
