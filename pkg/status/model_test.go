package status

import (
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
)

type stubSource struct {
	mock.Mock
}

func (s *stubSource) Read() Reading {
	args := s.Called()
	return args.Get(0).(Reading)
}

func TestProduceDerivesFields(t *testing.T) {
	src := NewStaticSource(Reading{
		LinkUp:         true,
		PrintState:     3,
		ExpectedMm:     120,
		MovementPulses: 100,
		HardJamPercent: 12.5,
		SoftJamPercent: 4,
	})
	m := NewModel(src, settings.NewStore(settings.Defaults()), DefaultConfig())

	snap := m.Produce()
	d := snap.Device

	assert.True(t, d.IsConnected)
	assert.Equal(t, PrintState(3), d.PrintState)
	assert.InDelta(t, 100.0, d.ActualFilamentMm, 1e-9)
	assert.InDelta(t, 20.0, d.DeficitMm, 1e-9)
	assert.InDelta(t, 100.0/120.0, d.PassRatio, 1e-9)
	assert.Equal(t, DefaultRatioThreshold, d.RatioThreshold)
	assert.Equal(t, int64(1000), d.RefreshIntervalMs)
	assert.NoError(t, snap.Validate())
}

func TestDeficitFlooredAtZero(t *testing.T) {
	src := NewStaticSource(Reading{ExpectedMm: 50, MovementPulses: 80})
	snap := NewModel(src, nil, DefaultConfig()).Produce()

	assert.Equal(t, 0.0, snap.Device.DeficitMm)
	assert.InDelta(t, 1.6, snap.Device.PassRatio, 1e-9)
}

func TestPassRatioZeroWhenNothingExpected(t *testing.T) {
	src := NewStaticSource(Reading{ExpectedMm: 0, MovementPulses: 25})
	snap := NewModel(src, nil, DefaultConfig()).Produce()

	assert.Equal(t, 0.0, snap.Device.PassRatio)
	assert.Equal(t, 0.0, snap.Device.DeficitMm)
	assert.False(t, math.IsNaN(snap.Device.PassRatio))
}

func TestHugeCalibrationSaturatesRatio(t *testing.T) {
	store := settings.NewStore(settings.Defaults())
	_, err := store.MergeJSON([]byte(`{"mm_per_pulse": 1.7e308}`))
	require.NoError(t, err)

	src := NewStaticSource(Reading{ExpectedMm: 0.5, MovementPulses: 1})
	snap := NewModel(src, store, DefaultConfig()).Produce()

	assert.Equal(t, 1.7e308, snap.Device.ActualFilamentMm)
	assert.Equal(t, math.MaxFloat64, snap.Device.PassRatio)
	assert.Equal(t, 0.0, snap.Device.DeficitMm)
	assert.NoError(t, snap.Validate())

	_, err = json.Marshal(snap)
	assert.NoError(t, err)
}

func TestActualLengthOverflowSaturates(t *testing.T) {
	cal := settings.Defaults()
	cal.MmPerPulse = math.MaxFloat64
	snap := NewSnapshot(Reading{ExpectedMm: 10, MovementPulses: 4}, cal, DefaultConfig())

	assert.Equal(t, math.MaxFloat64, snap.Device.ActualFilamentMm)
	assert.Equal(t, math.MaxFloat64, snap.Device.PassRatio)
	assert.NoError(t, snap.Validate())
}

func TestProduceClampsOutOfRangeInputs(t *testing.T) {
	src := NewStaticSource(Reading{
		PrintState:        12,
		ExpectedMm:        math.NaN(),
		MovementPulses:    -5,
		HardJamPercent:    140,
		SoftJamPercent:    -3,
		RunoutRemainingMm: -1,
	})
	snap := NewModel(src, nil, DefaultConfig()).Produce()
	d := snap.Device

	assert.Equal(t, PrintStateIdle, d.PrintState)
	assert.Equal(t, 0.0, d.ExpectedFilamentMm)
	assert.Equal(t, int64(0), d.MovementPulses)
	assert.Equal(t, 100.0, d.HardJamPercent)
	assert.Equal(t, 0.0, d.SoftJamPercent)
	assert.Equal(t, 0.0, d.Runout.RemainingMm)
	assert.NoError(t, snap.Validate())
}

func TestCalibrationChangeAppliesToNextSnapshot(t *testing.T) {
	store := settings.NewStore(settings.Defaults())
	src := NewStaticSource(Reading{LinkUp: true, ExpectedMm: 100, MovementPulses: 100})
	m := NewModel(src, store, DefaultConfig())

	before := m.Produce()
	assert.InDelta(t, 100.0, before.Device.ActualFilamentMm, 1e-9)

	_, err := store.MergeJSON([]byte(`{"mm_per_pulse": 0.5}`))
	require.NoError(t, err)

	after := m.Produce()
	assert.InDelta(t, 50.0, after.Device.ActualFilamentMm, 1e-9)
	assert.InDelta(t, 50.0, after.Device.DeficitMm, 1e-9)
}

func TestWebsocketToggleForcesDisconnected(t *testing.T) {
	store := settings.NewStore(settings.Defaults())
	m := NewModel(NewStaticSource(Reading{LinkUp: true}), store, DefaultConfig())
	require.True(t, m.Produce().Device.IsConnected)

	_, err := store.MergeJSON([]byte(`{"enable_websocket": false}`))
	require.NoError(t, err)

	assert.False(t, m.Produce().Device.IsConnected)
}

func TestProduceReadsSourceOncePerSnapshot(t *testing.T) {
	src := &stubSource{}
	src.On("Read").Return(Reading{ExpectedMm: 10, MovementPulses: 10})

	m := NewModel(src, nil, DefaultConfig())
	m.Produce()
	m.Produce()

	src.AssertNumberOfCalls(t, "Read", 2)
}

func TestRefreshInterval(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		want     time.Duration
		wantMs   int64
	}{
		{"default when zero", 0, DefaultRefreshInterval, 1000},
		{"default when negative", -time.Second, DefaultRefreshInterval, 1000},
		{"custom", 250 * time.Millisecond, 250 * time.Millisecond, 250},
		{"sub-millisecond raised", time.Microsecond, time.Millisecond, 1},
		{"rounded to whole milliseconds", 1500 * time.Microsecond, 2 * time.Millisecond, 2},
		{"rounded down", 1200 * time.Microsecond, time.Millisecond, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(NewStaticSource(Reading{}), nil, Config{RefreshInterval: tt.interval})
			assert.Equal(t, tt.want, m.RefreshInterval())
			assert.Equal(t, tt.wantMs, m.Produce().Device.RefreshIntervalMs)
		})
	}
}

func TestSnapshotJSONFieldNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MAC = "AA:BB:CC:DD:EE:FF"
	snap := NewModel(NewStaticSource(Reading{ExpectedMm: 1, MovementPulses: 1}), nil, cfg).Produce()

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Contains(t, m, "stopped")
	assert.Contains(t, m, "filamentRunout")
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", m["mac"])
	assert.NotContains(t, m, "ip")

	device := m["device"].(map[string]any)
	for _, key := range []string{
		"isConnected", "printState", "expectedFilamentMm", "actualFilamentMm",
		"deficitMm", "movementPulses", "hardJamPercent", "softJamPercent",
		"passRatio", "ratioThreshold", "runout", "refreshIntervalMs",
	} {
		assert.Contains(t, device, key)
	}
	runout := device["runout"].(map[string]any)
	assert.Contains(t, runout, "pausePending")
	assert.Contains(t, runout, "remainingMm")
	assert.Contains(t, runout, "commanded")
}

func TestSnapshotsAreIndependentValues(t *testing.T) {
	m := NewModel(NewStaticSource(Reading{ExpectedMm: 10}), nil, DefaultConfig())
	a := m.Produce()
	b := m.Produce()

	a.Device.ExpectedFilamentMm = 999
	assert.Equal(t, 10.0, b.Device.ExpectedFilamentMm)
}

func TestSimulatedSourceInvariants(t *testing.T) {
	m := NewModel(NewSimulatedSource(42), settings.NewStore(settings.Defaults()), DefaultConfig())

	for i := 0; i < 500; i++ {
		snap := m.Produce()
		if err := snap.Validate(); err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		d := snap.Device
		if d.ExpectedFilamentMm > 500 {
			t.Errorf("snapshot %d: expected %v > 500", i, d.ExpectedFilamentMm)
		}
		if d.HardJamPercent > 40 || d.SoftJamPercent > 30 {
			t.Errorf("snapshot %d: jam (%v, %v) outside simulated range", i, d.HardJamPercent, d.SoftJamPercent)
		}
	}
}

func TestSimulatedSourceConcurrentReads(t *testing.T) {
	src := NewSimulatedSource(7)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				src.Read()
			}
		}()
	}
	wg.Wait()
}

func TestSourceFunc(t *testing.T) {
	calls := 0
	src := SourceFunc(func() Reading {
		calls++
		return Reading{MovementPulses: int64(calls)}
	})
	m := NewModel(src, nil, DefaultConfig())

	assert.Equal(t, int64(1), m.Produce().Device.MovementPulses)
	assert.Equal(t, int64(2), m.Produce().Device.MovementPulses)
}
