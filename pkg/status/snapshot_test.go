package status

import (
	"math"
	"testing"
)

func TestPrintStateString(t *testing.T) {
	tests := []struct {
		state    PrintState
		want     string
		printing bool
	}{
		{PrintStateIdle, "IDLE", false},
		{1, "PHASE_1", true},
		{7, "PHASE_7", true},
		{8, "UNKNOWN", false},
		{-1, "UNKNOWN", false},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("PrintState(%d).String() = %q, want %q", int(tt.state), got, tt.want)
		}
		if got := tt.state.IsPrinting(); got != tt.printing {
			t.Errorf("PrintState(%d).IsPrinting() = %v, want %v", int(tt.state), got, tt.printing)
		}
	}
}

func TestValidateRejectsInconsistentSnapshots(t *testing.T) {
	valid := func() Snapshot {
		return Snapshot{Device: DeviceStatus{
			ExpectedFilamentMm: 10,
			ActualFilamentMm:   4,
			DeficitMm:          6,
			RefreshIntervalMs:  1000,
		}}
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid snapshot rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Snapshot)
	}{
		{"wrong deficit", func(s *Snapshot) { s.Device.DeficitMm = 1 }},
		{"print state too high", func(s *Snapshot) { s.Device.PrintState = 9 }},
		{"jam over 100", func(s *Snapshot) { s.Device.HardJamPercent = 101 }},
		{"negative pulses", func(s *Snapshot) { s.Device.MovementPulses = -1 }},
		{"zero refresh", func(s *Snapshot) { s.Device.RefreshIntervalMs = 0 }},
		{"negative ratio", func(s *Snapshot) { s.Device.PassRatio = -0.1 }},
		{"infinite ratio", func(s *Snapshot) { s.Device.PassRatio = math.Inf(1) }},
		{"NaN deficit", func(s *Snapshot) { s.Device.DeficitMm = math.NaN() }},
		{"infinite runout distance", func(s *Snapshot) { s.Device.Runout.RemainingMm = math.Inf(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
