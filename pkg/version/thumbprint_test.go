package version

import (
	"errors"
	"testing"
	"time"
)

func TestThumbprint_ZeroPadding(t *testing.T) {
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), "010125000000"},
		{time.Date(2009, time.November, 30, 7, 8, 9, 0, time.UTC), "113009070809"},
		{time.Date(2100, time.February, 3, 4, 5, 6, 0, time.UTC), "020300040506"},
	}
	for _, tt := range tests {
		if got := Thumbprint(tt.at); got != tt.want {
			t.Errorf("Thumbprint(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}

func TestParseThumbprint_RoundTrip(t *testing.T) {
	at := time.Date(2026, time.October, 18, 14, 2, 59, 0, time.UTC)
	got, err := ParseThumbprint(Thumbprint(at), nil)
	if err != nil {
		t.Fatalf("ParseThumbprint: %v", err)
	}
	if !got.Equal(at) {
		t.Errorf("ParseThumbprint = %v, want %v", got, at)
	}
}

func TestParseThumbprint_Invalid(t *testing.T) {
	tests := []string{
		"",
		"01012500000",
		"0101250000000",
		"13012500000a",
		"130125000000", // month 13
		"023025000000", // Feb 30
		"010125250000", // hour 25
		"+10125000000",
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseThumbprint(input, nil)
			if !errors.Is(err, ErrInvalidThumbprint) {
				t.Errorf("ParseThumbprint(%q) error = %v, want ErrInvalidThumbprint", input, err)
			}
		})
	}
}

func TestCompareThumbprints(t *testing.T) {
	// December 2024 sorts after January 2025 as a string.
	older := "123124120000"
	newer := "010125120000"

	tests := []struct {
		a, b string
		want int
	}{
		{older, newer, -1},
		{newer, older, 1},
		{newer, newer, 0},
	}
	for _, tt := range tests {
		got, err := CompareThumbprints(tt.a, tt.b)
		if err != nil {
			t.Fatalf("CompareThumbprints(%q, %q): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("CompareThumbprints(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}

	if _, err := CompareThumbprints("bogus", newer); !errors.Is(err, ErrInvalidThumbprint) {
		t.Errorf("expected ErrInvalidThumbprint, got %v", err)
	}
}
