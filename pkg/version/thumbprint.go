package version

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidThumbprint is returned for strings that are not 12-digit
// thumbprints.
var ErrInvalidThumbprint = errors.New("invalid thumbprint")

// thumbprintLen is six two-digit fields: MM DD YY hh mm ss.
const thumbprintLen = 12

// Thumbprint renders t as MMDDYYhhmmss, each field zero-padded to two
// digits. The year is taken modulo 100.
func Thumbprint(t time.Time) string {
	return fmt.Sprintf("%02d%02d%02d%02d%02d%02d",
		int(t.Month()), t.Day(), t.Year()%100,
		t.Hour(), t.Minute(), t.Second())
}

// ParseThumbprint parses a thumbprint in loc (nil means UTC). Two-digit
// years map to 2000-2099.
func ParseThumbprint(s string, loc *time.Location) (time.Time, error) {
	if len(s) != thumbprintLen {
		return time.Time{}, fmt.Errorf("%w: %q has %d characters, want %d", ErrInvalidThumbprint, s, len(s), thumbprintLen)
	}
	if loc == nil {
		loc = time.UTC
	}

	var f [6]int
	for i := range f {
		n, err := strconv.Atoi(s[2*i : 2*i+2])
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: %q: non-digit field", ErrInvalidThumbprint, s)
		}
		f[i] = n
	}
	month, day, year, hour, minute, sec := f[0], f[1], 2000+f[2], f[3], f[4], f[5]

	t := time.Date(year, time.Month(month), day, hour, minute, sec, 0, loc)
	// time.Date normalizes out-of-range fields; a round trip detects them.
	if Thumbprint(t) != s {
		return time.Time{}, fmt.Errorf("%w: %q: field out of range", ErrInvalidThumbprint, s)
	}
	return t, nil
}

// CompareThumbprints orders two thumbprints by the time they encode:
// -1 if a is older than b, 0 if equal, +1 if newer. Thumbprints are not
// lexicographically ordered, since the month leads.
func CompareThumbprints(a, b string) (int, error) {
	ta, err := ParseThumbprint(a, nil)
	if err != nil {
		return 0, err
	}
	tb, err := ParseThumbprint(b, nil)
	if err != nil {
		return 0, err
	}
	switch {
	case ta.Before(tb):
		return -1, nil
	case ta.After(tb):
		return 1, nil
	default:
		return 0, nil
	}
}
