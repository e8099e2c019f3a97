// Package version describes the running build: firmware and build version
// strings, chip family and a time-derived thumbprint.
package version

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Default build identifiers.
const (
	DefaultFirmwareVersion = "v1.0.0-lite"
	DefaultBuildVersion    = "1.0.0"
	DefaultChipFamily      = "ESP32-S3"
)

// Info holds the static build identifiers.
type Info struct {
	FirmwareVersion string
	BuildVersion    string
	ChipFamily      string
}

// DefaultInfo returns the default build identifiers.
func DefaultInfo() Info {
	return Info{
		FirmwareVersion: DefaultFirmwareVersion,
		BuildVersion:    DefaultBuildVersion,
		ChipFamily:      DefaultChipFamily,
	}
}

// Descriptor is the version record served to clients.
type Descriptor struct {
	FirmwareVersion string `json:"firmware_version"`
	BuildVersion    string `json:"build_version"`
	ChipFamily      string `json:"chip_family"`
	Thumbprint      string `json:"thumbprint"`

	// FirmwareThumbprint and FilesystemThumbprint always equal Thumbprint.
	FirmwareThumbprint   string `json:"firmware_thumbprint"`
	FilesystemThumbprint string `json:"filesystem_thumbprint"`
}

// Option configures a Describer.
type Option func(*Describer)

// WithClock sets the time source used for thumbprints.
func WithClock(now func() time.Time) Option {
	return func(d *Describer) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLocation sets the time zone thumbprints are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(d *Describer) {
		if loc != nil {
			d.loc = loc
		}
	}
}

// Describer builds version descriptors.
type Describer struct {
	info Info
	now  func() time.Time
	loc  *time.Location
}

// NewDescriber creates a describer for info. Empty fields of info fall back
// to the defaults.
func NewDescriber(info Info, opts ...Option) *Describer {
	def := DefaultInfo()
	if info.FirmwareVersion == "" {
		info.FirmwareVersion = def.FirmwareVersion
	}
	if info.BuildVersion == "" {
		info.BuildVersion = def.BuildVersion
	}
	if info.ChipFamily == "" {
		info.ChipFamily = def.ChipFamily
	}

	d := &Describer{info: info, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Info returns the static build identifiers.
func (d *Describer) Info() Info {
	return d.info
}

// Describe returns a descriptor stamped with the current time. Every call
// reads the clock again.
func (d *Describer) Describe() Descriptor {
	tp := Thumbprint(d.now().In(d.loc))
	return Descriptor{
		FirmwareVersion:      d.info.FirmwareVersion,
		BuildVersion:         d.info.BuildVersion,
		ChipFamily:           d.info.ChipFamily,
		Thumbprint:           tp,
		FirmwareThumbprint:   tp,
		FilesystemThumbprint: tp,
	}
}

// BuildVersion represents a parsed "major.minor.patch" build version.
type BuildVersion struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// ParseBuild parses a "major.minor.patch" build version. A leading "v" and a
// "-suffix" are accepted and ignored, so firmware versions such as
// "v1.0.0-lite" parse as well.
func ParseBuild(s string) (BuildVersion, error) {
	core := strings.TrimPrefix(s, "v")
	if i := strings.IndexByte(core, '-'); i >= 0 {
		core = core[:i]
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return BuildVersion{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var nums [3]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || p == "" {
			return BuildVersion{}, fmt.Errorf("invalid version %q: bad component %q", s, p)
		}
		nums[i] = uint16(n)
	}

	return BuildVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v BuildVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
func (v BuildVersion) Compatible(other BuildVersion) bool {
	return v.Major == other.Major
}

// Compare returns -1, 0 or +1 depending on whether v is older than, equal to
// or newer than other.
func (v BuildVersion) Compare(other BuildVersion) int {
	switch {
	case v.Major != other.Major:
		return cmpUint(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpUint(v.Minor, other.Minor)
	default:
		return cmpUint(v.Patch, other.Patch)
	}
}

func cmpUint(a, b uint16) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
