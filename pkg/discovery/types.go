package discovery

import (
	"context"
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypePrinter is the default service type browsed for printers.
	ServiceTypePrinter = "_elegoo._tcp"

	// ServiceTypeSensor is the service type the sensor advertises.
	ServiceTypeSensor = "_ofs._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default sensor HTTP port.
	DefaultPort = 80
)

// TXT record key constants.
const (
	TXTKeyFirmware = "fw"   // Firmware version
	TXTKeyChip     = "chip" // Chip family
	TXTKeyPath     = "path" // API base path (optional)
)

// Timing constants.
const (
	// DefaultDiscoveryDelay is the latency SettingsDiscoverer reports
	// the configured address after.
	DefaultDiscoveryDelay = 1 * time.Second

	// MaxDiscoveryDelay bounds the configurable delay.
	MaxDiscoveryDelay = 30 * time.Second

	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 5 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// Discovery errors.
var (
	ErrNotFound            = errors.New("printer not found")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
)

// Printer is a discovered printer.
type Printer struct {
	// IP is the printer's address as reported to clients.
	IP string `json:"ip"`

	// Port is the service port, 0 when unknown.
	Port int `json:"port,omitempty"`

	// Name is the mDNS instance name, empty for configured printers.
	Name string `json:"name,omitempty"`
}

// Discoverer locates the printer.
type Discoverer interface {
	// Discover blocks until the printer is found, discovery fails or ctx
	// is done.
	Discover(ctx context.Context) (Printer, error)
}

// DiscovererFunc adapts a function to the Discoverer interface.
type DiscovererFunc func(ctx context.Context) (Printer, error)

// Discover calls f.
func (f DiscovererFunc) Discover(ctx context.Context) (Printer, error) {
	return f(ctx)
}

// ServiceInfo describes the sensor service for advertising.
type ServiceInfo struct {
	// InstanceName is the DNS-SD instance name (e.g. "OFS-A1B2").
	InstanceName string

	// Port is the HTTP port.
	Port int

	// FirmwareVersion and ChipFamily are published as TXT records.
	FirmwareVersion string
	ChipFamily      string

	// Path is the optional API base path.
	Path string
}
