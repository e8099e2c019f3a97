package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
)

// SettingsSource provides the stored printer address. *settings.Store
// satisfies it.
type SettingsSource interface {
	Read() settings.Settings
}

// SettingsDiscoverer reports the configured printer address after a delay.
type SettingsDiscoverer struct {
	source SettingsSource
	delay  time.Duration
}

// NewSettingsDiscoverer creates a discoverer reading elegoo_ip from source.
// A non-positive delay selects DefaultDiscoveryDelay; delays above
// MaxDiscoveryDelay are capped.
func NewSettingsDiscoverer(source SettingsSource, delay time.Duration) *SettingsDiscoverer {
	if delay <= 0 {
		delay = DefaultDiscoveryDelay
	}
	if delay > MaxDiscoveryDelay {
		delay = MaxDiscoveryDelay
	}
	return &SettingsDiscoverer{source: source, delay: delay}
}

// Delay returns the configured discovery latency.
func (d *SettingsDiscoverer) Delay() time.Duration {
	return d.delay
}

// Discover waits for the delay and returns the address stored at that
// moment.
func (d *SettingsDiscoverer) Discover(ctx context.Context) (Printer, error) {
	if d.delay > 0 {
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Printer{}, ctx.Err()
		}
	}

	ip := d.source.Read().ElegooIP
	if ip == "" {
		return Printer{}, fmt.Errorf("%w: no printer address configured", ErrNotFound)
	}
	return Printer{IP: ip}, nil
}

var _ Discoverer = (*SettingsDiscoverer)(nil)
