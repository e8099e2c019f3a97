package discovery

import (
	"context"
	"errors"
	"fmt"
)

// FallbackDiscoverer tries primary first and falls back on failure.
type FallbackDiscoverer struct {
	primary  Discoverer
	fallback Discoverer
}

// NewFallbackDiscoverer creates a discoverer trying primary, then fallback.
func NewFallbackDiscoverer(primary, fallback Discoverer) *FallbackDiscoverer {
	return &FallbackDiscoverer{primary: primary, fallback: fallback}
}

// Discover returns the primary result, or the fallback result if the primary
// failed. Cancellation of ctx is never retried.
func (d *FallbackDiscoverer) Discover(ctx context.Context) (Printer, error) {
	p, err := d.primary.Discover(ctx)
	if err == nil {
		return p, nil
	}
	if ctx.Err() != nil || d.fallback == nil {
		return Printer{}, err
	}

	p, fbErr := d.fallback.Discover(ctx)
	if fbErr != nil {
		return Printer{}, fmt.Errorf("primary: %w; fallback: %w", err, fbErr)
	}
	return p, nil
}

// IsNotFound reports whether err means no printer was found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var _ Discoverer = (*FallbackDiscoverer)(nil)
