package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/discovery"
	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
)

// DefaultDiscoverTimeout bounds a discovery request.
const DefaultDiscoverTimeout = 10 * time.Second

// DiscoveryAPI handles GET /discover_printer.
type DiscoveryAPI struct {
	discoverer discovery.Discoverer
	timeout    time.Duration
	logger     ofslog.Logger
}

// NewDiscoveryAPI creates a new discovery API handler. A non-positive
// timeout selects DefaultDiscoverTimeout.
func NewDiscoveryAPI(d discovery.Discoverer, timeout time.Duration, logger ofslog.Logger) *DiscoveryAPI {
	if timeout <= 0 {
		timeout = DefaultDiscoverTimeout
	}
	return &DiscoveryAPI{discoverer: d, timeout: timeout, logger: ofslog.OrNoop(logger)}
}

// HandleDiscover handles GET /discover_printer.
func (a *DiscoveryAPI) HandleDiscover(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), a.timeout)
	defer cancel()

	printer, err := a.discoverer.Discover(ctx)
	if err != nil {
		ofslog.Warnf(a.logger, ofslog.CategoryDiscovery, "printer discovery failed: %v", err)
		switch {
		case errors.Is(err, discovery.ErrNotFound), errors.Is(err, context.DeadlineExceeded):
			writeJSONError(w, http.StatusGatewayTimeout, "printer not found", err.Error())
		default:
			writeJSONError(w, http.StatusInternalServerError, "discovery failed", err.Error())
		}
		return
	}

	ofslog.Infof(a.logger, ofslog.CategoryDiscovery, "printer discovered at %s", printer.IP)
	writeJSONResponse(w, http.StatusOK, DiscoverResponse{
		IP:   printer.IP,
		Port: printer.Port,
		Name: printer.Name,
	})
}
