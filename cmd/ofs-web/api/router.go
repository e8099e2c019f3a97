package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/akrauze/OpenFilamentSensor/pkg/discovery"
	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
	"github.com/akrauze/OpenFilamentSensor/pkg/stream"
	"github.com/akrauze/OpenFilamentSensor/pkg/version"
)

// Config holds the components the router serves.
type Config struct {
	Publisher       *stream.Publisher
	Settings        *settings.Store
	Describer       *version.Describer
	Discoverer      discovery.Discoverer
	DiscoverTimeout time.Duration

	// Events backs the log endpoints.
	Events *ofslog.MemoryLogger

	// Logger receives request and handler events.
	Logger ofslog.Logger

	// Version is reported by the health endpoint.
	Version   string
	StartedAt time.Time
}

// NewRouter creates the HTTP router with all API routes registered.
func NewRouter(cfg Config) *mux.Router {
	logger := ofslog.OrNoop(cfg.Logger)
	if cfg.Events == nil {
		cfg.Events = ofslog.NewMemoryLogger(ofslog.DefaultMemoryCapacity)
	}
	if cfg.StartedAt.IsZero() {
		cfg.StartedAt = time.Now()
	}

	statusAPI := NewStatusAPI(cfg.Publisher, logger)
	settingsAPI := NewSettingsAPI(cfg.Settings, logger)
	versionAPI := NewVersionAPI(cfg.Describer)
	discoveryAPI := NewDiscoveryAPI(cfg.Discoverer, cfg.DiscoverTimeout, logger)
	logsAPI := NewLogsAPI(cfg.Events)

	r := mux.NewRouter()
	r.Use(requestLogger(logger))

	// Status
	r.HandleFunc("/sensor_status", statusAPI.HandleSensorStatus).Methods(http.MethodGet)
	r.HandleFunc("/status_events", statusAPI.HandleStatusEvents).Methods(http.MethodGet)

	// Settings
	r.HandleFunc("/get_settings", settingsAPI.HandleGet).Methods(http.MethodGet)
	r.HandleFunc("/update_settings", settingsAPI.HandleUpdate).Methods(http.MethodPost)

	// Discovery and version
	r.HandleFunc("/discover_printer", discoveryAPI.HandleDiscover).Methods(http.MethodGet)
	r.HandleFunc("/version", versionAPI.HandleVersion).Methods(http.MethodGet)

	// Logs and health
	r.HandleFunc("/api/logs_live", logsAPI.HandleLive).Methods(http.MethodGet)
	r.HandleFunc("/api/logs_text", logsAPI.HandleText).Methods(http.MethodGet)
	r.HandleFunc("/api/health", healthHandler(cfg)).Methods(http.MethodGet)

	return r
}

// healthHandler returns the server health status.
func healthHandler(cfg Config) http.HandlerFunc {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	return func(w http.ResponseWriter, req *http.Request) {
		writeJSONResponse(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: ver,
			Streams: cfg.Publisher.Active(),
			Uptime:  time.Since(cfg.StartedAt).Round(time.Second).String(),
		})
	}
}

// requestLogger records every routed request at DEBUG level.
func requestLogger(logger ofslog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ev := ofslog.NewEvent(ofslog.LevelDebug, ofslog.CategoryRequest, "%s %s", req.Method, req.URL.Path)
			ev.RemoteAddr = req.RemoteAddr
			logger.Log(ev)
			next.ServeHTTP(w, req)
		})
	}
}
