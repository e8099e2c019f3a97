package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/akrauze/OpenFilamentSensor/cmd/ofs-web/api"
	"github.com/akrauze/OpenFilamentSensor/pkg/discovery"
	ofslog "github.com/akrauze/OpenFilamentSensor/pkg/log"
	"github.com/akrauze/OpenFilamentSensor/pkg/settings"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
	"github.com/akrauze/OpenFilamentSensor/pkg/stream"
	"github.com/akrauze/OpenFilamentSensor/pkg/version"
)

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	File    FileConfig
	Version string
	Build   version.Info

	// Source overrides the simulated sensor source.
	Source status.Source

	// Slog receives service events in addition to the memory log.
	Slog *slog.Logger
}

// Server is the HTTP server for the filament sensor.
type Server struct {
	config     ServerConfig
	router     http.Handler
	server     *http.Server
	store      *settings.Store
	publisher  *stream.Publisher
	events     *ofslog.MemoryLogger
	logger     ofslog.Logger
	fileLogger *ofslog.FileLogger
	browser    *discovery.MDNSBrowser
	advertiser *discovery.MDNSAdvertiser
}

// NewServer creates a new server with the given configuration.
func NewServer(cfg ServerConfig) (*Server, error) {
	fc := cfg.File
	if err := fc.Validate(); err != nil {
		return nil, err
	}

	s := &Server{config: cfg}

	// Event logging: memory ring for the log endpoints, optional CBOR file,
	// optional slog output.
	s.events = ofslog.NewMemoryLogger(ofslog.DefaultMemoryCapacity)
	s.events.SetMinLevel(ofslog.LevelInfo)
	loggers := []ofslog.Logger{s.events}
	if fc.Server.EventLog != "" {
		fl, err := ofslog.NewFileLogger(fc.Server.EventLog)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		s.fileLogger = fl
		loggers = append(loggers, fl)
	}
	if cfg.Slog != nil {
		loggers = append(loggers, ofslog.NewSlogAdapter(cfg.Slog))
	}
	s.logger = ofslog.NewMultiLogger(loggers...)

	// Settings
	s.store = settings.NewStore(settings.Defaults())
	if len(fc.Settings) > 0 {
		partial, err := settings.PartialFromMap(fc.Settings)
		if err == nil {
			_, err = s.store.Merge(partial)
		}
		if err != nil {
			s.closeLogs()
			return nil, fmt.Errorf("invalid initial settings: %w", err)
		}
	}
	s.store.OnChange(func(old, updated settings.Settings) {
		if keys := settings.ChangedKeys(old, updated); len(keys) > 0 {
			ofslog.Infof(s.logger, ofslog.CategorySettings, "settings updated: %s", strings.Join(keys, ", "))
		}
	})

	// Status model and publisher
	src := cfg.Source
	if src == nil {
		src = status.NewSimulatedSource(fc.Server.Seed)
	}
	model := status.NewModel(src, s.store, status.Config{
		RatioThreshold:  fc.Server.RatioThreshold,
		RefreshInterval: fc.Server.RefreshInterval,
		MAC:             fc.Server.MAC,
		IP:              fc.Server.IP,
	})
	s.publisher = stream.NewPublisher(model, stream.WithLogger(s.logger))

	describer := version.NewDescriber(cfg.Build)

	s.router = api.NewRouter(api.Config{
		Publisher:       s.publisher,
		Settings:        s.store,
		Describer:       describer,
		Discoverer:      s.newDiscoverer(),
		DiscoverTimeout: fc.Discovery.Timeout + fc.Discovery.Delay,
		Events:          s.events,
		Logger:          s.logger,
		Version:         cfg.Version,
		StartedAt:       time.Now(),
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", fc.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// newDiscoverer builds the printer discoverer for the configured mode.
func (s *Server) newDiscoverer() discovery.Discoverer {
	dc := s.config.File.Discovery
	fromSettings := discovery.NewSettingsDiscoverer(s.store, dc.Delay)
	if dc.Mode == DiscoveryModeSettings {
		return fromSettings
	}

	s.browser = discovery.NewMDNSBrowser(discovery.BrowserConfig{
		Service:       dc.Service,
		BrowseTimeout: dc.Timeout,
		Interface:     dc.Interface,
	})
	if dc.Mode == DiscoveryModeMDNS {
		return s.browser
	}
	return discovery.NewFallbackDiscoverer(s.browser, fromSettings)
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Settings returns the settings store.
func (s *Server) Settings() *settings.Store {
	return s.store
}

// Publisher returns the status publisher.
func (s *Server) Publisher() *stream.Publisher {
	return s.publisher
}

// Advertise announces the service over mDNS if configured.
func (s *Server) Advertise() error {
	dc := s.config.File.Discovery
	if !dc.Advertise {
		return nil
	}

	name := dc.InstanceName
	if name == "" {
		name = discovery.InstanceNameFromMAC(s.config.File.Server.MAC)
	}
	build := version.NewDescriber(s.config.Build).Info()

	s.advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
		Interface: dc.Interface,
		TTL:       discovery.DefaultAdvertiserConfig().TTL,
	})
	err := s.advertiser.Advertise(&discovery.ServiceInfo{
		InstanceName:    name,
		Port:            s.config.File.Server.Port,
		FirmwareVersion: build.FirmwareVersion,
		ChipFamily:      build.ChipFamily,
	})
	if err != nil {
		s.advertiser = nil
		return err
	}
	ofslog.Infof(s.logger, ofslog.CategorySystem, "advertising %s as %q", discovery.ServiceTypeSensor, name)
	return nil
}

// ListenAndServe starts the HTTP server. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	ofslog.Infof(s.logger, ofslog.CategorySystem, "listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes all status streams and stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	ofslog.Infof(s.logger, ofslog.CategorySystem, "shutting down (%d open streams)", s.publisher.Active())
	if s.fileLogger != nil {
		if err := s.fileLogger.Err(); err != nil {
			ofslog.Errorf(s.logger, ofslog.CategorySystem, "%v", err)
		}
	}
	s.publisher.Shutdown()
	return s.server.Shutdown(ctx)
}

// Close releases discovery and logging resources.
func (s *Server) Close() error {
	if s.advertiser != nil {
		s.advertiser.Stop()
	}
	if s.browser != nil {
		s.browser.Stop()
	}
	s.publisher.Shutdown()
	return s.closeLogs()
}

func (s *Server) closeLogs() error {
	if s.fileLogger != nil {
		return s.fileLogger.Close()
	}
	return nil
}
