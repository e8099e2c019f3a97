// Command ofs-web serves the filament sensor status API.
//
// It offers:
//   - Poll and server-sent-event status endpoints
//   - Settings read and merge-update endpoints
//   - Printer discovery, version and log endpoints
//
// Usage:
//
//	ofs-web [flags]
//
// Flags:
//
//	-port int            HTTP server port (default 8080)
//	-config string       YAML configuration file
//	-refresh duration    Status stream refresh interval (default 1s)
//	-discovery string    Printer discovery: settings, mdns, auto (default "settings")
//	-advertise           Announce the service over mDNS
//	-event-log string    Append service events to a CBOR log file
//	-seed int            Seed for the simulated sensor source
//	-log-level string    Log level: debug, info, warn, error (default "info")
//
// Examples:
//
//	# Start the server on the default port
//	ofs-web
//
//	# Stream every 250ms and record events for ofs-log
//	ofs-web -refresh 250ms -event-log events.cbor
//
//	# Find the printer over mDNS, falling back to the stored address
//	ofs-web -discovery auto -advertise
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/akrauze/OpenFilamentSensor/pkg/version"
)

// Version information - set at build time via ldflags
var (
	Version   = "0.1.0"
	BuildDate = "dev"
	GitCommit = "unknown"

	FirmwareVersion = version.DefaultFirmwareVersion
	ChipFamily      = version.DefaultChipFamily
)

var (
	port          = flag.Int("port", 8080, "HTTP server port")
	configPath    = flag.String("config", "", "YAML configuration file")
	refresh       = flag.Duration("refresh", time.Second, "Status stream refresh interval")
	discoveryMode = flag.String("discovery", DiscoveryModeSettings, "Printer discovery: settings, mdns, auto")
	advertise     = flag.Bool("advertise", false, "Announce the service over mDNS")
	eventLog      = flag.String("event-log", "", "Append service events to a CBOR log file")
	seed          = flag.Int64("seed", 0, "Seed for the simulated sensor source (0 = time based)")
	logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion   = flag.Bool("version", false, "Show version information")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("ofs-web %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
		return 0
	}

	// Configure logging
	log.SetFlags(log.Ldate | log.Ltime)
	if *logLevel == "debug" {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}

	fileCfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(&fileCfg)
	if err := fileCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	cfg := ServerConfig{
		File:    fileCfg,
		Version: Version,
		Build: version.Info{
			FirmwareVersion: FirmwareVersion,
			BuildVersion:    Version,
			ChipFamily:      ChipFamily,
		},
		Slog: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel(*logLevel)})),
	}

	srv, err := NewServer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create server: %v\n", err)
		return 1
	}
	defer srv.Close()

	if err := srv.Advertise(); err != nil {
		log.Printf("mDNS advertising disabled: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	// Start server
	log.Printf("Starting ofs-web on http://localhost:%d", fileCfg.Server.Port)
	log.Printf("Refresh interval: %s, discovery: %s", fileCfg.Server.RefreshInterval, fileCfg.Discovery.Mode)
	if fileCfg.Server.EventLog != "" {
		log.Printf("Event log: %s", fileCfg.Server.EventLog)
	}

	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
		return 1
	}

	return 0
}

// applyFlags overrides config file values with explicitly set flags.
func applyFlags(cfg *FileConfig) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "refresh":
			cfg.Server.RefreshInterval = *refresh
		case "discovery":
			cfg.Discovery.Mode = *discoveryMode
		case "advertise":
			cfg.Discovery.Advertise = *advertise
		case "event-log":
			cfg.Server.EventLog = *eventLog
		case "seed":
			if *seed != 0 {
				cfg.Server.Seed = *seed
			}
		}
	})
}

func slogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
