package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/akrauze/OpenFilamentSensor/pkg/discovery"
	"github.com/akrauze/OpenFilamentSensor/pkg/status"
)

// Discovery modes.
const (
	DiscoveryModeSettings = "settings"
	DiscoveryModeMDNS     = "mdns"
	DiscoveryModeAuto     = "auto"
)

// FileConfig is the YAML configuration file layout.
type FileConfig struct {
	Server    ServerSection    `yaml:"server"`
	Discovery DiscoverySection `yaml:"discovery"`

	// Settings are merged into the default settings at startup with the
	// same semantics as POST /update_settings.
	Settings map[string]any `yaml:"settings"`
}

// ServerSection configures the HTTP service and status model.
type ServerSection struct {
	Port            int           `yaml:"port"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	RatioThreshold  float64       `yaml:"ratio_threshold"`
	MAC             string        `yaml:"mac"`
	IP              string        `yaml:"ip"`
	Seed            int64         `yaml:"seed"`
	EventLog        string        `yaml:"event_log"`
}

// DiscoverySection configures printer discovery and self advertising.
type DiscoverySection struct {
	Mode         string        `yaml:"mode"`
	Delay        time.Duration `yaml:"delay"`
	Service      string        `yaml:"service"`
	Timeout      time.Duration `yaml:"timeout"`
	Interface    string        `yaml:"interface"`
	Advertise    bool          `yaml:"advertise"`
	InstanceName string        `yaml:"instance_name"`
}

// DefaultFileConfig returns the configuration used without a config file.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Server: ServerSection{
			Port:            8080,
			RefreshInterval: status.DefaultRefreshInterval,
			RatioThreshold:  status.DefaultRatioThreshold,
			Seed:            time.Now().UnixNano(),
		},
		Discovery: DiscoverySection{
			Mode:    DiscoveryModeSettings,
			Delay:   discovery.DefaultDiscoveryDelay,
			Service: discovery.ServiceTypePrinter,
			Timeout: discovery.BrowseTimeout,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults.
func LoadConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot use.
func (c FileConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("server.refresh_interval must not be negative")
	}
	if c.Server.RatioThreshold < 0 {
		return fmt.Errorf("server.ratio_threshold must not be negative")
	}
	switch c.Discovery.Mode {
	case DiscoveryModeSettings, DiscoveryModeMDNS, DiscoveryModeAuto:
	default:
		return fmt.Errorf("discovery.mode %q: want %s, %s or %s",
			c.Discovery.Mode, DiscoveryModeSettings, DiscoveryModeMDNS, DiscoveryModeAuto)
	}
	return nil
}
