// Package config provides configuration management for netwatch.
//
// Config file locations (priority order):
//  0. --config (when set, no other location is tried)
//  1. $NETWATCH_CONFIG
//  2. ./netwatch.yaml
//  3. $XDG_CONFIG_HOME/netwatch/config.yaml
//  4. ~/.config/netwatch/config.yaml
//  5. /etc/netwatch/config.yaml
//
// A missing file is not an error. Defaults give threshold 4, 50 devices
// and a connections.csv log in the working directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"netwatch/internal/anomaly"
)

const (
	DefaultThreshold  = anomaly.DefaultThreshold
	DefaultMaxDevices = 50
	DefaultStorePath  = "connections.csv"
	DefaultSQLitePath = "./netwatch.db"
	DefaultSimSteps   = 10
	DefaultSimDelay   = time.Second
	DefaultSimSubnets = 5
	DefaultSimHosts   = 50
	DefaultServerAddr = ":3000"
	currentVersion    = 1
)

// Load loads the explicit config file when one is given, otherwise the
// first file found in the search path, otherwise the defaults
func Load(explicit string) (*Config, string, error) {
	path := FindConfigPath(explicit)

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	// Start from defaults so an omitted section keeps its default values.
	// The store path is left empty so applyDefaults can pick it per backend.
	cfg := DefaultConfig()
	cfg.Store.Path = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	return &Config{
		Version:    currentVersion,
		Threshold:  DefaultThreshold,
		MaxDevices: DefaultMaxDevices,
		Store: StoreConfig{
			Backend: BackendCSV,
			Path:    DefaultStorePath,
		},
		Simulation: SimulationConfig{
			Steps:   DefaultSimSteps,
			Delay:   Duration(DefaultSimDelay),
			Subnets: DefaultSimSubnets,
			Hosts:   DefaultSimHosts,
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = currentVersion
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendCSV
	}
	if c.Store.Path == "" {
		if c.Store.Backend == BackendSQLite {
			c.Store.Path = DefaultSQLitePath
		} else {
			c.Store.Path = DefaultStorePath
		}
	}
	if c.Simulation.Subnets == 0 {
		c.Simulation.Subnets = DefaultSimSubnets
	}
	if c.Simulation.Hosts == 0 {
		c.Simulation.Hosts = DefaultSimHosts
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.Threshold < 0 {
		errs = append(errs, fmt.Errorf("threshold must not be negative, got %d", c.Threshold))
	}
	if c.MaxDevices < 0 {
		errs = append(errs, fmt.Errorf("max_devices must not be negative, got %d", c.MaxDevices))
	}
	switch c.Store.Backend {
	case BackendCSV, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q, must be %q or %q", c.Store.Backend, BackendCSV, BackendSQLite))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store path required"))
	}
	if c.Simulation.Steps < 0 {
		errs = append(errs, fmt.Errorf("simulation steps must not be negative, got %d", c.Simulation.Steps))
	}
	if c.Simulation.Delay < 0 {
		errs = append(errs, fmt.Errorf("simulation delay must not be negative, got %s", c.Simulation.Delay.Duration()))
	}
	if c.Simulation.Subnets < 1 || c.Simulation.Subnets > 255 {
		errs = append(errs, fmt.Errorf("simulation subnets must be within 1..255, got %d", c.Simulation.Subnets))
	}
	if c.Simulation.Hosts < 1 || c.Simulation.Hosts > 255 {
		errs = append(errs, fmt.Errorf("simulation hosts must be within 1..255, got %d", c.Simulation.Hosts))
	}

	return errors.Join(errs...)
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	capacity := "unbounded"
	if c.MaxDevices > 0 {
		capacity = fmt.Sprintf("%d", c.MaxDevices)
	}

	summary := fmt.Sprintf("Threshold: %d, Max devices: %s\n", c.Threshold, capacity)
	summary += fmt.Sprintf("Store: %s (%s)\n", c.Store.Path, c.Store.Backend)
	summary += fmt.Sprintf("Simulation: %d steps, %s delay\n", c.Simulation.Steps, c.Simulation.Delay.Duration())
	summary += fmt.Sprintf("Server: %s", c.Server.Addr)
	if c.Server.Watch {
		summary += " (watching store)"
	}
	return summary
}
