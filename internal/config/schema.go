package config

import (
	"time"
)

// Store backends
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config is the root configuration structure
type Config struct {
	Version    int              `yaml:"version"`
	Threshold  int              `yaml:"threshold"`
	MaxDevices int              `yaml:"max_devices"` // 0 = unbounded
	Autoload   bool             `yaml:"autoload"`    // Replay the store before the menu starts
	Store      StoreConfig      `yaml:"store"`
	Simulation SimulationConfig `yaml:"simulation"`
	Server     ServerConfig     `yaml:"server"`
}

// StoreConfig selects and locates the connection log
type StoreConfig struct {
	Backend string `yaml:"backend"` // csv or sqlite
	Path    string `yaml:"path"`
}

// SimulationConfig controls the random-connection simulator
type SimulationConfig struct {
	Steps   int      `yaml:"steps"`
	Delay   Duration `yaml:"delay"`
	Subnets int      `yaml:"subnets"` // Third octet range 1..Subnets
	Hosts   int      `yaml:"hosts"`   // Fourth octet range 1..Hosts
}

// ServerConfig holds the read-only HTTP view settings
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Watch bool   `yaml:"watch"` // Reload when another process appends to a csv log
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
