// Package config loads the server configuration from YAML. A missing
// file is not an error; every field has a default so the server runs
// with no config at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	History     HistoryConfig     `yaml:"history"`
	Viewport    ViewportConfig    `yaml:"viewport"`
	Connections ConnectionsConfig `yaml:"connections"`
	Autosave    AutosaveConfig    `yaml:"autosave"`
	Generation  GenerationConfig  `yaml:"generation"`
	Inventory   InventoryConfig   `yaml:"inventory"`
	Snapshot    SnapshotConfig    `yaml:"snapshot"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type HistoryConfig struct {
	Depth int `yaml:"depth"`
}

type ViewportConfig struct {
	ZoomMin float64 `yaml:"zoom_min"`
	ZoomMax float64 `yaml:"zoom_max"`
}

type ConnectionsConfig struct {
	// Policy is "fan-out-only" or "exclusive".
	Policy string `yaml:"policy"`
}

type AutosaveConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type GenerationConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type InventoryConfig struct {
	Endpoint string `yaml:"endpoint"`
	Enabled  bool   `yaml:"enabled"`
}

type SnapshotConfig struct {
	// Path of a JSON graph document to watch and hot-reload. Empty
	// disables the watcher.
	Path string `yaml:"path"`
}

// Load reads the config at path, or returns defaults when path is empty
// or the file does not exist.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./patchbay.db"
	}
	if c.History.Depth <= 0 {
		c.History.Depth = 100
	}
	if c.Viewport.ZoomMin <= 0 {
		c.Viewport.ZoomMin = 0.25
	}
	if c.Viewport.ZoomMax <= 0 {
		c.Viewport.ZoomMax = 2.5
	}
	if c.Connections.Policy == "" {
		c.Connections.Policy = "fan-out-only"
	}
	if c.Autosave.Debounce <= 0 {
		c.Autosave.Debounce = 2 * time.Second
	}
}
