// Package config handles loading the mailindex daemon configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	Port           int     `toml:"port"`             // HTTP listen port (default: 8080)
	APIKey         string  `toml:"api_key"`          // optional X-API-Key value; empty disables auth
	RateLimitRPS   float64 `toml:"rate_limit_rps"`   // per-client requests per second
	RateLimitBurst int     `toml:"rate_limit_burst"` // per-client burst size
}

// IndexConfig holds index-related configuration.
type IndexConfig struct {
	SnapshotPath string `toml:"snapshot_path"` // gob snapshot file; empty disables persistence
	DefaultLimit int    `toml:"default_limit"` // search result cap when the request has none
}

type Config struct {
	Server ServerConfig `toml:"server"`
	Index  IndexConfig  `toml:"index"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			RateLimitRPS:   50,
			RateLimitBurst: 100,
		},
		Index: IndexConfig{
			DefaultLimit: 50,
		},
	}
}

// Load reads the TOML config at path, filling unset fields with
// defaults. An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	} else if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitRPS <= 0 {
		cfg.Server.RateLimitRPS = 50
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 100
	}
	if cfg.Index.DefaultLimit <= 0 {
		cfg.Index.DefaultLimit = 50
	}
	if cfg.Index.SnapshotPath != "" {
		cfg.Index.SnapshotPath = filepath.Clean(cfg.Index.SnapshotPath)
	}

	return cfg, nil
}

// Addr returns the listen address for the API server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
