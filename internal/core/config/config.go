// Package config handles configuration loading and validation for saveslots.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig `yaml:"server"`
	Saves   SavesConfig  `yaml:"saves"`
	DataDir string       `yaml:"-"` // set by caller, not from config file
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`             // listen address, host:port
	StaticDir       string        `yaml:"static_dir"`       // game assets served at /
	RequestLogging  bool          `yaml:"request_logging"`  // log every request
	Debug           bool          `yaml:"debug"`            // mount /debug/pprof
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // grace period for in-flight requests
}

// SavesConfig holds save store configuration.
type SavesConfig struct {
	// Dir is where slot files live. Empty means <data-dir>/saves.
	Dir string `yaml:"dir"`
	// Watch logs slot files changed outside the server.
	Watch bool `yaml:"watch"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			StaticDir:       "./static",
			RequestLogging:  true,
			ShutdownTimeout: 5 * time.Second,
		},
		Saves: SavesConfig{
			Watch: true,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
}

// SavesDir returns the directory slot files are stored in.
func (c *Config) SavesDir() string {
	if c.Saves.Dir != "" {
		return c.Saves.Dir
	}
	return filepath.Join(c.DataDir, "saves")
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.Saves.Dir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must not be negative")
	}

	return nil
}
