// Package config loads server configuration from an optional YAML file
// with environment variable overrides. Precedence, lowest to highest:
// built-in defaults, config file, GUSAR_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all server settings.
type Config struct {
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	AdminUser       string `yaml:"adminUser"       split_words:"true"`
	LogPath         string `yaml:"logPath"         split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
}

// Defaults returns a Config with built-in defaults applied.
func Defaults() *Config {
	return &Config{
		DatabasePath:    "gusar.sqlite3",
		BindAddr:        ":8080",
		AdminUser:       "Admin",
		ShutdownTimeout: "5s",
	}
}

// Load reads configuration. When path is empty, ~/.gusar/gusar.yaml and
// /etc/gusar/gusar.yaml are tried in that order; a missing file is not
// an error, the defaults simply stand.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".gusar", "gusar.yaml")
			if _, err := os.Stat(userPath); err == nil {
				path = userPath
			}
		}
		if path == "" {
			systemPath := "/etc/gusar/gusar.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				path = systemPath
			}
		}
	}

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("gusar", cfg); err != nil {
		return nil, fmt.Errorf("processing environment: %w", err)
	}

	if _, err := cfg.ShutdownTimeoutDuration(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ShutdownTimeoutDuration parses the configured shutdown timeout.
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid shutdown timeout %q: %w", c.ShutdownTimeout, err)
	}
	return d, nil
}
