// Package config loads the process-level settings file. Settings cover the
// serving and replay surfaces only; per-scrape configuration lives in the
// store as ScrapeConfig records.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration.
type Config struct {
	// ListenAddr is the API server bind address.
	ListenAddr string `yaml:"listen_addr"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`
	// ReplayInterval is the cron-style interval for replaying saved scrape
	// configs, e.g. "@every 1h".
	ReplayInterval string `yaml:"replay_interval"`
	// UseBrowser renders pages in a headless browser instead of plain HTTP.
	UseBrowser bool `yaml:"use_browser"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DBPath:         "oppex.db",
		ReplayInterval: "@every 1h",
		LogLevel:       "info",
	}
}

// Load reads a YAML config file, layering it over the defaults. A missing
// file is not an error; the defaults apply. Environment variables override
// the file: OPPEX_LISTEN_ADDR, OPPEX_DB_PATH, OPPEX_LOG_LEVEL.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("OPPEX_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("OPPEX_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("OPPEX_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}
