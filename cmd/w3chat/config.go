package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// TOMLConfig represents the structure of the client config file
type TOMLConfig struct {
	Server TOMLServerSection `toml:"server"`
	State  TOMLStateSection  `toml:"state"`
}

type TOMLServerSection struct {
	URL                   string `toml:"url"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	PingIntervalSeconds   int    `toml:"ping_interval_seconds"`
}

type TOMLStateSection struct {
	DatabasePath string `toml:"database_path"`
}

// DefaultTOMLConfig returns the default client configuration
func DefaultTOMLConfig() TOMLConfig {
	return TOMLConfig{
		Server: TOMLServerSection{
			URL:                   "ws://localhost:6880",
			ConnectTimeoutSeconds: 3,
			PingIntervalSeconds:   30,
		},
		State: TOMLStateSection{
			DatabasePath: "~/.w3chat/state.db",
		},
	}
}

// LoadConfig loads the config file, creating it with defaults if missing.
func LoadConfig(path string) (TOMLConfig, error) {
	path = expandPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultTOMLConfig()
		if err := writeConfig(path, cfg); err != nil {
			return cfg, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	var cfg TOMLConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}

	defaults := DefaultTOMLConfig()
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaults.Server.URL
	}
	if cfg.Server.ConnectTimeoutSeconds <= 0 {
		cfg.Server.ConnectTimeoutSeconds = defaults.Server.ConnectTimeoutSeconds
	}
	if cfg.State.DatabasePath == "" {
		cfg.State.DatabasePath = defaults.State.DatabasePath
	}
	return cfg, nil
}

func writeConfig(path string, cfg TOMLConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// ConnectTimeout returns the configured connect timeout as a duration.
func (c TOMLConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.Server.ConnectTimeoutSeconds) * time.Second
}

// PingInterval returns the configured keepalive period as a duration.
func (c TOMLConfig) PingInterval() time.Duration {
	return time.Duration(c.Server.PingIntervalSeconds) * time.Second
}

// expandPath expands a leading ~ to the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
