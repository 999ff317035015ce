package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	lerrors "github.com/tessro/linkctl/internal/errors"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.linkctlrc, $XDG_CONFIG_HOME/linkctl/config.toml, ~/.config/linkctl/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := FindConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", lerrors.ErrInvalidConfig, path, err)
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", lerrors.ErrConfigNotFound, path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", lerrors.ErrInvalidConfig, path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// FindConfigFile returns the first existing config file path.
func FindConfigFile() string {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// SearchPaths returns the config file locations in the order they are tried.
func SearchPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	paths := []string{
		filepath.Join(home, ".linkctlrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	return append(paths, filepath.Join(xdgConfig, "linkctl", "config.toml"))
}

// Device returns the configured device with the given ID or name.
func (c *Config) Device(key string) (DeviceConfig, error) {
	for _, d := range c.Devices {
		if d.ID == key || strings.EqualFold(d.Name, key) {
			return d, nil
		}
	}
	return DeviceConfig{}, fmt.Errorf("%w: %s", lerrors.ErrDeviceNotFound, key)
}

// applyEnvOverrides applies environment variable overrides to the config.
// A .env file in the working directory is read first; real environment
// variables win over its entries.
func applyEnvOverrides(cfg *Config) {
	_ = godotenv.Load()

	// Engine
	if v := os.Getenv("LINKCTL_POLL_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.PollInterval = i
		}
	}
	if v := os.Getenv("LINKCTL_STALENESS_WINDOW"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Engine.StalenessWindow = i
		}
	}

	// Devices
	if v := os.Getenv("LINKCTL_DEVICE"); v != "" {
		found := false
		for _, d := range cfg.Devices {
			if d.ID == v || d.Host == v {
				found = true
				break
			}
		}
		if !found {
			cfg.Devices = append(cfg.Devices, DeviceConfig{ID: v, Host: v, Port: 80})
		}
	}

	// Server
	if v := os.Getenv("LINKCTL_SERVER_LISTEN"); v != "" {
		cfg.Server.Listen = v
	}

	// TUI
	if v := os.Getenv("LINKCTL_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}

	// Log
	if v := os.Getenv("LINKCTL_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LINKCTL_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
