// Package config loads the optional authhub.yaml file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole application configuration. Every field has a working
// default so the tool runs with no config file at all.
type Config struct {
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	APIHost          string `yaml:"api_host"`
	APIVersion       string `yaml:"api_version"`
	StorePath        string `yaml:"store_path"`
	LegacyConfigPath string `yaml:"legacy_config_path"`
	EnvFilePath      string `yaml:"env_file"`
	DBPath           string `yaml:"db_path"`
	SweepInterval    string `yaml:"sweep_interval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Host:             "127.0.0.1",
		Port:             "5001",
		APIHost:          "cafe24api.com",
		APIVersion:       "2025-09-01",
		StorePath:        "accounts.json",
		LegacyConfigPath: "config.json",
		EnvFilePath:      ".env",
		DBPath:           "authhub.db",
		SweepInterval:    "1h",
	}
}

// Load reads path, treating a missing file as all-defaults, then applies
// HOST and PORT environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		fillDefaults(cfg)
	}

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	return cfg, nil
}

// fillDefaults restores defaults for fields the file left empty.
func fillDefaults(cfg *Config) {
	def := Default()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.APIHost == "" {
		cfg.APIHost = def.APIHost
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.StorePath == "" {
		cfg.StorePath = def.StorePath
	}
	if cfg.DBPath == "" {
		cfg.DBPath = def.DBPath
	}
	if cfg.SweepInterval == "" {
		cfg.SweepInterval = def.SweepInterval
	}
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Interval parses the sweep interval, falling back to one hour on a bad or
// non-positive value.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
