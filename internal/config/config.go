// Package config loads doselog settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvConfig   = "DOSELOG_CONFIG"
	EnvDB       = "DOSELOG_DB"
	EnvLogLevel = "DOSELOG_LOG_LEVEL"
)

// Config holds everything the collaborators around the parser need.
type Config struct {
	Notes      []string                 `yaml:"notes"`
	DB         string                   `yaml:"db"`
	StartOfDay time.Duration            `yaml:"start_of_day"`
	LogLevel   string                   `yaml:"log_level"`
	Aliases    map[string]string        `yaml:"aliases"`
	Categories map[string][]string      `yaml:"categories"`
	Durations  map[string]time.Duration `yaml:"durations"`

	// Source is the file the config was read from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DB:         filepath.Join(homeDir(), ".doselog", "events.db"),
		StartOfDay: 4 * time.Hour,
		LogLevel:   "info",
		Aliases:    map[string]string{},
		Categories: map[string][]string{},
		Durations: map[string]time.Duration{
			"Caffeine": 5 * time.Hour,
			"Alcohol":  3 * time.Hour,
		},
	}
}

// DefaultPath returns $DOSELOG_CONFIG or ~/.config/doselog/config.yaml.
func DefaultPath() string {
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return filepath.Join(homeDir(), ".config", "doselog", "config.yaml")
}

// Load reads the config at path (DefaultPath when empty). A missing file is
// not an error: defaults are returned with an empty Source. Environment
// overrides are applied last and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
	}

	cfg.applyEnv()
	cfg.DB = ExpandHome(cfg.DB)
	for i, n := range cfg.Notes {
		cfg.Notes[i] = ExpandHome(n)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DB = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// Validate rejects negative durations and an empty database path.
func (c *Config) Validate() error {
	if c.DB == "" {
		return errors.New("db path is required")
	}
	if c.StartOfDay < 0 || c.StartOfDay >= 24*time.Hour {
		return fmt.Errorf("start_of_day must be within [0, 24h), got %s", c.StartOfDay)
	}
	for substance, d := range c.Durations {
		if d < 0 {
			return fmt.Errorf("duration for %s is negative: %s", substance, d)
		}
	}
	for alias, target := range c.Aliases {
		if strings.TrimSpace(target) == "" {
			return fmt.Errorf("alias %q has no target", alias)
		}
	}
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
