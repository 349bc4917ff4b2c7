package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the client settings. Every field has a sensible default
// so the binary runs with no config file at all; environment variables
// override file values.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Poll struct {
		QueueInterval string `yaml:"queue_interval"`
		MatchInterval string `yaml:"match_interval"`
	} `yaml:"poll"`
	Session struct {
		Path string `yaml:"path"`
	} `yaml:"session"`
	Match struct {
		Kind string `yaml:"kind"`
	} `yaml:"match"`
}

// Load reads YAML config from path. A missing file is not an error;
// defaults and environment variables still apply.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("CODEDUEL_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CODEDUEL_SESSION_PATH"); v != "" {
		cfg.Session.Path = v
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://127.0.0.1:8000"
	}
	if cfg.Match.Kind == "" {
		cfg.Match.Kind = "mcq"
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback when the
// value is empty or malformed.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
