// Package config loads the refab application configuration and stage
// profiles. The app config is JSON under .refab/; stage profiles are YAML
// files imported through the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Optimizer bridge kinds.
const (
	OptimizerNone = ""
	OptimizerExec = "exec"
	OptimizerHTTP = "http"
)

// DefaultOptimizerTimeout bounds an optimizer call when the config does
// not set one.
const DefaultOptimizerTimeout = 30 * time.Second

// Config is the flat refab application configuration.
type Config struct {
	Version        string          `json:"version"`
	DefaultFactory string          `json:"default_factory,omitempty"`
	DBPath         string          `json:"db_path,omitempty"`
	CalendarEpoch  string          `json:"calendar_epoch,omitempty"` // RFC 3339; maps sim-minute 0 to wall clock
	Optimizer      OptimizerConfig `json:"optimizer,omitempty"`
}

// OptimizerConfig selects and parameterizes the optimizer bridge.
type OptimizerConfig struct {
	Kind       string `json:"kind,omitempty"` // "exec", "http" or empty for FIFO only
	Command    string `json:"command,omitempty"`
	URL        string `json:"url,omitempty"`
	TimeoutSec int64  `json:"timeout_sec,omitempty"`
}

// Timeout returns the configured optimizer timeout, or the default.
func (o OptimizerConfig) Timeout() time.Duration {
	if o.TimeoutSec <= 0 {
		return DefaultOptimizerTimeout
	}
	return time.Duration(o.TimeoutSec) * time.Second
}

// Epoch parses the calendar epoch. A zero time means the mapping is off.
func (c *Config) Epoch() (time.Time, error) {
	if c.CalendarEpoch == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, c.CalendarEpoch)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse calendar epoch: %w", err)
	}
	return t, nil
}

// Validate checks the optimizer selection for completeness.
func (c *Config) Validate() error {
	switch c.Optimizer.Kind {
	case OptimizerNone:
	case OptimizerExec:
		if c.Optimizer.Command == "" {
			return fmt.Errorf("optimizer kind %q requires a command", OptimizerExec)
		}
	case OptimizerHTTP:
		if c.Optimizer.URL == "" {
			return fmt.Errorf("optimizer kind %q requires a url", OptimizerHTTP)
		}
	default:
		return fmt.Errorf("unknown optimizer kind %q", c.Optimizer.Kind)
	}
	return nil
}

// LoadConfig reads .refab/config.json from the specified directory.
// Resolution order: dir only (no home fallback). A missing file yields a
// zero config, not an error.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".refab", "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig writes config.json to the directory.
func SaveConfig(dir string, cfg *Config) error {
	refabDir := filepath.Join(dir, ".refab")
	if err := os.MkdirAll(refabDir, 0755); err != nil {
		return fmt.Errorf("failed to create .refab dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(refabDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
