// Package config loads optional file configuration for the scraper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidMaxRetries        = errors.New("retry.max_retries must be non-negative")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidMaxDelay          = errors.New("retry.max_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidDelay             = errors.New("delay_ms must be non-negative")
	ErrInvalidTimeout           = errors.New("timeout_sec must be non-negative")
	ErrInvalidLogLevel          = errors.New("log_level must be one of: debug, info, warn, error")
)

// RetryConfig mirrors the HTTP client's retry policy. MaxRetries counts
// retries after the initial request.
type RetryConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
}

// FileConfig represents the structure of ~/.natscrape/config.yaml. Zero
// values mean "not set"; the CLI applies its own defaults and flag
// overrides on top.
type FileConfig struct {
	BaseURL    string      `yaml:"base_url"`
	UserAgent  string      `yaml:"user_agent"`
	OutputDir  string      `yaml:"output_dir"`
	FeedURL    string      `yaml:"feed_url"`
	HistoryDB  string      `yaml:"history_db"`
	DelayMs    int         `yaml:"delay_ms"`
	TimeoutSec int         `yaml:"timeout_sec"`
	LogLevel   string      `yaml:"log_level"`
	Retry      RetryConfig `yaml:"retry"`
}

// DefaultPath returns the default config file location under the user's
// home directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".natscrape", "config.yaml"), nil
}

// Load loads configuration from the given path. Returns nil if the file
// doesn't exist (not an error). Returns an error if the file exists but
// cannot be parsed or fails validation.
func Load(path string) (*FileConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for out-of-range values. Unset (zero)
// values are allowed; they are filled in by the CLI.
func (c *FileConfig) Validate() error {
	if c.Retry != (RetryConfig{}) {
		if c.Retry.MaxRetries < 0 {
			return ErrInvalidMaxRetries
		}
		if c.Retry.InitialDelayMs < 0 {
			return ErrInvalidInitialDelay
		}
		if c.Retry.MaxDelayMs < 0 {
			return ErrInvalidMaxDelay
		}
		if c.Retry.BackoffMultiplier < 1.0 {
			return ErrInvalidBackoffMultiplier
		}
	}

	if c.DelayMs < 0 {
		return ErrInvalidDelay
	}

	if c.TimeoutSec < 0 {
		return ErrInvalidTimeout
	}

	if c.LogLevel != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[c.LogLevel] {
			return ErrInvalidLogLevel
		}
	}

	return nil
}

// Delay returns the politeness delay as a duration.
func (c *FileConfig) Delay() time.Duration {
	return time.Duration(c.DelayMs) * time.Millisecond
}

// Timeout returns the per-request timeout as a duration.
func (c *FileConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}
