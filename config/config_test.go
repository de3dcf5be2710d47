package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_FullConfig verifies a complete YAML file parses into the struct
func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
base_url: https://www.nature.com
user_agent: custom-agent/2.0
output_dir: scraped
feed_url: https://www.nature.com/nature.rss
history_db: runs.db
delay_ms: 1200
timeout_sec: 20
log_level: debug
retry:
  max_retries: 5
  initial_delay_ms: 250
  max_delay_ms: 10000
  backoff_multiplier: 1.5
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "https://www.nature.com", cfg.BaseURL)
	assert.Equal(t, "custom-agent/2.0", cfg.UserAgent)
	assert.Equal(t, "scraped", cfg.OutputDir)
	assert.Equal(t, "runs.db", cfg.HistoryDB)
	assert.Equal(t, 1200*time.Millisecond, cfg.Delay())
	assert.Equal(t, 20*time.Second, cfg.Timeout())
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 1.5, cfg.Retry.BackoffMultiplier)
}

// TestLoad_MissingFile verifies a missing config file is not an error
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

// TestLoad_MalformedYAML verifies parse failures are surfaced
func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "delay_ms: [not a number")

	_, err := Load(path)
	assert.Error(t, err)
}

// TestValidate_BadRetry verifies retry policy validation
func TestValidate_BadRetry(t *testing.T) {
	path := writeConfig(t, `
retry:
  max_retries: -1
  backoff_multiplier: 2.0
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidMaxRetries)
}

// TestValidate_BadMultiplier verifies the multiplier lower bound
func TestValidate_BadMultiplier(t *testing.T) {
	cfg := &FileConfig{Retry: RetryConfig{MaxRetries: 3, BackoffMultiplier: 0.5}}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidBackoffMultiplier)
}

// TestValidate_BadLogLevel verifies log level validation
func TestValidate_BadLogLevel(t *testing.T) {
	cfg := &FileConfig{LogLevel: "verbose"}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidLogLevel)
}

// TestValidate_ZeroConfig verifies an empty config is valid
func TestValidate_ZeroConfig(t *testing.T) {
	cfg := &FileConfig{}
	assert.NoError(t, cfg.Validate())
}
