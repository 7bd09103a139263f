package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
app:
  name: gridline
  environment: development
  log_level: info

database:
  host: localhost
  port: 5432
  name: gridline
  user: gridline
  password: ${GRIDLINE_TEST_DB_PASSWORD}
  ssl_mode: disable
  max_connections: 10

schedule:
  season: 2025
  calendar_url: https://api.jolpi.ca/ergast/f1
  refresh_interval_hours: 6
  due_window_min_hours: 2
  due_window_max_days: 7

providers:
  - name: f1_official
    enabled: false
    base_url: https://api.formula1.com/v1
    timeout_seconds: 30
    max_retries: 3
    retry_backoff_seconds: 2
    rate_limit_per_second: 1
  - name: openf1
    enabled: true
    timeout_seconds: 30
    max_retries: 3
    retry_backoff_seconds: 2
    rate_limit_per_second: 1
  - name: ergast
    enabled: true
    timeout_seconds: 30
    max_retries: 3
    retry_backoff_seconds: 2
    rate_limit_per_second: 0.5

reconciler:
  poll_interval_minutes: 30

analysis:
  bucket_count: 10
  bias_threshold: 0.7
  weights:
    exact: 0.30
    within3: 0.20
    top3: 0.20
    calibration: 0.15
    top3_precision: 0.15
  report_path: reports/accuracy.txt

metrics:
  enabled: true
  port: 9090
  path: /metrics
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "gridline", cfg.App.Name)
	assert.Equal(t, "s3cret", cfg.Database.Password, "env placeholders expand")
	assert.Equal(t, 2025, cfg.Schedule.Season)
	require.Len(t, cfg.Providers, 3)
	assert.Equal(t, "f1_official", cfg.Providers[0].Name, "provider order preserved")
	assert.False(t, cfg.Providers[0].Enabled)
	assert.Equal(t, 0.5, cfg.Providers[2].RateLimitPerSecond)

	require.NoError(t, Validate(cfg))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithDefaultsMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 30, cfg.Reconciler.PollIntervalMinutes)
	assert.Equal(t, 10, cfg.Analysis.BucketCount)
	assert.Equal(t, 0.30, cfg.Analysis.Weights.Exact)
}

func TestValidateRejectsBadWeights(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.Analysis.Weights.Exact = 0.9
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights must sum to 1.0")
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.Providers[1].Name = "sportsdata"
	assert.Error(t, Validate(cfg))
}

func TestValidateRequiresEnabledProvider(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	for i := range cfg.Providers {
		cfg.Providers[i].Enabled = false
	}
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one result provider")
}

func TestValidateRequiresAPIKeyForOfficialFeed(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.Providers[0].Enabled = true
	cfg.Providers[0].APIKey = ""
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestValidateProductionRequiresSSL(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.App.Environment = "production"
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSL")
}

func TestValidateRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	cfg.App.Environment = "qa"
	assert.Error(t, Validate(cfg))
}

func TestProviderLookup(t *testing.T) {
	t.Setenv("GRIDLINE_TEST_DB_PASSWORD", "s3cret")
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	require.NotNil(t, cfg.Provider("ergast"))
	assert.Nil(t, cfg.Provider("missing"))
}
