// Package config provides configuration management for the gridline reconciler.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule" validate:"required"`
	Providers  []ProviderConfig `mapstructure:"providers" validate:"required,min=1,dive"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler" validate:"required"`
	Analysis   AnalysisConfig   `mapstructure:"analysis" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host" validate:"required"`
	Port           int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required"`
	User           string `mapstructure:"user" validate:"required"`
	Password       string `mapstructure:"password" validate:"required"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"required,gt=0"`
}

// ScheduleConfig represents calendar tracking configuration
type ScheduleConfig struct {
	Season               int    `mapstructure:"season" validate:"required,gt=1949"`
	CalendarURL          string `mapstructure:"calendar_url" validate:"required,url"`
	RefreshIntervalHours int    `mapstructure:"refresh_interval_hours" validate:"required,gt=0"`
	DueWindowMinHours    int    `mapstructure:"due_window_min_hours" validate:"required,gt=0"`
	DueWindowMaxDays     int    `mapstructure:"due_window_max_days" validate:"required,gt=0"`
}

// ProviderConfig represents a single result provider configuration.
// Providers are tried in the order they appear in the config file.
type ProviderConfig struct {
	Name                string  `mapstructure:"name" validate:"required,provider"`
	Enabled             bool    `mapstructure:"enabled"`
	BaseURL             string  `mapstructure:"base_url"`
	APIKey              string  `mapstructure:"api_key"`
	TimeoutSeconds      int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries          int     `mapstructure:"max_retries" validate:"gte=0"`
	RetryBackoffSeconds int     `mapstructure:"retry_backoff_seconds" validate:"required,gt=0"`
	RateLimitPerSecond  float64 `mapstructure:"rate_limit_per_second" validate:"required,gt=0"`
}

// ReconcilerConfig represents polling orchestrator configuration
type ReconcilerConfig struct {
	PollIntervalMinutes int `mapstructure:"poll_interval_minutes" validate:"required,gt=0"`
}

// WeightsConfig represents the overall accuracy score blend
type WeightsConfig struct {
	Exact         float64 `mapstructure:"exact" validate:"gte=0,lte=1"`
	Within3       float64 `mapstructure:"within3" validate:"gte=0,lte=1"`
	Top3          float64 `mapstructure:"top3" validate:"gte=0,lte=1"`
	Calibration   float64 `mapstructure:"calibration" validate:"gte=0,lte=1"`
	Top3Precision float64 `mapstructure:"top3_precision" validate:"gte=0,lte=1"`
}

// AnalysisConfig represents accuracy analyzer configuration
type AnalysisConfig struct {
	BucketCount   int           `mapstructure:"bucket_count" validate:"required,gt=0"`
	BiasThreshold float64       `mapstructure:"bias_threshold" validate:"required,gt=0,lte=1"`
	Weights       WeightsConfig `mapstructure:"weights" validate:"required"`
	ReportPath    string        `mapstructure:"report_path" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig represents the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region" validate:"required_if=Enabled true"`
	Name    string `mapstructure:"name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// PollInterval returns the reconciler poll interval as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Reconciler.PollIntervalMinutes) * time.Minute
}

// Provider returns the configuration for a named provider, nil if absent
func (c *Config) Provider(name string) *ProviderConfig {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i]
		}
	}
	return nil
}
