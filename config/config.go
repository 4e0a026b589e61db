package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Billing  BillingConfig  `yaml:"billing"`
	Closing  ClosingConfig  `yaml:"closing"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the response cache expiration.
func (s ServerConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// BillingConfig holds the system-wide billing settings.
type BillingConfig struct {
	Timezone        string         `yaml:"timezone"`
	Location        *time.Location `yaml:"-"`
	DefaultCurrency string         `yaml:"default_currency"`
	MaxMonthsBack   int            `yaml:"max_months_back"`
}

// ClosingConfig holds the scheduled month closing configuration.
type ClosingConfig struct {
	Enabled           bool          `yaml:"enabled"`
	Schedule          string        `yaml:"schedule"`
	WorkerPoolSize    int           `yaml:"worker_pool_size"`
	JobTimeoutSeconds int           `yaml:"job_timeout_seconds"`
	JobTimeout        time.Duration `yaml:"-"`
	ClosedBy          string        `yaml:"closed_by"`
}

// LogConfig holds the logger configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Billing.Timezone == "" {
		cfg.Billing.Timezone = "America/Montevideo"
	}
	loc, err := time.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %q: %w", cfg.Billing.Timezone, err)
	}
	cfg.Billing.Location = loc
	if cfg.Billing.DefaultCurrency == "" {
		cfg.Billing.DefaultCurrency = "UYU"
	}
	if cfg.Billing.MaxMonthsBack <= 0 {
		cfg.Billing.MaxMonthsBack = 24
	}

	if cfg.Closing.Schedule == "" {
		cfg.Closing.Schedule = "0 3 1 * *"
	}
	if cfg.Closing.WorkerPoolSize <= 0 {
		cfg.Closing.WorkerPoolSize = 1
	}
	if cfg.Closing.JobTimeoutSeconds <= 0 {
		cfg.Closing.JobTimeoutSeconds = 120
	}
	cfg.Closing.JobTimeout = time.Duration(cfg.Closing.JobTimeoutSeconds) * time.Second
	if cfg.Closing.ClosedBy == "" {
		cfg.Closing.ClosedBy = "scheduler"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	return nil
}
