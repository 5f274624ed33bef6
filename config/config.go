package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Search   SearchConfig   `yaml:"search"`
	Waitlist WaitlistConfig `yaml:"waitlist"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	// EnableExclusionConstraint installs the Postgres btree_gist exclusion
	// constraint over booking windows behind the transactional overlap check.
	EnableExclusionConstraint bool `yaml:"enable_exclusion_constraint"`
}

// BookingConfig holds the booking lifecycle policy knobs.
type BookingConfig struct {
	CancellationLeadMinutes int           `yaml:"cancellation_lead_minutes"`
	BillingIncrementMinutes int           `yaml:"billing_increment_minutes"`
	CancellationLead        time.Duration `yaml:"-"` // Ignored by YAML parser
	BillingIncrement        time.Duration `yaml:"-"`
}

// SearchConfig holds the private-market search defaults.
type SearchConfig struct {
	DefaultRadiusKm float64 `yaml:"default_radius_km"`
	MaxResults      int     `yaml:"max_results"`
}

// WaitlistConfig holds the waitlist resolution configuration.
type WaitlistConfig struct {
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
	WorkerPoolSize       int           `yaml:"worker_pool_size"`
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

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration with every knob at its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
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

	if cfg.Booking.CancellationLeadMinutes <= 0 {
		cfg.Booking.CancellationLeadMinutes = 60
	}
	if cfg.Booking.BillingIncrementMinutes <= 0 {
		cfg.Booking.BillingIncrementMinutes = 15
	}
	cfg.Booking.CancellationLead = time.Duration(cfg.Booking.CancellationLeadMinutes) * time.Minute
	cfg.Booking.BillingIncrement = time.Duration(cfg.Booking.BillingIncrementMinutes) * time.Minute

	if cfg.Search.DefaultRadiusKm <= 0 {
		cfg.Search.DefaultRadiusKm = 5
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = 50
	}

	if cfg.Waitlist.SweepIntervalSeconds <= 0 {
		cfg.Waitlist.SweepIntervalSeconds = 300
	}
	cfg.Waitlist.SweepInterval = time.Duration(cfg.Waitlist.SweepIntervalSeconds) * time.Second

	if cfg.Waitlist.WorkerPoolSize <= 0 {
		log.Printf("waitlist.worker_pool_size is not set or invalid; defaulting to 1")
		cfg.Waitlist.WorkerPoolSize = 1
	}
}
