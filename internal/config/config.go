package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Telemetry      TelemetryConfig      `yaml:"telemetry"`
	Auction        AuctionConfig        `yaml:"auction"`
	Announce       AnnounceConfig       `yaml:"announce"`
	LeaderElection LeaderElectionConfig `yaml:"leader_election"`
}

// ServerConfig holds HTTP server settings. The API port serves the operator
// surface; the health port serves liveness/readiness on all replicas.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	HealthPort      int           `yaml:"health_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Driver   string `yaml:"driver"` // "postgres" or "memory"
}

// DSN returns the Postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
}

// BidIncrement is a quick-increment tier: while the current bid falls inside
// [Min, Max] the operator's increment button raises it by Increment.
type BidIncrement struct {
	Min       int `yaml:"min"`
	Max       int `yaml:"max"`
	Increment int `yaml:"increment"`
}

// AuctionConfig holds auction behavior settings.
type AuctionConfig struct {
	// DefaultBasePrice is the floor assigned to bulk-imported players that
	// carry no base price of their own.
	DefaultBasePrice int            `yaml:"default_base_price"`
	Increments       []BidIncrement `yaml:"increments"`
}

// IncrementFor returns the quick-increment amount for the given bid price.
// Falls back to the first tier's increment when no tier matches.
func (a AuctionConfig) IncrementFor(price int) int {
	for _, tier := range a.Increments {
		if price >= tier.Min && price <= tier.Max {
			return tier.Increment
		}
	}
	if len(a.Increments) > 0 {
		return a.Increments[0].Increment
	}
	return 0
}

// AnnounceConfig holds Discord announcer settings.
type AnnounceConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// LeaderElectionConfig holds Kubernetes leader election settings.
type LeaderElectionConfig struct {
	Enabled        bool          `yaml:"enabled"`
	LeaseName      string        `yaml:"lease_name"`
	LeaseNamespace string        `yaml:"lease_namespace"`
	LeaseDuration  time.Duration `yaml:"lease_duration"`
	RenewDeadline  time.Duration `yaml:"renew_deadline"`
	RetryPeriod    time.Duration `yaml:"retry_period"`
}

// Load reads a YAML configuration file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration defaults applied before unmarshalling.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			HealthPort:      8081,
			ShutdownTimeout: 15 * time.Second,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
			Driver:  "postgres",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "auctiondesk",
			ServiceVersion: "0.1.0",
		},
		Auction: AuctionConfig{
			DefaultBasePrice: 10000,
			Increments: []BidIncrement{
				{Min: 0, Max: 49999, Increment: 1000},
				{Min: 50000, Max: 99999, Increment: 5000},
				{Min: 100000, Max: 1 << 31, Increment: 10000},
			},
		},
		LeaderElection: LeaderElectionConfig{
			Enabled:        false,
			LeaseName:      "auctiondesk-leader",
			LeaseNamespace: "default",
			LeaseDuration:  15 * time.Second,
			RenewDeadline:  10 * time.Second,
			RetryPeriod:    2 * time.Second,
		},
	}
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "memory":
		// valid
	default:
		return fmt.Errorf("unsupported database driver %q: must be \"postgres\" or \"memory\"", c.Database.Driver)
	}
	if c.Auction.DefaultBasePrice < 0 {
		return fmt.Errorf("default_base_price must be non-negative")
	}
	if c.Announce.Enabled && (c.Announce.Token == "" || c.Announce.ChannelID == "") {
		return fmt.Errorf("announce requires token and channel_id when enabled")
	}
	return nil
}
