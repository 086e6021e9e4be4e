package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for legit-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Pipeline behavior
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Destination database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Source warehouse configuration (SQL Server)
	Warehouse WarehouseConfig `yaml:"warehouse"`
}

// PipelineConfig holds the batch-pass tuning knobs.
type PipelineConfig struct {
	// MainLookbackDays bounds the primary selection window: only documents
	// delivered within this many days of "now" are candidates.
	MainLookbackDays int `yaml:"main_lookback_days" env:"PIPELINE_MAIN_LOOKBACK_DAYS" env-default:"15"`

	// ExtendedLookbackDays bounds the wider event scan used to find each
	// document's latest event before the primary window is applied.
	ExtendedLookbackDays int `yaml:"extended_lookback_days" env:"PIPELINE_EXTENDED_LOOKBACK_DAYS" env-default:"30"`

	// PruneIdentityOnly removes identity-document rows for clients that have
	// no other document type on file. Off by default.
	PruneIdentityOnly bool `yaml:"prune_identity_only" env:"PIPELINE_PRUNE_IDENTITY_ONLY" env-default:"false"`

	// ArchivePartitionsStr is a comma-separated list of archived yearly
	// partition suffixes of the document repository, e.g. "2025".
	ArchivePartitionsStr string `yaml:"archive_partitions" env:"PIPELINE_ARCHIVE_PARTITIONS" env-default:"2025"`

	// ArchivePartitions is the parsed form of ArchivePartitionsStr.
	ArchivePartitions []string `yaml:"-"`

	// MigrationsPath is the directory holding destination schema migrations.
	MigrationsPath string `yaml:"migrations_path" env:"PIPELINE_MIGRATIONS_PATH" env-default:"migrations"`
}

// DatabaseConfig holds PostgreSQL destination configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"legit"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"legit_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL builds the connection URL for the destination database.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// WarehouseConfig holds SQL Server source configuration. All source
// relations (logistics, cardholder, document repository) are read through
// this one connection.
type WarehouseConfig struct {
	Host                   string `yaml:"host" env:"MSSQL_HOST" env-default:"localhost"`
	Port                   int    `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	Database               string `yaml:"database" env:"MSSQL_DATABASE" env-default:"AT_CMDTS"`
	Username               string `yaml:"username" env:"MSSQL_USERNAME"`
	Password               string `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	Encrypt                bool   `yaml:"encrypt" env:"MSSQL_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool   `yaml:"trust_server_certificate" env:"MSSQL_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectionTimeout      int    `yaml:"connection_timeout" env:"MSSQL_CONNECTION_TIMEOUT" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml is absent the environment alone is used.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.Pipeline.ArchivePartitions = parsePartitions(c.Pipeline.ArchivePartitionsStr)
	return nil
}

func parsePartitions(s string) []string {
	parts := make([]string, 0, 2)
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func (c *Config) validate() error {
	if c.Pipeline.MainLookbackDays <= 0 {
		return fmt.Errorf("main_lookback_days must be positive, got %d", c.Pipeline.MainLookbackDays)
	}
	if c.Pipeline.ExtendedLookbackDays < c.Pipeline.MainLookbackDays {
		return fmt.Errorf("extended_lookback_days (%d) must cover main_lookback_days (%d)",
			c.Pipeline.ExtendedLookbackDays, c.Pipeline.MainLookbackDays)
	}
	return nil
}
