package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
)

// StoreDriver selects the flag store backend.
type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverSQLite   StoreDriver = "sqlite"
	StoreDriverBbolt    StoreDriver = "bbolt"
	StoreDriverRedis    StoreDriver = "redis"
)

// IsValid returns true if the driver is supported.
func (d StoreDriver) IsValid() bool {
	switch d {
	case StoreDriverMemory, StoreDriverPostgres, StoreDriverSQLite, StoreDriverBbolt, StoreDriverRedis:
		return true
	default:
		return false
	}
}

// Config is the runtime configuration of the engine. Postgres connection
// settings live in pkg/db.
type Config struct {
	Namespace    string      `env:"LEVELUP_NAMESPACE"     envDefault:"levelup"       yaml:"namespace"`
	StoreDriver  StoreDriver `env:"LEVELUP_STORE_DRIVER"  envDefault:"memory"        yaml:"store_driver"`
	DocumentPath string      `env:"LEVELUP_DOCUMENT_PATH" envDefault:"levelup.json"  yaml:"document_path"`
	LogLevel     string      `env:"LEVELUP_LOG_LEVEL"     envDefault:"info"          yaml:"log_level"`

	PostgresTable string `env:"LEVELUP_POSTGRES_TABLE" envDefault:"levelup_flags" yaml:"postgres_table"`
	SQLitePath    string `env:"LEVELUP_SQLITE_PATH"    envDefault:"levelup.db"    yaml:"sqlite_path"`
	BboltPath     string `env:"LEVELUP_BBOLT_PATH"     envDefault:"levelup.bolt"  yaml:"bbolt_path"`

	RedisAddr     string `env:"LEVELUP_REDIS_ADDR"     envDefault:"localhost:6379" yaml:"redis_addr"`
	RedisPassword string `env:"LEVELUP_REDIS_PASSWORD"                             yaml:"redis_password"`
	RedisDB       int    `env:"LEVELUP_REDIS_DB"       envDefault:"0"              yaml:"redis_db"`

	MetricsEnabled bool `env:"LEVELUP_METRICS_ENABLED" envDefault:"true" yaml:"metrics_enabled"`
}

// LoadFromEnv reads the configuration from LEVELUP_* environment variables.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Load reads the environment, then overlays the YAML file at yamlPath when
// it is not empty. Keys present in the file win over the environment.
func Load(yamlPath string) (*Config, error) {
	cfg, err := LoadFromEnv()
	if err != nil {
		return nil, err
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields the selected driver needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Namespace) == "" {
		return errors.ErrConfigInvalid("namespace cannot be empty")
	}
	if !c.StoreDriver.IsValid() {
		return errors.ErrConfigInvalid(fmt.Sprintf("unknown store driver %q", c.StoreDriver))
	}
	switch c.StoreDriver {
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return errors.ErrConfigInvalid("sqlite path cannot be empty")
		}
	case StoreDriverBbolt:
		if c.BboltPath == "" {
			return errors.ErrConfigInvalid("bbolt path cannot be empty")
		}
	case StoreDriverRedis:
		if c.RedisAddr == "" {
			return errors.ErrConfigInvalid("redis address cannot be empty")
		}
		if c.RedisDB < 0 {
			return errors.ErrConfigInvalid("redis db cannot be negative")
		}
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, errors.ErrConfigInvalid(fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	return level, nil
}
