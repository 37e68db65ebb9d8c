package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "levelup", cfg.Namespace)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "levelup.json", cfg.DocumentPath)
	assert.Equal(t, "levelup_flags", cfg.PostgresTable)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.True(t, cfg.MetricsEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("LEVELUP_NAMESPACE", "game42")
	t.Setenv("LEVELUP_STORE_DRIVER", "sqlite")
	t.Setenv("LEVELUP_SQLITE_PATH", "/var/lib/levelup/flags.db")
	t.Setenv("LEVELUP_REDIS_DB", "3")
	t.Setenv("LEVELUP_LOG_LEVEL", "debug")
	t.Setenv("LEVELUP_METRICS_ENABLED", "false")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "game42", cfg.Namespace)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/var/lib/levelup/flags.db", cfg.SQLitePath)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.False(t, cfg.MetricsEnabled)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFromEnv_InvalidValue(t *testing.T) {
	t.Setenv("LEVELUP_REDIS_DB", "not-a-number")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	t.Setenv("LEVELUP_NAMESPACE", "from-env")
	t.Setenv("LEVELUP_REDIS_ADDR", "redis:6379")

	path := filepath.Join(t.TempDir(), "levelup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("namespace: from-yaml\nstore_driver: redis\nredis_db: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-yaml", cfg.Namespace, "the file wins over the environment")
	assert.Equal(t, StoreDriverRedis, cfg.StoreDriver)
	assert.Equal(t, "redis:6379", cfg.RedisAddr, "keys absent from the file keep their env value")
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("namespace: [unterminated"), 0o600))
	badDriver := filepath.Join(dir, "driver.yaml")
	require.NoError(t, os.WriteFile(badDriver, []byte("store_driver: cassandra\n"), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{name: "missing file", path: filepath.Join(dir, "missing.yaml")},
		{name: "invalid yaml", path: badYAML},
		{name: "unknown driver", path: badDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Namespace:   "levelup",
			StoreDriver: StoreDriverMemory,
			LogLevel:    "info",
			RedisAddr:   "localhost:6379",
			SQLitePath:  "levelup.db",
			BboltPath:   "levelup.bolt",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}, wantErr: false},
		{name: "blank namespace", mutate: func(c *Config) { c.Namespace = "  " }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "mongo" }, wantErr: true},
		{name: "sqlite without path", mutate: func(c *Config) { c.StoreDriver = StoreDriverSQLite; c.SQLitePath = "" }, wantErr: true},
		{name: "bbolt without path", mutate: func(c *Config) { c.StoreDriver = StoreDriverBbolt; c.BboltPath = "" }, wantErr: true},
		{name: "redis without address", mutate: func(c *Config) { c.StoreDriver = StoreDriverRedis; c.RedisAddr = "" }, wantErr: true},
		{name: "redis negative db", mutate: func(c *Config) { c.StoreDriver = StoreDriverRedis; c.RedisDB = -1 }, wantErr: true},
		{name: "postgres", mutate: func(c *Config) { c.StoreDriver = StoreDriverPostgres }, wantErr: false},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "chatty" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeConfigInvalid) {
				t.Errorf("Validate() error = %v, want code %s", err, errors.ErrCodeConfigInvalid)
			}
		})
	}
}
