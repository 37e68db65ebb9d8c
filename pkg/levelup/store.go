package levelup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AccelByte/extend-levelup-common/pkg/config"
	"github.com/AccelByte/extend-levelup-common/pkg/db"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
	"github.com/AccelByte/extend-levelup-common/pkg/storage/bbolt"
	"github.com/AccelByte/extend-levelup-common/pkg/storage/postgres"
	"github.com/AccelByte/extend-levelup-common/pkg/storage/redis"
	"github.com/AccelByte/extend-levelup-common/pkg/storage/sqlite"
)

// OpenStore opens the flag store selected by cfg.StoreDriver. The returned
// close function releases the backend and is never nil.
//
// The postgres driver reads its connection settings from DB_* variables
// through db.NewConfigFromEnv and migrates the flags table.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.FlagStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.StoreDriverMemory, "":
		logger.Info("Using in-memory flag store")
		return storage.NewInMemoryFlagStore(), noop, nil

	case config.StoreDriverPostgres:
		dbCfg := db.NewConfigFromEnv()
		conn, err := db.Connect(dbCfg)
		if err != nil {
			return nil, noop, fmt.Errorf("connect postgres: %w", err)
		}
		store := postgres.NewFlagStore(conn, cfg.PostgresTable)
		if err := store.Migrate(ctx); err != nil {
			_ = conn.Close()
			return nil, noop, err
		}
		logger.Info("Using postgres flag store",
			"host", dbCfg.Host,
			"database", dbCfg.Database,
			"table", cfg.PostgresTable,
		)
		return store, conn.Close, nil

	case config.StoreDriverSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using sqlite flag store", "path", cfg.SQLitePath)
		return store, store.Close, nil

	case config.StoreDriverBbolt:
		store, err := bbolt.Open(cfg.BboltPath)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using bbolt flag store", "path", cfg.BboltPath)
		return store, store.Close, nil

	case config.StoreDriverRedis:
		store, err := redis.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using redis flag store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return store, store.Close, nil

	default:
		return nil, noop, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}
