// Package postgres provides a PostgreSQL-backed storage.FlagStore.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"

	"github.com/lib/pq" // PostgreSQL driver and identifier quoting
)

// DefaultTable is the table flags are stored in when none is configured.
const DefaultTable = "levelup_flags"

// FlagStore implements storage.FlagStore using PostgreSQL.
// One row per key; writes are single-row upserts.
type FlagStore struct {
	db    *sql.DB
	table string
}

// NewFlagStore creates a new PostgreSQL-backed flag store. An empty table
// name selects DefaultTable.
func NewFlagStore(db *sql.DB, table string) *FlagStore {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return &FlagStore{
		db:    db,
		table: pq.QuoteIdentifier(table),
	}
}

// Migrate creates the flags table if it does not exist.
func (s *FlagStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return errors.ErrStoreFailure("migrate", err)
	}
	return nil
}

// Get retrieves the value stored at key.
func (s *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil // Absent key means false / unset
	}
	if err != nil {
		return "", false, errors.ErrStoreFailure("get", err)
	}

	return value, true, nil
}

// Set creates or replaces the value stored at key.
func (s *FlagStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = NOW()
	`, s.table)

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return errors.ErrStoreFailure("set", err)
	}
	return nil
}

// Delete removes key.
func (s *FlagStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.table)

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return errors.ErrStoreFailure("delete", err)
	}
	return nil
}

// ListPrefix returns every key starting with prefix, sorted.
func (s *FlagStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	query := fmt.Sprintf(`SELECT key FROM %s WHERE key LIKE $1 ESCAPE '\' ORDER BY key`, s.table)

	rows, err := s.db.QueryContext(ctx, query, escapeLike(prefix)+"%")
	if err != nil {
		return nil, errors.ErrStoreFailure("list", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, errors.ErrStoreFailure("list", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ErrStoreFailure("list", err)
	}

	return keys, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
