// Package bbolt provides a BoltDB-backed storage.FlagStore.
package bbolt

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"

	"go.etcd.io/bbolt"
)

const flagBucket = "flags"

// FlagStore persists flags in a single BoltDB bucket.
type FlagStore struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed flag store at the provided path.
func Open(path string) (*FlagStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &FlagStore{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *FlagStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get implements storage.FlagStore.
func (s *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("storage is not configured")
	}

	var (
		value string
		ok    bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(flagBucket))
		if bucket == nil {
			return fmt.Errorf("flag bucket is missing")
		}
		// Bolt values are only valid inside the transaction; copy out.
		if payload := bucket.Get([]byte(key)); payload != nil {
			value = string(payload)
			ok = true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.ErrStoreFailure("get", err)
	}
	return value, ok, nil
}

// Set implements storage.FlagStore.
func (s *FlagStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	if key == "" {
		return fmt.Errorf("flag key is required")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(flagBucket))
		if bucket == nil {
			return fmt.Errorf("flag bucket is missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.ErrStoreFailure("set", err)
	}
	return nil
}

// Delete implements storage.FlagStore.
func (s *FlagStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(flagBucket))
		if bucket == nil {
			return fmt.Errorf("flag bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return errors.ErrStoreFailure("delete", err)
	}
	return nil
}

// ListPrefix implements storage.PrefixLister. Bolt keeps keys sorted, so
// the result is in byte order.
func (s *FlagStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	keys := make([]string, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(flagBucket))
		if bucket == nil {
			return fmt.Errorf("flag bucket is missing")
		}
		p := []byte(prefix)
		c := bucket.Cursor()
		for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, errors.ErrStoreFailure("list", err)
	}
	return keys, nil
}

func (s *FlagStore) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(flagBucket))
		if err != nil {
			return fmt.Errorf("create flag bucket: %w", err)
		}
		return nil
	})
}
