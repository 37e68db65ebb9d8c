// Package redis provides a Redis-backed storage.FlagStore for hosts that
// keep player state in a shared cache.
package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"

	goredis "github.com/go-redis/redis/v8"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 256

// FlagStore stores each flag as a plain Redis string without expiry.
type FlagStore struct {
	client goredis.UniversalClient
}

// NewFlagStore wraps an existing client.
func NewFlagStore(client goredis.UniversalClient) *FlagStore {
	return &FlagStore{client: client}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (*FlagStore, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &FlagStore{client: client}, nil
}

// Close closes the underlying client.
func (s *FlagStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Get implements storage.FlagStore.
func (s *FlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.ErrStoreFailure("get", err)
	}
	return value, true, nil
}

// Set implements storage.FlagStore.
func (s *FlagStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.ErrStoreFailure("set", err)
	}
	return nil
}

// Delete implements storage.FlagStore.
func (s *FlagStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return errors.ErrStoreFailure("delete", err)
	}
	return nil
}

// ListPrefix implements storage.PrefixLister using SCAN, so it does not
// block the server on large keyspaces.
func (s *FlagStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"

	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.ErrStoreFailure("list", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
