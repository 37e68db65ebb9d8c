// Package storage defines the persistent flag store every entity mirrors its
// state into, the key layout, and an in-memory implementation. Durable
// drivers live in the postgres, sqlite, bbolt and redis subpackages.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// FlagValue is the value written for boolean flags. Absence means false.
const FlagValue = "yes"

// FlagStore is a durable key to string map. Every write is a single,
// independent key write; there are no multi-key transactions.
type FlagStore interface {
	// Get returns the value stored at key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value at key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// PrefixLister is implemented by stores that can enumerate keys. Progress
// resets need it; the rest of the engine does not.
type PrefixLister interface {
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
}

// InMemoryFlagStore is a FlagStore backed by a map. State is lost when the
// process exits; it is meant for tests and for hosts that persist elsewhere.
type InMemoryFlagStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewInMemoryFlagStore creates an empty in-memory store.
func NewInMemoryFlagStore() *InMemoryFlagStore {
	return &InMemoryFlagStore{values: make(map[string]string)}
}

// Get implements FlagStore.
func (s *InMemoryFlagStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements FlagStore.
func (s *InMemoryFlagStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Delete implements FlagStore.
func (s *InMemoryFlagStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

// ListPrefix implements PrefixLister. Keys are returned sorted.
func (s *InMemoryFlagStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Len returns the number of stored keys.
func (s *InMemoryFlagStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
