// Package engine holds the runtime context shared by every entity: the flag
// store, the event bus, external collaborators and the hierarchy lookup.
package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/AccelByte/extend-levelup-common/pkg/common"
	"github.com/AccelByte/extend-levelup-common/pkg/economy"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/social"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
)

// Hierarchy resolves scores and worlds by id across the whole world tree.
// found is false when no entity with the id exists.
type Hierarchy interface {
	ScoreRecordReached(scoreID string, record float64) (reached, found bool)
	WorldCompleted(worldID string) (completed, found bool)
}

// Env is injected into every entity at construction time.
//
// Store and Bus are required. Inventory, Social and Hierarchy may be nil;
// criteria that need a missing collaborator fail closed and log.
type Env struct {
	Store     storage.FlagStore
	Keys      storage.Keys
	Bus       *events.Bus
	Inventory economy.Inventory
	Social    social.Provider
	Hierarchy Hierarchy
	Logger    *slog.Logger

	// Clock returns the current time. Levels and schedules read it.
	Clock func() time.Time

	// Intn returns a uniform random int in [0, n). RandomReward draws with it.
	Intn func(n int) int
}

// NewEnv creates an Env with a fresh bus, the wall clock and the default
// random source.
func NewEnv(store storage.FlagStore, keys storage.Keys, logger *slog.Logger) *Env {
	if logger == nil {
		logger = slog.Default()
	}
	return &Env{
		Store:  store,
		Keys:   keys,
		Bus:    events.NewBus(),
		Logger: logger,
		Clock:  time.Now,
		Intn:   rand.Intn,
	}
}

// Context returns the context used for store and collaborator calls. State
// transitions run to completion once started, so there is no cancellation.
func (e *Env) Context() context.Context {
	return context.Background()
}

// Now returns the current time from Clock.
func (e *Env) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock()
}

// Flag reports whether key is present. Store errors read as false.
func (e *Env) Flag(key string) bool {
	_, ok, err := e.Store.Get(e.Context(), key)
	if err != nil {
		e.Logger.Error("Failed to read flag", "key", key, "error", err)
		return false
	}
	return ok
}

// SetFlag writes or clears a boolean flag.
func (e *Env) SetFlag(key string, on bool) error {
	var err error
	if on {
		err = e.Store.Set(e.Context(), key, storage.FlagValue)
	} else {
		err = e.Store.Delete(e.Context(), key)
	}
	if err != nil {
		e.Logger.Error("Failed to write flag", "key", key, "value", on, "error", err)
	}
	return err
}

// String returns the raw value at key.
func (e *Env) String(key string) (string, bool) {
	v, ok, err := e.Store.Get(e.Context(), key)
	if err != nil {
		e.Logger.Error("Failed to read value", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// SetString writes a raw value.
func (e *Env) SetString(key, value string) error {
	if err := e.Store.Set(e.Context(), key, value); err != nil {
		e.Logger.Error("Failed to write value", "key", key, "error", err)
		return err
	}
	return nil
}

// Number reads a persisted double. Absent and malformed values report false.
func (e *Env) Number(key string) (float64, bool) {
	raw, ok := e.String(key)
	if !ok {
		return 0, false
	}
	v, err := common.ParseNumber(raw)
	if err != nil {
		e.Logger.Warn("Ignoring malformed number", "error", errors.ErrMalformedValue(key, err))
		return 0, false
	}
	return v, true
}

// SetNumber writes a persisted double.
func (e *Env) SetNumber(key string, v float64) error {
	return e.SetString(key, common.FormatNumber(v))
}

// Count reads a persisted integer counter. Absent and malformed values read
// as def.
func (e *Env) Count(key string, def int) int {
	raw, ok := e.String(key)
	if !ok {
		return def
	}
	n, err := common.ParseCount(raw)
	if err != nil {
		e.Logger.Warn("Ignoring malformed counter", "error", errors.ErrMalformedValue(key, err))
		return def
	}
	return n
}

// SetCount writes a persisted integer counter.
func (e *Env) SetCount(key string, n int) error {
	return e.SetString(key, common.FormatCount(n))
}

// ScoreRecordReached resolves scoreID through the hierarchy. Unknown scores
// fail closed and are logged.
func (e *Env) ScoreRecordReached(scoreID string, record float64) bool {
	if e.Hierarchy == nil {
		e.Logger.Warn("Score lookup without hierarchy", "score_id", scoreID)
		return false
	}
	reached, found := e.Hierarchy.ScoreRecordReached(scoreID, record)
	if !found {
		e.Logger.Warn("Score lookup failed", "error", errors.ErrScoreNotFound(scoreID))
		return false
	}
	return reached
}

// WorldCompleted resolves worldID through the hierarchy. Unknown worlds fail
// closed and are logged.
func (e *Env) WorldCompleted(worldID string) bool {
	if e.Hierarchy == nil {
		e.Logger.Warn("World lookup without hierarchy", "world_id", worldID)
		return false
	}
	completed, found := e.Hierarchy.WorldCompleted(worldID)
	if !found {
		e.Logger.Warn("World lookup failed", "error", errors.ErrWorldNotFound(worldID))
		return false
	}
	return completed
}

// Balance queries the inventory. Missing inventory and unknown items fail
// closed and are logged; ok is false in both cases.
func (e *Env) Balance(itemID string) (int, bool) {
	if e.Inventory == nil {
		e.Logger.Warn("Balance lookup without inventory", "item_id", itemID)
		return 0, false
	}
	balance, err := e.Inventory.Balance(e.Context(), itemID)
	if err != nil {
		e.Logger.Warn("Balance lookup failed", "item_id", itemID, "error", err)
		return 0, false
	}
	return balance, true
}
