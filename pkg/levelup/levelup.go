// Package levelup wires the engine together: it builds the world tree and
// top-level rewards from a document, indexes them in a registry, reconciles
// state left behind by an interrupted cascade and optionally exports
// metrics.
package levelup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AccelByte/extend-levelup-common/pkg/config"
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/economy"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/metrics"
	"github.com/AccelByte/extend-levelup-common/pkg/registry"
	"github.com/AccelByte/extend-levelup-common/pkg/reward"
	"github.com/AccelByte/extend-levelup-common/pkg/social"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
	"github.com/AccelByte/extend-levelup-common/pkg/world"
)

// LevelUp is the initialized engine for one player profile.
type LevelUp struct {
	env      *engine.Env
	registry *registry.Registry

	mu      sync.RWMutex
	rewards []reward.Reward

	collector *metrics.Collector
	closeFn   func() error
}

// Initialize builds the tree described by doc on env and reconciles it.
// Worlds and rewards that cannot be built are logged and skipped; nothing
// aborts initialization. env.Hierarchy is set to the new registry.
func Initialize(env *engine.Env, doc *domain.Document) *LevelUp {
	l := &LevelUp{env: env}
	roots, rewards := l.build(doc)

	l.registry = registry.New(roots, env.Logger)
	l.rewards = rewards
	env.Hierarchy = l.registry

	l.Reconcile()
	return l
}

// Reload replaces the whole tree with the one described by doc, as on a
// full re-initialization. Persisted state carries over through the store.
func (l *LevelUp) Reload(doc *domain.Document) {
	roots, rewards := l.build(doc)

	l.registry.Replace(roots)
	l.mu.Lock()
	l.rewards = rewards
	l.mu.Unlock()

	l.Reconcile()
}

func (l *LevelUp) build(doc *domain.Document) ([]*world.World, []reward.Reward) {
	var roots []*world.World
	var rewards []reward.Reward
	if doc == nil {
		return roots, rewards
	}

	for _, def := range doc.Worlds {
		w, err := world.New(l.env, def)
		if err != nil {
			l.env.Logger.Warn("Skipping world", "world_id", def.ID, "error", err)
			continue
		}
		roots = append(roots, w)
	}
	for _, def := range doc.Rewards {
		r, err := reward.New(l.env, def)
		if err != nil {
			l.env.Logger.Warn("Skipping reward", "reward_id", def.ID, "error", err)
			continue
		}
		rewards = append(rewards, r)
	}
	return roots, rewards
}

// Reconcile completes missions and challenges whose persisted state shows
// they should already be complete. It is safe to call at any time.
func (l *LevelUp) Reconcile() {
	for _, w := range l.registry.Worlds() {
		w.Reconcile()
	}
	l.env.Logger.Debug("Reconciled world tree", "roots", len(l.registry.Worlds()))
}

// ResetProgress deletes the persisted state of the given entity kinds
// (storage.Kinds when none are given) and rebuilds the tree from the live
// definitions. The store must implement storage.PrefixLister. It returns the
// number of deleted keys.
func (l *LevelUp) ResetProgress(ctx context.Context, kinds ...string) (int, error) {
	lister, ok := l.env.Store.(storage.PrefixLister)
	if !ok {
		return 0, errors.ErrStoreFailure("reset progress", fmt.Errorf("store %T cannot list keys", l.env.Store))
	}
	if len(kinds) == 0 {
		kinds = storage.Kinds
	}

	deleted := 0
	for _, kind := range kinds {
		keys, err := lister.ListPrefix(ctx, l.env.Keys.Prefix(kind))
		if err != nil {
			return deleted, errors.ErrStoreFailure("reset progress", err)
		}
		for _, key := range keys {
			if err := l.env.Store.Delete(ctx, key); err != nil {
				return deleted, errors.ErrStoreFailure("reset progress", err)
			}
			deleted++
		}
	}

	l.Reload(l.Export())
	l.env.Logger.Info("Progress reset", "kinds", kinds, "deleted", deleted)
	return deleted, nil
}

// Tick lets schedule gates re-evaluate at now.
func (l *LevelUp) Tick(now time.Time) {
	l.env.Bus.ClockTicked.Publish(events.ClockTicked{Now: now})
}

// Env returns the runtime context shared by every entity.
func (l *LevelUp) Env() *engine.Env { return l.env }

// Bus returns the event bus.
func (l *LevelUp) Bus() *events.Bus { return l.env.Bus }

// Registry returns the hierarchy index.
func (l *LevelUp) Registry() *registry.Registry { return l.registry }

// Metrics returns the collector, or nil when metrics are disabled.
func (l *LevelUp) Metrics() *metrics.Collector { return l.collector }

// Rewards returns the top-level rewards in document order.
func (l *LevelUp) Rewards() []reward.Reward {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rewards
}

// Reward returns the top-level reward with id.
func (l *LevelUp) Reward(id string) (reward.Reward, bool) {
	for _, r := range l.Rewards() {
		if r.ID() == id {
			return r, true
		}
	}
	return nil, false
}

// Export returns the document describing the live tree.
func (l *LevelUp) Export() *domain.Document {
	doc := &domain.Document{}
	for _, w := range l.registry.Worlds() {
		doc.Worlds = append(doc.Worlds, w.Def())
	}
	for _, r := range l.Rewards() {
		doc.Rewards = append(doc.Rewards, r.Def())
	}
	return doc
}

// Close detaches the tree and metrics from the bus and releases the store
// opened by Open.
func (l *LevelUp) Close() error {
	l.registry.Replace(nil)
	if l.collector != nil {
		l.collector.Detach()
	}
	if l.closeFn != nil {
		return l.closeFn()
	}
	return nil
}

// Option configures Open.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	bus       *events.Bus
	inventory economy.Inventory
	social    social.Provider
	clock     func() time.Time
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithBus sets the event bus, so collaborators created before Open can
// publish on it.
func WithBus(bus *events.Bus) Option {
	return func(o *options) { o.bus = bus }
}

// WithInventory sets the inventory. The default is an empty
// economy.MemoryInventory.
func WithInventory(inv economy.Inventory) Option {
	return func(o *options) { o.inventory = inv }
}

// WithSocial sets the social provider. The default is a
// social.MemoryProvider.
func WithSocial(p social.Provider) Option {
	return func(o *options) { o.social = p }
}

// WithClock sets the clock levels and schedules read.
func WithClock(clock func() time.Time) Option {
	return func(o *options) { o.clock = clock }
}

// Open opens the configured store, loads the document at cfg.DocumentPath
// and initializes the engine on it.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*LevelUp, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	store, closeStore, err := OpenStore(ctx, cfg, o.logger)
	if err != nil {
		return nil, fmt.Errorf("open flag store: %w", err)
	}

	doc, err := config.NewConfigLoader(cfg.DocumentPath, o.logger).LoadDocument()
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	env := engine.NewEnv(store, storage.NewKeys(cfg.Namespace), o.logger)
	if o.bus != nil {
		env.Bus = o.bus
	}
	if o.clock != nil {
		env.Clock = o.clock
	}
	env.Inventory = o.inventory
	if env.Inventory == nil {
		env.Inventory = economy.NewMemoryInventory(env.Bus, o.logger)
	}
	env.Social = o.social
	if env.Social == nil {
		env.Social = social.NewMemoryProvider(env.Bus, o.logger)
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector("")
		collector.Attach(env.Bus)
	}

	l := Initialize(env, doc)
	l.collector = collector
	l.closeFn = closeStore

	o.logger.Info("LevelUp initialized",
		"namespace", cfg.Namespace,
		"store_driver", cfg.StoreDriver,
		"worlds", len(l.registry.Worlds()),
		"rewards", len(l.Rewards()),
		"metrics", cfg.MetricsEnabled,
	)
	return l, nil
}
