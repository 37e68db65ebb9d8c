// Package world implements the progression tree: worlds own inner worlds,
// scores, missions and an optional gate; levels add a play session.
package world

import (
	"fmt"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/gate"
	"github.com/AccelByte/extend-levelup-common/pkg/mission"
	"github.com/AccelByte/extend-levelup-common/pkg/reward"
	"github.com/AccelByte/extend-levelup-common/pkg/score"
)

// World is a node of the progression tree. Children keep insertion order.
type World struct {
	env *engine.Env

	id       string
	name     string
	gate     gate.Gate
	worlds   []*World
	scores   []*score.Score
	missions []*mission.Mission

	// level is set when the world is the base of a Level.
	level *Level
}

// Option configures a World at construction.
type Option func(*World)

// WithGate attaches the gate that must be open before the world can start.
func WithGate(g gate.Gate) Option {
	return func(w *World) { w.gate = g }
}

// WithWorlds appends inner worlds.
func WithWorlds(worlds ...*World) Option {
	return func(w *World) { w.worlds = append(w.worlds, worlds...) }
}

// WithLevels appends inner levels.
func WithLevels(levels ...*Level) Option {
	return func(w *World) {
		for _, l := range levels {
			w.worlds = append(w.worlds, l.World)
		}
	}
}

// WithScores appends scores.
func WithScores(scores ...*score.Score) Option {
	return func(w *World) { w.scores = append(w.scores, scores...) }
}

// WithMissions appends missions and challenges.
func WithMissions(missions ...*mission.Mission) Option {
	return func(w *World) { w.missions = append(w.missions, missions...) }
}

// NewWorld creates a plain world.
func NewWorld(env *engine.Env, id, name string, opts ...Option) *World {
	w := &World{env: env, id: id, name: name}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// New builds a world or level tree from def.
func New(env *engine.Env, def *domain.WorldDef) (*World, error) {
	if def == nil || def.ID == "" {
		return nil, fmt.Errorf("world id is required")
	}
	kind := def.JSONType
	if kind == "" {
		kind = domain.WorldKindWorld
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("world %s: unknown kind %q", def.ID, kind)
	}

	var opts []Option
	var built []interface{ Detach() }
	fail := func(err error) (*World, error) {
		for _, b := range built {
			b.Detach()
		}
		return nil, fmt.Errorf("world %s: %w", def.ID, err)
	}

	if def.Gate != nil {
		g, err := gate.New(env, def.Gate)
		if err != nil {
			return fail(err)
		}
		built = append(built, g)
		opts = append(opts, WithGate(g))
	}
	for _, sd := range def.Scores {
		s, err := score.New(env, sd)
		if err != nil {
			return fail(err)
		}
		opts = append(opts, WithScores(s))
	}
	for _, md := range def.Missions {
		m, err := mission.New(env, md)
		if err != nil {
			return fail(err)
		}
		built = append(built, m)
		opts = append(opts, WithMissions(m))
	}
	for _, wd := range def.Worlds {
		inner, err := New(env, wd)
		if err != nil {
			return fail(err)
		}
		built = append(built, inner)
		opts = append(opts, WithWorlds(inner))
	}

	if kind == domain.WorldKindLevel {
		return NewLevel(env, def.ID, def.Name, opts...).World, nil
	}
	return NewWorld(env, def.ID, def.Name, opts...), nil
}

func (w *World) ID() string { return w.id }
func (w *World) Name() string { return w.name }
func (w *World) Gate() gate.Gate { return w.gate }
func (w *World) Worlds() []*World { return w.worlds }
func (w *World) Scores() []*score.Score { return w.scores }
func (w *World) Missions() []*mission.Mission { return w.missions }

// Kind reports whether the world is a plain world or a level.
func (w *World) Kind() domain.WorldKind {
	if w.level != nil {
		return domain.WorldKindLevel
	}
	return domain.WorldKindWorld
}

// Level returns the level built on this world, if any.
func (w *World) Level() (*Level, bool) {
	return w.level, w.level != nil
}

// Score returns the direct score with id.
func (w *World) Score(id string) (*score.Score, bool) {
	for _, s := range w.scores {
		if s.ID() == id {
			return s, true
		}
	}
	return nil, false
}

// InnerWorld returns the direct inner world with id.
func (w *World) InnerWorld(id string) (*World, bool) {
	for _, inner := range w.worlds {
		if inner.id == id {
			return inner, true
		}
	}
	return nil, false
}

// CanStart reports whether the world has no gate or its gate is open.
func (w *World) CanStart() bool {
	return w.gate == nil || w.gate.IsOpen()
}

// IsCompleted reads the persisted completion flag.
func (w *World) IsCompleted() bool {
	return w.env.Flag(w.env.Keys.WorldCompleted(w.id))
}

// SetCompleted writes the completion flag. With recursive set, inner worlds
// are updated first. The flag is always written; WorldCompleted is only
// published when the world goes from incomplete to complete.
func (w *World) SetCompleted(completed, recursive bool) {
	if recursive {
		for _, inner := range w.worlds {
			inner.SetCompleted(completed, true)
		}
	}

	was := w.IsCompleted()
	if err := w.env.SetFlag(w.env.Keys.WorldCompleted(w.id), completed); err != nil {
		return
	}
	if was == completed {
		return
	}
	if completed {
		w.env.Logger.Info("World completed", "world_id", w.id)
		w.env.Bus.WorldCompleted.Publish(events.WorldCompleted{WorldID: w.id})
	} else {
		w.env.Logger.Info("World completion cleared", "world_id", w.id)
	}
}

// AssignReward gives r and records it as the world's reward.
func (w *World) AssignReward(r reward.Reward) bool {
	if !r.Give() && !r.IsGiven() {
		w.env.Logger.Warn("World reward not given", "world_id", w.id, "reward_id", r.ID())
		return false
	}
	if err := w.env.SetString(w.env.Keys.WorldReward(w.id), r.ID()); err != nil {
		return false
	}
	w.env.Bus.WorldRewardAssigned.Publish(events.WorldRewardAssigned{WorldID: w.id, RewardID: r.ID()})
	return true
}

// AssignedRewardID returns the id of the reward assigned to the world.
func (w *World) AssignedRewardID() (string, bool) {
	return w.env.String(w.env.Keys.WorldReward(w.id))
}

// IncScore increments the direct score with id. It returns false when the
// world has no such score.
func (w *World) IncScore(id string, amount float64) bool {
	s, ok := w.lookupScore(id)
	if ok {
		s.Inc(amount)
	}
	return ok
}

// DecScore decrements the direct score with id.
func (w *World) DecScore(id string, amount float64) bool {
	s, ok := w.lookupScore(id)
	if ok {
		s.Dec(amount)
	}
	return ok
}

// SetScoreValue sets the direct score with id.
func (w *World) SetScoreValue(id string, v float64) bool {
	s, ok := w.lookupScore(id)
	if ok {
		s.SetValue(v)
	}
	return ok
}

// ResetScores resets every direct score, saving their latest values when
// save is set.
func (w *World) ResetScores(save bool) {
	for _, s := range w.scores {
		s.Reset(save)
	}
}

// SingleScore returns the first score, for worlds that track just one.
func (w *World) SingleScore() (*score.Score, bool) {
	if len(w.scores) == 0 {
		return nil, false
	}
	return w.scores[0], true
}

// SumInnerWorldsRecords sums the single score records of the inner worlds.
func (w *World) SumInnerWorldsRecords() float64 {
	var sum float64
	for _, inner := range w.worlds {
		if s, ok := inner.SingleScore(); ok {
			sum += s.Record()
		}
	}
	return sum
}

func (w *World) InnerWorldsCount() int { return len(w.worlds) }

// InnerWorldsCompletedCount counts completed direct inner worlds.
func (w *World) InnerWorldsCompletedCount() int {
	var n int
	for _, inner := range w.worlds {
		if inner.IsCompleted() {
			n++
		}
	}
	return n
}

// Reconcile completes missions whose persisted state shows they should
// already be complete, depth first.
func (w *World) Reconcile() {
	for _, m := range w.missions {
		m.Reconcile()
	}
	for _, inner := range w.worlds {
		inner.Reconcile()
	}
}

// Detach removes every bus subscription held in the subtree.
func (w *World) Detach() {
	if w.gate != nil {
		w.gate.Detach()
	}
	for _, m := range w.missions {
		m.Detach()
	}
	for _, inner := range w.worlds {
		inner.Detach()
	}
}

// Def returns the definition of the subtree.
func (w *World) Def() *domain.WorldDef {
	def := &domain.WorldDef{JSONType: w.Kind(), ID: w.id, Name: w.name}
	if w.gate != nil {
		def.Gate = w.gate.Def()
	}
	for _, inner := range w.worlds {
		def.Worlds = append(def.Worlds, inner.Def())
	}
	for _, s := range w.scores {
		def.Scores = append(def.Scores, s.Def())
	}
	for _, m := range w.missions {
		def.Missions = append(def.Missions, m.Def())
	}
	return def
}

func (w *World) lookupScore(id string) (*score.Score, bool) {
	s, ok := w.Score(id)
	if !ok {
		w.env.Logger.Warn("Score not in world", "world_id", w.id, "score_id", id)
	}
	return s, ok
}
