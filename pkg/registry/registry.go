// Package registry indexes the root worlds of a game so any score, world or
// level can be found by id across the whole tree.
package registry

import (
	"log/slog"
	"sync"

	"github.com/AccelByte/extend-levelup-common/pkg/mission"
	"github.com/AccelByte/extend-levelup-common/pkg/score"
	"github.com/AccelByte/extend-levelup-common/pkg/world"
)

// Registry is the process-scoped index over the root worlds. It implements
// engine.Hierarchy.
//
// Lookups are depth first: the worlds at one depth are checked before their
// inner worlds, in insertion order, and the first match wins. Ids are
// expected to be unique across the tree; duplicates resolve to the first
// match in that order.
type Registry struct {
	mu     sync.RWMutex
	roots  []*world.World
	logger *slog.Logger
}

// New creates a registry over roots.
func New(roots []*world.World, logger *slog.Logger) *Registry {
	r := &Registry{logger: logger}
	r.Replace(roots)
	return r
}

// Replace swaps the root set, as on a full re-initialization. The previous
// tree is detached from the bus.
func (r *Registry) Replace(roots []*world.World) {
	r.mu.Lock()
	old := r.roots
	r.roots = append([]*world.World(nil), roots...)
	r.mu.Unlock()

	for _, w := range old {
		w.Detach()
	}

	var worlds, scores, missions int
	walk(roots, func(w *world.World) {
		worlds++
		scores += len(w.Scores())
		missions += len(w.Missions())
	})
	r.logger.Info("Registry built",
		"roots", len(roots),
		"worlds", worlds,
		"scores", scores,
		"missions", missions,
	)
}

// Worlds returns the root worlds in insertion order.
func (r *Registry) Worlds() []*world.World {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roots
}

// FindWorld returns the world or level with id, or nil.
func (r *Registry) FindWorld(id string) *world.World {
	return findWorld(r.Worlds(), id)
}

// FindLevel returns the level with id, or nil. A plain world with the id is
// not a match.
func (r *Registry) FindLevel(id string) *world.Level {
	w := r.FindWorld(id)
	if w == nil {
		return nil
	}
	l, _ := w.Level()
	return l
}

// FindScore returns the score with id, or nil.
func (r *Registry) FindScore(id string) *score.Score {
	return findScore(r.Worlds(), id)
}

// FindMission returns the mission or challenge with id, or nil. Challenge
// children are searched after the missions at the same world.
func (r *Registry) FindMission(id string) *mission.Mission {
	var found *mission.Mission
	walk(r.Worlds(), func(w *world.World) {
		if found == nil {
			found = findMission(w.Missions(), id)
		}
	})
	return found
}

// Missions returns every mission in the tree, worlds in lookup order.
func (r *Registry) Missions() []*mission.Mission {
	var all []*mission.Mission
	walk(r.Worlds(), func(w *world.World) {
		all = append(all, w.Missions()...)
	})
	return all
}

// ScoreRecordReached implements engine.Hierarchy.
func (r *Registry) ScoreRecordReached(scoreID string, record float64) (reached, found bool) {
	s := r.FindScore(scoreID)
	if s == nil {
		return false, false
	}
	return s.HasRecordReached(record), true
}

// WorldCompleted implements engine.Hierarchy.
func (r *Registry) WorldCompleted(worldID string) (completed, found bool) {
	w := r.FindWorld(worldID)
	if w == nil {
		return false, false
	}
	return w.IsCompleted(), true
}

func findWorld(worlds []*world.World, id string) *world.World {
	for _, w := range worlds {
		if w.ID() == id {
			return w
		}
	}
	for _, w := range worlds {
		if found := findWorld(w.Worlds(), id); found != nil {
			return found
		}
	}
	return nil
}

func findScore(worlds []*world.World, id string) *score.Score {
	for _, w := range worlds {
		if s, ok := w.Score(id); ok {
			return s
		}
	}
	for _, w := range worlds {
		if found := findScore(w.Worlds(), id); found != nil {
			return found
		}
	}
	return nil
}

func findMission(missions []*mission.Mission, id string) *mission.Mission {
	for _, m := range missions {
		if m.ID() == id {
			return m
		}
	}
	for _, m := range missions {
		if found := findMission(m.Children(), id); found != nil {
			return found
		}
	}
	return nil
}

// walk visits the worlds of one list, then descends into each in turn.
func walk(worlds []*world.World, visit func(*world.World)) {
	for _, w := range worlds {
		visit(w)
	}
	for _, w := range worlds {
		walk(w.Worlds(), visit)
	}
}
