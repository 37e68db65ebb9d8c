package reward

import (
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
)

// Sequence gives its children one at a time, in order. The index of the
// last child given is persisted; -1 means none.
type Sequence struct {
	base
	children []Reward
}

// NewSequence creates a sequence reward over children.
func NewSequence(env *engine.Env, id, name string, children ...Reward) *Sequence {
	return &Sequence{
		base:     base{env: env, id: id, name: name, repeatable: true},
		children: children,
	}
}

func (r *Sequence) Kind() domain.RewardKind { return domain.RewardKindSequence }

// Children returns the ordered children.
func (r *Sequence) Children() []Reward { return r.children }

// LastGivenIndex returns the persisted cursor, -1 when nothing was given.
func (r *Sequence) LastGivenIndex() int {
	idx := r.env.Count(r.env.Keys.SequenceIndex(r.id), -1)
	if idx < -1 || idx >= len(r.children) {
		r.env.Logger.Warn("Sequence index out of range", "reward_id", r.id, "index", idx, "children", len(r.children))
		return min(max(idx, -1), len(r.children)-1)
	}
	return idx
}

// LastGiven returns the most recently given child, or nil.
func (r *Sequence) LastGiven() Reward {
	idx := r.LastGivenIndex()
	if idx < 0 {
		return nil
	}
	return r.children[idx]
}

// HasMoreToGive reports whether a child remains after the cursor.
func (r *Sequence) HasMoreToGive() bool {
	return r.LastGivenIndex() < len(r.children)-1
}

// Give gives the next child and advances the cursor. A child that is
// already given (for example after a crash between the child's flag write
// and the cursor write) still advances the cursor.
func (r *Sequence) Give() bool {
	return r.give(func() bool {
		next := r.LastGivenIndex() + 1
		if next >= len(r.children) {
			return false
		}
		child := r.children[next]
		if !child.Give() && !child.IsGiven() {
			r.env.Logger.Warn("Sequence child not given", "reward_id", r.id, "child_id", child.ID())
			return false
		}
		return r.env.SetCount(r.env.Keys.SequenceIndex(r.id), next) == nil
	})
}

// Take takes back the child at the cursor and rewinds it by one. The
// sequence's own given flag is cleared once the cursor is back at -1.
func (r *Sequence) Take() bool {
	idx := r.LastGivenIndex()
	if idx < 0 {
		return false
	}
	child := r.children[idx]
	if child.IsGiven() && !child.Take() {
		r.env.Logger.Warn("Sequence child not taken", "reward_id", r.id, "child_id", child.ID())
		return false
	}
	if err := r.env.SetCount(r.env.Keys.SequenceIndex(r.id), idx-1); err != nil {
		return false
	}
	if idx-1 < 0 {
		r.clearGiven()
	}
	return true
}

func (r *Sequence) Def() *domain.RewardDef {
	def := r.def(domain.RewardKindSequence)
	def.Repeatable = false
	def.Rewards = childDefs(r.children)
	return def
}
