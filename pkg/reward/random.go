package reward

import (
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
)

// Random gives one uniformly drawn candidate per Give. The last draw is
// remembered in memory so Take can reverse it; after a restart Take falls
// back to the last candidate whose given flag is set.
type Random struct {
	base
	children  []Reward
	lastGiven Reward
}

// NewRandom creates a random reward over candidates.
func NewRandom(env *engine.Env, id, name string, candidates ...Reward) *Random {
	return &Random{
		base:     base{env: env, id: id, name: name, repeatable: true},
		children: candidates,
	}
}

func (r *Random) Kind() domain.RewardKind { return domain.RewardKindRandom }

// Children returns the candidates.
func (r *Random) Children() []Reward { return r.children }

// LastGiven returns the candidate drawn by the most recent Give, or nil.
func (r *Random) LastGiven() Reward { return r.lastGiven }

func (r *Random) Give() bool {
	return r.give(func() bool {
		if len(r.children) == 0 {
			return false
		}
		child := r.children[r.env.Intn(len(r.children))]
		if !child.Give() {
			r.env.Logger.Debug("Random candidate not given", "reward_id", r.id, "child_id", child.ID())
			return false
		}
		r.lastGiven = child
		return true
	})
}

// Take reverses the last draw. The random reward stays given while any
// candidate is still given.
func (r *Random) Take() bool {
	if !r.IsGiven() {
		return false
	}
	target := r.lastGiven
	if target == nil {
		for i := len(r.children) - 1; i >= 0; i-- {
			if r.children[i].IsGiven() {
				target = r.children[i]
				break
			}
		}
	}
	if target == nil || !target.Take() {
		return false
	}
	r.lastGiven = nil

	for _, c := range r.children {
		if c.IsGiven() {
			return true
		}
	}
	r.clearGiven()
	return true
}

func (r *Random) Def() *domain.RewardDef {
	def := r.def(domain.RewardKindRandom)
	def.Repeatable = false
	def.Rewards = childDefs(r.children)
	return def
}
