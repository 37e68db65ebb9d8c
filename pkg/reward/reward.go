// Package reward implements idempotent disbursements: virtual items,
// badges, and sequences or random draws over other rewards.
package reward

import (
	"fmt"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Reward is a disbursement with a persisted given flag.
type Reward interface {
	ID() string
	Name() string
	Kind() domain.RewardKind

	// Give disburses the reward and reports whether anything was given.
	// A non-repeatable reward that is already given is not disbursed again.
	Give() bool

	// Take reverses the most recent disbursement.
	Take() bool

	// IsGiven reads the persisted given flag.
	IsGiven() bool

	Def() *domain.RewardDef
}

// Factory builds a reward of one kind from its definition. build is used
// for child rewards.
type Factory func(env *engine.Env, def *domain.RewardDef, build func(*domain.RewardDef) (Reward, error)) (Reward, error)

var factories = map[domain.RewardKind]Factory{
	domain.RewardKindVirtualItem: func(env *engine.Env, def *domain.RewardDef, _ func(*domain.RewardDef) (Reward, error)) (Reward, error) {
		if def.ItemID == "" {
			return nil, fmt.Errorf("virtual item reward %s: associated item is required", def.ID)
		}
		r := NewVirtualItem(env, def.ID, def.Name, def.ItemID, def.Amount)
		r.repeatable = def.Repeatable
		return r, nil
	},
	domain.RewardKindBadge: func(env *engine.Env, def *domain.RewardDef, _ func(*domain.RewardDef) (Reward, error)) (Reward, error) {
		r := NewBadge(env, def.ID, def.Name)
		r.repeatable = def.Repeatable
		return r, nil
	},
	domain.RewardKindSequence: func(env *engine.Env, def *domain.RewardDef, build func(*domain.RewardDef) (Reward, error)) (Reward, error) {
		children, err := buildChildren(def, build)
		if err != nil {
			return nil, err
		}
		return NewSequence(env, def.ID, def.Name, children...), nil
	},
	domain.RewardKindRandom: func(env *engine.Env, def *domain.RewardDef, build func(*domain.RewardDef) (Reward, error)) (Reward, error) {
		children, err := buildChildren(def, build)
		if err != nil {
			return nil, err
		}
		if len(children) == 0 {
			return nil, fmt.Errorf("random reward %s: at least one candidate is required", def.ID)
		}
		return NewRandom(env, def.ID, def.Name, children...), nil
	},
}

// New builds a reward tree from def.
func New(env *engine.Env, def *domain.RewardDef) (Reward, error) {
	var build func(*domain.RewardDef) (Reward, error)
	build = func(d *domain.RewardDef) (Reward, error) {
		if d == nil || d.ID == "" {
			return nil, fmt.Errorf("reward id is required")
		}
		factory, ok := factories[d.JSONType]
		if !ok {
			return nil, fmt.Errorf("reward %s: unknown kind %q", d.ID, d.JSONType)
		}
		return factory(env, d, build)
	}
	return build(def)
}

func buildChildren(def *domain.RewardDef, build func(*domain.RewardDef) (Reward, error)) ([]Reward, error) {
	children := make([]Reward, 0, len(def.Rewards))
	for _, c := range def.Rewards {
		child, err := build(c)
		if err != nil {
			return nil, fmt.Errorf("reward %s: %w", def.ID, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// base carries identity and the given flag shared by every variant.
type base struct {
	env        *engine.Env
	id         string
	name       string
	repeatable bool
}

func (b *base) ID() string { return b.id }
func (b *base) Name() string { return b.name }

func (b *base) IsGiven() bool {
	return b.env.Flag(b.env.Keys.RewardGiven(b.id))
}

// give runs disburse unless the reward is already given and not repeatable,
// then persists the flag and publishes RewardGiven.
func (b *base) give(disburse func() bool) bool {
	if !b.repeatable && b.IsGiven() {
		return false
	}
	if !disburse() {
		return false
	}
	if err := b.env.SetFlag(b.env.Keys.RewardGiven(b.id), true); err == nil {
		b.env.Bus.RewardGiven.Publish(events.RewardGiven{RewardID: b.id})
	}
	return true
}

// take runs reverse if the reward is given, then clears the flag and
// publishes RewardTaken.
func (b *base) take(reverse func() bool) bool {
	if !b.IsGiven() {
		return false
	}
	if !reverse() {
		return false
	}
	b.clearGiven()
	return true
}

func (b *base) clearGiven() {
	if err := b.env.SetFlag(b.env.Keys.RewardGiven(b.id), false); err == nil {
		b.env.Bus.RewardTaken.Publish(events.RewardTaken{RewardID: b.id})
	}
}

func (b *base) def(kind domain.RewardKind) *domain.RewardDef {
	return &domain.RewardDef{JSONType: kind, ID: b.id, Name: b.name, Repeatable: b.repeatable}
}

// Badge has no side effect beyond its given flag.
type Badge struct {
	base
}

// NewBadge creates a badge reward.
func NewBadge(env *engine.Env, id, name string) *Badge {
	return &Badge{base: base{env: env, id: id, name: name}}
}

func (r *Badge) Kind() domain.RewardKind { return domain.RewardKindBadge }
func (r *Badge) Give() bool { return r.give(func() bool { return true }) }
func (r *Badge) Take() bool { return r.take(func() bool { return true }) }
func (r *Badge) Def() *domain.RewardDef { return r.def(domain.RewardKindBadge) }

// VirtualItem credits Amount units of ItemID when given and debits them when
// taken.
type VirtualItem struct {
	base
	itemID string
	amount int
}

// NewVirtualItem creates a virtual item reward.
func NewVirtualItem(env *engine.Env, id, name, itemID string, amount int) *VirtualItem {
	return &VirtualItem{base: base{env: env, id: id, name: name}, itemID: itemID, amount: amount}
}

func (r *VirtualItem) Kind() domain.RewardKind { return domain.RewardKindVirtualItem }
func (r *VirtualItem) ItemID() string { return r.itemID }
func (r *VirtualItem) Amount() int { return r.amount }

func (r *VirtualItem) Give() bool {
	return r.give(func() bool {
		if r.env.Inventory == nil {
			r.env.Logger.Warn("Reward disbursement without inventory", "reward_id", r.id, "item_id", r.itemID)
			return false
		}
		if err := r.env.Inventory.Credit(r.env.Context(), r.itemID, r.amount); err != nil {
			r.env.Logger.Warn("Failed to give reward",
				"reward_id", r.id,
				"item_id", r.itemID,
				"amount", r.amount,
				"error", err,
			)
			return false
		}
		return true
	})
}

func (r *VirtualItem) Take() bool {
	return r.take(func() bool {
		if r.env.Inventory == nil {
			r.env.Logger.Warn("Reward reversal without inventory", "reward_id", r.id, "item_id", r.itemID)
			return false
		}
		if err := r.env.Inventory.Debit(r.env.Context(), r.itemID, r.amount); err != nil {
			r.env.Logger.Warn("Failed to take reward",
				"reward_id", r.id,
				"item_id", r.itemID,
				"amount", r.amount,
				"error", err,
			)
			return false
		}
		return true
	})
}

func (r *VirtualItem) Def() *domain.RewardDef {
	def := r.def(domain.RewardKindVirtualItem)
	def.ItemID = r.itemID
	def.Amount = r.amount
	return def
}

func childDefs(children []Reward) []*domain.RewardDef {
	defs := make([]*domain.RewardDef, 0, len(children))
	for _, c := range children {
		defs = append(defs, c.Def())
	}
	return defs
}
