// Package gate implements one-way unlock latches. Atomic gates evaluate a
// single criterion against live state; lists combine child gates with AND
// or OR.
//
// A gate's open state lives in the flag store and is never cached. Passive
// gates (record, balance, world completion, schedule) watch the bus while
// closed and publish GateCanBeOpened once their criterion holds; opening
// always requires an explicit TryOpen because opening may have side effects.
package gate

import (
	"fmt"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Gate is the contract shared by every variant.
type Gate interface {
	ID() string
	Kind() domain.GateKind

	// IsOpen reports whether the gate is open. Atomic gates read their
	// persisted flag; lists recompute from their children.
	IsOpen() bool

	// CanOpen evaluates the criterion without side effects.
	CanOpen() bool

	// TryOpen opens the gate if its criterion holds, running any side
	// effect first. It returns true if the gate is open afterwards.
	TryOpen() bool

	// Detach removes every bus subscription the gate holds.
	Detach()

	Def() *domain.GateDef
}

// Factory builds a gate of one kind. build is used for child gates.
type Factory func(env *engine.Env, def *domain.GateDef, build func(*domain.GateDef) (Gate, error)) (Gate, error)

var factories = map[domain.GateKind]Factory{
	domain.GateKindRecord: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		if def.ScoreID == "" {
			return nil, fmt.Errorf("record gate %s: associated score is required", def.ID)
		}
		return NewRecordGate(env, def.ID, def.ScoreID, def.DesiredRecord), nil
	},
	domain.GateKindBalance: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		if def.ItemID == "" {
			return nil, fmt.Errorf("balance gate %s: associated item is required", def.ID)
		}
		g := NewBalanceGate(env, def.ID, def.ItemID, def.DesiredBalance)
		g.Consume = def.Consume
		return g, nil
	},
	domain.GateKindPurchasable: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		if def.ItemID == "" {
			return nil, fmt.Errorf("purchasable gate %s: associated item is required", def.ID)
		}
		return NewPurchasableGate(env, def.ID, def.ItemID), nil
	},
	domain.GateKindWorldCompletion: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		if def.WorldID == "" {
			return nil, fmt.Errorf("world completion gate %s: associated world is required", def.ID)
		}
		return NewWorldCompletionGate(env, def.ID, def.WorldID), nil
	},
	domain.GateKindSchedule: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		return NewScheduleGate(env, def.ID, def.Schedule)
	},
	domain.GateKindSocialAction: func(env *engine.Env, def *domain.GateDef, _ func(*domain.GateDef) (Gate, error)) (Gate, error) {
		if def.Provider == "" || def.Action == "" {
			return nil, fmt.Errorf("social action gate %s: provider and action are required", def.ID)
		}
		return NewSocialActionGate(env, def.ID, def.Provider, def.Action), nil
	},
	domain.GateKindListAND: func(env *engine.Env, def *domain.GateDef, build func(*domain.GateDef) (Gate, error)) (Gate, error) {
		children, err := buildChildren(def, build)
		if err != nil {
			return nil, err
		}
		return NewList(env, def.ID, ModeAND, children...), nil
	},
	domain.GateKindListOR: func(env *engine.Env, def *domain.GateDef, build func(*domain.GateDef) (Gate, error)) (Gate, error) {
		children, err := buildChildren(def, build)
		if err != nil {
			return nil, err
		}
		return NewList(env, def.ID, ModeOR, children...), nil
	},
}

// New builds a gate tree from def through the closed factory table.
func New(env *engine.Env, def *domain.GateDef) (Gate, error) {
	var build func(*domain.GateDef) (Gate, error)
	build = func(d *domain.GateDef) (Gate, error) {
		if d == nil || d.ID == "" {
			return nil, fmt.Errorf("gate id is required")
		}
		factory, ok := factories[d.JSONType]
		if !ok {
			return nil, fmt.Errorf("gate %s: unknown kind %q", d.ID, d.JSONType)
		}
		return factory(env, d, build)
	}
	return build(def)
}

func buildChildren(def *domain.GateDef, build func(*domain.GateDef) (Gate, error)) ([]Gate, error) {
	children := make([]Gate, 0, len(def.Gates))
	for _, c := range def.Gates {
		child, err := build(c)
		if err != nil {
			for _, built := range children {
				built.Detach()
			}
			return nil, fmt.Errorf("gate %s: %w", def.ID, err)
		}
		children = append(children, child)
	}
	return children, nil
}

// base carries identity, the persisted open flag and bus subscriptions.
type base struct {
	env  *engine.Env
	id   string
	kind domain.GateKind
	subs []*events.Subscription
}

func (b *base) ID() string { return b.id }
func (b *base) Kind() domain.GateKind { return b.kind }

// IsOpen reads the persisted flag.
func (b *base) IsOpen() bool {
	return b.env.Flag(b.env.Keys.GateOpen(b.id))
}

// Detach implements Gate.
func (b *base) Detach() {
	for _, s := range b.subs {
		s.Unsubscribe()
	}
	b.subs = nil
}

// tryOpen is the shared TryOpen flow: sticky open, criterion, side effect,
// persist, publish.
func (b *base) tryOpen(canOpen func() bool, sideEffect func() bool) bool {
	if b.IsOpen() {
		return true
	}
	if !canOpen() {
		return false
	}
	if sideEffect != nil && !sideEffect() {
		return false
	}
	return b.forceOpen()
}

// forceOpen persists the open flag and publishes GateOpened.
func (b *base) forceOpen() bool {
	if b.IsOpen() {
		return true
	}
	if err := b.env.SetFlag(b.env.Keys.GateOpen(b.id), true); err != nil {
		return false
	}
	b.Detach()
	b.env.Logger.Info("Gate opened", "gate_id", b.id, "kind", b.kind)
	b.env.Bus.GateOpened.Publish(events.GateOpened{GateID: b.id})
	return true
}

// watch subscribes a passive gate while it is closed. subscribe registers
// the bus handlers and calls check whenever relevant state changes.
func (b *base) watch(canOpen func() bool, subscribe func(check func()) []*events.Subscription) {
	if b.IsOpen() {
		return
	}
	check := func() {
		if b.IsOpen() {
			b.Detach()
			return
		}
		if !canOpen() {
			return
		}
		b.Detach()
		b.env.Logger.Debug("Gate can be opened", "gate_id", b.id, "kind", b.kind)
		b.env.Bus.GateCanBeOpened.Publish(events.GateCanBeOpened{GateID: b.id})
	}
	b.subs = subscribe(check)
}

func (b *base) def() *domain.GateDef {
	return &domain.GateDef{JSONType: b.kind, ID: b.id}
}
