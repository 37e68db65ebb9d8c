// Package mission implements complete-only goals. A gated mission owns one
// internal gate whose opening completes it; a challenge completes once all
// of its child missions are complete.
package mission

import (
	"fmt"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/gate"
	"github.com/AccelByte/extend-levelup-common/pkg/reward"
)

// GateIDPrefix is prepended to a mission id to name its internal gate.
const GateIDPrefix = "gate_"

// Mission is a single type for every mission kind. Gated kinds carry a gate;
// a challenge carries children instead.
type Mission struct {
	env *engine.Env

	id       string
	name     string
	kind     domain.MissionKind
	rewards  []reward.Reward
	gate     gate.Gate
	children []*Mission

	subs []*events.Subscription
}

// New builds a mission, its rewards and its internal gate or children from
// def.
func New(env *engine.Env, def *domain.MissionDef) (*Mission, error) {
	if def == nil || def.ID == "" {
		return nil, fmt.Errorf("mission id is required")
	}
	if !def.JSONType.IsValid() {
		return nil, fmt.Errorf("mission %s: unknown kind %q", def.ID, def.JSONType)
	}

	rewards := make([]reward.Reward, 0, len(def.Rewards))
	for _, rd := range def.Rewards {
		r, err := reward.New(env, rd)
		if err != nil {
			return nil, fmt.Errorf("mission %s: %w", def.ID, err)
		}
		rewards = append(rewards, r)
	}

	if def.JSONType == domain.MissionKindChallenge {
		children := make([]*Mission, 0, len(def.Missions))
		for _, cd := range def.Missions {
			child, err := New(env, cd)
			if err != nil {
				for _, c := range children {
					c.Detach()
				}
				return nil, fmt.Errorf("challenge %s: %w", def.ID, err)
			}
			children = append(children, child)
		}
		return NewChallenge(env, def.ID, def.Name, rewards, children...), nil
	}

	g, err := gate.New(env, gateDef(def))
	if err != nil {
		return nil, fmt.Errorf("mission %s: %w", def.ID, err)
	}
	return NewGated(env, def.ID, def.Name, def.JSONType, g, rewards...), nil
}

// gateDef maps a gated mission's parameters onto its internal gate.
func gateDef(def *domain.MissionDef) *domain.GateDef {
	kind, _ := def.JSONType.GateKind()
	return &domain.GateDef{
		JSONType:       kind,
		ID:             GateIDPrefix + def.ID,
		ScoreID:        def.ScoreID,
		DesiredRecord:  def.DesiredRecord,
		ItemID:         def.ItemID,
		DesiredBalance: def.DesiredBalance,
		WorldID:        def.WorldID,
		Provider:       def.Provider,
		Action:         def.Action,
	}
}

// NewGated creates a mission completed by g opening.
func NewGated(env *engine.Env, id, name string, kind domain.MissionKind, g gate.Gate, rewards ...reward.Reward) *Mission {
	m := &Mission{
		env:     env,
		id:      id,
		name:    name,
		kind:    kind,
		rewards: rewards,
		gate:    g,
	}
	m.arm()
	return m
}

// NewChallenge creates a challenge over children.
func NewChallenge(env *engine.Env, id, name string, rewards []reward.Reward, children ...*Mission) *Mission {
	m := &Mission{
		env:      env,
		id:       id,
		name:     name,
		kind:     domain.MissionKindChallenge,
		rewards:  rewards,
		children: children,
	}
	m.arm()
	return m
}

func (m *Mission) ID() string { return m.id }
func (m *Mission) Name() string { return m.name }
func (m *Mission) Kind() domain.MissionKind { return m.kind }
func (m *Mission) Gate() gate.Gate { return m.gate }
func (m *Mission) Rewards() []reward.Reward { return m.rewards }
func (m *Mission) Children() []*Mission { return m.children }
func (m *Mission) IsChallenge() bool { return m.kind == domain.MissionKindChallenge }

// IsCompleted reports completion. A challenge with children is complete when
// every child is, regardless of its own flag.
func (m *Mission) IsCompleted() bool {
	if m.IsChallenge() && len(m.children) > 0 {
		return m.childrenCompleted()
	}
	return m.flag()
}

// Complete marks the mission completed. On the first transition it gives
// every reward in order, persists the flag and publishes MissionCompleted.
// An explicit completion also lifts a previous revocation.
// A challenge refuses while any child is incomplete. It returns true if the
// mission is completed afterwards.
func (m *Mission) Complete() bool {
	if m.flag() {
		return true
	}
	if m.IsChallenge() && !m.childrenCompleted() {
		return false
	}

	for _, r := range m.rewards {
		if !r.Give() && !r.IsGiven() {
			m.env.Logger.Warn("Mission reward not given",
				"mission_id", m.id,
				"reward_id", r.ID(),
			)
		}
	}

	if err := m.env.SetFlag(m.env.Keys.MissionCompleted(m.id), true); err != nil {
		return false
	}
	if m.revoked() {
		_ = m.env.SetFlag(m.env.Keys.MissionRevoked(m.id), false)
	}
	m.disarm()
	m.env.Logger.Info("Mission completed", "mission_id", m.id, "kind", m.kind)
	m.env.Bus.MissionCompleted.Publish(events.MissionCompleted{MissionID: m.id})
	return true
}

// RevokeCompletion clears the completed flag and publishes
// MissionCompletionRevoked. Given rewards are kept. The revocation is
// persisted so Reconcile does not complete the mission again from its gate.
// It returns false if the mission was not completed.
func (m *Mission) RevokeCompletion() bool {
	if !m.flag() {
		return false
	}
	if err := m.env.SetFlag(m.env.Keys.MissionRevoked(m.id), true); err != nil {
		return false
	}
	if err := m.env.SetFlag(m.env.Keys.MissionCompleted(m.id), false); err != nil {
		return false
	}
	m.env.Logger.Info("Mission completion revoked", "mission_id", m.id)
	m.env.Bus.MissionCompletionRevoked.Publish(events.MissionCompletionRevoked{MissionID: m.id})
	m.arm()
	return true
}

// Reconcile completes the mission when persisted state shows it should
// already be complete: the gate is open, a passive gate's criterion holds, or
// every child of a challenge is complete. Children are reconciled first. A
// revoked mission stays incomplete until it is completed explicitly.
func (m *Mission) Reconcile() {
	for _, c := range m.children {
		c.Reconcile()
	}
	if m.flag() || m.revoked() {
		return
	}

	if m.IsChallenge() {
		if len(m.children) > 0 && m.childrenCompleted() {
			m.env.Logger.Info("Reconciling challenge", "mission_id", m.id)
			m.Complete()
		}
		return
	}

	if m.gate.IsOpen() || (m.gate.Kind().IsPassive() && m.gate.CanOpen() && m.gate.TryOpen()) {
		m.env.Logger.Info("Reconciling mission", "mission_id", m.id)
		m.Complete()
	}
}

// Detach removes every subscription held by the mission, its gate and its
// children.
func (m *Mission) Detach() {
	m.unsubscribe()
	if m.gate != nil {
		m.gate.Detach()
	}
	for _, c := range m.children {
		c.Detach()
	}
}

// Def returns the definition of the mission.
func (m *Mission) Def() *domain.MissionDef {
	def := &domain.MissionDef{JSONType: m.kind, ID: m.id, Name: m.name}
	for _, r := range m.rewards {
		def.Rewards = append(def.Rewards, r.Def())
	}
	for _, c := range m.children {
		def.Missions = append(def.Missions, c.Def())
	}
	if m.gate != nil {
		gd := m.gate.Def()
		def.ScoreID = gd.ScoreID
		def.DesiredRecord = gd.DesiredRecord
		def.ItemID = gd.ItemID
		def.DesiredBalance = gd.DesiredBalance
		def.WorldID = gd.WorldID
		def.Provider = gd.Provider
		def.Action = gd.Action
	}
	return def
}

func (m *Mission) flag() bool {
	return m.env.Flag(m.env.Keys.MissionCompleted(m.id))
}

func (m *Mission) revoked() bool {
	return m.env.Flag(m.env.Keys.MissionRevoked(m.id))
}

func (m *Mission) childrenCompleted() bool {
	for _, c := range m.children {
		if !c.IsCompleted() {
			return false
		}
	}
	return true
}

// arm subscribes to completion triggers. A challenge always watches child
// revocations so its own flag follows its children.
func (m *Mission) arm() {
	m.unsubscribe()
	bus := m.env.Bus

	if m.IsChallenge() {
		m.subs = append(m.subs, bus.MissionCompletionRevoked.Subscribe(func(ev events.MissionCompletionRevoked) {
			if m.hasChild(ev.MissionID) {
				m.RevokeCompletion()
			}
		}))
		if m.flag() {
			return
		}
		m.subs = append(m.subs, bus.MissionCompleted.Subscribe(func(ev events.MissionCompleted) {
			if m.hasChild(ev.MissionID) && m.childrenCompleted() {
				m.Complete()
			}
		}))
		return
	}

	if m.flag() {
		return
	}
	gateID := m.gate.ID()
	m.subs = append(m.subs,
		bus.GateCanBeOpened.Subscribe(func(ev events.GateCanBeOpened) {
			if ev.GateID == gateID && m.gate.TryOpen() {
				m.Complete()
			}
		}),
		bus.GateOpened.Subscribe(func(ev events.GateOpened) {
			if ev.GateID == gateID {
				m.Complete()
			}
		}),
	)
}

// disarm drops completion triggers once the mission is complete.
func (m *Mission) disarm() {
	if m.IsChallenge() {
		m.arm()
		return
	}
	m.unsubscribe()
}

func (m *Mission) unsubscribe() {
	for _, s := range m.subs {
		s.Unsubscribe()
	}
	m.subs = nil
}

func (m *Mission) hasChild(id string) bool {
	for _, c := range m.children {
		if c.id == id {
			return true
		}
	}
	return false
}
