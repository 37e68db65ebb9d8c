package gate

import (
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Mode is the composition rule of a List.
type Mode int

const (
	// ModeAND requires every child to be open.
	ModeAND Mode = iota
	// ModeOR requires at least one child to be open.
	ModeOR
)

// List combines child gates. It has no persisted flag: IsOpen is recomputed
// from the children on every call, in insertion order. GateOpened is
// published for the list when a child opening makes it open.
type List struct {
	env       *engine.Env
	id        string
	mode      Mode
	children  []Gate
	announced bool
	sub       *events.Subscription
}

// NewList creates a list over children.
func NewList(env *engine.Env, id string, mode Mode, children ...Gate) *List {
	l := &List{
		env:      env,
		id:       id,
		mode:     mode,
		children: children,
	}
	l.announced = l.IsOpen()
	if !l.announced {
		l.sub = env.Bus.GateOpened.Subscribe(l.onGateOpened)
	}
	return l
}

func (l *List) ID() string { return l.id }

func (l *List) Kind() domain.GateKind {
	if l.mode == ModeOR {
		return domain.GateKindListOR
	}
	return domain.GateKindListAND
}

// Mode returns the composition rule.
func (l *List) Mode() Mode { return l.mode }

// Children returns the ordered children.
func (l *List) Children() []Gate { return l.children }

// IsOpen implements Gate. An empty AND list is open; an empty OR list is
// not.
func (l *List) IsOpen() bool {
	if l.mode == ModeOR {
		for _, c := range l.children {
			if c.IsOpen() {
				return true
			}
		}
		return false
	}
	for _, c := range l.children {
		if !c.IsOpen() {
			return false
		}
	}
	return true
}

// CanOpen implements Gate. For a list it is the same pure composition over
// the children's open state.
func (l *List) CanOpen() bool {
	return l.IsOpen()
}

// TryOpen tries every still-closed child, then reports the composed state.
func (l *List) TryOpen() bool {
	for _, c := range l.children {
		if !c.IsOpen() {
			c.TryOpen()
		}
	}
	return l.IsOpen()
}

// Detach implements Gate, detaching the children as well.
func (l *List) Detach() {
	l.sub.Unsubscribe()
	l.sub = nil
	for _, c := range l.children {
		c.Detach()
	}
}

func (l *List) Def() *domain.GateDef {
	def := &domain.GateDef{JSONType: l.Kind(), ID: l.id}
	for _, c := range l.children {
		def.Gates = append(def.Gates, c.Def())
	}
	return def
}

func (l *List) onGateOpened(ev events.GateOpened) {
	if l.announced || !l.hasChild(ev.GateID) || !l.IsOpen() {
		return
	}
	l.announced = true
	l.sub.Unsubscribe()
	l.sub = nil
	l.env.Logger.Info("Gate opened", "gate_id", l.id, "kind", l.Kind())
	l.env.Bus.GateOpened.Publish(events.GateOpened{GateID: l.id})
}

func (l *List) hasChild(id string) bool {
	for _, c := range l.children {
		if c.ID() == id {
			return true
		}
	}
	return false
}
