package config

import (
	stderrors "errors"
	"fmt"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/mission"
)

// Validator checks a decoded document for problems the decoder cannot see
// element by element: duplicate ids and references to ids that do not
// exist. Findings are warnings; lookups on duplicates resolve to the first
// match and dangling references fail closed at runtime.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns one warning per finding, in document order.
func (v *Validator) Validate(doc *domain.Document) []error {
	c := &collector{
		ids: map[string]map[string]bool{
			"world":   {},
			"score":   {},
			"gate":    {},
			"mission": {},
			"reward":  {},
		},
	}

	if len(doc.Worlds) == 0 {
		c.warn("worlds", "document has no worlds")
	}
	for _, w := range doc.Worlds {
		c.world(w)
	}
	for _, r := range doc.Rewards {
		c.reward(r)
	}

	for _, ref := range c.refs {
		if !c.ids[ref.family][ref.id] {
			c.warn(ref.from, fmt.Sprintf("%s %q does not exist", ref.family, ref.id))
		}
	}
	return c.warnings
}

// Err joins the warnings of Validate into one error, or nil.
func (v *Validator) Err(doc *domain.Document) error {
	return stderrors.Join(v.Validate(doc)...)
}

type reference struct {
	from   string
	family string
	id     string
}

type collector struct {
	ids      map[string]map[string]bool
	refs     []reference
	warnings []error
}

func (c *collector) warn(field, reason string) {
	c.warnings = append(c.warnings, errors.ErrValidationFailed(field, reason))
}

func (c *collector) declare(family, id string) {
	if c.ids[family][id] {
		c.warn(family+" "+id, "duplicate id")
		return
	}
	c.ids[family][id] = true
}

func (c *collector) refer(from, family, id string) {
	c.refs = append(c.refs, reference{from: from, family: family, id: id})
}

func (c *collector) world(w *domain.WorldDef) {
	c.declare("world", w.ID)
	if w.Gate != nil {
		c.gate(w.Gate)
	}
	for _, s := range w.Scores {
		c.declare("score", s.ID)
		if s.Range != nil && s.Range.Low > s.Range.High {
			c.warn("score "+s.ID, "range low is above high")
		}
	}
	for _, m := range w.Missions {
		c.mission(m)
	}
	for _, inner := range w.Worlds {
		c.world(inner)
	}
}

func (c *collector) gate(g *domain.GateDef) {
	c.declare("gate", g.ID)
	from := "gate " + g.ID
	switch g.JSONType {
	case domain.GateKindRecord:
		c.refer(from, "score", g.ScoreID)
	case domain.GateKindWorldCompletion:
		c.refer(from, "world", g.WorldID)
	case domain.GateKindListAND, domain.GateKindListOR:
		if len(g.Gates) == 0 {
			c.warn(from, "gate list has no gates")
		}
		for _, child := range g.Gates {
			c.gate(child)
		}
	}
}

func (c *collector) mission(m *domain.MissionDef) {
	c.declare("mission", m.ID)
	from := "mission " + m.ID
	if _, gated := m.JSONType.GateKind(); gated {
		c.declare("gate", mission.GateIDPrefix+m.ID)
	}
	switch m.JSONType {
	case domain.MissionKindRecord:
		c.refer(from, "score", m.ScoreID)
	case domain.MissionKindWorldCompletion:
		c.refer(from, "world", m.WorldID)
	case domain.MissionKindChallenge:
		if len(m.Missions) == 0 {
			c.warn(from, "challenge has no missions")
		}
		for _, child := range m.Missions {
			c.mission(child)
		}
	}
	for _, r := range m.Rewards {
		c.reward(r)
	}
}

func (c *collector) reward(r *domain.RewardDef) {
	c.declare("reward", r.ID)
	if r.JSONType == domain.RewardKindVirtualItem && r.Amount <= 0 {
		c.warn("reward "+r.ID, "amount must be positive")
	}
	for _, child := range r.Rewards {
		c.reward(child)
	}
}
