// Package score implements directional numeric counters with a persisted
// best-ever record and last-session latest value.
package score

import (
	"fmt"
	"math"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Score is a session counter. Kind selects the variant:
//   - Score: unbounded
//   - RangeScore: current value clamped to [Low, High]
//   - VirtualItemScore: the session's final value is credited to an item on save
//
// The current value is transient. The record is persisted on every strict
// improvement over the persisted record, or over the start value while no
// record exists; the latest value is persisted on save.
type Score struct {
	env *engine.Env

	id             string
	name           string
	kind           domain.ScoreKind
	higherIsBetter bool
	startValue     float64
	low, high      float64
	itemID         string

	current     float64
	reachedSent bool // ScoreRecordReached already published this session
	changedSent bool // ScoreRecordChanged already published this session
}

// New builds a score from its definition.
func New(env *engine.Env, def *domain.ScoreDef) (*Score, error) {
	if def == nil || def.ID == "" {
		return nil, fmt.Errorf("score id is required")
	}
	kind := def.JSONType
	if kind == "" {
		kind = domain.ScoreKindScore
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("score %s: unknown kind %q", def.ID, kind)
	}

	s := &Score{
		env:            env,
		id:             def.ID,
		name:           def.Name,
		kind:           kind,
		higherIsBetter: def.HigherIsBetter,
		startValue:     def.StartValue,
		low:            math.Inf(-1),
		high:           math.Inf(1),
		itemID:         def.ItemID,
	}

	switch kind {
	case domain.ScoreKindRange:
		if def.Range == nil {
			return nil, fmt.Errorf("range score %s: range is required", def.ID)
		}
		if def.Range.Low > def.Range.High {
			return nil, fmt.Errorf("range score %s: low %v is above high %v", def.ID, def.Range.Low, def.Range.High)
		}
		s.low, s.high = def.Range.Low, def.Range.High
		s.startValue = s.clamp(s.startValue)
	case domain.ScoreKindVirtualItem:
		if def.ItemID == "" {
			return nil, fmt.Errorf("virtual item score %s: associated item is required", def.ID)
		}
	}

	s.current = s.startValue
	return s, nil
}

func (s *Score) ID() string { return s.id }
func (s *Score) Name() string { return s.name }
func (s *Score) Kind() domain.ScoreKind { return s.kind }
func (s *Score) HigherIsBetter() bool { return s.higherIsBetter }
func (s *Score) StartValue() float64 { return s.startValue }

// Value returns the current session value.
func (s *Score) Value() float64 { return s.current }

// Inc adds amount to the current value.
func (s *Score) Inc(amount float64) {
	s.SetValue(s.current + amount)
}

// Dec subtracts amount from the current value.
func (s *Score) Dec(amount float64) {
	s.SetValue(s.current - amount)
}

// SetValue stores v (clamped for range scores) as the current value. If v
// beats the record, the record is written and ScoreRecordUpdated is
// published. ScoreRecordReached and ScoreRecordChanged are published at most
// once per session.
func (s *Score) SetValue(v float64) {
	v = s.clamp(v)
	s.current = v

	record, hasRecord := s.record()
	if !hasRecord {
		record = s.startValue
	}
	improved := s.better(v, record)

	if improved {
		if err := s.env.SetNumber(s.env.Keys.ScoreRecord(s.id), v); err != nil {
			return
		}
		s.env.Bus.ScoreRecordUpdated.Publish(events.ScoreRecordUpdated{ScoreID: s.id, Record: v})
	}

	if !s.reachedSent && (improved || (hasRecord && s.reached(v, record))) {
		s.reachedSent = true
		s.env.Logger.Debug("Score record reached", "score_id", s.id, "value", v)
		s.env.Bus.ScoreRecordReached.Publish(events.ScoreRecordReached{ScoreID: s.id, Value: v})
	}
	if improved && !s.changedSent {
		s.changedSent = true
		s.env.Bus.ScoreRecordChanged.Publish(events.ScoreRecordChanged{ScoreID: s.id, Record: v})
	}
}

// Record returns the persisted best-ever value, or the start value when no
// record exists yet.
func (s *Score) Record() float64 {
	if r, ok := s.record(); ok {
		return r
	}
	return s.startValue
}

// HasRecord reports whether a record has been persisted.
func (s *Score) HasRecord() bool {
	_, ok := s.record()
	return ok
}

// Latest returns the persisted last-session value, or the start value when
// no session has been saved yet.
func (s *Score) Latest() float64 {
	if v, ok := s.env.Number(s.env.Keys.ScoreLatest(s.id)); ok {
		return v
	}
	return s.startValue
}

// HasRecordReached reports whether the persisted record has reached target
// in the score's direction. A score without a record has reached nothing.
func (s *Score) HasRecordReached(target float64) bool {
	record, ok := s.record()
	if !ok {
		return false
	}
	return s.reached(record, target)
}

// HasValueReached reports whether the current value has reached target.
func (s *Score) HasValueReached(target float64) bool {
	return s.reached(s.current, target)
}

// Reset restores the start value. With save the current value is first
// persisted as latest and the variant's save action runs.
func (s *Score) Reset(save bool) {
	if save {
		if err := s.env.SetNumber(s.env.Keys.ScoreLatest(s.id), s.current); err == nil {
			s.env.Bus.LatestScoreChanged.Publish(events.LatestScoreChanged{ScoreID: s.id, Latest: s.current})
		}
		s.performSaveActions()
	}
	s.current = s.startValue
	s.reachedSent = false
	s.changedSent = false
}

// SaveAndReset is Reset(true).
func (s *Score) SaveAndReset() {
	s.Reset(true)
}

// Def returns the definition the score was built from.
func (s *Score) Def() *domain.ScoreDef {
	def := &domain.ScoreDef{
		JSONType:       s.kind,
		ID:             s.id,
		Name:           s.name,
		HigherIsBetter: s.higherIsBetter,
		StartValue:     s.startValue,
	}
	switch s.kind {
	case domain.ScoreKindRange:
		def.Range = &domain.RangeDef{Low: s.low, High: s.high}
	case domain.ScoreKindVirtualItem:
		def.ItemID = s.itemID
	}
	return def
}

func (s *Score) performSaveActions() {
	if s.kind != domain.ScoreKindVirtualItem {
		return
	}
	amount := int(s.current)
	if amount <= 0 {
		return
	}
	if s.env.Inventory == nil {
		s.env.Logger.Warn("Score save without inventory", "score_id", s.id, "item_id", s.itemID)
		return
	}
	if err := s.env.Inventory.Credit(s.env.Context(), s.itemID, amount); err != nil {
		s.env.Logger.Warn("Failed to credit score item",
			"score_id", s.id,
			"item_id", s.itemID,
			"amount", amount,
			"error", err,
		)
	}
}

func (s *Score) record() (float64, bool) {
	return s.env.Number(s.env.Keys.ScoreRecord(s.id))
}

func (s *Score) clamp(v float64) float64 {
	return math.Max(s.low, math.Min(s.high, v))
}

// reached is the directional non-strict comparison.
func (s *Score) reached(v, target float64) bool {
	if s.higherIsBetter {
		return v >= target
	}
	return v <= target
}

// better is the directional strict comparison.
func (s *Score) better(v, than float64) bool {
	if s.higherIsBetter {
		return v > than
	}
	return v < than
}
