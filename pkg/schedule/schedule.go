// Package schedule decides whether a point in time falls inside a
// configured availability window: explicit time ranges and/or a recurring
// cron window.
package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AccelByte/extend-levelup-common/pkg/common"
	"github.com/AccelByte/extend-levelup-common/pkg/domain"
)

// DefaultWindow is how long a cron firing stays approved when the
// definition does not say, matching cron's one-minute resolution.
const DefaultWindow = time.Minute

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule is an immutable, parsed ScheduleDef.
type Schedule struct {
	ranges []domain.TimeRange
	expr   string
	cron   cron.Schedule
	window time.Duration
}

// New parses def. A nil def yields a schedule that always approves.
func New(def *domain.ScheduleDef) (*Schedule, error) {
	s := &Schedule{window: DefaultWindow}
	if def == nil {
		return s, nil
	}

	for i, r := range def.Ranges {
		if !r.End.After(r.Start) {
			return nil, fmt.Errorf("range %d: end %s is not after start %s", i, r.End, r.Start)
		}
	}
	s.ranges = append(s.ranges, def.Ranges...)

	if def.Cron != "" {
		sched, err := parser.Parse(def.Cron)
		if err != nil {
			return nil, fmt.Errorf("parse cron %q: %w", def.Cron, err)
		}
		s.expr = def.Cron
		s.cron = sched
	}
	if def.WindowMillis > 0 {
		s.window = common.MillisToDuration(def.WindowMillis)
	}
	return s, nil
}

// Approve reports whether now is inside the schedule.
func (s *Schedule) Approve(now time.Time) bool {
	if len(s.ranges) == 0 && s.cron == nil {
		return true
	}
	for _, r := range s.ranges {
		if r.Contains(now) {
			return true
		}
	}
	if s.cron != nil {
		// A firing in (now-window, now] keeps the window open.
		fired := s.cron.Next(now.Add(-s.window))
		if !fired.After(now) {
			return true
		}
	}
	return false
}

// NextOpening returns the earliest time after now at which an approval
// window starts. ok is false when no future window exists.
func (s *Schedule) NextOpening(now time.Time) (next time.Time, ok bool) {
	for _, r := range s.ranges {
		if r.Start.After(now) && (!ok || r.Start.Before(next)) {
			next, ok = r.Start, true
		}
	}
	if s.cron != nil {
		fire := s.cron.Next(now)
		if !fire.IsZero() && (!ok || fire.Before(next)) {
			next, ok = fire, true
		}
	}
	return next, ok
}

// Def returns the definition the schedule was parsed from.
func (s *Schedule) Def() *domain.ScheduleDef {
	if len(s.ranges) == 0 && s.cron == nil {
		return nil
	}
	def := &domain.ScheduleDef{
		Ranges: append([]domain.TimeRange(nil), s.ranges...),
		Cron:   s.expr,
	}
	if s.cron != nil && s.window != DefaultWindow {
		def.WindowMillis = common.DurationToMillis(s.window)
	}
	return def
}
