package world

import (
	"time"

	"github.com/google/uuid"

	"github.com/AccelByte/extend-levelup-common/pkg/common"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// State is the session state of a level.
type State int

const (
	Idle State = iota
	Running
	Paused
	Ended
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Level is a world with a play session. Start and play counts and the
// fastest and slowest durations are persisted; the session itself is not.
type Level struct {
	*World

	state     State
	runID     string
	startedAt time.Time
	elapsed   time.Duration
}

// NewLevel creates a level.
func NewLevel(env *engine.Env, id, name string, opts ...Option) *Level {
	l := &Level{World: NewWorld(env, id, name, opts...)}
	l.World.level = l
	return l
}

func (l *Level) State() State { return l.state }

// RunID identifies the current or last session.
func (l *Level) RunID() string { return l.runID }

func (l *Level) TimesStarted() int {
	return l.env.Count(l.env.Keys.LevelStarted(l.id), 0)
}

func (l *Level) TimesPlayed() int {
	return l.env.Count(l.env.Keys.LevelPlayed(l.id), 0)
}

// Fastest returns the shortest recorded session.
func (l *Level) Fastest() (time.Duration, bool) {
	return l.duration(l.env.Keys.LevelFastest(l.id))
}

// Slowest returns the longest recorded session.
func (l *Level) Slowest() (time.Duration, bool) {
	return l.duration(l.env.Keys.LevelSlowest(l.id))
}

// PlayDuration returns the time played in the current session, excluding
// pauses. After End it returns the length of the ended session.
func (l *Level) PlayDuration() time.Duration {
	if l.state == Running {
		return l.elapsed + l.env.Now().Sub(l.startedAt)
	}
	return l.elapsed
}

// Start begins a session. It fails with ErrLevelNotStartable while the gate
// is closed. Starting a level that is already in a session is a no-op.
func (l *Level) Start() error {
	if l.state == Running || l.state == Paused {
		return nil
	}
	if !l.CanStart() {
		err := errors.ErrLevelNotStartable(l.id)
		l.env.Logger.Warn("Level start rejected", "level_id", l.id, "error", err)
		return err
	}

	if err := l.env.SetCount(l.env.Keys.LevelStarted(l.id), l.TimesStarted()+1); err != nil {
		return err
	}
	l.state = Running
	l.runID = uuid.NewString()
	l.startedAt = l.env.Now()
	l.elapsed = 0

	l.env.Logger.Info("Level started", "level_id", l.id, "run_id", l.runID)
	l.env.Bus.LevelStarted.Publish(events.LevelStarted{LevelID: l.id, RunID: l.runID})
	return nil
}

// Pause stops the session clock.
func (l *Level) Pause() bool {
	if l.state != Running {
		return false
	}
	l.elapsed += l.env.Now().Sub(l.startedAt)
	l.state = Paused
	return true
}

// Resume restarts the session clock after Pause.
func (l *Level) Resume() bool {
	if l.state != Paused {
		return false
	}
	l.startedAt = l.env.Now()
	l.state = Running
	return true
}

// End closes the session: the play count and duration extremes are
// persisted, every score is saved and reset, and with completed set the
// level and its inner worlds are marked completed. It returns false if no
// session is in progress.
func (l *Level) End(completed bool) bool {
	if l.state != Running && l.state != Paused {
		return false
	}
	d := l.PlayDuration()
	l.elapsed = d

	keys := l.env.Keys
	if err := l.env.SetCount(keys.LevelPlayed(l.id), l.TimesPlayed()+1); err != nil {
		l.env.Logger.Error("Failed to count level play", "level_id", l.id, "error", err)
	}
	if fastest, ok := l.Fastest(); !ok || d < fastest {
		l.env.SetNumber(keys.LevelFastest(l.id), common.DurationToMillis(d))
	}
	if slowest, ok := l.Slowest(); !ok || d > slowest {
		l.env.SetNumber(keys.LevelSlowest(l.id), common.DurationToMillis(d))
	}

	for _, s := range l.scores {
		s.SaveAndReset()
	}

	l.state = Ended
	if completed {
		l.state = Completed
		l.SetCompleted(true, true)
	}

	l.env.Logger.Info("Level ended",
		"level_id", l.id,
		"run_id", l.runID,
		"duration", d,
		"completed", completed,
	)
	l.env.Bus.LevelEnded.Publish(events.LevelEnded{
		LevelID:   l.id,
		RunID:     l.runID,
		Duration:  d,
		Completed: completed,
	})
	return true
}

// Restart ends the session in progress, if any, and starts a new one.
func (l *Level) Restart(completed bool) error {
	l.End(completed)
	return l.Start()
}

func (l *Level) duration(key string) (time.Duration, bool) {
	ms, ok := l.env.Number(key)
	if !ok {
		return 0, false
	}
	return common.MillisToDuration(ms), true
}
