package world

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/gate"
	"github.com/AccelByte/extend-levelup-common/pkg/score"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
)

type scoreIndex map[string]*score.Score

func (h scoreIndex) ScoreRecordReached(scoreID string, record float64) (bool, bool) {
	s, ok := h[scoreID]
	if !ok {
		return false, false
	}
	return s.HasRecordReached(record), true
}

func (h scoreIndex) WorldCompleted(string) (bool, bool) { return false, false }

// A level gated by a record gate can start only after the gate opens.
func TestLevel_GatedByRecord(t *testing.T) {
	env := newEnv(nil)
	s1 := newScore(t, env, "score1")
	env.Hierarchy = scoreIndex{"score1": s1}

	g := gate.NewRecordGate(env, "lvl2-gate", "score1", 100)
	lvl := NewLevel(env, "lvl2", "", WithGate(g))

	for i := 0; i < 99; i++ {
		s1.Inc(1)
	}
	assert.False(t, lvl.CanStart())
	err := lvl.Start()
	assert.True(t, errors.HasCode(err, errors.ErrCodeLevelNotStartable))
	assert.Equal(t, Idle, lvl.State())

	s1.Inc(1)
	assert.False(t, lvl.CanStart(), "the gate still has to be opened")
	require.True(t, g.TryOpen())
	assert.True(t, lvl.CanStart())
	require.NoError(t, lvl.Start())
	assert.Equal(t, Running, lvl.State())
}

func TestLevel_Session(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	env := newEnv(nil)
	env.Clock = func() time.Time { return now }

	points := newScore(t, env, "points")
	inner := NewWorld(env, "bonus", "")
	lvl := NewLevel(env, "lvl1", "", WithScores(points), WithWorlds(inner))

	var started []events.LevelStarted
	var ended []events.LevelEnded
	env.Bus.LevelStarted.Subscribe(func(ev events.LevelStarted) { started = append(started, ev) })
	env.Bus.LevelEnded.Subscribe(func(ev events.LevelEnded) { ended = append(ended, ev) })

	assert.False(t, lvl.End(true), "no session to end")

	require.NoError(t, lvl.Start())
	require.NoError(t, lvl.Start(), "starting a running level is a no-op")
	assert.Equal(t, 1, lvl.TimesStarted())
	require.Len(t, started, 1)
	assert.NotEmpty(t, started[0].RunID)

	now = now.Add(10 * time.Second)
	assert.True(t, lvl.Pause())
	assert.False(t, lvl.Pause())
	now = now.Add(time.Hour)
	assert.Equal(t, 10*time.Second, lvl.PlayDuration(), "paused time is not counted")
	assert.True(t, lvl.Resume())
	now = now.Add(5 * time.Second)
	assert.Equal(t, 15*time.Second, lvl.PlayDuration())

	points.Inc(30)
	assert.True(t, lvl.End(true))
	assert.Equal(t, Completed, lvl.State())
	assert.Equal(t, 1, lvl.TimesPlayed())
	assert.True(t, lvl.IsCompleted())
	assert.True(t, inner.IsCompleted(), "completion cascades to inner worlds")
	assert.Equal(t, 0.0, points.Value())
	assert.Equal(t, 30.0, points.Latest())

	require.Len(t, ended, 1)
	assert.Equal(t, events.LevelEnded{LevelID: "lvl1", RunID: started[0].RunID, Duration: 15 * time.Second, Completed: true}, ended[0])

	fastest, ok := lvl.Fastest()
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, fastest)
	slowest, ok := lvl.Slowest()
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, slowest)
}

func TestLevel_DurationExtremes(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	env := newEnv(nil)
	env.Clock = func() time.Time { return now }
	lvl := NewLevel(env, "lvl1", "")

	play := func(d time.Duration) {
		require.NoError(t, lvl.Start())
		now = now.Add(d)
		require.True(t, lvl.End(false))
	}

	play(20 * time.Second)
	play(5 * time.Second)
	play(40 * time.Second)
	play(10 * time.Second)

	fastest, _ := lvl.Fastest()
	slowest, _ := lvl.Slowest()
	assert.Equal(t, 5*time.Second, fastest)
	assert.Equal(t, 40*time.Second, slowest)
	assert.Equal(t, 4, lvl.TimesPlayed())
	assert.Equal(t, Ended, lvl.State())
	assert.False(t, lvl.IsCompleted())
}

func TestLevel_Restart(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	env := newEnv(nil)
	env.Clock = func() time.Time { return now }
	lvl := NewLevel(env, "lvl1", "")

	require.NoError(t, lvl.Start())
	first := lvl.RunID()
	now = now.Add(time.Second)

	require.NoError(t, lvl.Restart(false))
	assert.Equal(t, Running, lvl.State())
	assert.NotEqual(t, first, lvl.RunID())
	assert.Equal(t, 2, lvl.TimesStarted())
	assert.Equal(t, 1, lvl.TimesPlayed())
	assert.Equal(t, time.Duration(0), lvl.PlayDuration())
}

func TestLevel_StatisticsSurviveRebuild(t *testing.T) {
	now := time.Date(2025, 10, 17, 12, 0, 0, 0, time.UTC)
	store := storage.NewInMemoryFlagStore()

	env := newEnv(store)
	env.Clock = func() time.Time { return now }
	lvl := NewLevel(env, "lvl1", "")
	require.NoError(t, lvl.Start())
	now = now.Add(1500 * time.Millisecond)
	require.True(t, lvl.End(true))

	rebuilt := NewLevel(newEnv(store), "lvl1", "")
	assert.Equal(t, 1, rebuilt.TimesStarted())
	assert.Equal(t, 1, rebuilt.TimesPlayed())
	assert.True(t, rebuilt.IsCompleted())
	fastest, ok := rebuilt.Fastest()
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, fastest)
	assert.Equal(t, Idle, rebuilt.State())
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle, "idle"},
		{Running, "running"},
		{Paused, "paused"},
		{Ended, "ended"},
		{Completed, "completed"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
