package score

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/economy"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
)

func newEnv(store storage.FlagStore) *engine.Env {
	if store == nil {
		store = storage.NewInMemoryFlagStore()
	}
	return engine.NewEnv(store, storage.NewKeys(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func rangeScore(t *testing.T, env *engine.Env) *Score {
	t.Helper()
	s, err := New(env, &domain.ScoreDef{
		JSONType:       domain.ScoreKindRange,
		ID:             "score1",
		HigherIsBetter: true,
		Range:          &domain.RangeDef{Low: 0, High: 100},
	})
	require.NoError(t, err)
	return s
}

func TestScore_HundredIncrementsReachRecordOnce(t *testing.T) {
	env := newEnv(nil)
	s := rangeScore(t, env)

	var reached []events.ScoreRecordReached
	env.Bus.ScoreRecordReached.Subscribe(func(ev events.ScoreRecordReached) { reached = append(reached, ev) })
	var changed []events.ScoreRecordChanged
	env.Bus.ScoreRecordChanged.Subscribe(func(ev events.ScoreRecordChanged) { changed = append(changed, ev) })
	var updated int
	env.Bus.ScoreRecordUpdated.Subscribe(func(events.ScoreRecordUpdated) { updated++ })

	for i := 0; i < 100; i++ {
		s.Inc(1)
	}

	assert.Equal(t, 100.0, s.Value())
	assert.Equal(t, 100.0, s.Record())
	assert.Len(t, reached, 1, "record reached must fire exactly once per session")
	require.Len(t, changed, 1, "record changed must fire exactly once per session")
	assert.Equal(t, 1.0, changed[0].Record)
	assert.Equal(t, 100, updated, "every improvement is persisted")

	for i := 0; i < 10; i++ {
		s.Inc(1)
	}

	assert.Equal(t, 100.0, s.Value(), "range score saturates at high")
	assert.Equal(t, 100, updated, "no record write after saturation")
	assert.Len(t, changed, 1)
	assert.Len(t, reached, 1)
}

func TestScore_RecordEventsAgainstStoredRecord(t *testing.T) {
	store := storage.NewInMemoryFlagStore()
	def := &domain.ScoreDef{ID: "s", HigherIsBetter: true}

	first, err := New(newEnv(store), def)
	require.NoError(t, err)
	first.SetValue(10)

	env := newEnv(store)
	s, err := New(env, def)
	require.NoError(t, err)

	var reached, changed, updated int
	env.Bus.ScoreRecordReached.Subscribe(func(events.ScoreRecordReached) { reached++ })
	env.Bus.ScoreRecordChanged.Subscribe(func(events.ScoreRecordChanged) { changed++ })
	env.Bus.ScoreRecordUpdated.Subscribe(func(events.ScoreRecordUpdated) { updated++ })

	tests := []struct {
		value                     float64
		reached, changed, updated int
	}{
		{9, 0, 0, 0},
		{10, 1, 0, 0},
		{11, 1, 1, 1},
		{12, 1, 1, 2},
		{5, 1, 1, 2},
	}
	for _, tt := range tests {
		s.SetValue(tt.value)
		assert.Equal(t, tt.reached, reached, "reached after %v", tt.value)
		assert.Equal(t, tt.changed, changed, "changed after %v", tt.value)
		assert.Equal(t, tt.updated, updated, "updated after %v", tt.value)
	}
	assert.Equal(t, 12.0, s.Record())

	s.Reset(false)
	s.SetValue(13)
	assert.Equal(t, 2, reached, "reset re-arms record reached")
	assert.Equal(t, 2, changed, "reset re-arms record changed")
}

func TestScore_NoRecordBelowStartValue(t *testing.T) {
	tests := []struct {
		name           string
		higherIsBetter bool
		move           func(s *Score)
		improve        float64
	}{
		{"higher is better moving down", true, func(s *Score) { s.Dec(7) }, 11},
		{"lower is better moving up", false, func(s *Score) { s.Inc(5) }, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(nil)
			s, err := New(env, &domain.ScoreDef{ID: "s", HigherIsBetter: tt.higherIsBetter, StartValue: 10})
			require.NoError(t, err)

			var fired int
			env.Bus.ScoreRecordReached.Subscribe(func(events.ScoreRecordReached) { fired++ })
			env.Bus.ScoreRecordChanged.Subscribe(func(events.ScoreRecordChanged) { fired++ })
			env.Bus.ScoreRecordUpdated.Subscribe(func(events.ScoreRecordUpdated) { fired++ })

			tt.move(s)
			assert.False(t, s.HasRecord(), "a worse value is not a record")
			assert.Equal(t, 10.0, s.Record())
			assert.Zero(t, fired)

			s.SetValue(tt.improve)
			assert.True(t, s.HasRecord())
			assert.Equal(t, tt.improve, s.Record())
			assert.Equal(t, 3, fired)
		})
	}
}

func TestScore_RecordMonotonicity(t *testing.T) {
	tests := []struct {
		name           string
		higherIsBetter bool
		startValue     float64
		values         []float64
	}{
		{"higher is better", true, 0, []float64{5, 3, 8, 8, 2, 10, 1}},
		{"lower is better", false, 100, []float64{50, 60, 40, 40, 45, 10, 90}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(nil)
			s, err := New(env, &domain.ScoreDef{ID: "s", HigherIsBetter: tt.higherIsBetter, StartValue: tt.startValue})
			require.NoError(t, err)

			var records []float64
			for _, v := range tt.values {
				s.SetValue(v)
				records = append(records, s.Record())
			}

			for i := 1; i < len(records); i++ {
				if tt.higherIsBetter {
					assert.GreaterOrEqual(t, records[i], records[i-1])
				} else {
					assert.LessOrEqual(t, records[i], records[i-1])
				}
			}
		})
	}
}

func TestScore_LowerIsBetterReached(t *testing.T) {
	env := newEnv(nil)
	s, err := New(env, &domain.ScoreDef{ID: "time", StartValue: 100})
	require.NoError(t, err)

	assert.False(t, s.HasRecordReached(60), "no record yet")

	s.SetValue(70)
	assert.False(t, s.HasRecordReached(60))
	s.Dec(15)
	assert.True(t, s.HasRecordReached(60))
	assert.True(t, s.HasValueReached(55))
	assert.False(t, s.HasValueReached(50))
}

func TestScore_ResetSavesLatestAndRearmsRecordReached(t *testing.T) {
	env := newEnv(nil)
	s, err := New(env, &domain.ScoreDef{ID: "s", HigherIsBetter: true, StartValue: 1})
	require.NoError(t, err)

	var reached, latest int
	env.Bus.ScoreRecordReached.Subscribe(func(events.ScoreRecordReached) { reached++ })
	env.Bus.LatestScoreChanged.Subscribe(func(events.LatestScoreChanged) { latest++ })

	assert.Equal(t, 1.0, s.Latest(), "latest defaults to start value")

	s.SetValue(5)
	s.SaveAndReset()

	assert.Equal(t, 1.0, s.Value())
	assert.Equal(t, 5.0, s.Latest())
	assert.Equal(t, 1, latest)

	s.SetValue(7)
	assert.Equal(t, 2, reached, "a new session can reach the record again")

	s.Reset(false)
	assert.Equal(t, 5.0, s.Latest(), "reset without save keeps latest")
	assert.Equal(t, 7.0, s.Record())
}

func TestScore_StateSurvivesRebuild(t *testing.T) {
	store := storage.NewInMemoryFlagStore()
	def := &domain.ScoreDef{ID: "s", HigherIsBetter: true}

	first, err := New(newEnv(store), def)
	require.NoError(t, err)
	first.SetValue(42)
	first.SaveAndReset()

	second, err := New(newEnv(store), def)
	require.NoError(t, err)

	assert.Equal(t, 0.0, second.Value(), "current value is transient")
	assert.Equal(t, 42.0, second.Record())
	assert.Equal(t, 42.0, second.Latest())
	assert.True(t, second.HasRecord())
}

func TestVirtualItemScore_CreditsOnSave(t *testing.T) {
	env := newEnv(nil)
	inv := economy.NewMockInventory()
	inv.On("Credit", mock.Anything, "coins", 12).Return(nil).Once()
	env.Inventory = inv

	s, err := New(env, &domain.ScoreDef{JSONType: domain.ScoreKindVirtualItem, ID: "coins_collected", HigherIsBetter: true, ItemID: "coins"})
	require.NoError(t, err)

	s.Inc(12.7)
	s.SaveAndReset()

	s.Reset(true) // zero value: nothing to credit

	inv.AssertExpectations(t)
}

func TestNew_InvalidDefinitions(t *testing.T) {
	env := newEnv(nil)

	tests := []struct {
		name string
		def  *domain.ScoreDef
	}{
		{"nil", nil},
		{"missing id", &domain.ScoreDef{}},
		{"unknown kind", &domain.ScoreDef{ID: "s", JSONType: "Counter"}},
		{"range without bounds", &domain.ScoreDef{ID: "s", JSONType: domain.ScoreKindRange}},
		{"inverted range", &domain.ScoreDef{ID: "s", JSONType: domain.ScoreKindRange, Range: &domain.RangeDef{Low: 5, High: 1}}},
		{"virtual item without item", &domain.ScoreDef{ID: "s", JSONType: domain.ScoreKindVirtualItem}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(env, tt.def)
			assert.Error(t, err)
		})
	}
}

func TestScore_Def(t *testing.T) {
	env := newEnv(nil)
	def := &domain.ScoreDef{
		JSONType:       domain.ScoreKindRange,
		ID:             "r",
		Name:           "Range",
		HigherIsBetter: true,
		StartValue:     3,
		Range:          &domain.RangeDef{Low: 1, High: 9},
	}
	s, err := New(env, def)
	require.NoError(t, err)

	assert.Equal(t, def, s.Def())
}
