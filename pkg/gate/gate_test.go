package gate

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/economy"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/errors"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/score"
	"github.com/AccelByte/extend-levelup-common/pkg/social"
	"github.com/AccelByte/extend-levelup-common/pkg/storage"
)

// scoreIndex resolves scores by id for record gates.
type scoreIndex struct {
	scores map[string]*score.Score
	worlds map[string]bool
}

func (h *scoreIndex) ScoreRecordReached(scoreID string, record float64) (bool, bool) {
	s, ok := h.scores[scoreID]
	if !ok {
		return false, false
	}
	return s.HasRecordReached(record), true
}

func (h *scoreIndex) WorldCompleted(worldID string) (bool, bool) {
	c, ok := h.worlds[worldID]
	return c, ok
}

func newEnv(store storage.FlagStore) (*engine.Env, *scoreIndex) {
	if store == nil {
		store = storage.NewInMemoryFlagStore()
	}
	env := engine.NewEnv(store, storage.NewKeys(""), slog.New(slog.NewTextHandler(io.Discard, nil)))
	idx := &scoreIndex{scores: map[string]*score.Score{}, worlds: map[string]bool{}}
	env.Hierarchy = idx
	return env, idx
}

func countHints(env *engine.Env, gateID string) *int {
	var n int
	env.Bus.GateCanBeOpened.Subscribe(func(ev events.GateCanBeOpened) {
		if ev.GateID == gateID {
			n++
		}
	})
	return &n
}

func countOpened(env *engine.Env, gateID string) *int {
	var n int
	env.Bus.GateOpened.Subscribe(func(ev events.GateOpened) {
		if ev.GateID == gateID {
			n++
		}
	})
	return &n
}

func TestRecordGate_OpensOnlyOnTryOpen(t *testing.T) {
	env, idx := newEnv(nil)
	s, err := score.New(env, &domain.ScoreDef{ID: "score1", HigherIsBetter: true})
	require.NoError(t, err)
	idx.scores["score1"] = s

	g := NewRecordGate(env, "g1", "score1", 100)
	hints := countHints(env, "g1")
	opened := countOpened(env, "g1")

	for i := 0; i < 99; i++ {
		s.Inc(1)
	}
	assert.False(t, g.IsOpen())
	assert.False(t, g.CanOpen())
	assert.Equal(t, 0, *hints)

	s.Inc(1)
	assert.True(t, g.CanOpen())
	assert.False(t, g.IsOpen(), "a passive gate never opens itself")
	assert.Equal(t, 1, *hints)

	s.Inc(1)
	assert.Equal(t, 1, *hints, "the hint is published once")

	assert.True(t, g.TryOpen())
	assert.True(t, g.IsOpen())
	assert.Equal(t, 1, *opened)

	s.Reset(false)
	assert.True(t, g.IsOpen(), "open is sticky")
	assert.True(t, g.TryOpen())
	assert.Equal(t, 1, *opened)
}

func TestRecordGate_StateSurvivesRebuild(t *testing.T) {
	store := storage.NewInMemoryFlagStore()
	env, _ := newEnv(store)
	g := NewRecordGate(env, "g1", "score1", 10)
	require.NoError(t, env.SetFlag(env.Keys.GateOpen("g1"), true))
	assert.True(t, g.IsOpen())

	env2, _ := newEnv(store)
	g2 := NewRecordGate(env2, "g1", "score1", 10)
	assert.True(t, g2.IsOpen())
	assert.Zero(t, env2.Bus.ScoreRecordUpdated.Len(), "an open gate does not watch")
}

func TestRecordGate_UnknownScoreFailsClosed(t *testing.T) {
	env, _ := newEnv(nil)
	g := NewRecordGate(env, "g1", "missing", 1)
	assert.False(t, g.CanOpen())
	assert.False(t, g.TryOpen())
	assert.False(t, g.IsOpen())
}

func TestBalanceGate(t *testing.T) {
	tests := []struct {
		name        string
		consume     bool
		wantBalance int
	}{
		{name: "keeps balance", consume: false, wantBalance: 12},
		{name: "consumes balance", consume: true, wantBalance: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := newEnv(nil)
			inv := economy.NewMemoryInventory(env.Bus, env.Logger)
			inv.AddCurrency("coins", 0)
			env.Inventory = inv

			g := NewBalanceGate(env, "g1", "coins", 10)
			g.Consume = tt.consume
			hints := countHints(env, "g1")

			require.NoError(t, inv.Credit(env.Context(), "coins", 5))
			assert.False(t, g.CanOpen())
			require.NoError(t, inv.Credit(env.Context(), "coins", 7))
			assert.True(t, g.CanOpen())
			assert.Equal(t, 1, *hints)

			assert.True(t, g.TryOpen())
			assert.True(t, g.IsOpen())

			balance, err := inv.Balance(env.Context(), "coins")
			require.NoError(t, err)
			assert.Equal(t, tt.wantBalance, balance)
		})
	}
}

func TestBalanceGate_FailedConsumeKeepsGateClosed(t *testing.T) {
	env, _ := newEnv(nil)
	inv := economy.NewMockInventory()
	inv.On("Balance", mock.Anything, "coins").Return(20, nil)
	inv.On("Debit", mock.Anything, "coins", 10).Return(errors.ErrInsufficientFunds("coins", 0, 10))
	env.Inventory = inv

	g := NewBalanceGate(env, "g1", "coins", 10)
	g.Consume = true

	assert.False(t, g.TryOpen())
	assert.False(t, g.IsOpen())
	inv.AssertExpectations(t)
}

func TestPurchasableGate(t *testing.T) {
	env, _ := newEnv(nil)
	inv := economy.NewMemoryInventory(env.Bus, env.Logger)
	inv.AddCurrency("coins", 3)
	inv.AddItem("key", economy.Price{CurrencyID: "coins", Amount: 5})
	env.Inventory = inv

	g := NewPurchasableGate(env, "g1", "key")
	opened := countOpened(env, "g1")

	assert.True(t, g.CanOpen())
	assert.False(t, g.TryOpen(), "not enough coins")
	assert.False(t, g.IsOpen())

	require.NoError(t, inv.Credit(env.Context(), "coins", 2))
	assert.True(t, g.TryOpen())
	assert.True(t, g.IsOpen())
	assert.Equal(t, 1, *opened)

	assert.True(t, g.TryOpen())
	coins, err := inv.Balance(env.Context(), "coins")
	require.NoError(t, err)
	assert.Equal(t, 0, coins, "an open gate is not purchased again")
}

func TestPurchasableGate_OpensOnTaggedPurchase(t *testing.T) {
	env, _ := newEnv(nil)
	inv := economy.NewMemoryInventory(env.Bus, env.Logger)
	inv.AddCurrency("coins", 10)
	inv.AddItem("key", economy.Price{CurrencyID: "coins", Amount: 5})
	env.Inventory = inv

	g := NewPurchasableGate(env, "g1", "key")

	require.NoError(t, inv.Purchase(env.Context(), "key", "someone-else"))
	assert.False(t, g.IsOpen())

	require.NoError(t, inv.Purchase(env.Context(), "key", "g1"))
	assert.True(t, g.IsOpen())
}

func TestPurchasableGate_UnknownItem(t *testing.T) {
	env, _ := newEnv(nil)
	env.Inventory = economy.NewMemoryInventory(env.Bus, env.Logger)

	g := NewPurchasableGate(env, "g1", "key")
	assert.False(t, g.CanOpen())
	assert.False(t, g.TryOpen())
}

func TestWorldCompletionGate(t *testing.T) {
	env, idx := newEnv(nil)
	idx.worlds["w1"] = false

	g := NewWorldCompletionGate(env, "g1", "w1")
	hints := countHints(env, "g1")
	assert.False(t, g.CanOpen())

	idx.worlds["w1"] = true
	env.Bus.WorldCompleted.Publish(events.WorldCompleted{WorldID: "w2"})
	assert.Equal(t, 0, *hints)
	env.Bus.WorldCompleted.Publish(events.WorldCompleted{WorldID: "w1"})
	assert.Equal(t, 1, *hints)

	assert.True(t, g.TryOpen())
}

func TestScheduleGate(t *testing.T) {
	start := time.Date(2025, 10, 17, 10, 0, 0, 0, time.UTC)
	now := start.Add(-time.Minute)

	env, _ := newEnv(nil)
	env.Clock = func() time.Time { return now }

	g, err := NewScheduleGate(env, "g1", &domain.ScheduleDef{
		Ranges: []domain.TimeRange{{Start: start, End: start.Add(time.Hour)}},
	})
	require.NoError(t, err)
	hints := countHints(env, "g1")

	assert.False(t, g.CanOpen())
	env.Bus.ClockTicked.Publish(events.ClockTicked{Now: now})
	assert.Equal(t, 0, *hints)

	now = start.Add(time.Minute)
	env.Bus.ClockTicked.Publish(events.ClockTicked{Now: now})
	assert.Equal(t, 1, *hints)
	assert.True(t, g.TryOpen())

	now = start.Add(2 * time.Hour)
	assert.True(t, g.IsOpen(), "open is sticky after the range ends")
}

func TestScheduleGate_EvaluatesTickedTime(t *testing.T) {
	env, _ := newEnv(nil)
	start := time.Now().Add(24 * time.Hour)

	g, err := NewScheduleGate(env, "g1", &domain.ScheduleDef{
		Ranges: []domain.TimeRange{{Start: start, End: start.Add(time.Hour)}},
	})
	require.NoError(t, err)
	hints := countHints(env, "g1")

	env.Bus.ClockTicked.Publish(events.ClockTicked{Now: start.Add(-time.Minute)})
	assert.Equal(t, 0, *hints)

	env.Bus.ClockTicked.Publish(events.ClockTicked{Now: start.Add(time.Minute)})
	assert.Equal(t, 1, *hints, "the ticked time decides, not the wall clock")
	assert.False(t, g.CanOpen(), "the wall clock is still before the window")
}

func TestScheduleGate_InvalidSchedule(t *testing.T) {
	env, _ := newEnv(nil)
	_, err := NewScheduleGate(env, "g1", &domain.ScheduleDef{Cron: "not a cron"})
	assert.Error(t, err)
}

func TestSocialActionGate(t *testing.T) {
	env, _ := newEnv(nil)
	g := NewSocialActionGate(env, "g1", "facebook", "like")
	assert.False(t, g.CanOpen(), "no provider attached")
	assert.False(t, g.TryOpen())

	provider := social.NewMemoryProvider(env.Bus, env.Logger)
	env.Social = provider

	provider.SetUnavailable("facebook", true)
	assert.False(t, g.TryOpen())
	assert.False(t, g.IsOpen())

	provider.SetUnavailable("facebook", false)
	assert.True(t, g.TryOpen())
	assert.True(t, g.IsOpen())

	performed := provider.Performed()
	require.Len(t, performed, 1)
	assert.Equal(t, "g1", performed[0].Payload)
}

func TestNew_FromDefinition(t *testing.T) {
	env, _ := newEnv(nil)
	def := &domain.GateDef{
		JSONType: domain.GateKindListAND,
		ID:       "all",
		Gates: []*domain.GateDef{
			{JSONType: domain.GateKindRecord, ID: "rec", ScoreID: "s1", DesiredRecord: 5},
			{JSONType: domain.GateKindBalance, ID: "bal", ItemID: "coins", DesiredBalance: 3, Consume: true},
			{JSONType: domain.GateKindListOR, ID: "any", Gates: []*domain.GateDef{
				{JSONType: domain.GateKindWorldCompletion, ID: "wc", WorldID: "w1"},
				{JSONType: domain.GateKindSocialAction, ID: "soc", Provider: "twitter", Action: "tweet"},
				{JSONType: domain.GateKindPurchasable, ID: "buy", ItemID: "key"},
				{JSONType: domain.GateKindSchedule, ID: "sched"},
			}},
		},
	}

	g, err := New(env, def)
	require.NoError(t, err)
	assert.Equal(t, domain.GateKindListAND, g.Kind())
	assert.Equal(t, def, g.Def())
}

func TestNew_InvalidDefinitions(t *testing.T) {
	tests := []struct {
		name string
		def  *domain.GateDef
	}{
		{name: "nil", def: nil},
		{name: "missing id", def: &domain.GateDef{JSONType: domain.GateKindRecord, ScoreID: "s"}},
		{name: "unknown kind", def: &domain.GateDef{JSONType: "FancyGate", ID: "g"}},
		{name: "record without score", def: &domain.GateDef{JSONType: domain.GateKindRecord, ID: "g"}},
		{name: "balance without item", def: &domain.GateDef{JSONType: domain.GateKindBalance, ID: "g"}},
		{name: "purchasable without item", def: &domain.GateDef{JSONType: domain.GateKindPurchasable, ID: "g"}},
		{name: "world completion without world", def: &domain.GateDef{JSONType: domain.GateKindWorldCompletion, ID: "g"}},
		{name: "social without action", def: &domain.GateDef{JSONType: domain.GateKindSocialAction, ID: "g", Provider: "fb"}},
		{name: "bad child", def: &domain.GateDef{JSONType: domain.GateKindListOR, ID: "g", Gates: []*domain.GateDef{
			{JSONType: domain.GateKindRecord, ID: "ok", ScoreID: "s"},
			{JSONType: "FancyGate", ID: "bad"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, _ := newEnv(nil)
			_, err := New(env, tt.def)
			assert.Error(t, err)
			assert.Zero(t, env.Bus.ScoreRecordUpdated.Len(), "partially built children are detached")
		})
	}
}
