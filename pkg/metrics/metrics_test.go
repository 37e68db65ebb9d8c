package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("test")
	if c == nil {
		t.Fatal("NewCollector returned nil")
	}
	if c.Registry() == nil {
		t.Error("registry should not be nil")
	}
}

func TestNewCollector_DefaultNamespace(t *testing.T) {
	c := NewCollector("")
	c.gatesOpened.Inc()

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() == "levelup_gate_opened_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected levelup_gate_opened_total to be registered")
	}
}

func TestCollector_CountsBusEvents(t *testing.T) {
	c := NewCollector("test")
	bus := events.NewBus()
	c.Attach(bus)

	bus.GateOpened.Publish(events.GateOpened{GateID: "g1"})
	bus.GateOpened.Publish(events.GateOpened{GateID: "g2"})
	bus.GateCanBeOpened.Publish(events.GateCanBeOpened{GateID: "g1"})
	bus.MissionCompleted.Publish(events.MissionCompleted{MissionID: "m1"})
	bus.MissionCompletionRevoked.Publish(events.MissionCompletionRevoked{MissionID: "m1"})
	bus.RewardGiven.Publish(events.RewardGiven{RewardID: "b1"})
	bus.RewardGiven.Publish(events.RewardGiven{RewardID: "b1"})
	bus.RewardTaken.Publish(events.RewardTaken{RewardID: "b1"})
	bus.ScoreRecordChanged.Publish(events.ScoreRecordChanged{ScoreID: "s1", Record: 3})
	bus.WorldCompleted.Publish(events.WorldCompleted{WorldID: "w1"})
	bus.LevelStarted.Publish(events.LevelStarted{LevelID: "lvl1", RunID: "r1"})
	bus.LevelEnded.Publish(events.LevelEnded{LevelID: "lvl1", RunID: "r1", Duration: 30 * time.Second, Completed: true})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"gates opened", testutil.ToFloat64(c.gatesOpened), 2},
		{"gate hints", testutil.ToFloat64(c.gateHints), 1},
		{"missions completed", testutil.ToFloat64(c.missionsCompleted), 1},
		{"missions revoked", testutil.ToFloat64(c.missionsRevoked), 1},
		{"rewards given", testutil.ToFloat64(c.rewardsGiven.WithLabelValues("b1")), 2},
		{"rewards taken", testutil.ToFloat64(c.rewardsTaken.WithLabelValues("b1")), 1},
		{"records changed", testutil.ToFloat64(c.recordsChanged.WithLabelValues("s1")), 1},
		{"worlds completed", testutil.ToFloat64(c.worldsCompleted), 1},
		{"levels started", testutil.ToFloat64(c.levelsStarted.WithLabelValues("lvl1")), 1},
		{"levels ended", testutil.ToFloat64(c.levelsEnded.WithLabelValues("lvl1", "true")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(c.levelDuration); n != 1 {
		t.Errorf("expected 1 duration series, got %d", n)
	}
}

func TestCollector_Detach(t *testing.T) {
	c := NewCollector("test")
	bus := events.NewBus()
	c.Attach(bus)
	c.Attach(bus)

	if n := bus.GateOpened.Len(); n != 1 {
		t.Fatalf("re-attaching should not double subscribe, got %d subscribers", n)
	}

	c.Detach()
	bus.GateOpened.Publish(events.GateOpened{GateID: "g1"})

	if got := testutil.ToFloat64(c.gatesOpened); got != 0 {
		t.Errorf("detached collector counted %v gate openings", got)
	}
	if n := bus.GateOpened.Len(); n != 0 {
		t.Errorf("expected no subscribers after Detach, got %d", n)
	}
}
