// Package metrics exports engine activity as Prometheus metrics by
// listening on the event bus.
package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AccelByte/extend-levelup-common/pkg/events"
)

// Collector counts bus events on its own registry.
type Collector struct {
	registry *prometheus.Registry

	gatesOpened       prometheus.Counter
	gateHints         prometheus.Counter
	missionsCompleted prometheus.Counter
	missionsRevoked   prometheus.Counter
	rewardsGiven      *prometheus.CounterVec
	rewardsTaken      *prometheus.CounterVec
	recordsChanged    *prometheus.CounterVec
	worldsCompleted   prometheus.Counter
	levelsStarted     *prometheus.CounterVec
	levelsEnded       *prometheus.CounterVec
	levelDuration     *prometheus.HistogramVec

	mu   sync.Mutex
	subs []*events.Subscription
}

// NewCollector creates a collector. An empty namespace defaults to
// "levelup".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "levelup"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.gatesOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gate",
		Name:      "opened_total",
		Help:      "Total number of gates opened",
	})
	c.gateHints = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gate",
		Name:      "can_be_opened_total",
		Help:      "Total number of can-be-opened hints published by passive gates",
	})
	c.missionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "completed_total",
		Help:      "Total number of missions and challenges completed",
	})
	c.missionsRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mission",
		Name:      "revoked_total",
		Help:      "Total number of mission completions revoked",
	})
	c.rewardsGiven = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "given_total",
			Help:      "Total number of rewards given",
		},
		[]string{"reward"},
	)
	c.rewardsTaken = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "taken_total",
			Help:      "Total number of rewards taken back",
		},
		[]string{"reward"},
	)
	c.recordsChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "score",
			Name:      "record_changed_total",
			Help:      "Total number of score record improvements",
		},
		[]string{"score"},
	)
	c.worldsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "world",
		Name:      "completed_total",
		Help:      "Total number of worlds completed",
	})
	c.levelsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "started_total",
			Help:      "Total number of level sessions started",
		},
		[]string{"level"},
	)
	c.levelsEnded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "ended_total",
			Help:      "Total number of level sessions ended",
		},
		[]string{"level", "completed"},
	)
	c.levelDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "level",
			Name:      "duration_seconds",
			Help:      "Play time of ended level sessions",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 10), // 5s to ~43m
		},
		[]string{"level"},
	)

	c.registry.MustRegister(
		c.gatesOpened,
		c.gateHints,
		c.missionsCompleted,
		c.missionsRevoked,
		c.rewardsGiven,
		c.rewardsTaken,
		c.recordsChanged,
		c.worldsCompleted,
		c.levelsStarted,
		c.levelsEnded,
		c.levelDuration,
	)

	return c
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Attach subscribes the collector to bus. Attaching again moves the
// collector to the new bus.
func (c *Collector) Attach(bus *events.Bus) {
	c.Detach()

	subs := []*events.Subscription{
		bus.GateOpened.Subscribe(func(events.GateOpened) { c.gatesOpened.Inc() }),
		bus.GateCanBeOpened.Subscribe(func(events.GateCanBeOpened) { c.gateHints.Inc() }),
		bus.MissionCompleted.Subscribe(func(events.MissionCompleted) { c.missionsCompleted.Inc() }),
		bus.MissionCompletionRevoked.Subscribe(func(events.MissionCompletionRevoked) { c.missionsRevoked.Inc() }),
		bus.RewardGiven.Subscribe(func(ev events.RewardGiven) {
			c.rewardsGiven.WithLabelValues(ev.RewardID).Inc()
		}),
		bus.RewardTaken.Subscribe(func(ev events.RewardTaken) {
			c.rewardsTaken.WithLabelValues(ev.RewardID).Inc()
		}),
		bus.ScoreRecordChanged.Subscribe(func(ev events.ScoreRecordChanged) {
			c.recordsChanged.WithLabelValues(ev.ScoreID).Inc()
		}),
		bus.WorldCompleted.Subscribe(func(events.WorldCompleted) { c.worldsCompleted.Inc() }),
		bus.LevelStarted.Subscribe(func(ev events.LevelStarted) {
			c.levelsStarted.WithLabelValues(ev.LevelID).Inc()
		}),
		bus.LevelEnded.Subscribe(func(ev events.LevelEnded) {
			c.levelsEnded.WithLabelValues(ev.LevelID, strconv.FormatBool(ev.Completed)).Inc()
			c.levelDuration.WithLabelValues(ev.LevelID).Observe(ev.Duration.Seconds())
		}),
	}

	c.mu.Lock()
	c.subs = subs
	c.mu.Unlock()
}

// Detach unsubscribes the collector from its bus.
func (c *Collector) Detach() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
}
