package gate

import (
	"time"

	"github.com/AccelByte/extend-levelup-common/pkg/domain"
	"github.com/AccelByte/extend-levelup-common/pkg/engine"
	"github.com/AccelByte/extend-levelup-common/pkg/events"
	"github.com/AccelByte/extend-levelup-common/pkg/schedule"
	"github.com/AccelByte/extend-levelup-common/pkg/social"
)

// RecordGate opens once a score's persisted record reaches DesiredRecord.
type RecordGate struct {
	base
	scoreID       string
	desiredRecord float64
}

// NewRecordGate creates a record gate and starts watching record changes
// if it is closed.
func NewRecordGate(env *engine.Env, id, scoreID string, desiredRecord float64) *RecordGate {
	g := &RecordGate{
		base:          base{env: env, id: id, kind: domain.GateKindRecord},
		scoreID:       scoreID,
		desiredRecord: desiredRecord,
	}
	g.watch(g.CanOpen, func(check func()) []*events.Subscription {
		return []*events.Subscription{
			env.Bus.ScoreRecordUpdated.Subscribe(func(ev events.ScoreRecordUpdated) {
				if ev.ScoreID == g.scoreID {
					check()
				}
			}),
		}
	})
	return g
}

func (g *RecordGate) CanOpen() bool {
	return g.env.ScoreRecordReached(g.scoreID, g.desiredRecord)
}

func (g *RecordGate) TryOpen() bool {
	return g.tryOpen(g.CanOpen, nil)
}

func (g *RecordGate) Def() *domain.GateDef {
	def := g.def()
	def.ScoreID = g.scoreID
	def.DesiredRecord = g.desiredRecord
	return def
}

// BalanceGate opens once an item balance reaches DesiredBalance. With
// Consume set, opening debits the desired balance.
type BalanceGate struct {
	base
	itemID         string
	desiredBalance int
	Consume        bool
}

// NewBalanceGate creates a balance gate and starts watching balance changes
// if it is closed.
func NewBalanceGate(env *engine.Env, id, itemID string, desiredBalance int) *BalanceGate {
	g := &BalanceGate{
		base:           base{env: env, id: id, kind: domain.GateKindBalance},
		itemID:         itemID,
		desiredBalance: desiredBalance,
	}
	g.watch(g.CanOpen, func(check func()) []*events.Subscription {
		return []*events.Subscription{
			env.Bus.BalanceChanged.Subscribe(func(ev events.BalanceChanged) {
				if ev.ItemID == g.itemID {
					check()
				}
			}),
		}
	})
	return g
}

func (g *BalanceGate) CanOpen() bool {
	balance, ok := g.env.Balance(g.itemID)
	return ok && balance >= g.desiredBalance
}

func (g *BalanceGate) TryOpen() bool {
	return g.tryOpen(g.CanOpen, func() bool {
		if !g.Consume || g.desiredBalance <= 0 {
			return true
		}
		if err := g.env.Inventory.Debit(g.env.Context(), g.itemID, g.desiredBalance); err != nil {
			g.env.Logger.Warn("Failed to consume gate balance",
				"gate_id", g.id,
				"item_id", g.itemID,
				"amount", g.desiredBalance,
				"error", err,
			)
			return false
		}
		return true
	})
}

func (g *BalanceGate) Def() *domain.GateDef {
	def := g.def()
	def.ItemID = g.itemID
	def.DesiredBalance = g.desiredBalance
	def.Consume = g.Consume
	return def
}

// PurchasableGate opens by purchasing its item. A purchase made elsewhere
// with the gate id as payload opens it too.
type PurchasableGate struct {
	base
	itemID string
}

// NewPurchasableGate creates a purchasable gate.
func NewPurchasableGate(env *engine.Env, id, itemID string) *PurchasableGate {
	g := &PurchasableGate{
		base:   base{env: env, id: id, kind: domain.GateKindPurchasable},
		itemID: itemID,
	}
	if !g.IsOpen() {
		g.subs = append(g.subs, env.Bus.ItemPurchased.Subscribe(func(ev events.ItemPurchased) {
			if ev.ItemID == g.itemID && ev.Payload == g.id {
				g.forceOpen()
			}
		}))
	}
	return g
}

// CanOpen reports whether the item is known to the inventory.
func (g *PurchasableGate) CanOpen() bool {
	_, ok := g.env.Balance(g.itemID)
	return ok
}

func (g *PurchasableGate) TryOpen() bool {
	return g.tryOpen(g.CanOpen, func() bool {
		if err := g.env.Inventory.Purchase(g.env.Context(), g.itemID, g.id); err != nil {
			g.env.Logger.Warn("Gate purchase failed",
				"gate_id", g.id,
				"item_id", g.itemID,
				"error", err,
			)
			return false
		}
		return true
	})
}

func (g *PurchasableGate) Def() *domain.GateDef {
	def := g.def()
	def.ItemID = g.itemID
	return def
}

// WorldCompletionGate opens once another world is completed.
type WorldCompletionGate struct {
	base
	worldID string
}

// NewWorldCompletionGate creates a world completion gate and starts
// watching world completions if it is closed.
func NewWorldCompletionGate(env *engine.Env, id, worldID string) *WorldCompletionGate {
	g := &WorldCompletionGate{
		base:    base{env: env, id: id, kind: domain.GateKindWorldCompletion},
		worldID: worldID,
	}
	g.watch(g.CanOpen, func(check func()) []*events.Subscription {
		return []*events.Subscription{
			env.Bus.WorldCompleted.Subscribe(func(ev events.WorldCompleted) {
				if ev.WorldID == g.worldID {
					check()
				}
			}),
		}
	})
	return g
}

func (g *WorldCompletionGate) CanOpen() bool {
	return g.env.WorldCompleted(g.worldID)
}

func (g *WorldCompletionGate) TryOpen() bool {
	return g.tryOpen(g.CanOpen, nil)
}

func (g *WorldCompletionGate) Def() *domain.GateDef {
	def := g.def()
	def.WorldID = g.worldID
	return def
}

// ScheduleGate opens while the current time is inside its schedule. While
// closed it evaluates the schedule at the time carried by every ClockTicked
// and publishes the hint once that time is approved.
type ScheduleGate struct {
	base
	schedule *schedule.Schedule
}

// NewScheduleGate creates a schedule gate. A nil definition yields a gate
// whose schedule always approves.
func NewScheduleGate(env *engine.Env, id string, def *domain.ScheduleDef) (*ScheduleGate, error) {
	sched, err := schedule.New(def)
	if err != nil {
		return nil, err
	}
	g := &ScheduleGate{
		base:     base{env: env, id: id, kind: domain.GateKindSchedule},
		schedule: sched,
	}
	var ticked time.Time
	g.watch(func() bool { return g.schedule.Approve(ticked) }, func(check func()) []*events.Subscription {
		return []*events.Subscription{
			env.Bus.ClockTicked.Subscribe(func(ev events.ClockTicked) {
				ticked = ev.Now
				check()
			}),
		}
	})
	return g, nil
}

// CanOpen evaluates the schedule at the engine clock's current time.
func (g *ScheduleGate) CanOpen() bool {
	return g.schedule.Approve(g.env.Now())
}

func (g *ScheduleGate) TryOpen() bool {
	return g.tryOpen(g.CanOpen, nil)
}

func (g *ScheduleGate) Def() *domain.GateDef {
	def := g.def()
	def.Schedule = g.schedule.Def()
	return def
}

// SocialActionGate opens once a social action tagged with the gate id has
// finished. TryOpen starts the action; providers that complete
// asynchronously open the gate later.
type SocialActionGate struct {
	base
	provider string
	action   string
}

// NewSocialActionGate creates a social action gate.
func NewSocialActionGate(env *engine.Env, id, provider, action string) *SocialActionGate {
	g := &SocialActionGate{
		base:     base{env: env, id: id, kind: domain.GateKindSocialAction},
		provider: provider,
		action:   action,
	}
	if !g.IsOpen() {
		g.subs = append(g.subs, env.Bus.SocialActionFinished.Subscribe(func(ev events.SocialActionFinished) {
			if ev.Payload == g.id && ev.Action == g.action {
				g.forceOpen()
			}
		}))
	}
	return g
}

// CanOpen reports whether a social provider is attached.
func (g *SocialActionGate) CanOpen() bool {
	return g.env.Social != nil
}

func (g *SocialActionGate) TryOpen() bool {
	if g.IsOpen() {
		return true
	}
	if !g.CanOpen() {
		g.env.Logger.Warn("Social action without provider", "gate_id", g.id, "provider", g.provider)
		return false
	}
	err := g.env.Social.Perform(g.env.Context(), social.Action{
		Provider: g.provider,
		Name:     g.action,
		Payload:  g.id,
	})
	if err != nil {
		g.env.Logger.Warn("Social action failed",
			"gate_id", g.id,
			"provider", g.provider,
			"action", g.action,
			"error", err,
		)
		return false
	}
	return g.IsOpen()
}

func (g *SocialActionGate) Def() *domain.GateDef {
	def := g.def()
	def.Provider = g.provider
	def.Action = g.action
	return def
}
