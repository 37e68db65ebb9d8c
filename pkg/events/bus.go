package events

import "time"

// GateOpened is published after a gate's open flag has been persisted.
type GateOpened struct {
	GateID string
}

// GateCanBeOpened is the hint a passive gate publishes when its criterion
// becomes satisfiable. Nothing has been persisted yet.
type GateCanBeOpened struct {
	GateID string
}

// MissionCompleted is published after a mission's rewards were given and its
// completed flag was persisted.
type MissionCompleted struct {
	MissionID string
}

// MissionCompletionRevoked is published when an operator clears a mission's
// completed flag.
type MissionCompletionRevoked struct {
	MissionID string
}

// RewardGiven is published after a reward's given flag was persisted.
type RewardGiven struct {
	RewardID string
}

// RewardTaken is published after a reward's given flag was cleared.
type RewardTaken struct {
	RewardID string
}

// ScoreRecordReached is published the first time in a session that the
// current value reaches the persisted record (ties count).
type ScoreRecordReached struct {
	ScoreID string
	Value   float64
}

// ScoreRecordChanged is published once per session, when the current value
// first beats the persisted record.
type ScoreRecordChanged struct {
	ScoreID string
	Record  float64
}

// ScoreRecordUpdated is published after every persisted record improvement.
// Record gates re-check on it.
type ScoreRecordUpdated struct {
	ScoreID string
	Record  float64
}

// LatestScoreChanged is published when a session value is saved as latest.
type LatestScoreChanged struct {
	ScoreID string
	Latest  float64
}

// WorldCompleted is published when a world's completed flag changes to true.
type WorldCompleted struct {
	WorldID string
}

// WorldRewardAssigned is published when a reward is assigned to a world.
type WorldRewardAssigned struct {
	WorldID  string
	RewardID string
}

// LevelStarted is published when a level session starts.
type LevelStarted struct {
	LevelID string
	RunID   string
}

// LevelEnded is published when a level session ends.
type LevelEnded struct {
	LevelID   string
	RunID     string
	Duration  time.Duration
	Completed bool
}

// BalanceChanged is published by the economy when an item balance changes.
type BalanceChanged struct {
	ItemID  string
	Balance int
	Delta   int
}

// ItemPurchased is published by the economy after a purchase. Payload is the
// opaque value passed to the purchase call (gates pass their own id).
type ItemPurchased struct {
	ItemID  string
	Payload string
}

// SocialActionFinished is published by a social provider once an action has
// been performed. Payload is the opaque value passed to the provider.
type SocialActionFinished struct {
	Provider string
	Action   string
	Payload  string
}

// ClockTicked is published by the host to let schedule-based gates
// re-evaluate.
type ClockTicked struct {
	Now time.Time
}

// Bus holds one topic per event kind.
type Bus struct {
	GateOpened               Topic[GateOpened]
	GateCanBeOpened          Topic[GateCanBeOpened]
	MissionCompleted         Topic[MissionCompleted]
	MissionCompletionRevoked Topic[MissionCompletionRevoked]
	RewardGiven              Topic[RewardGiven]
	RewardTaken              Topic[RewardTaken]
	ScoreRecordReached       Topic[ScoreRecordReached]
	ScoreRecordChanged       Topic[ScoreRecordChanged]
	ScoreRecordUpdated       Topic[ScoreRecordUpdated]
	LatestScoreChanged       Topic[LatestScoreChanged]
	WorldCompleted           Topic[WorldCompleted]
	WorldRewardAssigned      Topic[WorldRewardAssigned]
	LevelStarted             Topic[LevelStarted]
	LevelEnded               Topic[LevelEnded]
	BalanceChanged           Topic[BalanceChanged]
	ItemPurchased            Topic[ItemPurchased]
	SocialActionFinished     Topic[SocialActionFinished]
	ClockTicked              Topic[ClockTicked]
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}
