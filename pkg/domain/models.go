package domain

import "time"

// Document is the serialized form of a whole world tree.
// Top-level rewards are rewards not owned by a mission (for example rewards
// assigned to worlds on completion).
type Document struct {
	Worlds  []*WorldDef  `json:"worlds"`
	Rewards []*RewardDef `json:"rewards"`
}

// GateKind is the closed set of gate variants. The value doubles as the
// jsonType discriminator.
type GateKind string

const (
	// GateKindRecord opens once a score's record reaches the desired record.
	GateKindRecord GateKind = "RecordGate"

	// GateKindBalance opens once an item balance reaches the desired balance.
	GateKindBalance GateKind = "BalanceGate"

	// GateKindPurchasable opens by purchasing the associated item.
	GateKindPurchasable GateKind = "PurchasableGate"

	// GateKindWorldCompletion opens once the associated world is completed.
	GateKindWorldCompletion GateKind = "WorldCompletionGate"

	// GateKindSchedule opens while the current time falls inside its schedule.
	GateKindSchedule GateKind = "ScheduleGate"

	// GateKindSocialAction opens once a social action has been performed.
	GateKindSocialAction GateKind = "SocialActionGate"

	// GateKindListAND is open when all children are open.
	GateKindListAND GateKind = "GatesListAND"

	// GateKindListOR is open when at least one child is open.
	GateKindListOR GateKind = "GatesListOR"
)

// IsValid returns true if the gate kind is a known variant.
func (k GateKind) IsValid() bool {
	switch k {
	case GateKindRecord, GateKindBalance, GateKindPurchasable, GateKindWorldCompletion,
		GateKindSchedule, GateKindSocialAction, GateKindListAND, GateKindListOR:
		return true
	default:
		return false
	}
}

// IsList returns true for the composite variants.
func (k GateKind) IsList() bool {
	return k == GateKindListAND || k == GateKindListOR
}

// IsPassive returns true for variants that watch the bus and publish a
// can-be-opened hint instead of opening themselves.
func (k GateKind) IsPassive() bool {
	switch k {
	case GateKindRecord, GateKindBalance, GateKindWorldCompletion, GateKindSchedule:
		return true
	default:
		return false
	}
}

// MissionKind is the closed set of mission variants.
type MissionKind string

const (
	MissionKindRecord          MissionKind = "RecordMission"
	MissionKindBalance         MissionKind = "BalanceMission"
	MissionKindWorldCompletion MissionKind = "WorldCompletionMission"
	MissionKindPurchasing      MissionKind = "PurchasingMission"
	MissionKindSocial          MissionKind = "SocialMission"
	MissionKindChallenge       MissionKind = "Challenge"
)

// IsValid returns true if the mission kind is a known variant.
func (k MissionKind) IsValid() bool {
	switch k {
	case MissionKindRecord, MissionKindBalance, MissionKindWorldCompletion,
		MissionKindPurchasing, MissionKindSocial, MissionKindChallenge:
		return true
	default:
		return false
	}
}

// GateKind returns the kind of the internal gate a mission of this kind owns.
// Challenges own no gate and return false.
func (k MissionKind) GateKind() (GateKind, bool) {
	switch k {
	case MissionKindRecord:
		return GateKindRecord, true
	case MissionKindBalance:
		return GateKindBalance, true
	case MissionKindWorldCompletion:
		return GateKindWorldCompletion, true
	case MissionKindPurchasing:
		return GateKindPurchasable, true
	case MissionKindSocial:
		return GateKindSocialAction, true
	default:
		return "", false
	}
}

// RewardKind is the closed set of reward variants.
type RewardKind string

const (
	RewardKindVirtualItem RewardKind = "VirtualItemReward"
	RewardKindBadge       RewardKind = "BadgeReward"
	RewardKindSequence    RewardKind = "SequenceReward"
	RewardKindRandom      RewardKind = "RandomReward"
)

// IsValid returns true if the reward kind is a known variant.
func (k RewardKind) IsValid() bool {
	switch k {
	case RewardKindVirtualItem, RewardKindBadge, RewardKindSequence, RewardKindRandom:
		return true
	default:
		return false
	}
}

// ScoreKind is the closed set of score variants.
type ScoreKind string

const (
	ScoreKindScore       ScoreKind = "Score"
	ScoreKindRange       ScoreKind = "RangeScore"
	ScoreKindVirtualItem ScoreKind = "VirtualItemScore"
)

// IsValid returns true if the score kind is a known variant.
func (k ScoreKind) IsValid() bool {
	switch k {
	case ScoreKindScore, ScoreKindRange, ScoreKindVirtualItem:
		return true
	default:
		return false
	}
}

// WorldKind distinguishes plain worlds from levels.
type WorldKind string

const (
	WorldKindWorld WorldKind = "World"
	WorldKindLevel WorldKind = "Level"
)

// IsValid returns true if the world kind is a known variant.
func (k WorldKind) IsValid() bool {
	return k == WorldKindWorld || k == WorldKindLevel
}

// GateDef is the flattened definition of any gate variant.
// Only the fields of the variant named by JSONType are meaningful.
type GateDef struct {
	JSONType       GateKind     `json:"jsonType"`
	ID             string       `json:"id"`
	ScoreID        string       `json:"associatedScoreId,omitempty"` // RecordGate
	DesiredRecord  float64      `json:"desiredRecord,omitempty"`     // RecordGate
	ItemID         string       `json:"associatedItemId,omitempty"`  // BalanceGate, PurchasableGate
	DesiredBalance int          `json:"desiredBalance,omitempty"`    // BalanceGate
	Consume        bool         `json:"consume,omitempty"`           // BalanceGate: debit on open
	WorldID        string       `json:"associatedWorldId,omitempty"` // WorldCompletionGate
	Schedule       *ScheduleDef `json:"schedule,omitempty"`          // ScheduleGate
	Provider       string       `json:"provider,omitempty"`          // SocialActionGate
	Action         string       `json:"action,omitempty"`            // SocialActionGate
	Gates          []*GateDef   `json:"gates,omitempty"`             // GatesListAND/OR
}

// ScheduleDef describes when a ScheduleGate may open.
// An empty schedule (no ranges, no cron) is always approved.
type ScheduleDef struct {
	Ranges []TimeRange `json:"ranges,omitempty"`

	// Cron is a five-field cron expression. Each firing opens a window of
	// WindowMillis during which the schedule approves.
	Cron         string  `json:"cron,omitempty"`
	WindowMillis float64 `json:"windowMillis,omitempty"`
}

// TimeRange is a closed-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// MissionDef is the flattened definition of any mission variant. The gate
// parameters mirror GateDef and are used to build the mission's internal gate.
type MissionDef struct {
	JSONType       MissionKind   `json:"jsonType"`
	ID             string        `json:"id"`
	Name           string        `json:"name,omitempty"`
	Rewards        []*RewardDef  `json:"rewards,omitempty"`
	ScoreID        string        `json:"associatedScoreId,omitempty"`
	DesiredRecord  float64       `json:"desiredRecord,omitempty"`
	ItemID         string        `json:"associatedItemId,omitempty"`
	DesiredBalance int           `json:"desiredBalance,omitempty"`
	WorldID        string        `json:"associatedWorldId,omitempty"`
	Provider       string        `json:"provider,omitempty"`
	Action         string        `json:"action,omitempty"`
	Missions       []*MissionDef `json:"missions,omitempty"` // Challenge
}

// RewardDef is the flattened definition of any reward variant.
type RewardDef struct {
	JSONType RewardKind   `json:"jsonType"`
	ID       string       `json:"id"`
	Name     string       `json:"name,omitempty"`
	ItemID   string       `json:"associatedItemId,omitempty"` // VirtualItemReward
	Amount   int          `json:"amount,omitempty"`           // VirtualItemReward
	Rewards  []*RewardDef `json:"rewards,omitempty"`          // SequenceReward, RandomReward

	// Repeatable rewards may be given again while already given.
	// Sequence and random rewards are always repeatable.
	Repeatable bool `json:"repeatable,omitempty"`
}

// ScoreDef is the flattened definition of any score variant.
type ScoreDef struct {
	JSONType       ScoreKind `json:"jsonType"`
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	HigherIsBetter bool      `json:"higherBetter"`
	StartValue     float64   `json:"startValue,omitempty"`
	Range          *RangeDef `json:"range,omitempty"`            // RangeScore
	ItemID         string    `json:"associatedItemId,omitempty"` // VirtualItemScore
}

// RangeDef bounds a RangeScore to [Low, High].
type RangeDef struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// WorldDef is the definition of a world or level and everything it owns.
type WorldDef struct {
	JSONType WorldKind     `json:"jsonType"`
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Gate     *GateDef      `json:"gate,omitempty"`
	Worlds   []*WorldDef   `json:"worlds,omitempty"`
	Scores   []*ScoreDef   `json:"scores,omitempty"`
	Missions []*MissionDef `json:"missions,omitempty"`
}
