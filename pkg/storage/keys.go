package storage

import "strings"

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "levelup"

// Keys builds the persisted key layout:
//
//	<ns>.gates.<gateId>.open
//	<ns>.missions.<missionId>.completed
//	<ns>.missions.<missionId>.revoked
//	<ns>.worlds.<worldId>.completed
//	<ns>.worlds.<worldId>.reward
//	<ns>.rewards.<rewardId>.given
//	<ns>.rewards.<rewardId>.seq.idx
//	<ns>.scores.<scoreId>.record
//	<ns>.scores.<scoreId>.latest
//	<ns>.levels.<levelId>.started
//	<ns>.levels.<levelId>.played
//	<ns>.levels.<levelId>.fastest
//	<ns>.levels.<levelId>.slowest
type Keys struct {
	Namespace string
}

// Kinds lists the entity kinds of the key layout.
var Kinds = []string{"gates", "missions", "worlds", "rewards", "scores", "levels"}

// NewKeys returns a key builder for namespace, falling back to
// DefaultNamespace when it is blank.
func NewKeys(namespace string) Keys {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Keys{Namespace: namespace}
}

func (k Keys) build(kind, id, field string) string {
	ns := k.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + "." + kind + "." + id + "." + field
}

// Prefix returns "<ns>.<kind>." for listing every key of one entity kind.
func (k Keys) Prefix(kind string) string {
	ns := k.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return ns + "." + kind + "."
}

func (k Keys) GateOpen(gateID string) string { return k.build("gates", gateID, "open") }

func (k Keys) MissionCompleted(missionID string) string {
	return k.build("missions", missionID, "completed")
}

func (k Keys) MissionRevoked(missionID string) string {
	return k.build("missions", missionID, "revoked")
}

func (k Keys) WorldCompleted(worldID string) string { return k.build("worlds", worldID, "completed") }

func (k Keys) WorldReward(worldID string) string { return k.build("worlds", worldID, "reward") }

func (k Keys) RewardGiven(rewardID string) string { return k.build("rewards", rewardID, "given") }

func (k Keys) SequenceIndex(rewardID string) string { return k.build("rewards", rewardID, "seq.idx") }

func (k Keys) ScoreRecord(scoreID string) string { return k.build("scores", scoreID, "record") }

func (k Keys) ScoreLatest(scoreID string) string { return k.build("scores", scoreID, "latest") }

func (k Keys) LevelStarted(levelID string) string { return k.build("levels", levelID, "started") }

func (k Keys) LevelPlayed(levelID string) string { return k.build("levels", levelID, "played") }

func (k Keys) LevelFastest(levelID string) string { return k.build("levels", levelID, "fastest") }

func (k Keys) LevelSlowest(levelID string) string { return k.build("levels", levelID, "slowest") }
