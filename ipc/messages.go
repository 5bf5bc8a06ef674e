package ipc

import (
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/tactics"
)

// Host → engine message types.
const (
	TypeHello         = "hello"
	TypeDecide        = "decide"
	TypeOutcome       = "outcome"
	TypeSetDifficulty = "set_difficulty"
	TypeEndEncounter  = "end_encounter"
)

// HelloMessage opens an encounter. The catalog is sent once; options and
// difficulty are optional, and options fields left out keep the engine's
// configured values.
type HelloMessage struct {
	Host          string               `json:"host"`
	Skills        []model.ActionDef    `json:"skills"`
	Conditions    []model.ConditionDef `json:"conditions"`
	Items         []model.ItemDef      `json:"items"`
	DefaultAction string               `json:"defaultAction,omitempty"`
	Options       *tactics.Options     `json:"options,omitempty"`
	Difficulty    string               `json:"difficulty,omitempty"`
	Seed          int64                `json:"seed,omitempty"`
}

// DecideMessage asks for the action of snapshot.ActorID.
type DecideMessage struct {
	Snapshot model.Snapshot `json:"snapshot"`
}

// OutcomeMessage reports what an executed decision did.
type OutcomeMessage struct {
	tactics.Outcome
}

type SetDifficultyMessage struct {
	Difficulty string `json:"difficulty"`
}

type EndEncounterMessage struct {
	Reason string `json:"reason,omitempty"`
}
