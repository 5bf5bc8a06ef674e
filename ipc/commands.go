package ipc

import "github.com/nstehr/vimy/tactician/tactics"

// Engine → host message types.
const (
	TypeAck      = "ack"
	TypeDecision = "decision"
	TypeError    = "error"
)

type AckMessage struct {
	Status    string `json:"status"`
	Encounter string `json:"encounter,omitempty"`
}

// DecisionMessage answers a decide request. When UseDefault is set the host
// should run its own default behaviour and Decision is empty.
type DecisionMessage struct {
	Encounter  string           `json:"encounter"`
	Decision   tactics.Decision `json:"decision"`
	UseDefault bool             `json:"useDefault,omitempty"`
}

// ErrorMessage reports a request the engine could not handle.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
