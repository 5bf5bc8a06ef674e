// Package agent binds one host connection to the decision engine: it owns
// the session's encounter and translates wire messages into engine calls.
package agent

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/nstehr/vimy/tactician/ipc"
	"github.com/nstehr/vimy/tactician/memory"
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/tactics"
)

var errNoEncounter = errors.New("no active encounter, send hello first")

// Session owns the decision-making for a single host connection.
type Session struct {
	Conn *ipc.Connection
	Host string

	orch    *tactics.Orchestrator
	base    tactics.Options // server configuration every hello starts from
	pool    *memory.Pool
	seed    int64
	catalog *model.Catalog
	enc     *tactics.Encounter
	prev    *model.Snapshot

	// OnEnd runs after an encounter ends, e.g. to persist the pool.
	OnEnd func()
}

// New creates a session. pool may be nil when nothing is shared across encounters.
func New(conn *ipc.Connection, opts tactics.Options, pool *memory.Pool, seed int64) *Session {
	opts.Validate()
	return &Session{
		Conn: conn,
		orch: tactics.NewOrchestrator(opts),
		base: opts,
		pool: pool,
		seed: seed,
	}
}

// Register wires every handler into the connection.
func (s *Session) Register() {
	s.Conn.RegisterHandler(ipc.TypeHello, s.HandleHello)
	s.Conn.RegisterHandler(ipc.TypeDecide, s.HandleDecide)
	s.Conn.RegisterHandler(ipc.TypeOutcome, s.HandleOutcome)
	s.Conn.RegisterHandler(ipc.TypeSetDifficulty, s.HandleSetDifficulty)
	s.Conn.RegisterHandler(ipc.TypeEndEncounter, s.HandleEndEncounter)
}

// Encounter returns the active encounter, or nil.
func (s *Session) Encounter() *tactics.Encounter { return s.enc }

// HandleHello loads the catalog and starts a new encounter. An encounter
// still open from a previous hello is ended first, under the profile it was
// played with. Options missing from the hello keep the server configuration.
func (s *Session) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	opts := s.base
	hello := ipc.HelloMessage{Options: &opts}
	if err := env.Decode(&hello); err != nil {
		return nil, err
	}
	var mode tactics.Mode
	if hello.Difficulty != "" {
		var ok bool
		if mode, ok = tactics.ParseMode(hello.Difficulty); !ok {
			return nil, fmt.Errorf("unknown difficulty %q", hello.Difficulty)
		}
	}

	if s.enc != nil {
		s.endEncounter()
	}
	if hello.Options != nil {
		s.orch.SetOptions(*hello.Options)
	} else {
		s.orch.SetOptions(s.base)
	}
	if mode != "" {
		s.orch.SetDifficulty(mode)
	}

	s.Host = hello.Host
	if s.Conn != nil {
		s.Conn.Session = hello.Host
	}
	s.catalog = model.NewCatalog(hello.Skills, hello.Conditions, hello.Items)
	s.catalog.DefaultAction = hello.DefaultAction
	seed := s.seed
	if hello.Seed != 0 {
		seed = hello.Seed
	}
	s.enc = tactics.NewEncounter(s.catalog, s.pool, seed)
	s.enc.Begin()
	s.prev = nil

	slog.Info("host identified",
		"host", s.Host,
		"encounter", s.enc.ID,
		"skills", len(hello.Skills),
		"conditions", len(hello.Conditions),
		"items", len(hello.Items),
		"difficulty", s.orch.Difficulty().Mode,
	)
	return ack(s.enc.ID)
}

// HandleDecide diffs the snapshot against the previous one, feeds the
// changes to the encounter and answers with a decision. Engine failures are
// answered with UseDefault rather than an error.
func (s *Session) HandleDecide(env ipc.Envelope) (*ipc.Envelope, error) {
	if s.enc == nil {
		return nil, errNoEncounter
	}
	var msg ipc.DecideMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	snap := msg.Snapshot

	s.enc.Observe(&snap, detectObservations(s.prev, &snap))
	s.prev = &snap

	reply := ipc.DecisionMessage{Encounter: s.enc.ID}
	dec, err := s.orch.Decide(s.enc, &snap)
	switch {
	case errors.Is(err, tactics.ErrUseDefault):
		slog.Warn("engine deferred to host default", "actor", snap.ActorID, "error", err)
		reply.UseDefault = true
	case err != nil:
		return nil, fmt.Errorf("decide: %w", err)
	default:
		reply.Decision = dec
	}

	resp, err := ipc.NewEnvelope(ipc.TypeDecision, reply)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// HandleOutcome records what the host did with a decision.
func (s *Session) HandleOutcome(env ipc.Envelope) (*ipc.Envelope, error) {
	if s.enc == nil {
		return nil, errNoEncounter
	}
	var msg ipc.OutcomeMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	if msg.AgentID == "" {
		return nil, errors.New("outcome without agent id")
	}
	s.enc.RecordOutcome(msg.Outcome, s.orch.Difficulty(), s.prev)
	slog.Debug("outcome recorded", "agent", msg.AgentID, "action", msg.ActionID, "targets", len(msg.Results))
	return ack(s.enc.ID)
}

// HandleSetDifficulty switches profile; the next decision uses it.
func (s *Session) HandleSetDifficulty(env ipc.Envelope) (*ipc.Envelope, error) {
	var msg ipc.SetDifficultyMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	mode, ok := tactics.ParseMode(msg.Difficulty)
	if !ok {
		return nil, fmt.Errorf("unknown difficulty %q", msg.Difficulty)
	}
	s.orch.SetDifficulty(mode)
	id := ""
	if s.enc != nil {
		id = s.enc.ID
	}
	return ack(id)
}

// HandleEndEncounter folds or clears memories according to the active profile.
func (s *Session) HandleEndEncounter(env ipc.Envelope) (*ipc.Envelope, error) {
	if s.enc == nil {
		return nil, errNoEncounter
	}
	var msg ipc.EndEncounterMessage
	if err := env.Decode(&msg); err != nil {
		return nil, err
	}
	id := s.enc.ID
	s.endEncounter()
	slog.Info("encounter closed by host", "encounter", id, "reason", msg.Reason)
	return ack(id)
}

// Close ends any open encounter; called when the connection drops.
func (s *Session) Close() {
	if s.enc != nil {
		s.endEncounter()
	}
}

func (s *Session) endEncounter() {
	s.enc.End(s.orch.Difficulty())
	s.enc = nil
	s.prev = nil
	if s.OnEnd != nil {
		s.OnEnd()
	}
}

func ack(encounter string) (*ipc.Envelope, error) {
	env, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Encounter: encounter})
	if err != nil {
		return nil, err
	}
	return &env, nil
}
