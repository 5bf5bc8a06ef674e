package tactics

import (
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/nstehr/vimy/tactician/memory"
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/traits"
)

// Definitions is the data-query boundary: definitions by id. Unknown ids
// return nil.
type Definitions interface {
	Skill(id string) *model.ActionDef
	Condition(id string) *model.ConditionDef
	Item(id string) *model.ItemDef
	Default() *model.ActionDef
}

// NewRand returns a seeded source; 0 is mapped to 1 so a zero seed is still
// deterministic.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return rand.New(rand.NewSource(seed))
}

// AgentState is exclusively owned by one agent.
type AgentState struct {
	ID         string
	Key        string
	Memory     *memory.Memory
	Tracker    *memory.Tracker
	Conditions *traits.Cache[traits.Analysis]
	Skills     *traits.Cache[skillInfo]
	Rand       *rand.Rand
	LastAction string
	LastHit    bool

	// seed is the pooled memory the agent started from; only what was
	// learned on top of it is folded back at End.
	seed *memory.Memory
}

// Outcome is what the host reports after executing a decision.
type Outcome struct {
	AgentID  string         `json:"agentId"`
	ActionID string         `json:"actionId"`
	Round    int            `json:"round"`
	Results  []TargetResult `json:"results"`
}

// TargetResult is the effect of an executed action on one target.
type TargetResult struct {
	TargetID    string   `json:"targetId"`
	Hit         bool     `json:"hit"`
	HPDelta     int      `json:"hpDelta"`
	MPDelta     int      `json:"mpDelta"`
	Added       []string `json:"added,omitempty"`
	Removed     []string `json:"removed,omitempty"`
	Resisted    []string `json:"resisted,omitempty"`
	Element     string   `json:"element,omitempty"`
	ElementRate float64  `json:"elementRate,omitempty"`
}

// ObservationKind tags a change detected between two snapshots.
type ObservationKind string

const (
	ObservedHealing ObservationKind = "healing"
	ObservedKO      ObservationKind = "knockout"
	ObservedRevive  ObservationKind = "revive"
)

// maxClosedRounds bounds how many tracker rounds one snapshot can close.
const maxClosedRounds = 16

// Observation is one change on the battlefield the engine did not cause itself.
type Observation struct {
	Kind   ObservationKind
	Target string
	Side   model.Side
	Amount float64
	Round  int
}

// Encounter is the explicit per-encounter context: ledger, per-agent state,
// opponent profile and the optional cross-encounter pool. Decisions and
// outcome callbacks on one encounter are serialized.
type Encounter struct {
	ID string

	mu        sync.Mutex
	defs      Definitions
	pool      *memory.Pool
	seed      int64
	agents    map[string]*AgentState
	Ledger    *Ledger
	Profiler  *memory.Profiler
	lastRound int
	closed    bool
}

// NewEncounter starts an encounter. pool may be nil.
func NewEncounter(defs Definitions, pool *memory.Pool, seed int64) *Encounter {
	e := &Encounter{
		ID:       uuid.NewString(),
		defs:     defs,
		pool:     pool,
		seed:     seed,
		agents:   make(map[string]*AgentState),
		Ledger:   NewLedger(),
		Profiler: memory.NewProfiler(),
	}
	slog.Info("encounter started", "encounter", e.ID, "pooled", pool != nil)
	return e
}

// state lazily creates the agent's private state. Caller holds e.mu.
func (e *Encounter) state(c *model.Combatant, d Difficulty) *AgentState {
	if st, ok := e.agents[c.ID]; ok {
		return st
	}
	mem := memory.New()
	var seed *memory.Memory
	if e.pool != nil && d.PersistMemory {
		mem = e.pool.Seed(c.Key())
		seed = mem.Clone()
	}
	if e.pool != nil && d.ShareKnowledge {
		e.pool.Teach(mem)
	}
	h := fnv.New64a()
	h.Write([]byte(c.ID))
	st := &AgentState{
		ID:         c.ID,
		Key:        c.Key(),
		Memory:     mem,
		Tracker:    memory.NewTracker(),
		Conditions: traits.NewCache[traits.Analysis](traits.DefaultCacheSize),
		Skills:     traits.NewCache[skillInfo](traits.DefaultCacheSize),
		Rand:       NewRand(e.seed ^ int64(h.Sum64()>>1)),
		seed:       seed,
	}
	e.agents[c.ID] = st
	slog.Debug("agent state created", "encounter", e.ID, "agent", c.ID, "seeded", len(mem.Skills))
	return st
}

// Agent returns an existing agent's state, or nil.
func (e *Encounter) Agent(id string) *AgentState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.agents[id]
}

// Observe feeds opponent actions and battlefield changes into the profiler
// and every agent's stalemate tracker. Round transitions close tracker rounds.
func (e *Encounter) Observe(snap *model.Snapshot, obs []Observation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observe(snap, obs)
}

func (e *Encounter) observe(snap *model.Snapshot, obs []Observation) {
	if snap != nil {
		for _, rec := range snap.Observed {
			actor := snap.Find(rec.ActorID)
			if actor == nil || actor.Side != model.SideOpponent {
				continue
			}
			var def *model.ActionDef
			if e.defs != nil {
				def = e.defs.Skill(rec.ActionID)
			}
			e.Profiler.Observe(actor.ID, rec.ActionID, def)
			caps := memory.CapabilitiesOf(def)
			for _, st := range e.agents {
				st.Memory.NoteCapabilities(actor.Key(), caps)
			}
		}
		if snap.Round > e.lastRound {
			closing := snap.Round - e.lastRound
			if e.lastRound == 0 {
				closing--
			}
			if closing > maxClosedRounds {
				slog.Warn("round jumped, closing a bounded number of rounds",
					"encounter", e.ID, "from", e.lastRound, "to", snap.Round)
				closing = maxClosedRounds
			}
			for i := 0; i < closing; i++ {
				for _, st := range e.agents {
					st.Tracker.CloseRound()
				}
			}
			e.lastRound = snap.Round
		}
	}
	for _, o := range obs {
		if o.Side != model.SideOpponent {
			continue
		}
		for _, st := range e.agents {
			switch o.Kind {
			case ObservedHealing:
				if _, engaged := st.Tracker.Targets[o.Target]; engaged {
					st.Tracker.RecordHealing(o.Target, o.Amount)
				}
			case ObservedKO, ObservedRevive:
				// a fresh life starts a fresh sustain record
				st.Tracker.Forget(o.Target)
			}
		}
	}
}

// RecordOutcome is the single execution callback: it updates the acting
// agent's memory and stalemate tracker, and shares discoveries when the
// profile allows.
func (e *Encounter) RecordOutcome(out Outcome, d Difficulty, snap *model.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.agents[out.AgentID]
	if st == nil {
		slog.Debug("outcome for unknown agent", "encounter", e.ID, "agent", out.AgentID)
		return
	}
	st.LastAction = out.ActionID
	st.LastHit = false
	round := out.Round
	if round <= 0 {
		round = e.lastRound
	}

	for _, r := range out.Results {
		key := r.TargetID
		if snap != nil {
			if t := snap.Find(r.TargetID); t != nil {
				key = t.Key()
			}
		}
		magnitude := float64(abs(r.HPDelta))
		st.Memory.RecordOutcome(out.ActionID, key, r.Hit, magnitude)
		if r.Hit {
			st.LastHit = true
		}
		if r.Element != "" && r.ElementRate > 0 {
			st.Memory.DiscoverElement(key, r.Element, r.ElementRate)
		}
		for _, c := range r.Resisted {
			st.Memory.DiscoverResistance(key, c)
		}
		if r.HPDelta < 0 {
			st.Tracker.RecordDamage(r.TargetID, float64(-r.HPDelta), round)
		}
	}

	if d.ShareKnowledge {
		for id, other := range e.agents {
			if id != out.AgentID {
				other.Memory.MergeKnowledge(st.Memory)
			}
		}
		if e.pool != nil {
			e.pool.Share(st.Memory)
		}
	}
}

// Begin (re)opens the encounter with an empty ledger and fresh opponent
// profile. Agent memories survive a Begin; only End clears them.
func (e *Encounter) Begin() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = false
	e.lastRound = 0
	e.Ledger.Reset()
	e.Profiler = memory.NewProfiler()
	for _, st := range e.agents {
		st.Tracker.Reset()
	}
}

// End closes the encounter: what each agent learned on top of its pooled
// seed is folded into the pool when the profile persists memory, and
// memories are cleared either way.
func (e *Encounter) End(d Difficulty) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, st := range e.agents {
		if e.pool != nil && d.PersistMemory {
			e.pool.Fold(st.Key, st.Memory.Since(st.seed))
		}
		st.seed = nil
		st.Memory.Reset()
		st.Tracker.Reset()
		st.Conditions.Clear()
		st.Skills.Clear()
	}
	e.Ledger.Reset()
	slog.Info("encounter ended", "encounter", e.ID, "agents", len(e.agents), "persisted", e.pool != nil && d.PersistMemory)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
