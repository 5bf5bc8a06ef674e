// Package tactics scores every legal action of an agent and picks one. It
// owns the options, difficulty profiles, team ledger and encounter context
// the scoring runs against.
package tactics

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/nstehr/vimy/tactician/formula"
	"github.com/nstehr/vimy/tactician/model"
)

// ErrUseDefault tells the caller to fall back to its own default behaviour.
// Decide never returns any other error.
var ErrUseDefault = errors.New("use default behavior")

// Phase is a state of the decision state machine.
type Phase int

const (
	Idle Phase = iota
	AnalyzingBattlefield
	EnumeratingActions
	ScoringActions
	SelectingDecision
	Done
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case AnalyzingBattlefield:
		return "analyzing_battlefield"
	case EnumeratingActions:
		return "enumerating_actions"
	case ScoringActions:
		return "scoring_actions"
	case SelectingDecision:
		return "selecting_decision"
	case Done:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Decision is the one (action, targets) pair chosen for a turn.
type Decision struct {
	AgentID  string     `json:"agentId"`
	ActionID string     `json:"actionId"`
	Targets  []string   `json:"targets"`
	Score    float64    `json:"score"`
	Reason   string     `json:"reason"`
	Detail   *Breakdown `json:"detail,omitempty"`
}

// Decision reasons.
const (
	ReasonBest             = "best"
	ReasonPreservation     = "preservation"
	ReasonMistake          = "mistake"
	ReasonWeightedFallback = "weighted_fallback"
	ReasonDefault          = "default"
)

// Orchestrator drives one decision at a time. Options and difficulty can be
// swapped between decisions; the next Decide call uses the new values.
type Orchestrator struct {
	mu   sync.RWMutex
	opts Options
	diff Difficulty
	eval *formula.Evaluator
}

func NewOrchestrator(opts Options) *Orchestrator {
	opts.Validate()
	return &Orchestrator{
		opts: opts,
		diff: DifficultyFor(opts.Difficulty, opts),
		eval: formula.NewEvaluator(),
	}
}

// SetOptions replaces the options. The difficulty mode is taken from opts.
func (o *Orchestrator) SetOptions(opts Options) {
	opts.Validate()
	o.mu.Lock()
	o.opts = opts
	o.diff = DifficultyFor(opts.Difficulty, opts)
	o.mu.Unlock()
	slog.Info("options swapped", "difficulty", opts.Difficulty)
}

// SetDifficulty switches profile without restarting the encounter.
func (o *Orchestrator) SetDifficulty(mode Mode) {
	o.mu.Lock()
	o.opts.Difficulty = mode
	o.diff = DifficultyFor(mode, o.opts)
	o.mu.Unlock()
	slog.Info("difficulty switched", "mode", mode)
}

func (o *Orchestrator) Difficulty() Difficulty {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.diff
}

func (o *Orchestrator) Options() Options {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.opts
}

// decision is the scratch state of one run through the state machine. It is
// discarded on failure.
type decision struct {
	phase   Phase
	agentID string
	s       *scorer
	legal   []*model.ActionDef
	options []*option
}

func (d *decision) enter(p Phase) {
	d.phase = p
	slog.Debug("decision phase", "agent", d.agentID, "phase", p)
}

// Decide picks an action for the agent whose turn it is (snap.ActorID).
// Any internal failure, panics included, is reported as ErrUseDefault and
// leaves the ledger untouched.
func (o *Orchestrator) Decide(enc *Encounter, snap *model.Snapshot) (dec Decision, err error) {
	if enc == nil || snap == nil {
		return Decision{}, fmt.Errorf("%w: missing encounter or snapshot", ErrUseDefault)
	}
	o.mu.RLock()
	opts, diff := o.opts, o.diff
	o.mu.RUnlock()

	enc.mu.Lock()
	defer enc.mu.Unlock()

	d := &decision{phase: Idle, agentID: snap.ActorID}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("decision failed", "agent", d.agentID, "phase", d.phase, "panic", r)
			dec, err = Decision{}, fmt.Errorf("%w: panic in %s: %v", ErrUseDefault, d.phase, r)
		}
	}()

	view := snap.Clone()
	dec, err = o.run(d, enc, &view, opts, diff)
	if err != nil {
		slog.Warn("decision abandoned", "agent", d.agentID, "phase", d.phase, "error", err)
		return Decision{}, fmt.Errorf("%w: %v", ErrUseDefault, err)
	}
	d.enter(Done)
	return dec, nil
}

func (o *Orchestrator) run(d *decision, enc *Encounter, snap *model.Snapshot, opts Options, diff Difficulty) (Decision, error) {
	d.enter(AnalyzingBattlefield)
	if enc.defs == nil {
		return Decision{}, errors.New("no definitions")
	}
	bf, err := analyzeBattlefield(snap, snap.ActorID, enc.defs, opts)
	if err != nil {
		return Decision{}, err
	}
	st := enc.state(bf.Agent, diff)
	for _, e := range bf.Enemies {
		if len(e.Skills) > 0 {
			skills := make([]*model.ActionDef, 0, len(e.Skills))
			for _, id := range e.Skills {
				skills = append(skills, enc.defs.Skill(id))
			}
			enc.Profiler.Learn(e.ID, skills)
		}
	}
	d.s = &scorer{
		opts:       opts,
		diff:       diff,
		eval:       o.eval,
		bf:         bf,
		st:         st,
		enc:        enc,
		stalemated: st.Tracker.Stalemated(opts.StalemateTurns),
	}

	d.enter(EnumeratingActions)
	d.legal = legalActions(bf, opts)
	if len(d.legal) == 0 {
		slog.Debug("no legal actions", "agent", bf.Agent.ID, "restriction", bf.Restriction())
		chosen, reason := o.defaultDecision(d)
		return o.commit(d, chosen, reason)
	}

	d.enter(ScoringActions)
	d.score()

	d.enter(SelectingDecision)
	chosen, reason := d.selectOption()
	if chosen == nil {
		chosen, reason = o.fallback(d)
	}
	return o.commit(d, chosen, reason)
}

// score evaluates every legal action; single-target scopes keep their best target.
func (d *decision) score() {
	s := d.s
	for _, def := range d.legal {
		sets, ok := targetSets(def, s.bf, s.st.Rand)
		if !ok {
			slog.Debug("action has no valid targets", "agent", d.agentID, "action", def.ID)
			continue
		}
		info := s.info(def)
		var best *option
		for _, targets := range sets {
			opt := &option{Def: def, Info: info, Targets: targets}
			s.score(opt)
			if best == nil || opt.Score.Total > best.Score.Total {
				best = opt
			}
		}
		d.options = append(d.options, best)
		log := slog.Debug
		if s.opts.Debug {
			log = slog.Info
		}
		log("action scored", "agent", d.agentID, "action", def.ID, "targets", best.targetIDs(),
			"total", best.Score.Total, "damage", best.Score.Damage, "survival", best.Score.Survival,
			"support", best.Score.Support, "preservation", best.Score.Preservation)
	}
	d.penalizePreservation()
	if r := s.diff.Randomness; r > 0 {
		for _, opt := range d.options {
			opt.Score.Total *= 1 + r*(2*s.st.Rand.Float64()-1)
		}
	}
	slices.SortStableFunc(d.options, func(a, b *option) int {
		return cmp.Compare(b.Score.Total, a.Score.Total)
	})
}

// penalizePreservation applies the preservation penalty to damaging actions
// whose accumulated risk is high while a competitive non-damaging action exists.
func (d *decision) penalizePreservation() {
	opts := d.s.opts
	for _, opt := range d.options {
		if !opt.Info.Damaging || opt.Risk <= opts.PreservationRisk || opt.Score.Total <= 0 {
			continue
		}
		floor := opt.Score.Total * opts.PreservationPenalty
		for _, alt := range d.options {
			if !alt.Info.Damaging && alt.Score.Total > 0 && alt.Score.Total >= floor {
				slog.Debug("preservation penalty", "agent", d.agentID, "action", opt.Def.ID, "risk", opt.Risk, "alternative", alt.Def.ID)
				opt.Score.Total *= opts.PreservationPenalty
				break
			}
		}
	}
}

// selectOption applies the promotion and mistake rules to the sorted options.
// It returns nil when nothing scores positive.
func (d *decision) selectOption() (*option, string) {
	if len(d.options) == 0 || d.options[0].Score.Total <= 0 {
		return nil, ""
	}
	s := d.s
	top := d.options[0]
	chosen, reason := top, ReasonBest

	if top.Info.Damaging && top.Score.Preservation < 0 && top.Score.Preservation <= -s.opts.MinConditionValue {
		for _, alt := range d.options[1:] {
			if !alt.Info.Damaging && alt.Score.Total > 0 && alt.Score.Total >= promoteFraction*top.Score.Total {
				chosen, reason = alt, ReasonPreservation
				break
			}
		}
	}

	if s.diff.MistakeChance > 0 && len(d.options) > 1 && s.st.Rand.Float64() < s.diff.MistakeChance {
		pick := d.options[s.st.Rand.Intn(min(3, len(d.options)))]
		if pick.Score.Total > 0 {
			slog.Debug("mistake", "agent", d.agentID, "best", chosen.Def.ID, "picked", pick.Def.ID)
			chosen, reason = pick, ReasonMistake
		}
	}
	return chosen, reason
}

// fallback picks a non-basic legal action at random, weighted by rating,
// and failing that the default action.
func (o *Orchestrator) fallback(d *decision) (*option, string) {
	s := d.s
	var pool []*option
	total := 0
	for _, opt := range d.options {
		if !opt.Def.Basic {
			pool = append(pool, opt)
			total += weight(opt.Def)
		}
	}
	if total > 0 {
		n := s.st.Rand.Intn(total)
		for _, opt := range pool {
			if n -= weight(opt.Def); n < 0 {
				// re-draw targets so the fallback doesn't inherit the scorer's pick
				if targets, ok := randomTarget(opt.Def, s.bf, s.st.Rand); ok {
					opt.Targets, opt.Magnitudes, opt.Score = targets, nil, Breakdown{}
				}
				return opt, ReasonWeightedFallback
			}
		}
	}
	return o.defaultDecision(d)
}

func weight(def *model.ActionDef) int {
	return max(def.Rating, 1)
}

// defaultDecision is the basic default action against a random legal target.
func (o *Orchestrator) defaultDecision(d *decision) (*option, string) {
	s := d.s
	def := s.enc.defs.Default()
	if def == nil {
		return nil, ""
	}
	targets, ok := randomTarget(def, s.bf, s.st.Rand)
	if !ok {
		return nil, ""
	}
	return &option{Def: def, Info: s.info(def), Targets: targets}, ReasonDefault
}

// commit records the choice in the ledger and agent state. The ledger is
// written exactly once per decision, after selection.
func (o *Orchestrator) commit(d *decision, chosen *option, reason string) (Decision, error) {
	if chosen == nil {
		return Decision{}, errors.New("no action available")
	}
	s := d.s
	if chosen.Magnitudes == nil {
		s.score(chosen)
	}
	agent := s.bf.Agent.ID
	for i, t := range chosen.Targets {
		switch {
		case s.bf.Opposing(t) && chosen.Info.Damaging:
			s.enc.Ledger.AddDamage(t.ID, chosen.Magnitudes[i])
			s.enc.Ledger.AddAttacker(t.ID, agent)
		case !s.bf.Opposing(t) && chosen.Info.Healing:
			s.enc.Ledger.AssignHealer(t.ID, agent)
		}
	}
	s.st.Memory.Tick()

	dec := Decision{
		AgentID:  agent,
		ActionID: chosen.Def.ID,
		Targets:  chosen.targetIDs(),
		Score:    chosen.Score.Total,
		Reason:   reason,
	}
	if s.opts.Debug {
		detail := chosen.Score
		dec.Detail = &detail
	}
	slog.Info("decision", "agent", agent, "action", dec.ActionID, "targets", dec.Targets, "score", dec.Score, "reason", reason)
	return dec, nil
}
