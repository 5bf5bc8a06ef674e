package memory

// Defaults for stalemate detection.
const (
	DefaultSustainThreshold = 0.75
	DefaultMinRounds        = 2 // rounds observed must exceed this
)

// Sustain is how much damage against one target was undone by healing.
// Rounds counts distinct rounds with at least one damage event against it.
type Sustain struct {
	Dealt     float64
	Negated   float64
	Rounds    int
	lastRound int
}

// Ratio is negated ÷ max(dealt, 1).
func (s *Sustain) Ratio() float64 {
	return s.Negated / max(s.Dealt, 1)
}

// Tracker detects when an agent's damage is being healed away faster than it
// lands. The stalemate counter has hysteresis: it climbs one per round while
// any target is being out-sustained and decays one per round otherwise.
type Tracker struct {
	Targets   map[string]*Sustain
	Stalemate int
	Threshold float64
	MinRounds int
}

func NewTracker() *Tracker {
	return &Tracker{
		Targets:   make(map[string]*Sustain),
		Threshold: DefaultSustainThreshold,
		MinRounds: DefaultMinRounds,
	}
}

func (t *Tracker) target(id string) *Sustain {
	s := t.Targets[id]
	if s == nil {
		s = &Sustain{lastRound: -1}
		t.Targets[id] = s
	}
	return s
}

// RecordDamage notes damage dealt to target during round.
func (t *Tracker) RecordDamage(target string, amount float64, round int) {
	if amount <= 0 {
		return
	}
	s := t.target(target)
	s.Dealt += amount
	if s.lastRound != round {
		s.Rounds++
		s.lastRound = round
	}
}

// RecordHealing notes HP restored to target after it was damaged.
func (t *Tracker) RecordHealing(target string, amount float64) {
	if amount <= 0 {
		return
	}
	t.target(target).Negated += amount
}

// SustainRatio returns the target's ratio, 0 when nothing was observed.
func (t *Tracker) SustainRatio(target string) float64 {
	s := t.Targets[target]
	if s == nil {
		return 0
	}
	return s.Ratio()
}

// CloseRound applies one step of the hysteresis counter.
func (t *Tracker) CloseRound() {
	for _, s := range t.Targets {
		if s.Rounds > t.MinRounds && s.Ratio() > t.Threshold {
			t.Stalemate++
			return
		}
	}
	t.Stalemate = max(t.Stalemate-1, 0)
}

// Stalemated reports whether the counter has reached the given number of rounds.
func (t *Tracker) Stalemated(rounds int) bool {
	return rounds > 0 && t.Stalemate >= rounds
}

// OutSustained reports whether a specific target is currently out-healing us.
func (t *Tracker) OutSustained(target string) bool {
	s := t.Targets[target]
	return s != nil && s.Rounds > t.MinRounds && s.Ratio() > t.Threshold
}

// Forget drops a target, e.g. once it is knocked out or revived.
func (t *Tracker) Forget(target string) {
	delete(t.Targets, target)
}

func (t *Tracker) Reset() {
	t.Targets = make(map[string]*Sustain)
	t.Stalemate = 0
}
