// Package memory holds what an agent learns during and across encounters.
package memory

// MinUsesForHistory is how many recorded uses a skill needs before its
// success rate influences scoring.
const MinUsesForHistory = 3

const (
	minHistoricalModifier = 0.5
	maxHistoricalModifier = 1.5
)

// SkillStats counts uses of one skill.
type SkillStats struct {
	Uses      int     `yaml:"uses" json:"uses"`
	Successes int     `yaml:"successes" json:"successes"`
	Magnitude float64 `yaml:"magnitude" json:"magnitude"`
}

// Tally counts attempts of one skill against one target.
type Tally struct {
	Attempts  int `yaml:"attempts" json:"attempts"`
	Successes int `yaml:"successes" json:"successes"`
}

// Capabilities is what an opponent has been seen (or is known) to be able to do.
type Capabilities struct {
	CanHeal            bool `yaml:"can_heal" json:"canHeal"`
	CanRevive          bool `yaml:"can_revive" json:"canRevive"`
	HasArea            bool `yaml:"has_area" json:"hasArea"`
	InflictsConditions bool `yaml:"inflicts_conditions" json:"inflictsConditions"`
}

// Merge ORs the flags of o into c.
func (c Capabilities) Merge(o Capabilities) Capabilities {
	return Capabilities{
		CanHeal:            c.CanHeal || o.CanHeal,
		CanRevive:          c.CanRevive || o.CanRevive,
		HasArea:            c.HasArea || o.HasArea,
		InflictsConditions: c.InflictsConditions || o.InflictsConditions,
	}
}

// Memory is one agent's learning store. Target keys are combatant template ids
// so knowledge carries across encounters.
type Memory struct {
	Skills       map[string]*SkillStats        `yaml:"skills" json:"skills"`
	SkillTargets map[string]map[string]*Tally  `yaml:"skill_targets" json:"skillTargets"`
	Capabilities map[string]Capabilities       `yaml:"capabilities" json:"capabilities"`
	ElementRates map[string]map[string]float64 `yaml:"element_rates" json:"elementRates"`
	Resistances  map[string]map[string]bool    `yaml:"resistances" json:"resistances"`
	Turn         int                           `yaml:"turn" json:"turn"`
}

func New() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset clears every counter and discovery.
func (m *Memory) Reset() {
	m.Skills = make(map[string]*SkillStats)
	m.SkillTargets = make(map[string]map[string]*Tally)
	m.Capabilities = make(map[string]Capabilities)
	m.ElementRates = make(map[string]map[string]float64)
	m.Resistances = make(map[string]map[string]bool)
	m.Turn = 0
}

// ensure initializes maps left nil by a decoder.
func (m *Memory) ensure() {
	if m.Skills == nil {
		m.Skills = make(map[string]*SkillStats)
	}
	if m.SkillTargets == nil {
		m.SkillTargets = make(map[string]map[string]*Tally)
	}
	if m.Capabilities == nil {
		m.Capabilities = make(map[string]Capabilities)
	}
	if m.ElementRates == nil {
		m.ElementRates = make(map[string]map[string]float64)
	}
	if m.Resistances == nil {
		m.Resistances = make(map[string]map[string]bool)
	}
}

// Tick advances the agent's turn counter.
func (m *Memory) Tick() { m.Turn++ }

// RecordOutcome counts one use of actionID against target.
func (m *Memory) RecordOutcome(actionID, target string, succeeded bool, magnitude float64) {
	m.ensure()
	s := m.Skills[actionID]
	if s == nil {
		s = &SkillStats{}
		m.Skills[actionID] = s
	}
	s.Uses++
	s.Magnitude += magnitude
	if succeeded {
		s.Successes++
	}

	if target == "" {
		return
	}
	byTarget := m.SkillTargets[actionID]
	if byTarget == nil {
		byTarget = make(map[string]*Tally)
		m.SkillTargets[actionID] = byTarget
	}
	t := byTarget[target]
	if t == nil {
		t = &Tally{}
		byTarget[target] = t
	}
	t.Attempts++
	if succeeded {
		t.Successes++
	}
}

// HistoricalModifier is neutral until MinUsesForHistory uses are recorded,
// then 1 + learningRate*(successRate-0.5) clamped to [0.5, 1.5].
func (m *Memory) HistoricalModifier(actionID string, learningRate float64) float64 {
	s := m.Skills[actionID]
	if s == nil || s.Uses < MinUsesForHistory {
		return 1
	}
	rate := float64(s.Successes) / float64(s.Uses)
	mod := 1 + learningRate*(rate-0.5)
	return min(max(mod, minHistoricalModifier), maxHistoricalModifier)
}

// AverageMagnitude is the mean recorded magnitude of a skill, or 0.
func (m *Memory) AverageMagnitude(actionID string) float64 {
	s := m.Skills[actionID]
	if s == nil || s.Uses == 0 {
		return 0
	}
	return s.Magnitude / float64(s.Uses)
}

// TargetSuccess returns the observed success rate of actionID against target
// and how many attempts it is based on.
func (m *Memory) TargetSuccess(actionID, target string) (float64, int) {
	t := m.SkillTargets[actionID][target]
	if t == nil || t.Attempts == 0 {
		return 0, 0
	}
	return float64(t.Successes) / float64(t.Attempts), t.Attempts
}

// TargetModifier is the HistoricalModifier of one skill against one target:
// neutral below MinUsesForHistory attempts, then bounded to [0.5, 1.5].
func (m *Memory) TargetModifier(actionID, target string, learningRate float64) float64 {
	rate, n := m.TargetSuccess(actionID, target)
	if n < MinUsesForHistory {
		return 1
	}
	mod := 1 + learningRate*(rate-0.5)
	return min(max(mod, minHistoricalModifier), maxHistoricalModifier)
}

// DiscoverElement records an observed elemental rate immediately.
func (m *Memory) DiscoverElement(target, element string, rate float64) {
	m.ensure()
	rates := m.ElementRates[target]
	if rates == nil {
		rates = make(map[string]float64)
		m.ElementRates[target] = rates
	}
	rates[element] = rate
}

// ElementRate returns a discovered rate, if any.
func (m *Memory) ElementRate(target, element string) (float64, bool) {
	r, ok := m.ElementRates[target][element]
	return r, ok
}

// DiscoverResistance records that target shrugged off condition.
func (m *Memory) DiscoverResistance(target, condition string) {
	m.ensure()
	set := m.Resistances[target]
	if set == nil {
		set = make(map[string]bool)
		m.Resistances[target] = set
	}
	set[condition] = true
}

func (m *Memory) Resisted(target, condition string) bool {
	return m.Resistances[target][condition]
}

// NoteCapabilities merges observed capability flags for target.
func (m *Memory) NoteCapabilities(target string, c Capabilities) {
	m.ensure()
	m.Capabilities[target] = m.Capabilities[target].Merge(c)
}

// Merge folds every counter and discovery of o into m.
func (m *Memory) Merge(o *Memory) {
	if o == nil {
		return
	}
	m.ensure()
	for id, s := range o.Skills {
		dst := m.Skills[id]
		if dst == nil {
			dst = &SkillStats{}
			m.Skills[id] = dst
		}
		dst.Uses += s.Uses
		dst.Successes += s.Successes
		dst.Magnitude += s.Magnitude
	}
	for id, byTarget := range o.SkillTargets {
		for target, t := range byTarget {
			if m.SkillTargets[id] == nil {
				m.SkillTargets[id] = make(map[string]*Tally)
			}
			dst := m.SkillTargets[id][target]
			if dst == nil {
				dst = &Tally{}
				m.SkillTargets[id][target] = dst
			}
			dst.Attempts += t.Attempts
			dst.Successes += t.Successes
		}
	}
	m.MergeKnowledge(o)
	m.Turn += o.Turn
}

// MergeKnowledge copies only the discoveries (rates, resistances, capabilities).
func (m *Memory) MergeKnowledge(o *Memory) {
	if o == nil {
		return
	}
	m.ensure()
	for target, rates := range o.ElementRates {
		for el, r := range rates {
			m.DiscoverElement(target, el, r)
		}
	}
	for target, set := range o.Resistances {
		for cond := range set {
			m.DiscoverResistance(target, cond)
		}
	}
	for target, c := range o.Capabilities {
		m.NoteCapabilities(target, c)
	}
}

// Since returns what m gained on top of base: counters are differenced,
// discoveries are carried whole. base is typically the seed m started from.
func (m *Memory) Since(base *Memory) *Memory {
	d := New()
	if base == nil {
		d.Merge(m)
		return d
	}
	for id, s := range m.Skills {
		prev := base.Skills[id]
		if prev == nil {
			prev = &SkillStats{}
		}
		if s.Uses > prev.Uses {
			d.Skills[id] = &SkillStats{
				Uses:      s.Uses - prev.Uses,
				Successes: max(s.Successes-prev.Successes, 0),
				Magnitude: max(s.Magnitude-prev.Magnitude, 0),
			}
		}
	}
	for id, byTarget := range m.SkillTargets {
		for target, t := range byTarget {
			prev := base.SkillTargets[id][target]
			if prev == nil {
				prev = &Tally{}
			}
			if t.Attempts <= prev.Attempts {
				continue
			}
			if d.SkillTargets[id] == nil {
				d.SkillTargets[id] = make(map[string]*Tally)
			}
			d.SkillTargets[id][target] = &Tally{
				Attempts:  t.Attempts - prev.Attempts,
				Successes: max(t.Successes-prev.Successes, 0),
			}
		}
	}
	d.MergeKnowledge(m)
	d.Turn = max(m.Turn-base.Turn, 0)
	return d
}

// Clone returns a deep copy.
func (m *Memory) Clone() *Memory {
	c := New()
	c.Merge(m)
	return c
}
