package tactics

import "slices"

// Ledger is the team coordination record shared by every agent of one side
// for the whole encounter. It only grows; it is cleared at encounter start.
// Agents act one at a time, so each decision writes it once and every later
// decision reads the accumulated state.
type Ledger struct {
	Healers   map[string]string   // target → agent assigned to heal it
	Expected  map[string]float64  // target → cumulative expected damage
	Attackers map[string][]string // target → agents targeting it
}

func NewLedger() *Ledger {
	l := &Ledger{}
	l.Reset()
	return l
}

func (l *Ledger) Reset() {
	l.Healers = make(map[string]string)
	l.Expected = make(map[string]float64)
	l.Attackers = make(map[string][]string)
}

func (l *Ledger) AssignHealer(target, agent string) {
	l.Healers[target] = agent
}

// HealerFor returns the agent already healing target.
func (l *Ledger) HealerFor(target string) (string, bool) {
	h, ok := l.Healers[target]
	return h, ok
}

// HealConflict reports whether someone other than agent is already healing target.
func (l *Ledger) HealConflict(target, agent string) bool {
	h, ok := l.Healers[target]
	return ok && h != agent
}

func (l *Ledger) AddDamage(target string, amount float64) {
	if amount > 0 {
		l.Expected[target] += amount
	}
}

func (l *Ledger) ExpectedDamage(target string) float64 {
	return l.Expected[target]
}

func (l *Ledger) AddAttacker(target, agent string) {
	if !slices.Contains(l.Attackers[target], agent) {
		l.Attackers[target] = append(l.Attackers[target], agent)
	}
}

// OtherAttackers counts agents other than agent already targeting target.
func (l *Ledger) OtherAttackers(target, agent string) int {
	n := 0
	for _, a := range l.Attackers[target] {
		if a != agent {
			n++
		}
	}
	return n
}
