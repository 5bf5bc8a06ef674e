package memory

import (
	"github.com/nstehr/vimy/tactician/model"
)

// Profiler tracks what the opposing side does, to predict repeats and to
// know which opponents heal, revive, hit everyone or inflict conditions.
type Profiler struct {
	counts map[string]map[string]int
	totals map[string]int
	last   map[string]string
	caps   map[string]Capabilities
}

func NewProfiler() *Profiler {
	return &Profiler{
		counts: make(map[string]map[string]int),
		totals: make(map[string]int),
		last:   make(map[string]string),
		caps:   make(map[string]Capabilities),
	}
}

// CapabilitiesOf derives capability flags from an action definition.
func CapabilitiesOf(a *model.ActionDef) Capabilities {
	if a == nil {
		return Capabilities{}
	}
	return Capabilities{
		CanHeal:            a.Healing(),
		CanRevive:          a.Reviving(),
		HasArea:            a.AreaEffect() && a.Damaging(),
		InflictsConditions: a.InflictsConditions(),
	}
}

// Observe records one action performed by opponent. A nil definition still
// counts toward repeat prediction.
func (p *Profiler) Observe(opponent, actionID string, def *model.ActionDef) {
	byAction := p.counts[opponent]
	if byAction == nil {
		byAction = make(map[string]int)
		p.counts[opponent] = byAction
	}
	byAction[actionID]++
	p.totals[opponent]++
	p.last[opponent] = actionID
	p.caps[opponent] = p.caps[opponent].Merge(CapabilitiesOf(def))
}

// Learn folds the capabilities of an opponent's known skill list.
func (p *Profiler) Learn(opponent string, skills []*model.ActionDef) {
	c := p.caps[opponent]
	for _, s := range skills {
		c = c.Merge(CapabilitiesOf(s))
	}
	p.caps[opponent] = c
}

func (p *Profiler) Capabilities(opponent string) Capabilities {
	return p.caps[opponent]
}

// Predict returns the opponent's most frequent action and its observed
// frequency. Ties go to the most recent action.
func (p *Profiler) Predict(opponent string) (string, float64) {
	total := p.totals[opponent]
	if total == 0 {
		return "", 0
	}
	last := p.last[opponent]
	best, bestN := last, p.counts[opponent][last]
	for id, n := range p.counts[opponent] {
		if n > bestN || (n == bestN && id < best && id != last && best != last) {
			best, bestN = id, n
		}
	}
	return best, float64(bestN) / float64(total)
}

// Observations is the number of actions seen from opponent.
func (p *Profiler) Observations(opponent string) int {
	return p.totals[opponent]
}
