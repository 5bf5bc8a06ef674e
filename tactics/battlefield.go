package tactics

import (
	"fmt"

	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/traits"
)

// Battlefield is the analyzed, read-only view one decision is scored against.
// Profiles and equipment reports are computed lazily and live only as long
// as the decision.
type Battlefield struct {
	Snapshot   *model.Snapshot
	Agent      *model.Combatant
	Allies     []*model.Combatant // living, agent included
	Enemies    []*model.Combatant // living
	DeadAllies []*model.Combatant
	AllyHP     float64 // mean HP ratio of living allies
	EnemyHP    float64
	MeanParams [model.NumParams]float64

	defs      Definitions
	equipment bool
	profiles  map[string]*traits.Profile
	reports   map[string]traits.EquipmentReport
}

func analyzeBattlefield(snap *model.Snapshot, agentID string, defs Definitions, opts Options) (*Battlefield, error) {
	agent := snap.Find(agentID)
	if agent == nil {
		return nil, fmt.Errorf("agent %q not in snapshot", agentID)
	}
	bf := &Battlefield{
		Snapshot:  snap,
		Agent:     agent,
		defs:      defs,
		equipment: opts.AnalyzeEquipment,
		profiles:  make(map[string]*traits.Profile),
		reports:   make(map[string]traits.EquipmentReport),
	}
	living := 0
	for i := range snap.Combatants {
		c := &snap.Combatants[i]
		switch {
		case c.Side == agent.Side && c.Alive():
			bf.Allies = append(bf.Allies, c)
		case c.Side == agent.Side:
			bf.DeadAllies = append(bf.DeadAllies, c)
		case c.Alive():
			bf.Enemies = append(bf.Enemies, c)
		default:
			continue
		}
		if c.Alive() {
			living++
			for p := range bf.MeanParams {
				bf.MeanParams[p] += c.Param(p)
			}
		}
	}
	if living > 0 {
		for p := range bf.MeanParams {
			bf.MeanParams[p] /= float64(living)
		}
	}
	bf.AllyHP = meanHP(bf.Allies)
	bf.EnemyHP = meanHP(bf.Enemies)
	return bf, nil
}

func meanHP(cs []*model.Combatant) float64 {
	if len(cs) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cs {
		sum += c.HPRatio()
	}
	return sum / float64(len(cs))
}

// Profile returns the combatant's capability profile for this decision.
func (bf *Battlefield) Profile(c *model.Combatant) *traits.Profile {
	if p, ok := bf.profiles[c.ID]; ok {
		return p
	}
	p := traits.ProfileOf(c, bf.defs, bf.equipment)
	bf.profiles[c.ID] = &p
	return &p
}

// Equipment returns the equipment report, empty when equipment analysis is off.
func (bf *Battlefield) Equipment(c *model.Combatant) traits.EquipmentReport {
	if !bf.equipment {
		return traits.EquipmentReport{}
	}
	if r, ok := bf.reports[c.ID]; ok {
		return r
	}
	r := traits.AnalyzeEquipment(c, bf.defs)
	bf.reports[c.ID] = r
	return r
}

// Opposing reports whether c fights against the agent.
func (bf *Battlefield) Opposing(c *model.Combatant) bool {
	return c.Side != bf.Agent.Side
}

// Restriction is the strongest action restriction among the agent's conditions.
func (bf *Battlefield) Restriction() int {
	r := 0
	for _, ac := range bf.Agent.Conditions {
		if def := bf.defs.Condition(ac.ID); def != nil {
			r = max(r, def.Restriction)
		}
	}
	return r
}

// paramWeight compares a combatant's param with the battlefield mean, so
// buffing a high-ATK ally or debuffing a high-ATK enemy is worth more.
func (bf *Battlefield) paramWeight(c *model.Combatant, param int) float64 {
	if param < 0 || param >= model.NumParams || bf.MeanParams[param] <= 0 {
		return 1
	}
	return min(max(c.Param(param)/bf.MeanParams[param], 0.5), 2)
}
