package agent

import (
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/tactics"
)

// detectObservations diffs two consecutive snapshots into HP changes the
// engine did not necessarily cause itself: healing (which feeds stalemate
// detection), knockouts and revives. Combatants missing from either
// snapshot are skipped.
func detectObservations(prev, cur *model.Snapshot) []tactics.Observation {
	if prev == nil || cur == nil {
		return nil
	}
	var out []tactics.Observation
	for i := range cur.Combatants {
		c := &cur.Combatants[i]
		before := prev.Find(c.ID)
		if before == nil || before.HP == c.HP {
			continue
		}
		obs := tactics.Observation{Target: c.ID, Side: c.Side, Round: cur.Round}
		delta := c.HP - before.HP
		switch {
		case before.HP <= 0 && c.HP > 0:
			obs.Kind = tactics.ObservedRevive
			obs.Amount = float64(delta)
		case delta > 0:
			obs.Kind = tactics.ObservedHealing
			obs.Amount = float64(delta)
		case c.HP <= 0:
			obs.Kind = tactics.ObservedKO
			obs.Amount = float64(-delta)
		default:
			// plain damage reaches the engine through outcomes
			continue
		}
		out = append(out, obs)
	}
	return out
}
