package tactics

import (
	"math/rand"

	"github.com/nstehr/vimy/tactician/model"
)

// targetSets resolves an action's scope into the target sets worth scoring.
// Single-target scopes yield one set per candidate so each can be scored;
// random scopes draw without replacement. An empty result means the action
// has no valid targets. ok is false only for that case; self and none
// scopes are always valid.
func targetSets(def *model.ActionDef, bf *Battlefield, rng *rand.Rand) (sets [][]*model.Combatant, ok bool) {
	switch def.Scope {
	case model.ScopeNone, "":
		return [][]*model.Combatant{nil}, true
	case model.ScopeSelf:
		return [][]*model.Combatant{{bf.Agent}}, true
	case model.ScopeEnemy:
		return singles(bf.Enemies)
	case model.ScopeAlly:
		return singles(bf.Allies)
	case model.ScopeDeadAlly:
		return singles(bf.DeadAllies)
	case model.ScopeAllEnemies:
		return group(bf.Enemies)
	case model.ScopeAllAllies:
		return group(bf.Allies)
	case model.ScopeAllDeadAllies:
		return group(bf.DeadAllies)
	case model.ScopeEveryone:
		all := append(append([]*model.Combatant(nil), bf.Allies...), bf.Enemies...)
		return group(all)
	case model.ScopeRandomEnemies:
		return group(drawRandom(bf.Enemies, max(def.Count, 1), rng))
	}
	return nil, false
}

func singles(cs []*model.Combatant) ([][]*model.Combatant, bool) {
	if len(cs) == 0 {
		return nil, false
	}
	out := make([][]*model.Combatant, len(cs))
	for i, c := range cs {
		out[i] = []*model.Combatant{c}
	}
	return out, true
}

func group(cs []*model.Combatant) ([][]*model.Combatant, bool) {
	if len(cs) == 0 {
		return nil, false
	}
	return [][]*model.Combatant{cs}, true
}

// drawRandom picks n distinct combatants.
func drawRandom(cs []*model.Combatant, n int, rng *rand.Rand) []*model.Combatant {
	if n >= len(cs) {
		out := append([]*model.Combatant(nil), cs...)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}
	out := make([]*model.Combatant, 0, n)
	for _, i := range rng.Perm(len(cs))[:n] {
		out = append(out, cs[i])
	}
	return out
}

// randomTarget resolves def's scope and picks one set at random.
func randomTarget(def *model.ActionDef, bf *Battlefield, rng *rand.Rand) ([]*model.Combatant, bool) {
	sets, ok := targetSets(def, bf, rng)
	if !ok || len(sets) == 0 {
		return nil, false
	}
	return sets[rng.Intn(len(sets))], true
}
