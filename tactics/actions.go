package tactics

import (
	"log/slog"
	"math"
	"slices"

	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/traits"
)

// legalActions enumerates what the agent can do right now. A restriction of
// 4 or more leaves nothing; 1 to 3 limit the agent to basic actions.
func legalActions(bf *Battlefield, opts Options) []*model.ActionDef {
	restriction := bf.Restriction()
	if restriction >= 4 {
		return nil
	}
	agent := bf.Agent
	prof := bf.Profile(agent)

	ids := slices.Clone(agent.Skills)
	for _, id := range prof.Granted() {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	items := make([]string, 0, len(bf.Snapshot.Inventory))
	for id := range bf.Snapshot.Inventory {
		items = append(items, id)
	}
	slices.Sort(items)

	mcr := prof.EffectiveSParam(agent, model.SParamMcr)
	var out []*model.ActionDef
	seen := make(map[string]bool)
	add := func(def *model.ActionDef) {
		if seen[def.ID] {
			return
		}
		seen[def.ID] = true
		out = append(out, def)
	}

	for _, id := range ids {
		def := bf.defs.Skill(id)
		switch {
		case def == nil:
			slog.Debug("unknown skill", "agent", agent.ID, "skill", id)
		case def.Item:
		case restriction > 0 && !def.Basic:
		case prof.Sealed(id):
		case !affordable(def, agent, mcr):
		default:
			add(def)
		}
	}
	if restriction == 0 {
		for _, id := range items {
			def := bf.defs.Skill(id)
			if def == nil || !def.Item {
				continue
			}
			if opts.ConsiderItemQuantity && bf.Snapshot.Inventory[id] <= 0 {
				continue
			}
			add(def)
		}
	}
	return out
}

func affordable(def *model.ActionDef, c *model.Combatant, mcr float64) bool {
	return mpCost(def, mcr) <= float64(c.MP) && def.TPCost <= c.TP
}

func mpCost(def *model.ActionDef, mcr float64) float64 {
	return math.Floor(float64(def.MPCost) * mcr)
}

// skillInfo summarizes what an action does, independent of targets.
type skillInfo struct {
	Damaging   bool
	Healing    bool
	Reviving   bool
	Inflicts   bool
	Disables   bool // inflicts a full or partial disable
	DOT        bool
	Buffs      bool
	Debuffs    bool
	Cures      bool
	Escape     bool
	Supportive bool
}

func analyzeSkill(def *model.ActionDef, defs Definitions, conds *traits.Cache[traits.Analysis]) skillInfo {
	info := skillInfo{
		Damaging: def.Damaging(),
		Healing:  def.Healing(),
		Reviving: def.Reviving(),
		Inflicts: def.InflictsConditions(),
	}
	for _, e := range def.Effects {
		switch e.Kind {
		case model.EffectAddCondition:
			a := conditionAnalysis(e.ID, defs, conds)
			switch a.Category {
			case traits.FullDisable, traits.PartialDisable:
				info.Disables = true
			case traits.DamageOverTime:
				info.DOT = true
			}
		case model.EffectAddBuff, model.EffectRemoveDebuff:
			info.Buffs = true
		case model.EffectAddDebuff, model.EffectRemoveBuff:
			info.Debuffs = true
		case model.EffectRemoveCondition:
			info.Cures = true
		case model.EffectSpecial:
			info.Escape = info.Escape || e.ID == model.SpecialEscape
		}
	}
	info.Supportive = !info.Damaging &&
		(info.Healing || info.Reviving || info.Inflicts || info.Buffs || info.Debuffs || info.Cures)
	return info
}

func conditionAnalysis(id string, defs Definitions, cache *traits.Cache[traits.Analysis]) traits.Analysis {
	return cache.GetOrCompute(id, func() traits.Analysis {
		return traits.Analyze(defs.Condition(id))
	})
}
