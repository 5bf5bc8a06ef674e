package tactics

import "github.com/nstehr/vimy/tactician/model"

// roleWeights are per-concern multipliers for one role. Roles only bias
// scores; every role can still use every legal action.
type roleWeights struct {
	Heal    float64 // healing and revives
	Damage  float64
	Disable float64 // full/partial disables
	Support float64 // buffs, debuffs, cures, other conditions
	Self    float64 // self-targeted healing and guarding
}

var neutralRole = roleWeights{Heal: 1, Damage: 1, Disable: 1, Support: 1, Self: 1}

var roles = map[model.Role]roleWeights{
	model.RoleHealer:     {Heal: 1.3, Damage: 0.9, Disable: 1, Support: 1.1, Self: 1},
	model.RoleDPS:        {Heal: 0.9, Damage: 1.2, Disable: 1, Support: 0.9, Self: 1},
	model.RoleTank:       {Heal: 1, Damage: 1, Disable: 1, Support: 1, Self: 1.2},
	model.RoleSupport:    {Heal: 1.1, Damage: 0.9, Disable: 1.1, Support: 1.25, Self: 1},
	model.RoleController: {Heal: 1, Damage: 0.95, Disable: 1.3, Support: 1.1, Self: 1},
	model.RoleBalanced:   neutralRole,
}

// roleModifier picks the multiplier for the action's dominant concern.
// Unknown roles are neutral.
func roleModifier(role model.Role, info skillInfo, def *model.ActionDef, selfTarget bool) float64 {
	w, ok := roles[role]
	if !ok {
		w = neutralRole
	}
	guard := def.Basic && def.Damage == nil && len(def.Effects) == 0
	switch {
	case selfTarget && (info.Healing || guard):
		return w.Self * max(w.Heal, 1)
	case info.Healing || info.Reviving:
		return w.Heal
	case info.Disables:
		return w.Disable
	case info.Damaging:
		return w.Damage
	case info.Supportive:
		return w.Support
	}
	return 1
}
