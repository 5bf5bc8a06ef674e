// Package traits folds modifier records from every source a combatant carries
// into one Capability Profile, and classifies the conditions it is under.
package traits

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/nstehr/vimy/tactician/model"
)

// Source is one origin of modifier records (base definition, class, an item,
// an active condition).
type Source struct {
	Origin    string
	Modifiers []model.Modifier
}

// Profile is the effective capability view of one combatant at one decision
// instant. Missing entries are identity: 1.0 for rates, 0 for additive values.
type Profile struct {
	ParamRate  [model.NumParams]float64
	XParam     [model.NumXParams]float64
	SParamRate [model.NumSParams]float64

	ElementRates   map[string]float64
	ConditionRates map[string]float64
	DebuffRates    map[int]float64

	ConditionResists map[string]bool
	AttackElements   map[string]bool
	AttackConditions map[string]float64 // on-hit chance, summed
	SealedSkills     map[string]bool
	AddedSkills      map[string]bool
	DualWield        bool
}

// NewProfile returns the identity profile.
func NewProfile() Profile {
	p := Profile{
		ElementRates:     make(map[string]float64),
		ConditionRates:   make(map[string]float64),
		DebuffRates:      make(map[int]float64),
		ConditionResists: make(map[string]bool),
		AttackElements:   make(map[string]bool),
		AttackConditions: make(map[string]float64),
		SealedSkills:     make(map[string]bool),
		AddedSkills:      make(map[string]bool),
	}
	for i := range p.ParamRate {
		p.ParamRate[i] = 1
	}
	for i := range p.SParamRate {
		p.SParamRate[i] = 1
	}
	return p
}

func (p *Profile) ElementRate(id string) float64   { return rateOr1(p.ElementRates, id) }
func (p *Profile) ConditionRate(id string) float64 { return rateOr1(p.ConditionRates, id) }

// EffectiveSParam is the combatant's secondary param scaled by trait rates. A zero
// host value is treated as the identity rate.
func (p *Profile) EffectiveSParam(c *model.Combatant, i int) float64 {
	if i < 0 || i >= model.NumSParams {
		return 1
	}
	v := 1.0
	if c != nil && c.SParams[i] != 0 {
		v = c.SParams[i]
	}
	return v * p.SParamRate[i]
}

func (p *Profile) DebuffRate(param int) float64 {
	if v, ok := p.DebuffRates[param]; ok {
		return v
	}
	return 1
}

// Resists reports full immunity to a condition.
func (p *Profile) Resists(id string) bool { return p.ConditionResists[id] }

func (p *Profile) Sealed(skill string) bool { return p.SealedSkills[skill] }

// Granted lists skills added by traits, sorted for stable enumeration.
func (p *Profile) Granted() []string {
	out := make([]string, 0, len(p.AddedSkills))
	for id := range p.AddedSkills {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func rateOr1(m map[string]float64, id string) float64 {
	if v, ok := m[id]; ok {
		return v
	}
	return 1
}

// Aggregate folds all sources into a profile. Records are sorted into a
// canonical order first so that float products come out bit-identical no
// matter how the sources are ordered.
func Aggregate(sources ...Source) Profile {
	var all []model.Modifier
	for _, s := range sources {
		all = append(all, s.Modifiers...)
	}
	slices.SortFunc(all, func(x, y model.Modifier) int {
		if c := cmp.Compare(x.Kind, y.Kind); c != 0 {
			return c
		}
		if c := cmp.Compare(x.Subject, y.Subject); c != 0 {
			return c
		}
		return cmp.Compare(x.Value, y.Value)
	})

	p := NewProfile()
	for _, m := range all {
		p.apply(m)
	}
	return p
}

func (p *Profile) apply(m model.Modifier) {
	switch m.Kind {
	case model.ModElementRate:
		p.ElementRates[m.Subject] = rateOr1(p.ElementRates, m.Subject) * m.Value
	case model.ModConditionRate:
		p.ConditionRates[m.Subject] = rateOr1(p.ConditionRates, m.Subject) * m.Value
	case model.ModDebuffRate:
		if i := model.ParamIndex(m.Subject); i >= 0 {
			p.DebuffRates[i] = p.DebuffRate(i) * m.Value
		}
	case model.ModParamRate:
		if i := model.ParamIndex(m.Subject); i >= 0 {
			p.ParamRate[i] *= m.Value
		}
	case model.ModSParamRate:
		if i := model.SParamIndex(m.Subject); i >= 0 {
			p.SParamRate[i] *= m.Value
		}
	case model.ModXParamAdd:
		if i := model.XParamIndex(m.Subject); i >= 0 {
			p.XParam[i] += m.Value
		}
	case model.ModAttackCondition:
		p.AttackConditions[m.Subject] += m.Value
	case model.ModConditionResist:
		p.ConditionResists[m.Subject] = true
	case model.ModAttackElement:
		p.AttackElements[m.Subject] = true
	case model.ModSealSkill:
		p.SealedSkills[m.Subject] = true
	case model.ModAddSkill:
		p.AddedSkills[m.Subject] = true
	case model.ModDualWield:
		p.DualWield = true
	default:
		slog.Debug("ignoring unknown modifier", "kind", m.Kind, "subject", m.Subject)
	}
}

// Definitions is the subset of the host data store the aggregator needs.
type Definitions interface {
	Condition(id string) *model.ConditionDef
	Item(id string) *model.ItemDef
}

// SourcesFor collects every modifier source of a combatant. Unknown item and
// condition ids are skipped. Equipment is only included when withEquipment is set.
func SourcesFor(c *model.Combatant, defs Definitions, withEquipment bool) []Source {
	if c == nil {
		return nil
	}
	sources := []Source{
		{Origin: "base", Modifiers: c.Traits},
		{Origin: "class", Modifiers: c.ClassTraits},
	}
	if withEquipment && defs != nil {
		for _, id := range c.Equipment {
			item := defs.Item(id)
			if item == nil {
				slog.Debug("unknown equipment", "combatant", c.ID, "item", id)
				continue
			}
			sources = append(sources, Source{Origin: "item:" + id, Modifiers: item.Traits})
		}
	}
	if defs != nil {
		for _, ac := range c.Conditions {
			def := defs.Condition(ac.ID)
			if def == nil {
				slog.Debug("unknown condition", "combatant", c.ID, "condition", ac.ID)
				continue
			}
			sources = append(sources, Source{Origin: "condition:" + ac.ID, Modifiers: def.Traits})
		}
	}
	return sources
}

// ProfileOf is SourcesFor followed by Aggregate.
func ProfileOf(c *model.Combatant, defs Definitions, withEquipment bool) Profile {
	return Aggregate(SourcesFor(c, defs, withEquipment)...)
}
