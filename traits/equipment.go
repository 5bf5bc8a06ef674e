package traits

import (
	"slices"

	"github.com/nstehr/vimy/tactician/model"
)

// ItemBreakdown is the analysis of a single equipped item.
type ItemBreakdown struct {
	ID            string
	Params        [model.NumParams]float64
	Elements      []string
	Conditions    []string // inflicted on hit
	Reflect       bool
	Counter       bool
	DualWield     bool
	AutoCondition bool
}

// EquipmentReport sums the breakdowns of everything a combatant wears.
type EquipmentReport struct {
	Items         []ItemBreakdown
	Params        [model.NumParams]float64
	Reflect       bool
	Counter       bool
	DualWield     bool
	AutoCondition bool
}

// AnalyzeEquipment breaks down the combatant's equipped items. Unknown item
// ids are ignored.
func AnalyzeEquipment(c *model.Combatant, defs Definitions) EquipmentReport {
	var r EquipmentReport
	if c == nil || defs == nil {
		return r
	}
	for _, id := range c.Equipment {
		item := defs.Item(id)
		if item == nil {
			continue
		}
		b := analyzeItem(item)
		for i := range r.Params {
			r.Params[i] += b.Params[i]
		}
		r.Reflect = r.Reflect || b.Reflect
		r.Counter = r.Counter || b.Counter
		r.DualWield = r.DualWield || b.DualWield
		r.AutoCondition = r.AutoCondition || b.AutoCondition
		r.Items = append(r.Items, b)
	}
	return r
}

func analyzeItem(item *model.ItemDef) ItemBreakdown {
	b := ItemBreakdown{ID: item.ID, Params: item.Params}
	for _, m := range item.Traits {
		switch m.Kind {
		case model.ModAttackElement:
			if !slices.Contains(b.Elements, m.Subject) {
				b.Elements = append(b.Elements, m.Subject)
			}
		case model.ModAttackCondition:
			if !slices.Contains(b.Conditions, m.Subject) {
				b.Conditions = append(b.Conditions, m.Subject)
			}
			b.AutoCondition = true
		case model.ModXParamAdd:
			switch model.XParamIndex(m.Subject) {
			case model.XParamMrf:
				b.Reflect = b.Reflect || m.Value > 0
			case model.XParamCnt:
				b.Counter = b.Counter || m.Value > 0
			}
		case model.ModDualWield:
			b.DualWield = true
		}
	}
	return b
}

// Risk is a 0..1 estimate of how punishing it is to attack the wearer.
// Reflect returns the whole hit, counter only a basic attack.
func (r EquipmentReport) Risk() float64 {
	risk := 0.0
	if r.Reflect {
		risk += 0.5
	}
	if r.Counter {
		risk += 0.3
	}
	if r.AutoCondition {
		risk += 0.1
	}
	return min(risk, 1)
}
