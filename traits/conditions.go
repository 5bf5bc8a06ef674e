package traits

import (
	"github.com/nstehr/vimy/tactician/model"
)

// Category classifies a condition by how much it takes away from the bearer.
type Category string

const (
	FullDisable    Category = "full_disable"
	PartialDisable Category = "partial_disable"
	DamageOverTime Category = "dot"
	StatDebuff     Category = "debuff"
	OtherCondition Category = "other"
)

// PermanentTurns stands in for conditions that never expire on their own.
const PermanentTurns = 999

// ValueTurnCap is the remaining-turn count at which a condition is worth its full weight.
const ValueTurnCap = 5

var categoryWeights = map[Category]float64{
	FullDisable:    100,
	PartialDisable: 60,
	StatDebuff:     40,
	OtherCondition: 20,
}

// Categorize infers the category from restriction level and granted traits.
// An explicit category on the definition wins.
func Categorize(def *model.ConditionDef) Category {
	if def == nil {
		return OtherCondition
	}
	switch Category(def.Category) {
	case FullDisable, PartialDisable, DamageOverTime, StatDebuff, OtherCondition:
		return Category(def.Category)
	}
	switch {
	case def.Restriction >= 4:
		return FullDisable
	case def.Restriction >= 2:
		return PartialDisable
	case slipRate(def) > 0:
		return DamageOverTime
	case lowersParams(def):
		return StatDebuff
	}
	return OtherCondition
}

// slipRate is the fraction of max HP lost per turn (positive = damage).
func slipRate(def *model.ConditionDef) float64 {
	rate := 0.0
	for _, m := range def.Traits {
		if m.Kind == model.ModXParamAdd && model.XParamIndex(m.Subject) == model.XParamHrg {
			rate += m.Value
		}
	}
	if rate >= 0 {
		return 0
	}
	return -rate
}

func lowersParams(def *model.ConditionDef) bool {
	for _, m := range def.Traits {
		if m.Kind == model.ModParamRate && m.Value < 1 {
			return true
		}
	}
	return false
}

// SlipDamage estimates HP lost per turn by the bearer.
func SlipDamage(def *model.ConditionDef, target *model.Combatant) float64 {
	if def == nil || target == nil {
		return 0
	}
	return slipRate(def) * float64(target.MaxHP)
}

// EstimateRemainingTurns guesses how many more turns the condition stays on.
func EstimateRemainingTurns(def *model.ConditionDef, ac model.ActiveCondition) int {
	if def == nil {
		return 0
	}
	switch def.AutoRemoval {
	case model.RemovalNone, "":
		return PermanentTurns
	case model.RemovalTurnEnd:
		if ac.TurnsLeft >= 0 {
			return max(ac.TurnsLeft-1, 0)
		}
	case model.RemovalTurnStart:
		if ac.TurnsLeft >= 0 {
			return ac.TurnsLeft
		}
	}
	mid := (def.MinTurns + def.MaxTurns) / 2
	return max(mid-ac.Elapsed, 1)
}

// BaseValue is the category weight before the duration factor.
func BaseValue(def *model.ConditionDef, target *model.Combatant) float64 {
	cat := Categorize(def)
	if cat == DamageOverTime {
		if target == nil || target.MaxHP <= 0 {
			return slipRate(def) * 50
		}
		return SlipDamage(def, target) / float64(target.MaxHP) * 50
	}
	return categoryWeights[cat]
}

// DurationFactor scales a value by min(turns, cap)/cap.
func DurationFactor(turns int) float64 {
	if turns <= 0 {
		return 0
	}
	return float64(min(turns, ValueTurnCap)) / ValueTurnCap
}

// Value is the preservation value of a condition currently on target.
func Value(def *model.ConditionDef, ac model.ActiveCondition, target *model.Combatant) float64 {
	if def == nil {
		return 0
	}
	return BaseValue(def, target) * DurationFactor(EstimateRemainingTurns(def, ac))
}

// ProspectiveValue values a condition that isn't applied yet, assuming a
// fresh counter.
func ProspectiveValue(def *model.ConditionDef, target *model.Combatant) float64 {
	if def == nil {
		return 0
	}
	fresh := model.ActiveCondition{TurnsLeft: max(def.MaxTurns, def.MinTurns)}
	if fresh.TurnsLeft == 0 {
		fresh.TurnsLeft = -1
	}
	return Value(def, fresh, target)
}

// Analysis is the per-definition part of condition analysis, safe to cache.
type Analysis struct {
	Category      Category
	Removable     bool
	RemovalChance float64 // 0..1
	SlipRate      float64
}

// Analyze computes the cacheable analysis of a definition.
func Analyze(def *model.ConditionDef) Analysis {
	if def == nil {
		return Analysis{Category: OtherCondition}
	}
	return Analysis{
		Category:      Categorize(def),
		Removable:     def.RemoveByDamage,
		RemovalChance: min(max(def.DamageRemovalChance/100, 0), 1),
		SlipRate:      slipRate(def),
	}
}
