package model

// ModKind tags a modifier record.
type ModKind string

const (
	// multiplicative
	ModElementRate   ModKind = "element_rate"
	ModConditionRate ModKind = "condition_rate"
	ModDebuffRate    ModKind = "debuff_rate"
	ModParamRate     ModKind = "param_rate"
	ModSParamRate    ModKind = "sparam_rate"

	// additive
	ModXParamAdd       ModKind = "xparam_add"
	ModAttackCondition ModKind = "attack_condition"

	// set / flag
	ModConditionResist ModKind = "condition_resist"
	ModAttackElement   ModKind = "attack_element"
	ModSealSkill       ModKind = "seal_skill"
	ModAddSkill        ModKind = "add_skill"
	ModDualWield       ModKind = "dual_wield"
)

// Modifier is one trait record granted by a definition, class, item or condition.
// Subject is an element/condition/skill id or a param short name.
type Modifier struct {
	Kind    ModKind `json:"kind" yaml:"kind"`
	Subject string  `json:"subject,omitempty" yaml:"subject,omitempty"`
	Value   float64 `json:"value" yaml:"value"`
}

// Scope is the targeting pattern of an action.
type Scope string

const (
	ScopeNone          Scope = "none"
	ScopeSelf          Scope = "self"
	ScopeEnemy         Scope = "enemy"
	ScopeAllEnemies    Scope = "all_enemies"
	ScopeRandomEnemies Scope = "random_enemies"
	ScopeAlly          Scope = "ally"
	ScopeAllAllies     Scope = "all_allies"
	ScopeDeadAlly      Scope = "dead_ally"
	ScopeAllDeadAllies Scope = "all_dead_allies"
	ScopeEveryone      Scope = "everyone"
)

// ForDead reports whether the scope only selects knocked-out allies.
func (s Scope) ForDead() bool {
	return s == ScopeDeadAlly || s == ScopeAllDeadAllies
}

// DamageType is the resource an action's damage spec affects.
type DamageType string

const (
	DamageHP        DamageType = "hp_damage"
	DamageMP        DamageType = "mp_damage"
	DamageRecoverHP DamageType = "hp_recover"
	DamageRecoverMP DamageType = "mp_recover"
	DamageDrainHP   DamageType = "hp_drain"
	DamageDrainMP   DamageType = "mp_drain"
)

// DamageSpec describes the magnitude formula of an action.
type DamageSpec struct {
	Type     DamageType `json:"type"`
	Formula  string     `json:"formula"`
	Element  string     `json:"element,omitempty"`
	Variance float64    `json:"variance,omitempty"` // percent
	Critical bool       `json:"critical,omitempty"`
}

// EffectKind tags an Effect.
type EffectKind string

const (
	EffectRecoverHP       EffectKind = "recover_hp"
	EffectRecoverMP       EffectKind = "recover_mp"
	EffectGainTP          EffectKind = "gain_tp"
	EffectAddCondition    EffectKind = "add_condition"
	EffectRemoveCondition EffectKind = "remove_condition"
	EffectAddBuff         EffectKind = "add_buff"
	EffectAddDebuff       EffectKind = "add_debuff"
	EffectRemoveBuff      EffectKind = "remove_buff"
	EffectRemoveDebuff    EffectKind = "remove_debuff"
	EffectSpecial         EffectKind = "special"
	EffectCommonEvent     EffectKind = "common_event"
	EffectGrow            EffectKind = "grow"
	EffectLearnSkill      EffectKind = "learn_skill"
)

// SpecialEscape is the only special effect the engine knows about.
const SpecialEscape = "escape"

// Effect is one entry of an action's ordered effect list. Which fields are
// meaningful depends on Kind: ID for condition/skill/event/special ids, Param
// for buff/grow targets, Value for amounts (ratio of max for recover) or chance
// (0..1), Turns for buff duration.
type Effect struct {
	Kind  EffectKind `json:"kind"`
	ID    string     `json:"id,omitempty"`
	Param int        `json:"param,omitempty"`
	Value float64    `json:"value,omitempty"`
	Flat  float64    `json:"flat,omitempty"`
	Turns int        `json:"turns,omitempty"`
}

// ActionDef is a skill or usable item the agent may choose.
type ActionDef struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Rating      int         `json:"rating,omitempty"`
	MPCost      int         `json:"mpCost,omitempty"`
	TPCost      int         `json:"tpCost,omitempty"`
	SuccessRate float64     `json:"successRate,omitempty"`
	Scope       Scope       `json:"scope"`
	Count       int         `json:"count,omitempty"` // random_enemies draws
	Speed       int         `json:"speed,omitempty"`
	Effects     []Effect    `json:"effects,omitempty"`
	Damage      *DamageSpec `json:"damage,omitempty"`
	Basic       bool        `json:"basic,omitempty"`
	Item        bool        `json:"item,omitempty"`
}

// Damaging reports whether the action deals HP or MP damage.
func (a *ActionDef) Damaging() bool {
	if a.Damage == nil {
		return false
	}
	switch a.Damage.Type {
	case DamageHP, DamageMP, DamageDrainHP, DamageDrainMP:
		return true
	}
	return false
}

// Healing reports whether the action restores HP through its damage spec or effects.
func (a *ActionDef) Healing() bool {
	if a.Damage != nil && a.Damage.Type == DamageRecoverHP {
		return true
	}
	for _, e := range a.Effects {
		if e.Kind == EffectRecoverHP {
			return true
		}
	}
	return false
}

// Reviving reports whether the action targets knocked-out allies.
func (a *ActionDef) Reviving() bool {
	return a.Scope.ForDead()
}

// InflictsConditions reports whether any effect adds a condition.
func (a *ActionDef) InflictsConditions() bool {
	for _, e := range a.Effects {
		if e.Kind == EffectAddCondition {
			return true
		}
	}
	return false
}

// AreaEffect reports whether the action hits more than one target.
func (a *ActionDef) AreaEffect() bool {
	switch a.Scope {
	case ScopeAllEnemies, ScopeAllAllies, ScopeAllDeadAllies, ScopeEveryone:
		return true
	case ScopeRandomEnemies:
		return a.Count > 1
	}
	return false
}

// AutoRemoval is when a condition's turn counter is decremented.
type AutoRemoval string

const (
	RemovalNone      AutoRemoval = "none"
	RemovalActionEnd AutoRemoval = "action_end"
	RemovalTurnEnd   AutoRemoval = "turn_end"
	RemovalTurnStart AutoRemoval = "turn_start"
)

// ConditionDef describes a temporary status.
type ConditionDef struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name,omitempty"`
	Restriction         int         `json:"restriction"`
	Priority            int         `json:"priority,omitempty"`
	Category            string      `json:"category,omitempty"`
	RemoveByDamage      bool        `json:"removeByDamage,omitempty"`
	DamageRemovalChance float64     `json:"damageRemovalChance,omitempty"` // percent
	RemoveByWalking     bool        `json:"removeByWalking,omitempty"`
	RemoveAtBattleEnd   bool        `json:"removeAtBattleEnd,omitempty"`
	AutoRemoval         AutoRemoval `json:"autoRemoval,omitempty"`
	MinTurns            int         `json:"minTurns,omitempty"`
	MaxTurns            int         `json:"maxTurns,omitempty"`
	Traits              []Modifier  `json:"traits,omitempty"`
}

// ItemDef is an equippable item.
type ItemDef struct {
	ID     string             `json:"id"`
	Name   string             `json:"name,omitempty"`
	Params [NumParams]float64 `json:"params"`
	Traits []Modifier         `json:"traits,omitempty"`
}
