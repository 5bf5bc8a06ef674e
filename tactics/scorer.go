package tactics

import (
	"slices"

	"github.com/nstehr/vimy/tactician/formula"
	"github.com/nstehr/vimy/tactician/memory"
	"github.com/nstehr/vimy/tactician/model"
	"github.com/nstehr/vimy/tactician/traits"
)

// Scoring constants. Sub-scores are roughly on a 0..100 scale per target.
const (
	lethalBonus        = 100.0
	reviveValue        = 80.0
	overFocusFactor    = 0.3
	healConflictFactor = 0.3
	stalemateLowHP     = 30.0
	buffValue          = 15.0
	escapeValue        = 60.0
	escapePenalty      = -50.0
	maxDOTStacks       = 3
	promoteFraction    = 0.7
)

// Breakdown is the itemized score of one action against one target set.
type Breakdown struct {
	Survival     float64 `json:"survival"`
	Damage       float64 `json:"damage"`
	Support      float64 `json:"support"`
	Tactical     float64 `json:"tactical"`
	Team         float64 `json:"team"`
	Combo        float64 `json:"combo"`
	Preservation float64 `json:"preservation"`
	Threat       float64 `json:"threat"`

	Efficiency float64 `json:"efficiency"`
	History    float64 `json:"history"`
	Targeting  float64 `json:"targeting"`
	Success    float64 `json:"success"`
	Difficulty float64 `json:"difficulty"`
	Role       float64 `json:"role"`
	Risk       float64 `json:"risk"`

	Total float64 `json:"total"`
}

// option is one scored (action, targets) candidate.
type option struct {
	Def        *model.ActionDef
	Info       skillInfo
	Targets    []*model.Combatant
	Magnitudes []float64
	Score      Breakdown
	Risk       float64 // accumulated preservation risk
	Lethal     bool
}

func (o *option) targetIDs() []string {
	ids := make([]string, len(o.Targets))
	for i, t := range o.Targets {
		ids[i] = t.ID
	}
	return ids
}

type scorer struct {
	opts       Options
	diff       Difficulty
	eval       *formula.Evaluator
	bf         *Battlefield
	st         *AgentState
	enc        *Encounter
	stalemated bool
}

func (s *scorer) info(def *model.ActionDef) skillInfo {
	return s.st.Skills.GetOrCompute(def.ID, func() skillInfo {
		return analyzeSkill(def, s.enc.defs, s.st.Conditions)
	})
}

// score fills in every sub-score and multiplier of one option.
func (s *scorer) score(o *option) {
	def, agent := o.Def, s.bf.Agent
	b := &o.Score
	o.Magnitudes = make([]float64, len(o.Targets))

	for i, t := range o.Targets {
		mag := s.magnitude(def, t)
		o.Magnitudes[i] = mag
		b.Survival += s.survival(def, t, mag)
		if s.bf.Opposing(t) {
			dmg, lethal := s.damage(def, t, mag)
			b.Damage += dmg
			o.Lethal = o.Lethal || lethal
			b.Team += s.team(def, o.Info, t, mag, lethal)
			b.Combo += s.combo(def, o.Info, t, lethal)
			b.Threat += s.threat(o.Info, t)
			if o.Info.Damaging && !lethal {
				o.Risk += s.preservationRisk(t)
			}
		} else if o.Info.Damaging {
			// friendly fire from everyone-scoped actions
			dmg, _ := s.damage(def, t, mag)
			b.Damage -= dmg
		} else if o.Info.Healing {
			b.Team += s.team(def, o.Info, t, mag, false)
		}
		b.Support += s.support(def, t)
	}
	if def.Damage != nil && def.Damage.Type == model.DamageDrainHP {
		drained := 0.0
		for i, t := range o.Targets {
			drained += min(o.Magnitudes[i], float64(t.HP))
		}
		b.Survival += s.healValue(agent, drained)
	}
	if def.Reviving() {
		for _, t := range o.Targets {
			if !t.Alive() {
				b.Survival += reviveValue
			}
		}
	}
	b.Tactical = s.tactical(def, o.Info)
	b.Preservation = -o.Risk

	base := s.opts.SurvivalWeight*b.Survival +
		s.opts.DamageWeight*b.Damage +
		s.opts.SupportWeight*b.Support +
		s.opts.TacticalWeight*b.Tactical +
		s.opts.TeamWeight*b.Team +
		b.Combo +
		s.opts.PreservationWeight*b.Preservation +
		b.Threat

	b.Efficiency = s.efficiency(def, o.Info)
	b.History = s.st.Memory.HistoricalModifier(def.ID, s.opts.LearningRate)
	b.Targeting = s.targeting(def, o.Targets)
	b.Success = successRate(def)
	b.Difficulty = s.diff.ScoreMultiplier(s.bf.AllyHP, s.bf.EnemyHP)
	b.Role = roleModifier(agent.Role, o.Info, def, len(o.Targets) == 1 && o.Targets[0] == agent)
	b.Risk = s.equipmentRisk(o)

	b.Total = base * b.Efficiency * b.History * b.Targeting * b.Success * b.Difficulty * b.Role * b.Risk
}

// targeting averages the per-target success history of def over the
// opposing targets; targets with too few attempts count as neutral.
func (s *scorer) targeting(def *model.ActionDef, targets []*model.Combatant) float64 {
	sum, n := 0.0, 0
	for _, t := range targets {
		if !s.bf.Opposing(t) {
			continue
		}
		sum += s.st.Memory.TargetModifier(def.ID, t.Key(), s.opts.LearningRate)
		n++
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

// magnitude estimates the action's formula result against t, scaled by
// element and recovery rates. Known memory discoveries override profile rates.
func (s *scorer) magnitude(def *model.ActionDef, t *model.Combatant) float64 {
	if def.Damage == nil || def.Damage.Formula == "" {
		return 0
	}
	agent := s.bf.Agent
	mag := s.eval.Evaluate(def.Damage.Formula, formula.StatsOf(agent), formula.StatsOf(t), s.bf.Snapshot.Variables)
	switch def.Damage.Type {
	case model.DamageRecoverHP, model.DamageRecoverMP:
		return mag * s.bf.Profile(t).EffectiveSParam(t, model.SParamRec)
	}
	if avg := s.st.Memory.AverageMagnitude(def.ID); avg > 0 {
		if st := s.st.Memory.Skills[def.ID]; st != nil && st.Uses >= memory.MinUsesForHistory {
			mag = (mag + avg) / 2
		}
	}
	return mag * s.elementRate(def, t)
}

func (s *scorer) elementRate(def *model.ActionDef, t *model.Combatant) float64 {
	rateOf := func(el string) float64 {
		if r, ok := s.st.Memory.ElementRate(t.Key(), el); ok {
			return r
		}
		return s.bf.Profile(t).ElementRate(el)
	}
	if def.Damage.Element != "" {
		return rateOf(def.Damage.Element)
	}
	// Element-less actions carry the attacker's weapon elements; the best one applies.
	elements := s.bf.Profile(s.bf.Agent).AttackElements
	if len(elements) == 0 {
		return 1
	}
	best := 0.0
	for el := range elements {
		best = max(best, rateOf(el))
	}
	return best
}

func (s *scorer) healAmount(def *model.ActionDef, t *model.Combatant, mag float64) float64 {
	amount := 0.0
	if def.Damage != nil && def.Damage.Type == model.DamageRecoverHP {
		amount += mag
	}
	for _, e := range def.Effects {
		if e.Kind == model.EffectRecoverHP {
			amount += (e.Value*float64(t.MaxHP) + e.Flat) * s.bf.Profile(t).EffectiveSParam(t, model.SParamRec)
		}
	}
	return amount
}

// healValue weights restored HP toward low and critical targets.
func (s *scorer) healValue(t *model.Combatant, amount float64) float64 {
	if t.MaxHP <= 0 || !t.Alive() || amount <= 0 {
		return 0
	}
	eff := min(amount, float64(t.MaxHP-t.HP)) / float64(t.MaxHP)
	ratio := t.HPRatio()
	if ratio > s.opts.HealingThreshold {
		return eff * 20
	}
	v := eff * 100 * (1 + (1 - ratio))
	if ratio < s.opts.CriticalHPThreshold {
		v *= 1.5
	}
	if t.ID == s.bf.Agent.ID {
		v *= 1.2
	}
	return v
}

func (s *scorer) survival(def *model.ActionDef, t *model.Combatant, mag float64) float64 {
	if s.bf.Opposing(t) {
		return 0
	}
	v := s.healValue(t, s.healAmount(def, t, mag))
	if v > 0 && s.enc.Ledger.HealConflict(t.ID, s.bf.Agent.ID) {
		v *= healConflictFactor
	}
	if t.Alive() && t.MaxMP > 0 && t.MPRatio() < 0.5 {
		mp := 0.0
		if def.Damage != nil && def.Damage.Type == model.DamageRecoverMP {
			mp += mag
		}
		for _, e := range def.Effects {
			if e.Kind == model.EffectRecoverMP {
				mp += e.Value*float64(t.MaxMP) + e.Flat
			}
		}
		v += min(mp, float64(t.MaxMP-t.MP)) / float64(t.MaxMP) * 20
	}
	return v
}

// damage returns the damage sub-score against one target and whether the
// worst roll still kills it.
func (s *scorer) damage(def *model.ActionDef, t *model.Combatant, mag float64) (float64, bool) {
	if def.Damage == nil || t.MaxHP <= 0 {
		return 0, false
	}
	switch def.Damage.Type {
	case model.DamageMP, model.DamageDrainMP:
		if t.MaxMP <= 0 {
			return 0, false
		}
		return min(mag, float64(t.MP)) / float64(t.MaxMP) * 40, false
	case model.DamageHP, model.DamageDrainHP:
	default:
		return 0, false
	}
	hp := float64(t.HP)
	v := min(mag, hp) / float64(t.MaxHP) * 100
	lethal := mag*(1-def.Damage.Variance/100) >= hp
	if lethal {
		bonus := lethalBonus
		if caps := s.capabilities(t); caps.CanHeal || caps.CanRevive || t.Role == model.RoleHealer {
			bonus *= 1.2
		}
		v += bonus
	}
	if hp > 0 && mag > hp*1.5 {
		v -= min((mag-hp)/float64(t.MaxHP)*20, 20)
	}
	if s.enc.Ledger.ExpectedDamage(t.ID) >= hp {
		v *= overFocusFactor
	}
	if s.stalemated && t.HPRatio() < 0.3 {
		v += stalemateLowHP
	}
	return v, lethal
}

func (s *scorer) capabilities(t *model.Combatant) memory.Capabilities {
	return s.enc.Profiler.Capabilities(t.ID).Merge(s.st.Memory.Capabilities[t.Key()])
}

// inflictValue is the expected worth of trying to add condition id to t.
func (s *scorer) inflictValue(id string, chance float64, t *model.Combatant) float64 {
	cdef := s.enc.defs.Condition(id)
	if cdef == nil || t.HasCondition(id) {
		return 0
	}
	if chance <= 0 {
		chance = 1
	}
	a := conditionAnalysis(id, s.enc.defs, s.st.Conditions)
	harmful := a.Category != traits.OtherCondition
	prof := s.bf.Profile(t)
	if !s.bf.Opposing(t) {
		v := traits.ProspectiveValue(cdef, t) * chance
		if harmful {
			return -v
		}
		return v * 0.5
	}
	if prof.Resists(id) || s.st.Memory.Resisted(t.Key(), id) {
		return 0
	}
	v := traits.ProspectiveValue(cdef, t) * min(chance, 1) * prof.ConditionRate(id)
	if s.stalemated && (a.Category == traits.FullDisable || a.Category == traits.PartialDisable) {
		v *= 1.5
	}
	return v
}

func (s *scorer) support(def *model.ActionDef, t *model.Combatant) float64 {
	v := 0.0
	opposing := s.bf.Opposing(t)
	for _, e := range def.Effects {
		switch e.Kind {
		case model.EffectAddCondition:
			v += s.inflictValue(e.ID, e.Value, t)
		case model.EffectRemoveCondition:
			v += s.cureValue(e, t, opposing)
		case model.EffectAddBuff:
			if !opposing && validParam(e.Param) && t.Buffs[e.Param] < 2 {
				v += buffValue * s.bf.paramWeight(t, e.Param) * turnFactor(e.Turns)
			}
		case model.EffectAddDebuff:
			if opposing && validParam(e.Param) && t.Buffs[e.Param] > -2 {
				v += buffValue * s.bf.paramWeight(t, e.Param) * s.bf.Profile(t).DebuffRate(e.Param) * turnFactor(e.Turns)
			}
		case model.EffectRemoveBuff:
			if opposing && validParam(e.Param) && t.Buffs[e.Param] > 0 {
				v += 12 * float64(t.Buffs[e.Param])
			}
		case model.EffectRemoveDebuff:
			if !opposing && validParam(e.Param) && t.Buffs[e.Param] < 0 {
				v += 12 * float64(-t.Buffs[e.Param])
			}
		}
	}
	// Weapon on-hit conditions ride along with basic attacks.
	if def.Basic && def.Damaging() && opposing {
		onHit := s.bf.Profile(s.bf.Agent).AttackConditions
		ids := make([]string, 0, len(onHit))
		for id := range onHit {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			v += s.inflictValue(id, onHit[id], t)
		}
	}
	return v
}

func (s *scorer) cureValue(e model.Effect, t *model.Combatant, opposing bool) float64 {
	chance := e.Value
	if chance <= 0 {
		chance = 1
	}
	for _, ac := range t.Conditions {
		if ac.ID != e.ID {
			continue
		}
		cdef := s.enc.defs.Condition(ac.ID)
		if cdef == nil {
			return 0
		}
		harmful := conditionAnalysis(ac.ID, s.enc.defs, s.st.Conditions).Category != traits.OtherCondition
		switch {
		case !opposing && harmful:
			return traits.Value(cdef, ac, t) * chance
		case opposing && !harmful:
			return traits.Value(cdef, ac, t) * chance * 0.5
		}
		return 0
	}
	return 0
}

func validParam(i int) bool { return i >= 0 && i < model.NumParams }

func turnFactor(turns int) float64 {
	if turns <= 0 {
		return 0.6
	}
	return traits.DurationFactor(turns)
}

func (s *scorer) tactical(def *model.ActionDef, info skillInfo) float64 {
	agent := s.bf.Agent
	v := 0.0
	for _, e := range def.Effects {
		switch e.Kind {
		case model.EffectSpecial:
			if e.ID != model.SpecialEscape {
				continue
			}
			if s.bf.AllyHP < 0.25 {
				v += escapeValue
			} else {
				v += escapePenalty
			}
		case model.EffectGrow:
			v += 10
		case model.EffectLearnSkill:
			known := false
			for _, id := range agent.Skills {
				known = known || id == e.ID
			}
			if !known {
				v += 10
			}
		case model.EffectCommonEvent:
			v += 5
		case model.EffectGainTP:
			v += e.Value / float64(max(agent.MaxTP, 100)) * 20
		}
	}
	if def.Basic && def.Damage == nil && len(def.Effects) == 0 {
		// guard and friends
		if agent.HPRatio() < s.opts.CriticalHPThreshold {
			v += 15
		} else {
			v += 2
		}
	}
	return v
}

func (s *scorer) team(def *model.ActionDef, info skillInfo, t *model.Combatant, mag float64, lethal bool) float64 {
	ledger, agent := s.enc.Ledger, s.bf.Agent.ID
	if !s.bf.Opposing(t) {
		if info.Healing && ledger.HealConflict(t.ID, agent) {
			return -30
		}
		return 0
	}
	if !info.Damaging {
		return 0
	}
	expected := ledger.ExpectedDamage(t.ID)
	hp := float64(t.HP)
	switch {
	case expected >= hp:
		return -25
	case !lethal && expected > 0 && expected+mag >= hp:
		return 20
	case ledger.OtherAttackers(t.ID, agent) > 0:
		return 5 * float64(min(ledger.OtherAttackers(t.ID, agent), 2))
	}
	return 0
}

func (s *scorer) combo(def *model.ActionDef, info skillInfo, t *model.Combatant, lethal bool) float64 {
	v := 0.0
	if lethal {
		for _, ac := range t.Conditions {
			if conditionAnalysis(ac.ID, s.enc.defs, s.st.Conditions).Category == traits.FullDisable {
				v += 30
				break
			}
		}
		if heavilyDebuffed(t, s.enc.defs, s.st.Conditions) {
			v += 15
		}
	}
	if info.DOT {
		stacks := 0
		for _, ac := range t.Conditions {
			if conditionAnalysis(ac.ID, s.enc.defs, s.st.Conditions).Category == traits.DamageOverTime {
				stacks++
			}
		}
		if stacks < maxDOTStacks {
			v += 10
		} else {
			v -= 10
		}
	}
	if info.Damaging && def.Damage != nil {
		if rate := s.elementRate(def, t); rate > 1 {
			v += min(20*(rate-1), 30)
		}
	}
	return v
}

func heavilyDebuffed(t *model.Combatant, defs Definitions, cache *traits.Cache[traits.Analysis]) bool {
	levels := 0
	for _, b := range t.Buffs {
		if b < 0 {
			levels -= b
		}
	}
	for _, ac := range t.Conditions {
		if conditionAnalysis(ac.ID, defs, cache).Category == traits.StatDebuff {
			levels++
		}
	}
	return levels >= 2
}

// threat favors acting on opponents that heal, revive or hit everyone, and
// on the predicted next action when prediction is enabled.
func (s *scorer) threat(info skillInfo, t *model.Combatant) float64 {
	if !info.Damaging && !info.Disables && !info.Debuffs {
		return 0
	}
	caps := s.capabilities(t)
	v := 0.0
	if caps.CanHeal || t.Role == model.RoleHealer {
		v += 15
	}
	if caps.CanRevive {
		v += 10
	}
	if caps.HasArea {
		v += 5
	}
	if caps.InflictsConditions {
		v += 5
	}
	if s.diff.Predict {
		if id, conf := s.enc.Profiler.Predict(t.ID); conf >= 0.5 {
			if next := s.enc.defs.Skill(id); next != nil && (next.Healing() || next.Reviving() || next.AreaEffect()) {
				v += 10 * conf
			}
		}
	}
	if s.stalemated && info.Disables && s.st.Tracker.OutSustained(t.ID) {
		v += 20
	}
	return v
}

// preservationRisk sums value × removal chance over the removable conditions
// on t worth keeping.
func (s *scorer) preservationRisk(t *model.Combatant) float64 {
	risk := 0.0
	for _, ac := range t.Conditions {
		cdef := s.enc.defs.Condition(ac.ID)
		if cdef == nil {
			continue
		}
		a := conditionAnalysis(ac.ID, s.enc.defs, s.st.Conditions)
		if !a.Removable {
			continue
		}
		if v := traits.Value(cdef, ac, t); v >= s.opts.MinConditionValue {
			risk += v * a.RemovalChance
		}
	}
	return risk
}

func (s *scorer) efficiency(def *model.ActionDef, info skillInfo) float64 {
	agent := s.bf.Agent
	e := 1.0
	if cost := mpCost(def, s.bf.Profile(agent).EffectiveSParam(agent, model.SParamMcr)); cost > 0 {
		e *= 1 - 0.3*min(cost/float64(max(agent.MP, 1)), 1)
	}
	if def.TPCost > 0 {
		e *= 1 - 0.2*min(float64(def.TPCost)/float64(max(agent.TP, 1)), 1)
	}
	if agent.HPRatio() < s.opts.CriticalHPThreshold {
		switch {
		case def.Speed > 0:
			e *= 1.1
		case def.Speed < 0:
			e *= 0.9
		}
	}
	if s.st.LastAction == def.ID && s.st.LastHit && s.bf.AllyHP > s.bf.EnemyHP {
		e *= 1.05
	}
	rating := def.Rating
	if rating <= 0 {
		rating = 5
	}
	e *= 0.9 + float64(rating)/50
	switch round := s.bf.Snapshot.Round; {
	case round <= 2 && (info.Supportive && !info.Healing):
		e *= 1.1
	case round >= 6 && info.Damaging:
		e *= 1.1
	}
	return e
}

func successRate(def *model.ActionDef) float64 {
	if def.SuccessRate <= 0 {
		return 1
	}
	return min(def.SuccessRate, 1)
}

// equipmentRisk discounts attacking targets whose gear reflects or counters.
func (s *scorer) equipmentRisk(o *option) float64 {
	if !o.Info.Damaging || len(o.Targets) == 0 {
		return 1
	}
	risk := 0.0
	for _, t := range o.Targets {
		if s.bf.Opposing(t) {
			risk += s.bf.Equipment(t).Risk()
		}
	}
	return 1 - 0.5*risk/float64(len(o.Targets))
}
