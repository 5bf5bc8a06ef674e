package tactics

import (
	"errors"
	"slices"
	"testing"

	"github.com/nstehr/vimy/tactician/memory"
	"github.com/nstehr/vimy/tactician/model"
)

func fighter(id string, side model.Side, hp, maxHP int, skills ...string) model.Combatant {
	return model.Combatant{
		ID:     id,
		Side:   side,
		HP:     hp,
		MaxHP:  maxHP,
		MP:     100,
		MaxMP:  100,
		MaxTP:  100,
		Params: [model.NumParams]float64{float64(maxHP), 100, 50, 50, 50, 50, 50, 50},
		Skills: skills,
	}
}

func hpAttack(id, formula string) model.ActionDef {
	return model.ActionDef{
		ID:     id,
		Scope:  model.ScopeEnemy,
		Damage: &model.DamageSpec{Type: model.DamageHP, Formula: formula},
	}
}

func optionsFor(mode Mode) Options {
	o := DefaultOptions()
	o.Difficulty = mode
	return o
}

func TestDecideHealsSelfAtLowHP(t *testing.T) {
	attack := hpAttack("attack", "a.atk * 4 - b.def * 2")
	attack.Basic = true
	heal := model.ActionDef{
		ID:      "heal",
		MPCost:  10,
		Scope:   model.ScopeAlly,
		Effects: []model.Effect{{Kind: model.EffectRecoverHP, Value: 0.3}},
	}
	cat := model.NewCatalog([]model.ActionDef{attack, heal}, nil, nil)

	hero := fighter("hero", model.SideAgent, 100, 500, "attack", "heal")
	priest := fighter("priest", model.SideOpponent, 500, 500)
	priest.Role = model.RoleHealer
	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{hero, priest}}

	o := NewOrchestrator(optionsFor(Hard))
	dec, err := o.Decide(NewEncounter(cat, nil, 1), snap)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "heal" || !slices.Equal(dec.Targets, []string{"hero"}) {
		t.Errorf("decision = %s %v, want heal [hero]", dec.ActionID, dec.Targets)
	}
}

func TestDecidePrefersKillOverDisable(t *testing.T) {
	stun := model.ConditionDef{ID: "stun", Restriction: 4, AutoRemoval: model.RemovalTurnEnd, MinTurns: 2, MaxTurns: 3}
	finish := hpAttack("finish", "60")
	strike := hpAttack("stun_strike", "20")
	strike.Effects = []model.Effect{{Kind: model.EffectAddCondition, ID: "stun", Value: 1}}
	cat := model.NewCatalog([]model.ActionDef{finish, strike}, []model.ConditionDef{stun}, nil)

	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 500, 500, "stun_strike", "finish"),
		fighter("ogre", model.SideOpponent, 50, 500),
		fighter("troll", model.SideOpponent, 500, 500),
	}}

	opts := optionsFor(Hard)
	opts.Debug = true
	o := NewOrchestrator(opts)
	dec, err := o.Decide(NewEncounter(cat, nil, 1), snap)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "finish" || !slices.Equal(dec.Targets, []string{"ogre"}) {
		t.Errorf("decision = %s %v, want finish [ogre]", dec.ActionID, dec.Targets)
	}
	if dec.Detail == nil || dec.Detail.Damage < lethalBonus {
		t.Errorf("kill detail = %+v", dec.Detail)
	}
}

func preservationFixture() (*model.Catalog, *model.Snapshot) {
	sleep := model.ConditionDef{
		ID:                  "sleep",
		Restriction:         4,
		RemoveByDamage:      true,
		DamageRemovalChance: 100,
		AutoRemoval:         model.RemovalTurnEnd,
		MinTurns:            3,
		MaxTurns:            5,
	}
	slash := hpAttack("slash", "1900")
	hex := model.ActionDef{
		ID:      "hex",
		Scope:   model.ScopeEnemy,
		Effects: []model.Effect{{Kind: model.EffectAddDebuff, Param: model.ParamATK, Turns: 5}},
	}
	cat := model.NewCatalog([]model.ActionDef{slash, hex}, []model.ConditionDef{sleep}, nil)

	golem := fighter("golem", model.SideOpponent, 2000, 2000)
	golem.Conditions = []model.ActiveCondition{{ID: "sleep", TurnsLeft: 5}}
	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 2000, 2000, "slash", "hex"),
		golem,
	}}
	return cat, snap
}

func TestDecidePreservesDisable(t *testing.T) {
	cat, snap := preservationFixture()
	o := NewOrchestrator(optionsFor(Hard))
	dec, err := o.Decide(NewEncounter(cat, nil, 1), snap)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "hex" {
		t.Errorf("picked %s, want hex: damaging would wake the sleeping golem", dec.ActionID)
	}
}

func TestDecidePromotesNonDamagingAlternative(t *testing.T) {
	cat, snap := preservationFixture()
	opts := optionsFor(Hard)
	opts.PreservationPenalty = 1 // leave slash on top so only promotion can intervene
	o := NewOrchestrator(opts)
	dec, err := o.Decide(NewEncounter(cat, nil, 1), snap)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "hex" || dec.Reason != ReasonPreservation {
		t.Errorf("decision = %s (%s), want hex (%s)", dec.ActionID, dec.Reason, ReasonPreservation)
	}
}

func TestMistakesStayInTopThree(t *testing.T) {
	var skills []model.ActionDef
	ids := []string{"p10", "p20", "p40", "p80", "p160"}
	for _, id := range ids {
		skills = append(skills, hpAttack(id, id[1:]))
	}
	cat := model.NewCatalog(skills, nil, nil)
	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 500, 500, ids...),
		fighter("dummy", model.SideOpponent, 1000, 1000),
	}}

	opts := optionsFor(Easy)
	opts.MistakeChance = 1
	o := NewOrchestrator(opts)

	top := []string{"p160", "p80", "p40"}
	seen := make(map[string]bool)
	for seed := int64(1); seed <= 60; seed++ {
		dec, err := o.Decide(NewEncounter(cat, nil, seed), snap)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if !slices.Contains(top, dec.ActionID) {
			t.Fatalf("seed %d picked %s, outside the top three", seed, dec.ActionID)
		}
		if dec.Reason != ReasonMistake {
			t.Errorf("seed %d reason = %s", seed, dec.Reason)
		}
		seen[dec.ActionID] = true
	}
	if len(seen) < 2 {
		t.Errorf("mistakes never varied: %v", seen)
	}
}

func TestDecideFallbacks(t *testing.T) {
	attack := hpAttack("attack", "10")
	attack.Basic = true
	flee := model.ActionDef{ID: "flee", Rating: 3, Scope: model.ScopeNone,
		Effects: []model.Effect{{Kind: model.EffectSpecial, ID: model.SpecialEscape}}}
	stun := model.ConditionDef{ID: "stun", Restriction: 4}
	cat := model.NewCatalog([]model.ActionDef{attack, flee}, []model.ConditionDef{stun}, nil)

	tests := []struct {
		name       string
		skills     []string
		conditions []model.ActiveCondition
		wantAction string
		wantReason string
	}{
		{"nothing positive", []string{"flee"}, nil, "flee", ReasonWeightedFallback},
		{"no legal actions", []string{"flee"}, []model.ActiveCondition{{ID: "stun", TurnsLeft: 2}}, "attack", ReasonDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hero := fighter("hero", model.SideAgent, 500, 500, tt.skills...)
			hero.Conditions = tt.conditions
			snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
				hero, fighter("slime", model.SideOpponent, 100, 100),
			}}
			dec, err := NewOrchestrator(optionsFor(Hard)).Decide(NewEncounter(cat, nil, 1), snap)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if dec.ActionID != tt.wantAction || dec.Reason != tt.wantReason {
				t.Errorf("decision = %s (%s), want %s (%s)", dec.ActionID, dec.Reason, tt.wantAction, tt.wantReason)
			}
			if tt.wantAction == "attack" && !slices.Equal(dec.Targets, []string{"slime"}) {
				t.Errorf("default targets = %v", dec.Targets)
			}
		})
	}
}

type panickingDefs struct{ *model.Catalog }

func (panickingDefs) Skill(string) *model.ActionDef { panic("data store unavailable") }

func TestDecideSignalsUseDefault(t *testing.T) {
	cat := model.NewCatalog([]model.ActionDef{hpAttack("attack", "10")}, nil, nil)
	snap := &model.Snapshot{ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 10, 10, "attack"),
		fighter("slime", model.SideOpponent, 10, 10),
	}}
	o := NewOrchestrator(DefaultOptions())

	tests := []struct {
		name string
		enc  *Encounter
		snap *model.Snapshot
	}{
		{"nil encounter", nil, snap},
		{"nil snapshot", NewEncounter(cat, nil, 1), nil},
		{"agent missing", NewEncounter(cat, nil, 1), &model.Snapshot{ActorID: "ghost"}},
		{"no definitions", NewEncounter(nil, nil, 1), snap},
		{"panic", NewEncounter(panickingDefs{cat}, nil, 1), snap},
		{"no default action", NewEncounter(model.NewCatalog(nil, nil, nil), nil, 1), snap},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Decide(tt.enc, tt.snap)
			if !errors.Is(err, ErrUseDefault) {
				t.Errorf("err = %v, want ErrUseDefault", err)
			}
		})
	}
}

func TestDecideWritesLedger(t *testing.T) {
	heal := model.ActionDef{ID: "heal", Scope: model.ScopeAlly,
		Effects: []model.Effect{{Kind: model.EffectRecoverHP, Value: 0.5}}}
	cat := model.NewCatalog([]model.ActionDef{heal, hpAttack("bolt", "30")}, nil, nil)

	combatants := []model.Combatant{
		fighter("cleric", model.SideAgent, 100, 100, "heal"),
		fighter("bard", model.SideAgent, 100, 100, "heal"),
		fighter("knight", model.SideAgent, 20, 100, "bolt"),
		fighter("orc", model.SideOpponent, 100, 100),
	}
	enc := NewEncounter(cat, nil, 7)
	o := NewOrchestrator(optionsFor(Hard))

	dec, err := o.Decide(enc, &model.Snapshot{Round: 1, ActorID: "cleric", Combatants: combatants})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "heal" || !slices.Equal(dec.Targets, []string{"knight"}) {
		t.Fatalf("cleric decision = %s %v", dec.ActionID, dec.Targets)
	}
	if h, _ := enc.Ledger.HealerFor("knight"); h != "cleric" {
		t.Errorf("ledger healer = %q", h)
	}
	if !enc.Ledger.HealConflict("knight", "bard") {
		t.Error("bard should see a heal conflict on knight")
	}

	dec, err = o.Decide(enc, &model.Snapshot{Round: 1, ActorID: "knight", Combatants: combatants})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if dec.ActionID != "bolt" {
		t.Fatalf("knight decision = %s", dec.ActionID)
	}
	if got := enc.Ledger.ExpectedDamage("orc"); got != 30 {
		t.Errorf("expected damage on orc = %v, want 30", got)
	}
}

func TestSetDifficultyAppliesToNextDecision(t *testing.T) {
	o := NewOrchestrator(DefaultOptions())
	if o.Difficulty().Mode != Normal {
		t.Fatalf("default mode = %s", o.Difficulty().Mode)
	}
	o.SetDifficulty(Hard)
	if d := o.Difficulty(); d.Mode != Hard || !d.Predict || d.MistakeChance != 0 {
		t.Errorf("after switch: %+v", d)
	}
	if o.Options().Difficulty != Hard {
		t.Errorf("options not updated: %s", o.Options().Difficulty)
	}
}

func TestPhaseString(t *testing.T) {
	want := []string{"idle", "analyzing_battlefield", "enumerating_actions", "scoring_actions", "selecting_decision", "done"}
	for p := Idle; p <= Done; p++ {
		if p.String() != want[p] {
			t.Errorf("Phase(%d) = %s, want %s", p, p, want[p])
		}
	}
}

func TestStalemateFavorsDisable(t *testing.T) {
	daze := model.ConditionDef{ID: "daze", Restriction: 2, AutoRemoval: model.RemovalTurnEnd, MinTurns: 2, MaxTurns: 2}
	dazzle := model.ActionDef{ID: "dazzle", Scope: model.ScopeEnemy,
		Effects: []model.Effect{{Kind: model.EffectAddCondition, ID: "daze", Value: 1}}}
	cat := model.NewCatalog([]model.ActionDef{hpAttack("slash", "60"), dazzle}, []model.ConditionDef{daze}, nil)
	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 500, 500, "slash", "dazzle"),
		fighter("wall", model.SideOpponent, 500, 500),
	}}

	opts := optionsFor(Hard)
	opts.Debug = true
	o := NewOrchestrator(opts)
	enc := NewEncounter(cat, nil, 1)

	dec, err := o.Decide(enc, snap)
	if err != nil {
		t.Fatal(err)
	}
	if dec.ActionID != "slash" {
		t.Fatalf("without a stalemate decision = %s, want slash", dec.ActionID)
	}

	hero := enc.Agent("hero")
	hero.Tracker.Targets["wall"] = &memory.Sustain{Dealt: 120, Negated: 120, Rounds: 4}
	hero.Tracker.Stalemate = opts.StalemateTurns

	dec, err = o.Decide(enc, snap)
	if err != nil {
		t.Fatal(err)
	}
	if dec.ActionID != "dazzle" || !slices.Equal(dec.Targets, []string{"wall"}) {
		t.Fatalf("stalemated decision = %s %v, want dazzle [wall]", dec.ActionID, dec.Targets)
	}
	if dec.Detail.Threat != 20 {
		t.Errorf("out-sustaining target threat = %v, want 20", dec.Detail.Threat)
	}
}

func TestReflectingTargetPassedOver(t *testing.T) {
	mirror := model.ItemDef{ID: "mirror_shield",
		Traits: []model.Modifier{{Kind: model.ModXParamAdd, Subject: "mrf", Value: 0.5}}}
	cat := model.NewCatalog([]model.ActionDef{hpAttack("slash", "60")}, nil, []model.ItemDef{mirror})

	tests := []struct {
		name    string
		analyze bool
		want    string
	}{
		{"equipment analyzed", true, "squire"},
		{"equipment ignored", false, "knight"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			knight := fighter("knight", model.SideOpponent, 500, 500)
			knight.Equipment = []string{"mirror_shield"}
			snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
				fighter("hero", model.SideAgent, 500, 500, "slash"),
				knight,
				fighter("squire", model.SideOpponent, 500, 500),
			}}
			opts := optionsFor(Hard)
			opts.AnalyzeEquipment = tt.analyze
			dec, err := NewOrchestrator(opts).Decide(NewEncounter(cat, nil, 1), snap)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(dec.Targets, []string{tt.want}) {
				t.Errorf("targets = %v, want [%s]", dec.Targets, tt.want)
			}
		})
	}
}

func TestPredictedHealRaisesThreat(t *testing.T) {
	mend := model.ActionDef{ID: "mend", Scope: model.ScopeAlly,
		Effects: []model.Effect{{Kind: model.EffectRecoverHP, Value: 0.3}}}
	cat := model.NewCatalog([]model.ActionDef{hpAttack("slash", "60"), mend}, nil, nil)

	tests := []struct {
		mode   Mode
		threat float64
	}{
		{Hard, 25},   // known healer plus predicted heal
		{Normal, 15}, // no prediction
	}
	for _, tt := range tests {
		snap := &model.Snapshot{Round: 1, ActorID: "hero",
			Combatants: []model.Combatant{
				fighter("hero", model.SideAgent, 500, 500, "slash"),
				fighter("abbot", model.SideOpponent, 500, 500),
			},
			Observed: []model.ActionRecord{{ActorID: "abbot", ActionID: "mend", Targets: []string{"abbot"}}},
		}
		opts := optionsFor(tt.mode)
		opts.Debug = true
		enc := NewEncounter(cat, nil, 1)
		enc.Observe(snap, nil)

		dec, err := NewOrchestrator(opts).Decide(enc, snap)
		if err != nil {
			t.Fatalf("%s: %v", tt.mode, err)
		}
		if !slices.Equal(dec.Targets, []string{"abbot"}) {
			t.Errorf("%s: targets = %v, want [abbot]", tt.mode, dec.Targets)
		}
		if dec.Detail.Threat != tt.threat {
			t.Errorf("%s: threat = %v, want %v", tt.mode, dec.Detail.Threat, tt.threat)
		}
	}
}

func TestMissesShiftTarget(t *testing.T) {
	cat := model.NewCatalog([]model.ActionDef{hpAttack("slash", "60")}, nil, nil)
	snap := &model.Snapshot{Round: 1, ActorID: "hero", Combatants: []model.Combatant{
		fighter("hero", model.SideAgent, 500, 500, "slash"),
		fighter("ghost", model.SideOpponent, 500, 500),
		fighter("zombie", model.SideOpponent, 500, 500),
	}}
	opts := optionsFor(Hard)
	opts.Debug = true
	o := NewOrchestrator(opts)
	enc := NewEncounter(cat, nil, 1)

	dec, err := o.Decide(enc, snap)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(dec.Targets, []string{"ghost"}) {
		t.Fatalf("first target = %v, want ghost", dec.Targets)
	}
	for i := 0; i < memory.MinUsesForHistory; i++ {
		enc.RecordOutcome(Outcome{AgentID: "hero", ActionID: "slash", Round: 1,
			Results: []TargetResult{{TargetID: "ghost", Hit: false}}}, o.Difficulty(), snap)
	}

	dec, err = o.Decide(enc, snap)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(dec.Targets, []string{"zombie"}) {
		t.Errorf("after repeated misses target = %v, want zombie", dec.Targets)
	}
	if dec.Detail.Targeting != 1 {
		t.Errorf("untried target modifier = %v, want 1", dec.Detail.Targeting)
	}
}
