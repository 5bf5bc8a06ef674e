package model

import "testing"

func TestSnapshotCloneIsolatesHostMutation(t *testing.T) {
	s := Snapshot{
		Round:   2,
		ActorID: "hero",
		Combatants: []Combatant{{
			ID: "hero", HP: 40, MaxHP: 80,
			Skills:     []string{"slash"},
			Conditions: []ActiveCondition{{ID: "poison", TurnsLeft: 2}},
		}},
		Inventory: map[string]int{"potion": 3},
	}
	c := s.Clone()

	s.Combatants[0].HP = 0
	s.Combatants[0].Skills[0] = "heal"
	s.Combatants[0].Conditions[0].TurnsLeft = 9
	s.Inventory["potion"] = 0

	hero := c.Find("hero")
	if hero == nil {
		t.Fatal("clone lost the hero")
	}
	if hero.HP != 40 || hero.Skills[0] != "slash" || hero.Conditions[0].TurnsLeft != 2 || c.Inventory["potion"] != 3 {
		t.Errorf("clone shares state with the original: %+v inventory=%v", hero, c.Inventory)
	}
	if c.Find("ghost") != nil {
		t.Error("Find should return nil for unknown ids")
	}
}

func TestCombatantRatiosAndParams(t *testing.T) {
	tests := []struct {
		name      string
		c         Combatant
		wantHP    float64
		wantParam float64
	}{
		{"half", Combatant{HP: 50, MaxHP: 100}, 0.5, 100},
		{"overheal clamps", Combatant{HP: 150, MaxHP: 100}, 1, 100},
		{"no max", Combatant{HP: 10}, 0, 0},
		{"explicit param wins", Combatant{HP: 20, MaxHP: 40, Params: [NumParams]float64{ParamMHP: 45}}, 0.5, 45},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.HPRatio(); got != tt.wantHP {
				t.Errorf("HPRatio = %v, want %v", got, tt.wantHP)
			}
			if got := tt.c.Param(ParamMHP); got != tt.wantParam {
				t.Errorf("Param(mhp) = %v, want %v", got, tt.wantParam)
			}
		})
	}
}

func TestCatalogDefault(t *testing.T) {
	cat := NewCatalog([]ActionDef{{ID: "attack"}, {ID: "punch"}}, nil, nil)
	if got := cat.Default(); got == nil || got.ID != "attack" {
		t.Errorf("Default = %+v, want attack", got)
	}
	cat.DefaultAction = "punch"
	if got := cat.Default(); got == nil || got.ID != "punch" {
		t.Errorf("Default = %+v, want punch", got)
	}
	var none *Catalog
	if none.Skill("attack") != nil || none.Default() != nil {
		t.Error("nil catalog lookups should return nil")
	}
	if (&Combatant{ID: "slime-2", Template: "slime"}).Key() != "slime" {
		t.Error("Key should prefer the template")
	}
}
