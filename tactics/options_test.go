package tactics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestValidateResetsOutOfRange(t *testing.T) {
	o := DefaultOptions()
	o.SurvivalWeight = -1
	o.MistakeChance = 1.5
	o.StalemateTurns = 0
	o.AdaptiveMax = 0.5
	o.Difficulty = "nightmare"
	o.DamageWeight = 2.5 // in range, kept

	o.Validate()

	want := DefaultOptions()
	want.DamageWeight = 2.5
	if diff := cmp.Diff(want, o); diff != "" {
		t.Errorf("Validate mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "options.yaml")
	data := []byte("damage_weight: 1.5\nhealing_threshold: 2\ndifficulty: hard\nanalyze_equipment: false\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	want := DefaultOptions()
	want.DamageWeight = 1.5
	want.Difficulty = Hard
	want.AnalyzeEquipment = false
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadOptions mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadOptions(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("damage_weight: [oops"), 0o644)
	got, err = LoadOptions(bad)
	if err == nil {
		t.Error("expected error for malformed yaml")
	}
	if diff := cmp.Diff(DefaultOptions(), got); diff != "" {
		t.Errorf("malformed file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"easy", Easy, true},
		{" HARD ", Hard, true},
		{"Normal", Normal, true},
		{"insane", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseMode(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestDifficultyProfiles(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		mode                     Mode
		mistake, randomness      float64
		predict, persist, shared bool
	}{
		{Easy, opts.MistakeChance, 0.25, false, false, false},
		{Normal, opts.MistakeChance * 0.25, 0.1, false, false, true},
		{Hard, 0, 0, true, true, true},
	}
	for _, tt := range tests {
		d := DifficultyFor(tt.mode, opts)
		if d.MistakeChance != tt.mistake || d.Randomness != tt.randomness ||
			d.Predict != tt.predict || d.PersistMemory != tt.persist || d.ShareKnowledge != tt.shared {
			t.Errorf("%s profile = %+v", tt.mode, d)
		}
	}
}

func TestScoreMultiplier(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		mode            Mode
		allyHP, enemyHP float64
		want            float64
	}{
		{Easy, 0.1, 1, 0.8},
		{Normal, 0.1, 1, 1},
		{Hard, 0.5, 0.5, 1},
		{Hard, 0.6, 1, 1.2},
		{Hard, 0, 1, opts.AdaptiveMax},
		{Hard, 1, 0, opts.AdaptiveMin},
	}
	for _, tt := range tests {
		got := DifficultyFor(tt.mode, opts).ScoreMultiplier(tt.allyHP, tt.enemyHP)
		if d := got - tt.want; d > 1e-9 || d < -1e-9 {
			t.Errorf("%s(%v, %v) = %v, want %v", tt.mode, tt.allyHP, tt.enemyHP, got, tt.want)
		}
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	l.AssignHealer("knight", "cleric")
	if l.HealConflict("knight", "cleric") {
		t.Error("an agent never conflicts with itself")
	}
	if !l.HealConflict("knight", "bard") {
		t.Error("bard should conflict with cleric")
	}

	l.AddDamage("orc", 30)
	l.AddDamage("orc", -5)
	l.AddDamage("orc", 20)
	if got := l.ExpectedDamage("orc"); got != 50 {
		t.Errorf("ExpectedDamage = %v", got)
	}

	l.AddAttacker("orc", "knight")
	l.AddAttacker("orc", "knight")
	l.AddAttacker("orc", "archer")
	if got := l.OtherAttackers("orc", "knight"); got != 1 {
		t.Errorf("OtherAttackers = %d", got)
	}

	l.Reset()
	if _, ok := l.HealerFor("knight"); ok || l.ExpectedDamage("orc") != 0 || l.OtherAttackers("orc", "x") != 0 {
		t.Error("Reset left entries behind")
	}
}
