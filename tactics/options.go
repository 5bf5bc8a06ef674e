package tactics

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the flat configuration surface the host can tune. Every numeric
// option has a default and a valid range; Validate resets anything outside
// its range back to the default.
type Options struct {
	SurvivalWeight     float64 `yaml:"survival_weight" json:"survivalWeight"`
	DamageWeight       float64 `yaml:"damage_weight" json:"damageWeight"`
	SupportWeight      float64 `yaml:"support_weight" json:"supportWeight"`
	TacticalWeight     float64 `yaml:"tactical_weight" json:"tacticalWeight"`
	TeamWeight         float64 `yaml:"team_weight" json:"teamWeight"`
	PreservationWeight float64 `yaml:"preservation_weight" json:"preservationWeight"`

	HealingThreshold    float64 `yaml:"healing_threshold" json:"healingThreshold"`
	CriticalHPThreshold float64 `yaml:"critical_hp_threshold" json:"criticalHpThreshold"`
	MistakeChance       float64 `yaml:"mistake_chance" json:"mistakeChance"`
	StalemateTurns      int     `yaml:"stalemate_turns" json:"stalemateTurns"`
	MinConditionValue   float64 `yaml:"min_condition_value" json:"minConditionValue"`
	PreservationRisk    float64 `yaml:"preservation_risk" json:"preservationRisk"`
	PreservationPenalty float64 `yaml:"preservation_penalty" json:"preservationPenalty"`
	LearningRate        float64 `yaml:"learning_rate" json:"learningRate"`

	AnalyzeEquipment     bool `yaml:"analyze_equipment" json:"analyzeEquipment"`
	ConsiderItemQuantity bool `yaml:"consider_item_quantity" json:"considerItemQuantity"`
	Debug                bool `yaml:"debug" json:"debug"`

	Difficulty  Mode    `yaml:"difficulty" json:"difficulty"`
	AdaptiveMin float64 `yaml:"adaptive_min" json:"adaptiveMin"`
	AdaptiveMax float64 `yaml:"adaptive_max" json:"adaptiveMax"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		SurvivalWeight:       1.2,
		DamageWeight:         1.0,
		SupportWeight:        0.8,
		TacticalWeight:       0.6,
		TeamWeight:           0.5,
		PreservationWeight:   1.0,
		HealingThreshold:     0.5,
		CriticalHPThreshold:  0.25,
		MistakeChance:        0.2,
		StalemateTurns:       3,
		MinConditionValue:    30,
		PreservationRisk:     50,
		PreservationPenalty:  0.5,
		LearningRate:         1.0,
		AnalyzeEquipment:     true,
		ConsiderItemQuantity: true,
		Difficulty:           Normal,
		AdaptiveMin:          0.8,
		AdaptiveMax:          1.3,
	}
}

type floatRange struct {
	name     string
	v        *float64
	min, max float64
	def      float64
}

// Validate replaces out-of-range values with their defaults.
func (o *Options) Validate() {
	d := DefaultOptions()
	ranges := []floatRange{
		{"survival_weight", &o.SurvivalWeight, 0, 5, d.SurvivalWeight},
		{"damage_weight", &o.DamageWeight, 0, 5, d.DamageWeight},
		{"support_weight", &o.SupportWeight, 0, 5, d.SupportWeight},
		{"tactical_weight", &o.TacticalWeight, 0, 5, d.TacticalWeight},
		{"team_weight", &o.TeamWeight, 0, 5, d.TeamWeight},
		{"preservation_weight", &o.PreservationWeight, 0, 5, d.PreservationWeight},
		{"healing_threshold", &o.HealingThreshold, 0.05, 0.95, d.HealingThreshold},
		{"critical_hp_threshold", &o.CriticalHPThreshold, 0.01, 0.9, d.CriticalHPThreshold},
		{"mistake_chance", &o.MistakeChance, 0, 1, d.MistakeChance},
		{"min_condition_value", &o.MinConditionValue, 0, 100, d.MinConditionValue},
		{"preservation_risk", &o.PreservationRisk, 0, 500, d.PreservationRisk},
		{"preservation_penalty", &o.PreservationPenalty, 0, 1, d.PreservationPenalty},
		{"learning_rate", &o.LearningRate, 0, 4, d.LearningRate},
		{"adaptive_min", &o.AdaptiveMin, 0.1, 1, d.AdaptiveMin},
		{"adaptive_max", &o.AdaptiveMax, 1, 3, d.AdaptiveMax},
	}
	for _, r := range ranges {
		if *r.v < r.min || *r.v > r.max {
			slog.Warn("option out of range, using default", "option", r.name, "value", *r.v, "default", r.def)
			*r.v = r.def
		}
	}
	if o.StalemateTurns < 1 || o.StalemateTurns > 20 {
		slog.Warn("option out of range, using default", "option", "stalemate_turns", "value", o.StalemateTurns, "default", d.StalemateTurns)
		o.StalemateTurns = d.StalemateTurns
	}
	if _, ok := ParseMode(string(o.Difficulty)); !ok {
		slog.Warn("unknown difficulty, using default", "value", o.Difficulty, "default", d.Difficulty)
		o.Difficulty = d.Difficulty
	}
}

// LoadOptions reads a YAML options file. Keys missing from the file keep
// their defaults; the result is validated.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read options %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return DefaultOptions(), fmt.Errorf("unmarshal options %s: %w", path, err)
	}
	opts.Validate()
	return opts, nil
}
