package tactics

import "strings"

// Mode names a difficulty profile.
type Mode string

const (
	Easy   Mode = "easy"
	Normal Mode = "normal"
	Hard   Mode = "hard"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Easy:
		return Easy, true
	case Normal:
		return Normal, true
	case Hard:
		return Hard, true
	}
	return "", false
}

// Difficulty is a fully resolved profile. Profiles differ only in these fields.
type Difficulty struct {
	Mode           Mode
	Multiplier     float64
	Dynamic        bool
	Randomness     float64
	MistakeChance  float64
	Predict        bool
	PersistMemory  bool
	ShareKnowledge bool

	adaptiveMin, adaptiveMax float64
}

// DifficultyFor resolves a mode against the options.
func DifficultyFor(mode Mode, o Options) Difficulty {
	switch mode {
	case Easy:
		return Difficulty{
			Mode:          Easy,
			Multiplier:    0.8,
			Randomness:    0.25,
			MistakeChance: o.MistakeChance,
		}
	case Hard:
		return Difficulty{
			Mode:           Hard,
			Multiplier:     1.0,
			Dynamic:        true,
			Predict:        true,
			PersistMemory:  true,
			ShareKnowledge: true,
			adaptiveMin:    o.AdaptiveMin,
			adaptiveMax:    o.AdaptiveMax,
		}
	}
	return Difficulty{
		Mode:           Normal,
		Multiplier:     1.0,
		Randomness:     0.1,
		MistakeChance:  o.MistakeChance * 0.25,
		ShareKnowledge: true,
	}
}

// ScoreMultiplier is fixed for easy/normal. Hard pushes harder the further
// its side is behind on HP, within the adaptive range.
func (d Difficulty) ScoreMultiplier(allyHP, enemyHP float64) float64 {
	if !d.Dynamic {
		return d.Multiplier
	}
	m := d.Multiplier + (enemyHP-allyHP)*0.5
	return min(max(m, d.adaptiveMin), d.adaptiveMax)
}
