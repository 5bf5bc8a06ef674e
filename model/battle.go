package model

// Side separates the agent's team from the team it is fighting.
type Side string

const (
	SideAgent    Side = "agent"
	SideOpponent Side = "opponent"
)

// Role biases scoring only; it never restricts which actions are legal.
type Role string

const (
	RoleHealer     Role = "healer"
	RoleDPS        Role = "dps"
	RoleTank       Role = "tank"
	RoleSupport    Role = "support"
	RoleController Role = "controller"
	RoleBalanced   Role = "balanced"
)

// Base param indices.
const (
	ParamMHP = iota
	ParamMMP
	ParamATK
	ParamDEF
	ParamMAT
	ParamMDF
	ParamAGI
	ParamLUK
	NumParams
)

// Extended param indices (additive rates).
const (
	XParamHit = iota
	XParamEva
	XParamCri
	XParamCev
	XParamMev
	XParamMrf
	XParamCnt
	XParamHrg
	XParamMrg
	XParamTrg
	NumXParams
)

// Secondary param indices (multiplicative rates).
const (
	SParamTgr = iota
	SParamGrd
	SParamRec
	SParamPha
	SParamMcr
	SParamTcr
	SParamPdr
	SParamMdr
	SParamFdr
	SParamExr
	NumSParams
)

var paramNames = [NumParams]string{"mhp", "mmp", "atk", "def", "mat", "mdf", "agi", "luk"}
var xparamNames = [NumXParams]string{"hit", "eva", "cri", "cev", "mev", "mrf", "cnt", "hrg", "mrg", "trg"}
var sparamNames = [NumSParams]string{"tgr", "grd", "rec", "pha", "mcr", "tcr", "pdr", "mdr", "fdr", "exr"}

// ParamIndex maps a base param name ("atk") to its index, or -1.
func ParamIndex(name string) int { return indexOf(paramNames[:], name) }

// XParamIndex maps an extended param name ("hrg") to its index, or -1.
func XParamIndex(name string) int { return indexOf(xparamNames[:], name) }

// SParamIndex maps a secondary param name ("tgr") to its index, or -1.
func SParamIndex(name string) int { return indexOf(sparamNames[:], name) }

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

// ActiveCondition is a condition currently applied to a combatant.
// TurnsLeft < 0 means the host did not report a counter.
type ActiveCondition struct {
	ID        string `json:"id" yaml:"id"`
	TurnsLeft int    `json:"turnsLeft" yaml:"turns_left"`
	Elapsed   int    `json:"elapsed" yaml:"elapsed"`
}

// Combatant is the live view of one fighter at snapshot time.
type Combatant struct {
	ID       string `json:"id"`
	Template string `json:"template,omitempty"` // stable definition id; knowledge is keyed by this
	Name     string `json:"name,omitempty"`
	Side     Side   `json:"side"`
	Role     Role   `json:"role,omitempty"`

	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
	MP    int `json:"mp"`
	MaxMP int `json:"maxMp"`
	TP    int `json:"tp"`
	MaxTP int `json:"maxTp"`

	Params  [NumParams]float64  `json:"params"`
	XParams [NumXParams]float64 `json:"xparams"`
	SParams [NumSParams]float64 `json:"sparams"`
	Buffs   [NumParams]int      `json:"buffs"`

	Conditions  []ActiveCondition `json:"conditions,omitempty"`
	Equipment   []string          `json:"equipment,omitempty"`
	Skills      []string          `json:"skills,omitempty"`
	Traits      []Modifier        `json:"traits,omitempty"`
	ClassTraits []Modifier        `json:"classTraits,omitempty"`
}

// Key is the identity used for learned knowledge (elemental rates, resistances).
func (c *Combatant) Key() string {
	if c.Template != "" {
		return c.Template
	}
	return c.ID
}

func (c *Combatant) Alive() bool { return c.HP > 0 }

func (c *Combatant) HPRatio() float64 { return ratio(c.HP, c.MaxHP) }
func (c *Combatant) MPRatio() float64 { return ratio(c.MP, c.MaxMP) }

// HasCondition reports whether the condition is currently applied.
func (c *Combatant) HasCondition(id string) bool {
	for _, ac := range c.Conditions {
		if ac.ID == id {
			return true
		}
	}
	return false
}

// Param returns a base param, falling back to MaxHP/MaxMP for the pools
// when the host left Params empty.
func (c *Combatant) Param(i int) float64 {
	if i < 0 || i >= NumParams {
		return 0
	}
	v := c.Params[i]
	if v == 0 {
		switch i {
		case ParamMHP:
			return float64(c.MaxHP)
		case ParamMMP:
			return float64(c.MaxMP)
		}
	}
	return v
}

func ratio(cur, max int) float64 {
	if max <= 0 {
		return 0
	}
	r := float64(cur) / float64(max)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ActionRecord is an action the host observed another combatant perform.
type ActionRecord struct {
	ActorID  string   `json:"actorId"`
	ActionID string   `json:"actionId"`
	Targets  []string `json:"targets,omitempty"`
}

// Snapshot is the consistent battlefield view a single decision is computed from.
type Snapshot struct {
	Round      int            `json:"round"`
	Turn       int            `json:"turn"`
	ActorID    string         `json:"actorId"`
	Combatants []Combatant    `json:"combatants"`
	Variables  []float64      `json:"variables,omitempty"`
	Inventory  map[string]int `json:"inventory,omitempty"`
	Observed   []ActionRecord `json:"observed,omitempty"`
}

// Find returns the combatant with the given id, or nil.
func (s *Snapshot) Find(id string) *Combatant {
	for i := range s.Combatants {
		if s.Combatants[i].ID == id {
			return &s.Combatants[i]
		}
	}
	return nil
}

// Clone deep-copies the mutable slices so a decision can't observe
// host-side mutation mid-scoring.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Combatants = make([]Combatant, len(s.Combatants))
	for i, c := range s.Combatants {
		c.Conditions = append([]ActiveCondition(nil), c.Conditions...)
		c.Equipment = append([]string(nil), c.Equipment...)
		c.Skills = append([]string(nil), c.Skills...)
		c.Traits = append([]Modifier(nil), c.Traits...)
		c.ClassTraits = append([]Modifier(nil), c.ClassTraits...)
		out.Combatants[i] = c
	}
	out.Variables = append([]float64(nil), s.Variables...)
	if s.Inventory != nil {
		out.Inventory = make(map[string]int, len(s.Inventory))
		for k, v := range s.Inventory {
			out.Inventory[k] = v
		}
	}
	out.Observed = append([]ActionRecord(nil), s.Observed...)
	return out
}
