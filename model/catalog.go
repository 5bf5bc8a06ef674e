package model

// Catalog holds the definitions the host sends once per encounter.
// Lookups of unknown ids return nil rather than failing.
type Catalog struct {
	Skills     map[string]*ActionDef    `json:"skills"`
	Conditions map[string]*ConditionDef `json:"conditions"`
	Items      map[string]*ItemDef      `json:"items"`
	// DefaultAction is used when nothing else can be chosen (usually "attack").
	DefaultAction string `json:"defaultAction,omitempty"`
}

// NewCatalog indexes definition slices by id.
func NewCatalog(skills []ActionDef, conditions []ConditionDef, items []ItemDef) *Catalog {
	c := &Catalog{
		Skills:     make(map[string]*ActionDef, len(skills)),
		Conditions: make(map[string]*ConditionDef, len(conditions)),
		Items:      make(map[string]*ItemDef, len(items)),
	}
	for i := range skills {
		c.Skills[skills[i].ID] = &skills[i]
	}
	for i := range conditions {
		c.Conditions[conditions[i].ID] = &conditions[i]
	}
	for i := range items {
		c.Items[items[i].ID] = &items[i]
	}
	return c
}

func (c *Catalog) Skill(id string) *ActionDef {
	if c == nil {
		return nil
	}
	return c.Skills[id]
}

func (c *Catalog) Condition(id string) *ConditionDef {
	if c == nil {
		return nil
	}
	return c.Conditions[id]
}

func (c *Catalog) Item(id string) *ItemDef {
	if c == nil {
		return nil
	}
	return c.Items[id]
}

// Default returns the basic fallback action, or nil.
func (c *Catalog) Default() *ActionDef {
	if c == nil {
		return nil
	}
	if c.DefaultAction != "" {
		if a := c.Skills[c.DefaultAction]; a != nil {
			return a
		}
	}
	return c.Skills["attack"]
}
