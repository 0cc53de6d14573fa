package technique

import (
	"fmt"
	"sort"
)

// Catalog holds all skill and technique definitions indexed by ID.
// It is populated once at startup and read-only afterwards, so concurrent
// reads are safe once loading completes.
type Catalog struct {
	skills     map[string]*SkillDef
	techniques map[string]*TechniqueDef
}

// NewCatalog returns an empty Catalog.
//
// Postcondition: all internal maps are initialised.
func NewCatalog() *Catalog {
	return &Catalog{
		skills:     make(map[string]*SkillDef),
		techniques: make(map[string]*TechniqueDef),
	}
}

// RegisterSkill adds s to the catalog.
//
// Precondition: s must not be nil.
// Postcondition: Skill(s.ID) returns s; returns error if s.ID already registered.
func (c *Catalog) RegisterSkill(s *SkillDef) error {
	if _, exists := c.skills[s.ID]; exists {
		return fmt.Errorf("technique: Catalog.RegisterSkill: skill ID %q already registered", s.ID)
	}
	c.skills[s.ID] = s
	return nil
}

// RegisterTechnique adds t to the catalog.
//
// Precondition: t must not be nil.
// Postcondition: Technique(t.ID) returns t; returns error if t.ID already registered.
func (c *Catalog) RegisterTechnique(t *TechniqueDef) error {
	if _, exists := c.techniques[t.ID]; exists {
		return fmt.Errorf("technique: Catalog.RegisterTechnique: technique ID %q already registered", t.ID)
	}
	c.techniques[t.ID] = t
	return nil
}

// Skill returns the SkillDef for id and whether it was found.
func (c *Catalog) Skill(id string) (*SkillDef, bool) {
	s, ok := c.skills[id]
	return s, ok
}

// Technique returns the TechniqueDef for id and whether it was found.
func (c *Catalog) Technique(id string) (*TechniqueDef, bool) {
	t, ok := c.techniques[id]
	return t, ok
}

// Skills returns all skills sorted by ID.
func (c *Catalog) Skills() []*SkillDef {
	out := make([]*SkillDef, 0, len(c.skills))
	for _, s := range c.skills {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Techniques returns all techniques sorted by ID.
func (c *Catalog) Techniques() []*TechniqueDef {
	out := make([]*TechniqueDef, 0, len(c.techniques))
	for _, t := range c.techniques {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TechniquesForSkill returns the techniques owned by skillID sorted by
// required tier, then ID.
func (c *Catalog) TechniquesForSkill(skillID string) []*TechniqueDef {
	var out []*TechniqueDef
	for _, t := range c.techniques {
		if t.SkillID == skillID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TierRequired != out[j].TierRequired {
			return out[i].TierRequired < out[j].TierRequired
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Validate checks cross-references: every technique's skill exists, every
// prerequisite exists, and the prerequisite graph is acyclic.
//
// Postcondition: Returns nil iff all references resolve and no cycle exists;
// otherwise an error naming the first offending technique in ID order.
func (c *Catalog) Validate() error {
	for _, t := range c.Techniques() {
		if _, ok := c.skills[t.SkillID]; !ok {
			return fmt.Errorf("technique %q: unknown skill %q", t.ID, t.SkillID)
		}
		for _, p := range t.Prerequisites {
			if _, ok := c.techniques[p]; !ok {
				return fmt.Errorf("technique %q: unknown prerequisite %q", t.ID, p)
			}
		}
	}
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(c.techniques))
	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("technique %q: prerequisite cycle", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, p := range c.techniques[id].Prerequisites {
			if err := visit(p); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	for _, t := range c.Techniques() {
		if err := visit(t.ID); err != nil {
			return err
		}
	}
	return nil
}
