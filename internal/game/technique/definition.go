// Package technique holds the static skill and technique catalogs: definitions
// loaded from YAML, per-context effect bundles, and the id-keyed Catalog the
// activation engine reads from.
package technique

import (
	"fmt"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
)

// MaxTier is the highest skill tier.
const MaxTier = 8

// SkillDef is the static definition of a skill.
type SkillDef struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	// BaseAbility is the ability an actor uses to compute power.
	BaseAbility ability.Name `yaml:"base_ability"`
	// CounterAbility is the ability a defender uses to resist.
	CounterAbility ability.Name `yaml:"counter_ability"`
}

// Validate checks that the definition satisfies basic invariants.
//
// Postcondition: Returns nil iff ID is non-empty and both abilities are valid names.
func (s *SkillDef) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("skill: id must not be empty")
	}
	if _, err := ability.ParseName(string(s.BaseAbility)); err != nil {
		return fmt.Errorf("skill %q: base_ability: %w", s.ID, err)
	}
	if _, err := ability.ParseName(string(s.CounterAbility)); err != nil {
		return fmt.Errorf("skill %q: counter_ability: %w", s.ID, err)
	}
	return nil
}

// TechniqueDef is the static definition of a technique.
type TechniqueDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	SkillID     string `yaml:"skill_id"`
	// TierRequired is the minimum skill tier needed to learn the technique.
	TierRequired  int        `yaml:"tier_required"`
	Contexts      ContextSet `yaml:"contexts"`
	Prerequisites []string   `yaml:"prerequisites"`
	Effects       Effects    `yaml:"effects"`
	RollBonus     int        `yaml:"roll_bonus"`
	// Cooldown is the maximum number of uses per day; 0 means unlimited.
	Cooldown  int  `yaml:"cooldown"`
	Teachable bool `yaml:"teachable"`
}

// DisplayName returns Name, falling back to ID.
func (t *TechniqueDef) DisplayName() string {
	if t.Name == "" {
		return t.ID
	}
	return t.Name
}

// Validate checks the technique's own invariants. Cross-references to skills
// and prerequisites are checked by Catalog.Validate.
//
// Postcondition: Returns nil iff ID and SkillID are non-empty, TierRequired is
// in [0, MaxTier], Contexts is non-empty and known, and Cooldown >= 0.
func (t *TechniqueDef) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("technique: id must not be empty")
	}
	if t.SkillID == "" {
		return fmt.Errorf("technique %q: skill_id must not be empty", t.ID)
	}
	if t.TierRequired < 0 || t.TierRequired > MaxTier {
		return fmt.Errorf("technique %q: tier_required must be 0-%d, got %d", t.ID, MaxTier, t.TierRequired)
	}
	if len(t.Contexts) == 0 {
		return fmt.Errorf("technique %q: contexts must not be empty", t.ID)
	}
	for _, c := range t.Contexts {
		if _, err := ParseContext(string(c)); err != nil {
			return fmt.Errorf("technique %q: %w", t.ID, err)
		}
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("technique %q: cooldown must be >= 0, got %d", t.ID, t.Cooldown)
	}
	for _, p := range t.Prerequisites {
		if p == t.ID {
			return fmt.Errorf("technique %q: cannot list itself as a prerequisite", t.ID)
		}
	}
	return nil
}
