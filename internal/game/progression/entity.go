package progression

import (
	"fmt"
	"time"
)

// EntitySkill is one entity's standing in one skill.
//
// Invariant: 0 <= CurrentTier <= Ceiling <= MaxTier.
type EntitySkill struct {
	EntityID    string
	SkillID     string
	CurrentTier int
	Ceiling     int
	PracticeXP  int
}

// NewEntitySkill returns a fresh row at tier and ceiling, clamped so the
// invariant holds.
func NewEntitySkill(entityID, skillID string, tier, ceiling int) EntitySkill {
	tier = clamp(tier, 0, MaxTier)
	ceiling = clamp(ceiling, tier, MaxTier)
	return EntitySkill{EntityID: entityID, SkillID: skillID, CurrentTier: tier, Ceiling: ceiling}
}

// Validate reports whether the invariant holds.
func (s EntitySkill) Validate() error {
	if s.CurrentTier < 0 || s.CurrentTier > s.Ceiling || s.Ceiling > MaxTier {
		return fmt.Errorf("entity skill %s/%s: need 0 <= tier(%d) <= ceiling(%d) <= %d",
			s.EntityID, s.SkillID, s.CurrentTier, s.Ceiling, MaxTier)
	}
	if s.PracticeXP < 0 {
		return fmt.Errorf("entity skill %s/%s: practice xp must be >= 0, got %d", s.EntityID, s.SkillID, s.PracticeXP)
	}
	return nil
}

// AddPracticeXP adds xp and advances at most one tier when CanTierUp allows it.
// On advancement PracticeXP resets to 0.
//
// Precondition: xp >= 0.
// Postcondition: Returns true iff CurrentTier increased by one.
func (s *EntitySkill) AddPracticeXP(xp int) bool {
	if xp <= 0 {
		return false
	}
	s.PracticeXP += xp
	if !CanTierUp(s.PracticeXP, s.CurrentTier, s.Ceiling) {
		return false
	}
	s.CurrentTier++
	s.PracticeXP = 0
	return true
}

// RaiseCeiling lifts the ceiling to grant. A grant at or below the current
// ceiling changes nothing; grants above MaxTier are clamped.
//
// Postcondition: Returns true iff Ceiling changed.
func (s *EntitySkill) RaiseCeiling(grant int) bool {
	grant = clamp(grant, 0, MaxTier)
	if grant <= s.Ceiling {
		return false
	}
	s.Ceiling = grant
	return true
}

// EntityTechnique is one entity's usage record for one learned technique.
type EntityTechnique struct {
	EntityID     string
	TechniqueID  string
	TimesUsed    int
	UsesToday    int
	LastDayReset int
}

// UsesOn returns the effective use count for day. A stored count from a
// different day reads as 0.
func (t EntityTechnique) UsesOn(day int) int {
	if t.LastDayReset != day {
		return 0
	}
	return t.UsesToday
}

// RecordUse counts one use on day, resetting the daily counter first when the
// day changed.
func (t *EntityTechnique) RecordUse(day int) {
	t.UsesToday = t.UsesOn(day) + 1
	t.LastDayReset = day
	t.TimesUsed++
}

// DayIndex returns the number of whole UTC days since the Unix epoch.
func DayIndex(t time.Time) int {
	return int(t.UTC().Unix() / 86400)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
