package activation

import (
	"time"

	"github.com/google/uuid"

	"github.com/AmirZhou/hodos-sub001/internal/game/potency"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// Record is the audit entry written for every successful activation.
type Record struct {
	ID          uuid.UUID
	ActorID     string
	TargetID    string
	TechniqueID string
	SkillID     string
	Context     technique.Context
	Power       int
	Resistance  int
	Potency     potency.Potency
	// Effects are the applied values after scaling and enrichment.
	Effects []technique.Pair
	// Vulnerability is the damage multiplier taken from the target's conditions.
	Vulnerability float64
	ComboBonus    int
	XPAwarded     int
	TierBefore    int
	TierAfter     int
	DayIndex      int
	Round         int
	At            time.Time
}

// TieredUp reports whether the activation advanced the actor's skill tier.
func (r Record) TieredUp() bool {
	return r.TierAfter > r.TierBefore
}

// Result is what Activate hands back to the caller.
type Result struct {
	Record Record
	// Summary is the authoritative plain-text description of the outcome.
	Summary string
	// Narration is the narrator's text, or empty when none was produced.
	Narration string
}

// Potency is shorthand for r.Record.Potency.
func (r *Result) Potency() potency.Potency { return r.Record.Potency }

// Effects is shorthand for r.Record.Effects.
func (r *Result) Effects() []technique.Pair { return r.Record.Effects }

// XPAwarded is shorthand for r.Record.XPAwarded.
func (r *Result) XPAwarded() int { return r.Record.XPAwarded }
