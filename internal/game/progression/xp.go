// Package progression implements the XP economy, the skill tier state machine,
// and the technique learning gate.
package progression

import "github.com/AmirZhou/hodos-sub001/internal/game/potency"

// XP award constants.
const (
	DailyXPCap        = 3
	FailureXP         = 3
	BaseXP            = 10
	FirstUseBonus     = 20
	OutclassBonus     = 5
	HighPotencyBonus  = 5
	TrivialTierMargin = 2
)

// AwardInput carries everything the XP economy needs about one use.
type AwardInput struct {
	// FirstUse is true when this is the actor's first ever use of the technique.
	FirstUse bool
	// TargetOutclasses is true when the target's counter tier exceeded the
	// actor's tier times three. See TargetOutclasses.
	TargetOutclasses bool
	Potency          potency.Potency
	// UsesToday is the day's use count including the use being rewarded.
	UsesToday     int
	TechniqueTier int
	ActorTier     int
}

// Award returns the practice XP for a single technique use.
//
// Postcondition: Returns 0 when UsesToday >= DailyXPCap; FailureXP when the
// potency fails; otherwise the stacked bonuses, halved when the technique is
// more than TrivialTierMargin tiers below the actor.
func Award(in AwardInput) int {
	if in.UsesToday >= DailyXPCap {
		return 0
	}
	if in.Potency.Fails() {
		return FailureXP
	}
	xp := BaseXP
	if in.FirstUse {
		xp += FirstUseBonus
	}
	if in.TargetOutclasses {
		xp += OutclassBonus
	}
	if in.Potency == potency.Overwhelming || in.Potency == potency.Critical {
		xp += HighPotencyBonus
	}
	if in.ActorTier-in.TechniqueTier > TrivialTierMargin {
		xp /= 2
	}
	return xp
}

// TargetOutclasses reports whether a target's counter tier is meaningfully
// above the actor's tier.
func TargetOutclasses(counterTier, actorTier int) bool {
	return counterTier > actorTier*3
}
