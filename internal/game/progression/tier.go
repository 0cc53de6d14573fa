package progression

// MaxTier is the terminal skill tier.
const MaxTier = 8

// thresholds[t] is the practice XP needed to advance from tier t. Tier 8 has
// no entry.
var thresholds = [...]int{50, 100, 200, 350, 550, 800, 1100, 1500}

var tierNames = [...]string{
	"Untrained", "Novice", "Apprentice", "Journeyman", "Adept",
	"Expert", "Master", "Grandmaster", "Legendary",
}

// Threshold returns the XP needed to leave tier, or (0, false) when tier has
// no threshold.
func Threshold(tier int) (int, bool) {
	if tier < 0 || tier >= len(thresholds) {
		return 0, false
	}
	return thresholds[tier], true
}

// TierName returns the display name for tier, or "Unknown".
func TierName(tier int) string {
	if tier < 0 || tier >= len(tierNames) {
		return "Unknown"
	}
	return tierNames[tier]
}

// CanTierUp reports whether an entity holding xp practice points at
// currentTier may advance one tier.
//
// Postcondition: false when currentTier >= ceiling, currentTier >= MaxTier, or
// no threshold is defined for currentTier; otherwise xp >= threshold.
func CanTierUp(xp, currentTier, ceiling int) bool {
	if currentTier >= ceiling {
		return false
	}
	if currentTier >= MaxTier {
		return false
	}
	t, ok := Threshold(currentTier)
	if !ok {
		return false
	}
	return xp >= t
}
