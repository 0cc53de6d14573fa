package condition

import "math"

// VulnerabilityMultiplier returns the damage multiplier skillID receives
// against a target carrying the active conditions. Multipliers from several
// matching conditions compound. Conditions absent from the registry, or with
// no entry for skillID, contribute nothing.
//
// Postcondition: Returns 1.0 when nothing matches; never negative.
func VulnerabilityMultiplier(r *Registry, active []string, skillID string) float64 {
	m := 1.0
	if r == nil {
		return m
	}
	seen := make(map[string]bool, len(active))
	for _, id := range active {
		if seen[id] {
			continue
		}
		seen[id] = true
		def, ok := r.Get(id)
		if !ok {
			continue
		}
		if v, ok := def.Vulnerabilities[skillID]; ok {
			m *= v
		}
	}
	return m
}

// ApplyVulnerability scales a raw damage figure and floors the result.
//
// Postcondition: Returns floor(damage * multiplier).
func ApplyVulnerability(damage int, multiplier float64) int {
	return int(math.Floor(float64(damage) * multiplier))
}
