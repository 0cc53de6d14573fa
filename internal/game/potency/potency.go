// Package potency resolves how well a technique lands: actor power against
// target resistance, bucketed into an ordered Potency level.
package potency

import (
	"fmt"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
)

// Potency is the resolved outcome strength of a technique use.
//
// The zero value is Negated. Resisted sits outside the ordered ladder.
type Potency int

const (
	Negated Potency = iota
	Reduced
	Standard
	Full
	Overwhelming
	Critical
	Resisted
)

// Gap ladder thresholds, inclusive lower bounds.
const (
	overwhelmingGap = 10
	fullGap         = 5
	standardGap     = 0
	reducedGap      = -5
)

// String returns the lowercase outcome label.
func (p Potency) String() string {
	switch p {
	case Negated:
		return "negated"
	case Reduced:
		return "reduced"
	case Standard:
		return "standard"
	case Full:
		return "full"
	case Overwhelming:
		return "overwhelming"
	case Critical:
		return "critical"
	case Resisted:
		return "resisted"
	default:
		return "unknown"
	}
}

// Parse converts a label produced by String back into a Potency.
func Parse(s string) (Potency, error) {
	for p := Negated; p <= Resisted; p++ {
		if p.String() == s {
			return p, nil
		}
	}
	return Negated, fmt.Errorf("unknown potency %q", s)
}

// Rank orders the ladder negated(0) < reduced < standard < full < overwhelming
// < critical(5). Resisted ranks -1: it is reachable only when resistance
// dominates and never compares above any ladder level.
func (p Potency) Rank() int {
	if p == Resisted {
		return -1
	}
	return int(p)
}

// Fails reports whether the technique did not take hold.
//
// Postcondition: Returns true iff p is Negated or Resisted.
func (p Potency) Fails() bool {
	return p == Negated || p == Resisted
}

// Multiplier returns the effect scaling factor for p.
func (p Potency) Multiplier() float64 {
	return float64(p.Percent()) / 100
}

// Percent returns the effect scaling factor in exact integer percent.
//
// Postcondition: critical=200, overwhelming=150, full=100, standard=80,
// reduced=50, negated=0, resisted=0.
func (p Potency) Percent() int {
	switch p {
	case Critical:
		return 200
	case Overwhelming:
		return 150
	case Full:
		return 100
	case Standard:
		return 80
	case Reduced:
		return 50
	default:
		return 0
	}
}

// Scale multiplies v by p's multiplier and truncates toward zero.
//
// Postcondition: Returns 0 when p.Fails().
func (p Potency) Scale(v int) int {
	return v * p.Percent() / 100
}

// ActorPower computes tier*3 + Modifier(abilityScore) + rollBonus.
//
// Precondition: tier in [0, 8].
func ActorPower(tier, abilityScore, rollBonus int) int {
	return tier*3 + ability.Modifier(abilityScore) + rollBonus
}

// TargetResistance computes counterTier*3 + Modifier(counterAbilityScore).
// Callers with no target use 0 instead of calling this.
//
// Precondition: counterTier in [0, 8]; 0 when the target lacks the skill.
func TargetResistance(counterTier, counterAbilityScore int) int {
	return counterTier*3 + ability.Modifier(counterAbilityScore)
}

// Determine buckets power against resistance. The two extreme checks run
// before the gap ladder and only fire when both sides are meaningful; note the
// critical check is strict (>) while the resisted check is inclusive (>=).
//
// Postcondition: Returns exactly one Potency; gap == 0 resolves to Standard.
func Determine(power, resistance int) Potency {
	if resistance > 0 && power > 2*resistance {
		return Critical
	}
	if power > 0 && resistance >= 3*power {
		return Resisted
	}
	gap := power - resistance
	switch {
	case gap >= overwhelmingGap:
		return Overwhelming
	case gap >= fullGap:
		return Full
	case gap >= standardGap:
		return Standard
	case gap >= reducedGap:
		return Reduced
	default:
		return Negated
	}
}
