package technique

import (
	"fmt"
	"strconv"

	"github.com/AmirZhou/hodos-sub001/internal/game/potency"
)

// Pair is one named effect value, formatted for summaries and audit records.
type Pair struct {
	Key   string
	Value any
}

// String renders the pair as key=value.
func (p Pair) String() string {
	switch v := p.Value.(type) {
	case int:
		return p.Key + "=" + strconv.Itoa(v)
	case bool:
		return p.Key + "=" + strconv.FormatBool(v)
	case string:
		return p.Key + "=" + v
	default:
		return fmt.Sprintf("%s=%v", p.Key, v)
	}
}

// Bundle is the effect set of a single context. Fields left unset in the
// catalog are not declared and never appear in Pairs.
type Bundle interface {
	// Context names the context this bundle belongs to.
	Context() Context
	// Scale returns a copy scaled by p. Numeric values are multiplied and
	// truncated toward zero; when p fails, booleans become false and strings
	// become empty.
	Scale(p potency.Potency) Bundle
	// Pairs lists declared values in a fixed field order.
	Pairs() []Pair
}

// CombatEffects is the combat bundle.
type CombatEffects struct {
	Damage         *int    `yaml:"damage"`
	Healing        *int    `yaml:"healing"`
	ArmorReduction *int    `yaml:"armor_reduction"`
	Condition      *string `yaml:"condition"`
	Knockdown      *bool   `yaml:"knockdown"`
}

// SceneEffects is the narrative scene bundle.
type SceneEffects struct {
	IntensityChange *int    `yaml:"intensity_change"`
	ComfortImpact   *int    `yaml:"comfort_impact"`
	Mood            *string `yaml:"mood"`
	RevealsSecret   *bool   `yaml:"reveals_secret"`
}

// SocialEffects is the social bundle.
type SocialEffects struct {
	TrustChange       *int    `yaml:"trust_change"`
	DispositionChange *int    `yaml:"disposition_change"`
	Reveals           *string `yaml:"reveals"`
	Persuaded         *bool   `yaml:"persuaded"`
}

// ExplorationEffects is the exploration bundle.
type ExplorationEffects struct {
	DiscoveryBonus *int    `yaml:"discovery_bonus"`
	TimeSaved      *int    `yaml:"time_saved"`
	Unlocks        *string `yaml:"unlocks"`
	RevealsHidden  *bool   `yaml:"reveals_hidden"`
}

// Effects holds a technique's per-context bundles. A nil bundle means the
// technique declares nothing for that context.
type Effects struct {
	Combat      *CombatEffects      `yaml:"combat"`
	Scene       *SceneEffects       `yaml:"scene"`
	Social      *SocialEffects      `yaml:"social"`
	Exploration *ExplorationEffects `yaml:"exploration"`
}

// For returns the bundle for c. An undeclared context yields an empty bundle
// of the right kind so callers never handle nil.
func (e Effects) For(c Context) Bundle {
	switch c {
	case Combat:
		if e.Combat != nil {
			return *e.Combat
		}
		return CombatEffects{}
	case Scene:
		if e.Scene != nil {
			return *e.Scene
		}
		return SceneEffects{}
	case Social:
		if e.Social != nil {
			return *e.Social
		}
		return SocialEffects{}
	case Exploration:
		if e.Exploration != nil {
			return *e.Exploration
		}
		return ExplorationEffects{}
	default:
		return nil
	}
}

func (CombatEffects) Context() Context      { return Combat }
func (SceneEffects) Context() Context       { return Scene }
func (SocialEffects) Context() Context      { return Social }
func (ExplorationEffects) Context() Context { return Exploration }

func (c CombatEffects) Scale(p potency.Potency) Bundle {
	return CombatEffects{
		Damage:         scaleInt(c.Damage, p),
		Healing:        scaleInt(c.Healing, p),
		ArmorReduction: scaleInt(c.ArmorReduction, p),
		Condition:      passString(c.Condition, p),
		Knockdown:      passBool(c.Knockdown, p),
	}
}

func (s SceneEffects) Scale(p potency.Potency) Bundle {
	return SceneEffects{
		IntensityChange: scaleInt(s.IntensityChange, p),
		ComfortImpact:   scaleInt(s.ComfortImpact, p),
		Mood:            passString(s.Mood, p),
		RevealsSecret:   passBool(s.RevealsSecret, p),
	}
}

func (s SocialEffects) Scale(p potency.Potency) Bundle {
	return SocialEffects{
		TrustChange:       scaleInt(s.TrustChange, p),
		DispositionChange: scaleInt(s.DispositionChange, p),
		Reveals:           passString(s.Reveals, p),
		Persuaded:         passBool(s.Persuaded, p),
	}
}

func (x ExplorationEffects) Scale(p potency.Potency) Bundle {
	return ExplorationEffects{
		DiscoveryBonus: scaleInt(x.DiscoveryBonus, p),
		TimeSaved:      scaleInt(x.TimeSaved, p),
		Unlocks:        passString(x.Unlocks, p),
		RevealsHidden:  passBool(x.RevealsHidden, p),
	}
}

func (c CombatEffects) Pairs() []Pair {
	var out []Pair
	out = appendPair(out, "damage", c.Damage)
	out = appendPair(out, "healing", c.Healing)
	out = appendPair(out, "armorReduction", c.ArmorReduction)
	out = appendPair(out, "condition", c.Condition)
	out = appendPair(out, "knockdown", c.Knockdown)
	return out
}

func (s SceneEffects) Pairs() []Pair {
	var out []Pair
	out = appendPair(out, "intensityChange", s.IntensityChange)
	out = appendPair(out, "comfortImpact", s.ComfortImpact)
	out = appendPair(out, "mood", s.Mood)
	out = appendPair(out, "revealsSecret", s.RevealsSecret)
	return out
}

func (s SocialEffects) Pairs() []Pair {
	var out []Pair
	out = appendPair(out, "trustChange", s.TrustChange)
	out = appendPair(out, "dispositionChange", s.DispositionChange)
	out = appendPair(out, "reveals", s.Reveals)
	out = appendPair(out, "persuaded", s.Persuaded)
	return out
}

func (x ExplorationEffects) Pairs() []Pair {
	var out []Pair
	out = appendPair(out, "discoveryBonus", x.DiscoveryBonus)
	out = appendPair(out, "timeSaved", x.TimeSaved)
	out = appendPair(out, "unlocks", x.Unlocks)
	out = appendPair(out, "revealsHidden", x.RevealsHidden)
	return out
}

// WithDamage returns a copy of c with Damage set to v.
func (c CombatEffects) WithDamage(v int) CombatEffects {
	c.Damage = &v
	return c
}

// PairMap flattens pairs into a map for JSON audit storage.
func PairMap(pairs []Pair) map[string]any {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		out[p.Key] = p.Value
	}
	return out
}

// Int returns a pointer to v, for building bundles in code.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v.
func String(v string) *string { return &v }

func scaleInt(v *int, p potency.Potency) *int {
	if v == nil {
		return nil
	}
	return Int(p.Scale(*v))
}

func passBool(v *bool, p potency.Potency) *bool {
	if v == nil {
		return nil
	}
	if p.Fails() {
		return Bool(false)
	}
	return Bool(*v)
}

func passString(v *string, p potency.Potency) *string {
	if v == nil {
		return nil
	}
	if p.Fails() {
		return String("")
	}
	return String(*v)
}

func appendPair[T int | bool | string](out []Pair, key string, v *T) []Pair {
	if v == nil {
		return out
	}
	return append(out, Pair{Key: key, Value: *v})
}
