package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/AmirZhou/hodos-sub001/internal/game/condition"
)

func vulnRegistry() *condition.Registry {
	reg := condition.NewRegistry()
	reg.Register(&condition.ConditionDef{ID: "off_balance", Vulnerabilities: map[string]float64{"swordsmanship": 1.5}})
	reg.Register(&condition.ConditionDef{ID: "disarmed", Vulnerabilities: map[string]float64{"swordsmanship": 1.25, "brawling": 2}})
	reg.Register(&condition.ConditionDef{ID: "warded", Vulnerabilities: map[string]float64{"swordsmanship": 0.5}})
	return reg
}

func TestVulnerabilityMultiplier_NoConditions_One(t *testing.T) {
	assert.Equal(t, 1.0, condition.VulnerabilityMultiplier(vulnRegistry(), nil, "swordsmanship"))
}

func TestVulnerabilityMultiplier_SingleMatch(t *testing.T) {
	assert.InDelta(t, 1.5, condition.VulnerabilityMultiplier(vulnRegistry(), []string{"off_balance"}, "swordsmanship"), 1e-9)
}

func TestVulnerabilityMultiplier_OtherSkill_One(t *testing.T) {
	assert.Equal(t, 1.0, condition.VulnerabilityMultiplier(vulnRegistry(), []string{"off_balance"}, "persuasion"))
}

func TestVulnerabilityMultiplier_UnknownCondition_Ignored(t *testing.T) {
	assert.Equal(t, 1.0, condition.VulnerabilityMultiplier(vulnRegistry(), []string{"sunburnt"}, "swordsmanship"))
}

func TestVulnerabilityMultiplier_Compounds(t *testing.T) {
	got := condition.VulnerabilityMultiplier(vulnRegistry(), []string{"off_balance", "disarmed"}, "swordsmanship")
	assert.InDelta(t, 1.875, got, 1e-9)
}

func TestVulnerabilityMultiplier_DuplicateTagsCountOnce(t *testing.T) {
	got := condition.VulnerabilityMultiplier(vulnRegistry(), []string{"off_balance", "off_balance"}, "swordsmanship")
	assert.InDelta(t, 1.5, got, 1e-9)
}

func TestVulnerabilityMultiplier_NilRegistry_One(t *testing.T) {
	assert.Equal(t, 1.0, condition.VulnerabilityMultiplier(nil, []string{"off_balance"}, "swordsmanship"))
}

func TestApplyVulnerability_Floors(t *testing.T) {
	assert.Equal(t, 15, condition.ApplyVulnerability(10, 1.5))
	assert.Equal(t, 13, condition.ApplyVulnerability(9, 1.5))
	assert.Equal(t, 2, condition.ApplyVulnerability(5, 0.5))
	assert.Equal(t, 0, condition.ApplyVulnerability(0, 2))
	assert.Equal(t, 7, condition.ApplyVulnerability(7, 1))
}

func TestPropertyApplyVulnerability_IdentityAtOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dmg := rapid.IntRange(0, 10000).Draw(t, "damage")
		assert.Equal(t, dmg, condition.ApplyVulnerability(dmg, 1.0))
	})
}

func TestPropertyVulnerabilityMultiplier_NeverNegative(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tags := rapid.SliceOf(rapid.SampledFrom([]string{"off_balance", "disarmed", "warded", "unknown"})).Draw(t, "tags")
		skill := rapid.SampledFrom([]string{"swordsmanship", "brawling", "persuasion"}).Draw(t, "skill")
		assert.GreaterOrEqual(t, condition.VulnerabilityMultiplier(vulnRegistry(), tags, skill), 0.0)
	})
}
