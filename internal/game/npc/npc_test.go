package npc_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
)

func duelist() *npc.Template {
	return &npc.Template{
		ID:         "duelist",
		Name:       "Duelist",
		Abilities:  ability.Scores{Dexterity: 16},
		Skills:     map[string]int{"swordsmanship": 3},
		Techniques: []string{"parry"},
	}
}

func TestNewInstance_CopiesTemplate(t *testing.T) {
	tmpl := duelist()
	inst := npc.NewInstance("d1", tmpl)
	assert.Equal(t, "duelist", inst.TemplateID)
	assert.Equal(t, 16, inst.Abilities.Dexterity)

	inst.Skills["swordsmanship"] = 7
	inst.Techniques[0] = "riposte"
	assert.Equal(t, 3, tmpl.Skills["swordsmanship"], "instance must not alias template skills")
	assert.Equal(t, "parry", tmpl.Techniques[0], "instance must not alias template techniques")
}

func TestInstance_Conditions(t *testing.T) {
	inst := npc.NewInstance("d1", duelist())
	assert.Empty(t, inst.Conditions())
	assert.True(t, inst.AddCondition("off_balance"))
	assert.False(t, inst.AddCondition("off_balance"))
	assert.True(t, inst.AddCondition("disarmed"))
	assert.Equal(t, []string{"disarmed", "off_balance"}, inst.Conditions())
	assert.True(t, inst.RemoveCondition("disarmed"))
	assert.False(t, inst.RemoveCondition("disarmed"))
}

func TestSpawn_GeneratesIDAndAppliesConditions(t *testing.T) {
	inst, err := npc.Spawn(duelist(), "off_balance", "disarmed")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(inst.ID, "duelist-"))
	assert.Equal(t, "Duelist", inst.Name)
	assert.Equal(t, []string{"disarmed", "off_balance"}, inst.Conditions())
}

func TestSpawn_RejectsNilTemplate(t *testing.T) {
	_, err := npc.Spawn(nil)
	assert.Error(t, err)
}

func TestPropertySpawn_IDsUnique(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 50).Draw(rt, "n")
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			inst, err := npc.Spawn(duelist())
			require.NoError(rt, err)
			assert.False(rt, seen[inst.ID])
			seen[inst.ID] = true
		}
	})
}
