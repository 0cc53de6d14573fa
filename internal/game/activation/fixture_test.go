package activation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
	"github.com/AmirZhou/hodos-sub001/internal/game/condition"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
	"github.com/AmirZhou/hodos-sub001/internal/storage/memory"
)

// fixedNow is 2025-03-01 12:00 UTC.
var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testCatalogs(t *testing.T) activation.Catalogs {
	t.Helper()
	cat := technique.NewCatalog()
	require.NoError(t, cat.RegisterSkill(&technique.SkillDef{
		ID: "swordsmanship", Name: "Swordsmanship", Category: "martial",
		BaseAbility: ability.Strength, CounterAbility: ability.Dexterity,
	}))
	require.NoError(t, cat.RegisterTechnique(&technique.TechniqueDef{
		ID: "parry", Name: "Parry", SkillID: "swordsmanship",
		Contexts: technique.ContextSet{technique.Combat},
		Effects: technique.Effects{Combat: &technique.CombatEffects{
			ArmorReduction: technique.Int(2),
		}},
		Teachable: true,
	}))
	require.NoError(t, cat.RegisterTechnique(&technique.TechniqueDef{
		ID: "riposte", Name: "Riposte", SkillID: "swordsmanship",
		TierRequired:  2,
		Contexts:      technique.ContextSet{technique.Combat, technique.Scene},
		Prerequisites: []string{"parry"},
		RollBonus:     2,
		Cooldown:      3,
		Teachable:     true,
		Effects: technique.Effects{
			Combat: &technique.CombatEffects{
				Damage:    technique.Int(10),
				Condition: technique.String("off_balance"),
				Knockdown: technique.Bool(true),
			},
			Scene: &technique.SceneEffects{
				IntensityChange: technique.Int(20),
				ComfortImpact:   technique.Int(-10),
			},
		},
	}))
	require.NoError(t, cat.RegisterTechnique(&technique.TechniqueDef{
		ID: "whirlwind_strike", Name: "Whirlwind Strike", SkillID: "swordsmanship",
		TierRequired: 5,
		Contexts:     technique.ContextSet{technique.Combat},
		Teachable:    true,
		Effects:      technique.Effects{Combat: &technique.CombatEffects{Damage: technique.Int(20)}},
	}))
	require.NoError(t, cat.RegisterTechnique(&technique.TechniqueDef{
		ID: "family_secret", SkillID: "swordsmanship",
		Contexts: technique.ContextSet{technique.Combat},
	}))
	require.NoError(t, cat.RegisterTechnique(&technique.TechniqueDef{
		ID: "orphan", SkillID: "lost_art",
		Contexts: technique.ContextSet{technique.Social},
	}))

	combos := combo.NewRegistry()
	require.NoError(t, combos.Register(&combo.Chain{TechniqueID: "riposte", Predecessors: []string{"parry"}, BonusDamage: 4}))

	conds := condition.NewRegistry()
	conds.Register(&condition.ConditionDef{ID: "off_balance", Vulnerabilities: map[string]float64{"swordsmanship": 1.5}})

	npcs := npc.NewRegistry()
	require.NoError(t, npcs.Register(&npc.Template{
		ID: "blade_mentor", Name: "Ysolde",
		Teaches: []npc.Teaching{
			{TechniqueID: "riposte", TrustRequired: 30, CeilingGrant: 4},
			{TechniqueID: "whirlwind_strike", TrustRequired: 60, CeilingGrant: 6, QuestGate: "duel_at_dawn"},
			{TechniqueID: "family_secret"},
		},
	}))

	return activation.Catalogs{Techniques: cat, Combos: combos, Conditions: conds, NPCs: npcs}
}

type harness struct {
	engine  *activation.Engine
	store   *memory.Store
	tracker *combo.MemoryTracker
	quests  progression.CompletedQuests
}

func newHarness(t *testing.T, narrator activation.Narrator, logger *zap.Logger) *harness {
	t.Helper()
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &harness{
		store:   memory.NewStore(),
		tracker: combo.NewMemoryTracker(),
		quests:  progression.CompletedQuests{},
	}
	h.engine = activation.NewEngine(testCatalogs(t), h.store, h.tracker, narrator, h.quests, logger)
	h.engine.SetClock(func() time.Time { return fixedNow })
	return h
}

// seedHero gives "hero" Strength 16, swordsmanship tier 4 / ceiling 5, and
// parry plus riposte learned. seedBrute gives "brute" Dexterity 14 and
// swordsmanship tier 3, so riposte lands with power 17 against resistance 11.
func (h *harness) seedHero(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	h.store.PutEntity("hero", ability.Scores{Strength: 16, Dexterity: 12})
	require.NoError(t, h.store.SaveSkill(ctx, progression.NewEntitySkill("hero", "swordsmanship", 4, 5)))
	require.NoError(t, h.store.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "parry"}))
	require.NoError(t, h.store.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "riposte"}))
}

func (h *harness) seedBrute(t *testing.T, conditions ...string) {
	t.Helper()
	h.store.PutEntity("brute", ability.Scores{Dexterity: 14}, conditions...)
	require.NoError(t, h.store.SaveSkill(context.Background(), progression.NewEntitySkill("brute", "swordsmanship", 3, 3)))
}

func today() int { return progression.DayIndex(fixedNow) }
