package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/storage/memory"
)

func TestStore_ImplementsActivationStore(t *testing.T) {
	var _ activation.Store = memory.NewStore()
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	_, err := s.Abilities(ctx, "ghost")
	assert.ErrorIs(t, err, activation.ErrNotFound)
	_, err = s.Skill(ctx, "ghost", "stealth")
	assert.ErrorIs(t, err, activation.ErrNotFound)
	_, err = s.Technique(ctx, "ghost", "shadow_step")
	assert.ErrorIs(t, err, activation.ErrNotFound)
	conds, err := s.Conditions(ctx, "ghost")
	require.NoError(t, err)
	assert.Empty(t, conds)
}

func TestStore_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	s.PutEntity("hero", ability.Scores{Strength: 16}, "off_balance")

	scores, err := s.Abilities(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, 16, scores.Strength)
	conds, _ := s.Conditions(ctx, "hero")
	assert.Equal(t, []string{"off_balance"}, conds)

	require.NoError(t, s.SaveSkill(ctx, progression.NewEntitySkill("hero", "swordsmanship", 2, 4)))
	row, err := s.Skill(ctx, "hero", "swordsmanship")
	require.NoError(t, err)
	assert.Equal(t, 2, row.CurrentTier)

	require.NoError(t, s.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "riposte"}))
	require.NoError(t, s.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "parry"}))
	require.NoError(t, s.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "rival", TechniqueID: "feint"}))
	learned, err := s.LearnedTechniques(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, []string{"parry", "riposte"}, learned)
}

func TestStore_SaveSkill_RejectsBrokenInvariant(t *testing.T) {
	s := memory.NewStore()
	err := s.SaveSkill(context.Background(), progression.EntitySkill{EntityID: "hero", SkillID: "stealth", CurrentTier: 5, Ceiling: 2})
	assert.Error(t, err)
}

func TestStore_Atomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx activation.Store) error {
		require.NoError(t, tx.SaveSkill(ctx, progression.NewEntitySkill("hero", "stealth", 1, 1)))
		require.NoError(t, tx.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "shadow_step"}))
		require.NoError(t, tx.AppendHistory(ctx, activation.Record{ActorID: "hero"}))
		// Staged writes are visible inside the unit of work.
		_, err := tx.Skill(ctx, "hero", "stealth")
		require.NoError(t, err)
		learned, _ := tx.LearnedTechniques(ctx, "hero")
		assert.Equal(t, []string{"shadow_step"}, learned)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Skill(ctx, "hero", "stealth")
	assert.ErrorIs(t, err, activation.ErrNotFound)
	_, err = s.Technique(ctx, "hero", "shadow_step")
	assert.ErrorIs(t, err, activation.ErrNotFound)
	assert.Empty(t, s.History())
}

func TestStore_Atomic_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.Atomic(ctx, func(tx activation.Store) error {
		if err := tx.SaveSkill(ctx, progression.NewEntitySkill("hero", "stealth", 1, 1)); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, activation.Record{ActorID: "hero"})
	}))
	_, err := s.Skill(ctx, "hero", "stealth")
	assert.NoError(t, err)
	assert.Len(t, s.History(), 1)
}

func TestStore_Atomic_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := memory.NewStore().Atomic(ctx, func(activation.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestStore_Atomic_SerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	require.NoError(t, s.SaveTechnique(ctx, progression.EntityTechnique{EntityID: "hero", TechniqueID: "parry"}))

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Atomic(ctx, func(tx activation.Store) error {
				row, err := tx.Technique(ctx, "hero", "parry")
				if err != nil {
					return err
				}
				row.RecordUse(7)
				return tx.SaveTechnique(ctx, row)
			})
		}()
	}
	wg.Wait()
	row, err := s.Technique(ctx, "hero", "parry")
	require.NoError(t, err)
	assert.Equal(t, workers, row.TimesUsed)
	assert.Equal(t, workers, row.UsesToday)
}

func TestStore_SeedNPC(t *testing.T) {
	ctx := context.Background()
	tmpl := &npc.Template{
		ID:         "duelist",
		Name:       "Duelist",
		Abilities:  ability.Scores{Dexterity: 16},
		Skills:     map[string]int{"swordsmanship": 3},
		Techniques: []string{"parry"},
	}
	inst := npc.NewInstance("duelist-1", tmpl)
	inst.AddCondition("off_balance")

	s := memory.NewStore()
	s.SeedNPC(inst, 20000)

	scores, err := s.Abilities(ctx, "duelist-1")
	require.NoError(t, err)
	assert.Equal(t, 16, scores.Dexterity)
	row, err := s.Skill(ctx, "duelist-1", "swordsmanship")
	require.NoError(t, err)
	assert.Equal(t, 3, row.CurrentTier)
	assert.Equal(t, 3, row.Ceiling)
	usage, err := s.Technique(ctx, "duelist-1", "parry")
	require.NoError(t, err)
	assert.Equal(t, 20000, usage.LastDayReset)
	conds, _ := s.Conditions(ctx, "duelist-1")
	assert.Equal(t, []string{"off_balance"}, conds)
}
