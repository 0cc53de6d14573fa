package progression_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
)

func TestCanLearnTechnique(t *testing.T) {
	learned := progression.LearnedSet([]string{"parry"})
	assert.True(t, progression.CanLearnTechnique(2, 2, []string{"parry"}, learned))
	assert.False(t, progression.CanLearnTechnique(1, 2, []string{"parry"}, learned))
	assert.False(t, progression.CanLearnTechnique(5, 2, []string{"parry", "feint"}, learned))
	assert.True(t, progression.CanLearnTechnique(0, 0, nil, nil))
}

func TestMissingPrerequisites_Order(t *testing.T) {
	learned := progression.LearnedSet([]string{"b"})
	assert.Equal(t, []string{"a", "c"}, progression.MissingPrerequisites([]string{"a", "b", "c"}, learned))
	assert.Empty(t, progression.MissingPrerequisites(nil, learned))
}

func TestCompletedQuests(t *testing.T) {
	ctx := context.Background()
	q := progression.CompletedQuests{}
	ok, err := q.Satisfied(ctx, "duel_at_dawn", "hero")
	require.NoError(t, err)
	assert.False(t, ok)

	q.Complete("hero", "duel_at_dawn")
	ok, err = q.Satisfied(ctx, "duel_at_dawn", "hero")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = q.Satisfied(ctx, "duel_at_dawn", "rival")
	require.NoError(t, err)
	assert.False(t, ok)
}
