package combo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
)

func TestMemoryTracker_RememberThenLast(t *testing.T) {
	ctx := context.Background()
	tr := combo.NewMemoryTracker()

	_, _, ok, err := tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.Remember(ctx, "hero", "parry", 3))
	id, round, ok, err := tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "parry", id)
	assert.Equal(t, 3, round)

	require.NoError(t, tr.Forget(ctx, "hero"))
	_, _, ok, err = tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTracker_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	tr := combo.NewMemoryTracker()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = tr.Remember(ctx, "hero", "parry", i)
			_, _, _, _ = tr.Last(ctx, "hero")
		}(i)
	}
	wg.Wait()
	_, _, ok, err := tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryTracker_ImplementsTracker(t *testing.T) {
	var _ combo.Tracker = combo.NewMemoryTracker()
}
