package redis_test

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/storage/redis"
	"github.com/AmirZhou/hodos-sub001/internal/testutil"
)

func newTracker(t *testing.T) (*redis.ComboTracker, *testutil.RedisContainer) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	rc := testutil.NewRedisContainer(t)
	tr, err := redis.NewComboTracker(context.Background(), rc.Config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr, rc
}

func TestComboTracker_RememberLastForget(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	_, _, ok, err := tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tr.Remember(ctx, "hero", "parry", 3))
	tech, round, ok, err := tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "parry", tech)
	assert.Equal(t, 3, round)

	require.NoError(t, tr.Remember(ctx, "hero", "riposte", 4))
	tech, round, _, _ = tr.Last(ctx, "hero")
	assert.Equal(t, "riposte", tech)
	assert.Equal(t, 4, round)

	require.NoError(t, tr.Forget(ctx, "hero"))
	_, _, ok, err = tr.Last(ctx, "hero")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, tr.Forget(ctx, "never-seen"))
}

func TestComboTracker_KeysExpire(t *testing.T) {
	_, rc := newTracker(t)
	ctx := context.Background()
	rdb := goredis.NewClient(&goredis.Options{Addr: rc.Config.Addr})
	defer rdb.Close()

	tr := redis.NewComboTrackerFromClient(rdb, "ttl:", 500*time.Millisecond)
	require.NoError(t, tr.Remember(ctx, "hero", "parry", 1))
	ttl, err := rdb.TTL(ctx, "ttl:hero").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	assert.Eventually(t, func() bool {
		_, _, ok, err := tr.Last(ctx, "hero")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}

func TestComboTracker_EntitiesAreIsolated(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()
	require.NoError(t, tr.Remember(ctx, "hero", "parry", 1))
	require.NoError(t, tr.Remember(ctx, "rival", "riposte", 2))
	require.NoError(t, tr.Forget(ctx, "hero"))

	tech, _, ok, err := tr.Last(ctx, "rival")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "riposte", tech)
}

func TestNewComboTracker_Unreachable(t *testing.T) {
	_, err := redis.NewComboTracker(context.Background(), config.RedisConfig{
		Enabled:     true,
		Addr:        "127.0.0.1:1",
		TTL:         time.Minute,
		DialTimeout: 200 * time.Millisecond,
	})
	assert.Error(t, err)
}
