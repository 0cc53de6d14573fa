// Package redis keeps cross-process combo state in Redis so every engine
// replica sees the same "last technique" for an entity.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
)

const (
	fieldTechnique = "technique"
	fieldRound     = "round"
)

var _ combo.Tracker = (*ComboTracker)(nil)

// ComboTracker implements combo.Tracker with one hash per entity:
//
//	<prefix><entityID> = {technique: <id>, round: <n>}
//
// Each write refreshes the key's TTL so abandoned encounters age out.
type ComboTracker struct {
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewComboTracker dials Redis and verifies the connection.
//
// Precondition: cfg passed config validation with Enabled set.
// Postcondition: Returns a tracker whose connection answered PING, or an error.
func NewComboTracker(ctx context.Context, cfg config.RedisConfig) (*ComboTracker, error) {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return NewComboTrackerFromClient(rdb, cfg.KeyPrefix, cfg.TTL), nil
}

// NewComboTrackerFromClient wraps an existing client. A non-positive ttl
// leaves keys without expiry.
func NewComboTrackerFromClient(rdb goredis.UniversalClient, prefix string, ttl time.Duration) *ComboTracker {
	return &ComboTracker{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (t *ComboTracker) key(entityID string) string {
	return t.prefix + entityID
}

// Last implements combo.Tracker.
func (t *ComboTracker) Last(ctx context.Context, entityID string) (string, int, bool, error) {
	vals, err := t.rdb.HGetAll(ctx, t.key(entityID)).Result()
	if err != nil {
		return "", 0, false, fmt.Errorf("reading combo state for %q: %w", entityID, err)
	}
	tech, ok := vals[fieldTechnique]
	if !ok || tech == "" {
		return "", 0, false, nil
	}
	round, err := strconv.Atoi(vals[fieldRound])
	if err != nil {
		return "", 0, false, fmt.Errorf("combo state for %q has bad round %q: %w", entityID, vals[fieldRound], err)
	}
	return tech, round, true, nil
}

// Remember implements combo.Tracker.
func (t *ComboTracker) Remember(ctx context.Context, entityID, techniqueID string, round int) error {
	k := t.key(entityID)
	_, err := t.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, k, fieldTechnique, techniqueID, fieldRound, round)
		if t.ttl > 0 {
			p.Expire(ctx, k, t.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving combo state for %q: %w", entityID, err)
	}
	return nil
}

// Forget implements combo.Tracker.
func (t *ComboTracker) Forget(ctx context.Context, entityID string) error {
	if err := t.rdb.Del(ctx, t.key(entityID)).Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("clearing combo state for %q: %w", entityID, err)
	}
	return nil
}

// Close releases the underlying client.
func (t *ComboTracker) Close() error {
	return t.rdb.Close()
}
