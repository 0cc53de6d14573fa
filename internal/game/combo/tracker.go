package combo

import (
	"context"
	"sync"
)

// Tracker remembers the last technique each entity used and the round it was
// used in. The activation engine reads it to compute combo bonuses and writes
// it after every combat activation.
type Tracker interface {
	// Last returns the entity's last technique and round; ok is false when
	// nothing has been recorded.
	Last(ctx context.Context, entityID string) (techniqueID string, round int, ok bool, err error)
	// Remember records techniqueID as used by entityID in round.
	Remember(ctx context.Context, entityID, techniqueID string, round int) error
	// Forget drops the entity's history, e.g. when its encounter ends.
	Forget(ctx context.Context, entityID string) error
}

type lastUse struct {
	techniqueID string
	round       int
}

// MemoryTracker is an in-process Tracker. Safe for concurrent use.
type MemoryTracker struct {
	mu   sync.RWMutex
	last map[string]lastUse
}

// NewMemoryTracker creates an empty MemoryTracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{last: make(map[string]lastUse)}
}

// Last implements Tracker.
func (t *MemoryTracker) Last(_ context.Context, entityID string) (string, int, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, ok := t.last[entityID]
	return u.techniqueID, u.round, ok, nil
}

// Remember implements Tracker.
func (t *MemoryTracker) Remember(_ context.Context, entityID, techniqueID string, round int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[entityID] = lastUse{techniqueID: techniqueID, round: round}
	return nil
}

// Forget implements Tracker.
func (t *MemoryTracker) Forget(_ context.Context, entityID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, entityID)
	return nil
}
