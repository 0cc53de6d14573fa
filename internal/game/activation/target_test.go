package activation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// txReads records which entities were read through the unit of work's view.
type txReads struct {
	mu       sync.Mutex
	entities map[string]bool
}

func (r *txReads) add(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[id] = true
}

func (r *txReads) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entities))
	for id := range r.entities {
		out = append(out, id)
	}
	return out
}

type recordingStore struct {
	activation.Store
	reads *txReads
}

func (s recordingStore) Atomic(ctx context.Context, fn func(activation.Store) error) error {
	return s.Store.Atomic(ctx, func(tx activation.Store) error {
		return fn(recordingTx{Store: tx, reads: s.reads})
	})
}

type recordingTx struct {
	activation.Store
	reads *txReads
}

func (t recordingTx) Abilities(ctx context.Context, entityID string) (ability.Scores, error) {
	t.reads.add(entityID)
	return t.Store.Abilities(ctx, entityID)
}

func (t recordingTx) Conditions(ctx context.Context, entityID string) ([]string, error) {
	t.reads.add(entityID)
	return t.Store.Conditions(ctx, entityID)
}

func (t recordingTx) Skill(ctx context.Context, entityID, skillID string) (progression.EntitySkill, error) {
	t.reads.add(entityID)
	return t.Store.Skill(ctx, entityID, skillID)
}

func (t recordingTx) Technique(ctx context.Context, entityID, techniqueID string) (progression.EntityTechnique, error) {
	t.reads.add(entityID)
	return t.Store.Technique(ctx, entityID, techniqueID)
}

func TestActivate_TargetRowsReadOutsideUnitOfWork(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.seedHero(t)
	h.seedBrute(t, "off_balance")

	reads := &txReads{entities: make(map[string]bool)}
	engine := activation.NewEngine(testCatalogs(t), recordingStore{Store: h.store, reads: reads},
		h.tracker, nil, h.quests, zap.NewNop())
	engine.SetClock(func() time.Time { return fixedNow })

	res, err := engine.Activate(context.Background(), riposteAt("brute", 0))
	require.NoError(t, err)
	assert.Equal(t, 11, res.Record.Resistance)
	assert.Equal(t, 1.5, res.Record.Vulnerability)
	assert.Equal(t, []string{"hero"}, reads.seen(), "only the actor's rows belong to the unit of work")
}

// Two entities using techniques on each other at the same time must both
// succeed; neither activation waits on the other's rows.
func TestActivate_MutualTargetsConcurrently(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, nil)
	for _, id := range []string{"ada", "bex"} {
		h.store.PutEntity(id, ability.Scores{Strength: 14, Dexterity: 12})
		require.NoError(t, h.store.SaveSkill(ctx, progression.NewEntitySkill(id, "swordsmanship", 2, 8)))
		require.NoError(t, h.store.SaveTechnique(ctx, progression.EntityTechnique{EntityID: id, TechniqueID: "parry"}))
	}

	const rounds = 20
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		for _, pair := range [][2]string{{"ada", "bex"}, {"bex", "ada"}} {
			wg.Add(1)
			go func(actor, target string) {
				defer wg.Done()
				_, err := h.engine.Activate(ctx, activation.Request{
					ActorID: actor, TechniqueID: "parry", TargetID: target, Context: technique.Combat,
				})
				errs <- err
			}(pair[0], pair[1])
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	for _, id := range []string{"ada", "bex"} {
		usage, err := h.store.Technique(ctx, id, "parry")
		require.NoError(t, err)
		assert.Equal(t, rounds, usage.TimesUsed)
	}
}
