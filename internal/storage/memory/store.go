// Package memory provides an in-process implementation of the activation
// store, used by tests and by tools that run without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
)

type key struct {
	entity string
	id     string
}

type data struct {
	abilities  map[string]ability.Scores
	conditions map[string][]string
	skills     map[key]progression.EntitySkill
	techniques map[key]progression.EntityTechnique
	history    []activation.Record
}

// Store is a mutex-guarded activation.Store. Atomic holds the lock for the
// whole unit of work and stages writes until fn succeeds.
type Store struct {
	mu sync.Mutex
	d  data
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{d: data{
		abilities:  make(map[string]ability.Scores),
		conditions: make(map[string][]string),
		skills:     make(map[key]progression.EntitySkill),
		techniques: make(map[key]progression.EntityTechnique),
	}}
}

// PutEntity registers an entity's ability scores and active conditions,
// replacing any previous values.
func (s *Store) PutEntity(entityID string, scores ability.Scores, conditions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.abilities[entityID] = scores
	s.d.conditions[entityID] = append([]string(nil), conditions...)
}

// SetConditions replaces the entity's active conditions.
func (s *Store) SetConditions(entityID string, conditions ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.conditions[entityID] = append([]string(nil), conditions...)
}

// SeedNPC registers a live NPC instance as an entity: its abilities and
// conditions, a skill row per template skill with the ceiling at the current
// tier, and a usage row per known technique.
func (s *Store) SeedNPC(inst *npc.Instance, day int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.abilities[inst.ID] = inst.Abilities
	s.d.conditions[inst.ID] = inst.Conditions()
	for skillID, tier := range inst.Skills {
		s.d.skills[key{inst.ID, skillID}] = progression.NewEntitySkill(inst.ID, skillID, tier, tier)
	}
	for _, tid := range inst.Techniques {
		s.d.techniques[key{inst.ID, tid}] = progression.EntityTechnique{
			EntityID: inst.ID, TechniqueID: tid, LastDayReset: day,
		}
	}
}

// History returns a copy of the activation history in append order.
func (s *Store) History() []activation.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]activation.Record(nil), s.d.history...)
}

// Abilities implements activation.Store.
func (s *Store) Abilities(ctx context.Context, entityID string) (ability.Scores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{base: &s.d}).Abilities(ctx, entityID)
}

// Conditions implements activation.Store.
func (s *Store) Conditions(ctx context.Context, entityID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{base: &s.d}).Conditions(ctx, entityID)
}

// Skill implements activation.Store.
func (s *Store) Skill(ctx context.Context, entityID, skillID string) (progression.EntitySkill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{base: &s.d}).Skill(ctx, entityID, skillID)
}

// SaveSkill implements activation.Store.
func (s *Store) SaveSkill(ctx context.Context, row progression.EntitySkill) error {
	return s.Atomic(ctx, func(t activation.Store) error { return t.SaveSkill(ctx, row) })
}

// Technique implements activation.Store.
func (s *Store) Technique(ctx context.Context, entityID, techniqueID string) (progression.EntityTechnique, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{base: &s.d}).Technique(ctx, entityID, techniqueID)
}

// SaveTechnique implements activation.Store.
func (s *Store) SaveTechnique(ctx context.Context, row progression.EntityTechnique) error {
	return s.Atomic(ctx, func(t activation.Store) error { return t.SaveTechnique(ctx, row) })
}

// LearnedTechniques implements activation.Store.
func (s *Store) LearnedTechniques(ctx context.Context, entityID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{base: &s.d}).LearnedTechniques(ctx, entityID)
}

// AppendHistory implements activation.Store.
func (s *Store) AppendHistory(ctx context.Context, rec activation.Record) error {
	return s.Atomic(ctx, func(t activation.Store) error { return t.AppendHistory(ctx, rec) })
}

// Atomic implements activation.Store.
func (s *Store) Atomic(ctx context.Context, fn func(activation.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &tx{
		base:       &s.d,
		skills:     make(map[key]progression.EntitySkill),
		techniques: make(map[key]progression.EntityTechnique),
	}
	if err := fn(t); err != nil {
		return err
	}
	t.commit()
	return nil
}

// tx is a staged view over data. Reads see staged writes first.
type tx struct {
	base       *data
	skills     map[key]progression.EntitySkill
	techniques map[key]progression.EntityTechnique
	history    []activation.Record
}

func (t *tx) Abilities(_ context.Context, entityID string) (ability.Scores, error) {
	scores, ok := t.base.abilities[entityID]
	if !ok {
		return ability.Scores{}, fmt.Errorf("entity %q: %w", entityID, activation.ErrNotFound)
	}
	return scores, nil
}

func (t *tx) Conditions(_ context.Context, entityID string) ([]string, error) {
	return append([]string(nil), t.base.conditions[entityID]...), nil
}

func (t *tx) Skill(_ context.Context, entityID, skillID string) (progression.EntitySkill, error) {
	k := key{entityID, skillID}
	if row, ok := t.skills[k]; ok {
		return row, nil
	}
	if row, ok := t.base.skills[k]; ok {
		return row, nil
	}
	return progression.EntitySkill{}, fmt.Errorf("skill %s/%s: %w", entityID, skillID, activation.ErrNotFound)
}

func (t *tx) SaveSkill(_ context.Context, row progression.EntitySkill) error {
	if err := row.Validate(); err != nil {
		return err
	}
	t.skills[key{row.EntityID, row.SkillID}] = row
	return nil
}

func (t *tx) Technique(_ context.Context, entityID, techniqueID string) (progression.EntityTechnique, error) {
	k := key{entityID, techniqueID}
	if row, ok := t.techniques[k]; ok {
		return row, nil
	}
	if row, ok := t.base.techniques[k]; ok {
		return row, nil
	}
	return progression.EntityTechnique{}, fmt.Errorf("technique %s/%s: %w", entityID, techniqueID, activation.ErrNotFound)
}

func (t *tx) SaveTechnique(_ context.Context, row progression.EntityTechnique) error {
	t.techniques[key{row.EntityID, row.TechniqueID}] = row
	return nil
}

func (t *tx) LearnedTechniques(_ context.Context, entityID string) ([]string, error) {
	seen := make(map[string]bool)
	for k := range t.base.techniques {
		if k.entity == entityID {
			seen[k.id] = true
		}
	}
	for k := range t.techniques {
		if k.entity == entityID {
			seen[k.id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (t *tx) AppendHistory(_ context.Context, rec activation.Record) error {
	t.history = append(t.history, rec)
	return nil
}

// Atomic on a tx joins the enclosing unit of work.
func (t *tx) Atomic(_ context.Context, fn func(activation.Store) error) error {
	return fn(t)
}

func (t *tx) commit() {
	for k, v := range t.skills {
		t.base.skills[k] = v
	}
	for k, v := range t.techniques {
		t.base.techniques[k] = v
	}
	t.base.history = append(t.base.history, t.history...)
}
