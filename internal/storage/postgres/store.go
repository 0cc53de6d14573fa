package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/potency"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists entity skill state and activation history in PostgreSQL.
// It implements activation.Store.
type Store struct {
	db *pgxpool.Pool
	queries
}

// NewStore creates a Store backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the schema applied.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, queries: queries{q: db}}
}

// Atomic runs fn inside a single transaction. Usage and skill rows read
// through tx are locked with SELECT ... FOR UPDATE until commit.
//
// Postcondition: fn's writes are committed iff fn returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(activation.Store) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&txStore{queries{q: tx, lock: true}}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// PutEntity upserts the entity's ability scores and replaces its conditions.
func (s *Store) PutEntity(ctx context.Context, entityID string, scores ability.Scores, conditions ...string) error {
	return s.Atomic(ctx, func(tx activation.Store) error {
		q := tx.(*txStore).queries
		if err := q.upsertEntity(ctx, entityID, scores); err != nil {
			return err
		}
		return q.replaceConditions(ctx, entityID, conditions)
	})
}

// SetConditions replaces the entity's active conditions.
//
// Precondition: the entity must exist.
func (s *Store) SetConditions(ctx context.Context, entityID string, conditions ...string) error {
	return s.Atomic(ctx, func(tx activation.Store) error {
		return tx.(*txStore).replaceConditions(ctx, entityID, conditions)
	})
}

// SeedNPC persists a live NPC instance the way memory.Store.SeedNPC does:
// abilities, conditions, one skill row per template skill with the ceiling at
// the current tier, and one usage row per known technique.
func (s *Store) SeedNPC(ctx context.Context, inst *npc.Instance, day int) error {
	return s.Atomic(ctx, func(tx activation.Store) error {
		q := tx.(*txStore).queries
		if err := q.upsertEntity(ctx, inst.ID, inst.Abilities); err != nil {
			return err
		}
		if err := q.replaceConditions(ctx, inst.ID, inst.Conditions()); err != nil {
			return err
		}
		for skillID, tier := range inst.Skills {
			if err := q.SaveSkill(ctx, progression.NewEntitySkill(inst.ID, skillID, tier, tier)); err != nil {
				return err
			}
		}
		for _, tid := range inst.Techniques {
			row := progression.EntityTechnique{EntityID: inst.ID, TechniqueID: tid, LastDayReset: day}
			if err := q.SaveTechnique(ctx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// History returns up to limit activation records for actorID, newest first.
func (s *Store) History(ctx context.Context, actorID string, limit int) ([]activation.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, actor_id, target_id, technique_id, skill_id, context, power, resistance,
		        potency, effects, vulnerability, combo_bonus, xp_awarded, tier_before,
		        tier_after, day_index, round, activated_at
		 FROM activation_history
		 WHERE actor_id = $1
		 ORDER BY activated_at DESC, id
		 LIMIT $2`,
		actorID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activation history: %w", err)
	}
	defer rows.Close()

	var out []activation.Record
	for rows.Next() {
		var (
			rec     activation.Record
			ctxName string
			potName string
			effJSON []byte
		)
		if err := rows.Scan(&rec.ID, &rec.ActorID, &rec.TargetID, &rec.TechniqueID, &rec.SkillID,
			&ctxName, &rec.Power, &rec.Resistance, &potName, &effJSON, &rec.Vulnerability,
			&rec.ComboBonus, &rec.XPAwarded, &rec.TierBefore, &rec.TierAfter, &rec.DayIndex,
			&rec.Round, &rec.At); err != nil {
			return nil, fmt.Errorf("scanning activation history: %w", err)
		}
		if rec.Context, err = technique.ParseContext(ctxName); err != nil {
			return nil, fmt.Errorf("activation %s: %w", rec.ID, err)
		}
		if rec.Potency, err = potency.Parse(potName); err != nil {
			return nil, fmt.Errorf("activation %s: %w", rec.ID, err)
		}
		if rec.Effects, err = decodeEffects(effJSON); err != nil {
			return nil, fmt.Errorf("activation %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// txStore is the view handed to Atomic callbacks.
type txStore struct {
	queries
}

// Atomic on a txStore joins the enclosing transaction.
func (t *txStore) Atomic(_ context.Context, fn func(activation.Store) error) error {
	return fn(t)
}

// queries holds the statements shared by Store and txStore. When lock is
// set, row reads take FOR UPDATE locks.
type queries struct {
	q    querier
	lock bool
}

func (r queries) forUpdate() string {
	if r.lock {
		return " FOR UPDATE"
	}
	return ""
}

// Abilities implements activation.Store.
func (r queries) Abilities(ctx context.Context, entityID string) (ability.Scores, error) {
	var scores ability.Scores
	err := r.q.QueryRow(ctx, `SELECT abilities FROM entities WHERE id = $1`, entityID).Scan(&scores)
	if errors.Is(err, pgx.ErrNoRows) {
		return ability.Scores{}, fmt.Errorf("entity %q: %w", entityID, activation.ErrNotFound)
	}
	if err != nil {
		return ability.Scores{}, fmt.Errorf("querying abilities: %w", err)
	}
	return scores, nil
}

// Conditions implements activation.Store.
func (r queries) Conditions(ctx context.Context, entityID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT condition_id FROM entity_conditions WHERE entity_id = $1 ORDER BY condition_id`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning conditions: %w", err)
	}
	return ids, nil
}

// Skill implements activation.Store.
func (r queries) Skill(ctx context.Context, entityID, skillID string) (progression.EntitySkill, error) {
	row := progression.EntitySkill{EntityID: entityID, SkillID: skillID}
	err := r.q.QueryRow(ctx,
		`SELECT current_tier, ceiling, practice_xp
		 FROM entity_skills WHERE entity_id = $1 AND skill_id = $2`+r.forUpdate(),
		entityID, skillID,
	).Scan(&row.CurrentTier, &row.Ceiling, &row.PracticeXP)
	if errors.Is(err, pgx.ErrNoRows) {
		return progression.EntitySkill{}, fmt.Errorf("skill %s/%s: %w", entityID, skillID, activation.ErrNotFound)
	}
	if err != nil {
		return progression.EntitySkill{}, fmt.Errorf("querying skill: %w", err)
	}
	return row, nil
}

// SaveSkill implements activation.Store.
func (r queries) SaveSkill(ctx context.Context, row progression.EntitySkill) error {
	if err := row.Validate(); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx,
		`INSERT INTO entity_skills (entity_id, skill_id, current_tier, ceiling, practice_xp)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (entity_id, skill_id) DO UPDATE
		 SET current_tier = EXCLUDED.current_tier,
		     ceiling      = EXCLUDED.ceiling,
		     practice_xp  = EXCLUDED.practice_xp`,
		row.EntityID, row.SkillID, row.CurrentTier, row.Ceiling, row.PracticeXP,
	)
	if err != nil {
		return fmt.Errorf("saving skill: %w", err)
	}
	return nil
}

// Technique implements activation.Store.
func (r queries) Technique(ctx context.Context, entityID, techniqueID string) (progression.EntityTechnique, error) {
	row := progression.EntityTechnique{EntityID: entityID, TechniqueID: techniqueID}
	err := r.q.QueryRow(ctx,
		`SELECT times_used, uses_today, last_day_reset
		 FROM entity_techniques WHERE entity_id = $1 AND technique_id = $2`+r.forUpdate(),
		entityID, techniqueID,
	).Scan(&row.TimesUsed, &row.UsesToday, &row.LastDayReset)
	if errors.Is(err, pgx.ErrNoRows) {
		return progression.EntityTechnique{}, fmt.Errorf("technique %s/%s: %w", entityID, techniqueID, activation.ErrNotFound)
	}
	if err != nil {
		return progression.EntityTechnique{}, fmt.Errorf("querying technique usage: %w", err)
	}
	return row, nil
}

// SaveTechnique implements activation.Store.
func (r queries) SaveTechnique(ctx context.Context, row progression.EntityTechnique) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO entity_techniques (entity_id, technique_id, times_used, uses_today, last_day_reset)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (entity_id, technique_id) DO UPDATE
		 SET times_used     = EXCLUDED.times_used,
		     uses_today     = EXCLUDED.uses_today,
		     last_day_reset = EXCLUDED.last_day_reset`,
		row.EntityID, row.TechniqueID, row.TimesUsed, row.UsesToday, row.LastDayReset,
	)
	if err != nil {
		return fmt.Errorf("saving technique usage: %w", err)
	}
	return nil
}

// LearnedTechniques implements activation.Store.
func (r queries) LearnedTechniques(ctx context.Context, entityID string) ([]string, error) {
	rows, err := r.q.Query(ctx,
		`SELECT technique_id FROM entity_techniques WHERE entity_id = $1 ORDER BY technique_id`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying learned techniques: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning learned techniques: %w", err)
	}
	return ids, nil
}

// AppendHistory implements activation.Store.
func (r queries) AppendHistory(ctx context.Context, rec activation.Record) error {
	effects, err := encodeEffects(rec.Effects)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO activation_history
		   (id, actor_id, target_id, technique_id, skill_id, context, power, resistance,
		    potency, effects, vulnerability, combo_bonus, xp_awarded, tier_before,
		    tier_after, day_index, round, activated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		rec.ID, rec.ActorID, rec.TargetID, rec.TechniqueID, rec.SkillID, string(rec.Context),
		rec.Power, rec.Resistance, rec.Potency.String(), effects, rec.Vulnerability,
		rec.ComboBonus, rec.XPAwarded, rec.TierBefore, rec.TierAfter, rec.DayIndex,
		rec.Round, rec.At,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("activation %s already recorded: %w", rec.ID, err)
		}
		return fmt.Errorf("appending activation history: %w", err)
	}
	return nil
}

func (r queries) upsertEntity(ctx context.Context, entityID string, scores ability.Scores) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO entities (id, abilities) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET abilities = EXCLUDED.abilities`,
		entityID, scores,
	)
	if err != nil {
		return fmt.Errorf("saving entity: %w", err)
	}
	return nil
}

func (r queries) replaceConditions(ctx context.Context, entityID string, conditions []string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM entity_conditions WHERE entity_id = $1`, entityID); err != nil {
		return fmt.Errorf("clearing conditions: %w", err)
	}
	for _, c := range conditions {
		_, err := r.q.Exec(ctx,
			`INSERT INTO entity_conditions (entity_id, condition_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			entityID, c,
		)
		if err != nil {
			return fmt.Errorf("saving condition %q: %w", c, err)
		}
	}
	return nil
}

// effectJSON is the stored shape of one applied effect.
type effectJSON struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func encodeEffects(pairs []technique.Pair) ([]byte, error) {
	rows := make([]effectJSON, len(pairs))
	for i, p := range pairs {
		rows[i] = effectJSON{Key: p.Key, Value: p.Value}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding effects: %w", err)
	}
	return b, nil
}

// decodeEffects restores integer values that JSON widened to float64.
func decodeEffects(b []byte) ([]technique.Pair, error) {
	var rows []effectJSON
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decoding effects: %w", err)
	}
	pairs := make([]technique.Pair, len(rows))
	for i, r := range rows {
		v := r.Value
		if f, ok := v.(float64); ok && f == math.Trunc(f) {
			v = int(f)
		}
		pairs[i] = technique.Pair{Key: r.Key, Value: v}
	}
	return pairs, nil
}
