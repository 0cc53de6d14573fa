package activation

import (
	"context"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
)

// Store is the engine's read/write contract against entity state. Reads of
// missing rows return an error matching ErrNotFound.
type Store interface {
	// Abilities returns the entity's six ability scores.
	Abilities(ctx context.Context, entityID string) (ability.Scores, error)
	// Conditions returns the entity's active condition tags.
	Conditions(ctx context.Context, entityID string) ([]string, error)
	Skill(ctx context.Context, entityID, skillID string) (progression.EntitySkill, error)
	SaveSkill(ctx context.Context, s progression.EntitySkill) error
	// Technique returns the usage row. Inside Atomic the row is locked until
	// the unit of work ends.
	Technique(ctx context.Context, entityID, techniqueID string) (progression.EntityTechnique, error)
	SaveTechnique(ctx context.Context, t progression.EntityTechnique) error
	// LearnedTechniques lists the IDs of every technique the entity has learned.
	LearnedTechniques(ctx context.Context, entityID string) ([]string, error)
	// AppendHistory records an activation. History is append-only.
	AppendHistory(ctx context.Context, rec Record) error
	// Atomic runs fn as one unit of work. Writes made through tx are
	// discarded when fn returns an error.
	Atomic(ctx context.Context, fn func(tx Store) error) error
}
