package activation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// TrainRequest asks an NPC to teach a technique to a student.
type TrainRequest struct {
	StudentID   string
	NPCID       string
	TechniqueID string
	// Trust is the student's current trust with the NPC, owned by the caller.
	Trust int
}

// TrainResult reports what training changed.
type TrainResult struct {
	Skill     progression.EntitySkill
	Technique progression.EntityTechnique
	// CeilingRaised is true when the teaching lifted the skill ceiling.
	CeilingRaised bool
}

// Train runs the NPC training flow: the teaching offer, trust, and quest gate
// are checked first; then the ceiling is raised to the offer's grant and the
// learning gate is applied. Training is all-or-nothing: a student who fails
// the learning gate keeps the old ceiling.
//
// Precondition: the engine was built with an NPC registry.
// Postcondition: On success the student holds a fresh EntityTechnique row.
func (e *Engine) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	tdef, ok := e.catalogs.Techniques.Technique(req.TechniqueID)
	if !ok {
		return nil, newError(CodeUnknownTechnique, map[string]string{"technique": req.TechniqueID},
			"unknown technique %q", req.TechniqueID)
	}
	tmpl := e.lookupNPC(req.NPCID)
	if tmpl == nil {
		return nil, newError(CodeNotTaught, map[string]string{"npc": req.NPCID, "technique": tdef.ID},
			"npc %q does not teach %q", req.NPCID, tdef.ID)
	}
	teaching, ok := tmpl.Teaching(tdef.ID)
	if !ok {
		return nil, newError(CodeNotTaught, map[string]string{"npc": req.NPCID, "technique": tdef.ID},
			"npc %q does not teach %q", req.NPCID, tdef.ID)
	}
	if !tdef.Teachable {
		return nil, newError(CodeNotTeachable, map[string]string{"technique": tdef.ID},
			"technique %q cannot be taught", tdef.ID)
	}
	if req.Trust < teaching.TrustRequired {
		return nil, newError(CodeTrustTooLow,
			map[string]string{"current": strconv.Itoa(req.Trust), "required": strconv.Itoa(teaching.TrustRequired)},
			"%s needs trust %d with %q, has %d", req.StudentID, teaching.TrustRequired, req.NPCID, req.Trust)
	}
	if teaching.QuestGate != "" {
		satisfied := false
		if e.gates != nil {
			var err error
			satisfied, err = e.gates.Satisfied(ctx, teaching.QuestGate, req.StudentID)
			if err != nil {
				return nil, fmt.Errorf("evaluating quest gate %q: %w", teaching.QuestGate, err)
			}
		}
		if !satisfied {
			return nil, newError(CodeQuestGate, map[string]string{"gate": teaching.QuestGate},
				"%s has not satisfied quest gate %q", req.StudentID, teaching.QuestGate)
		}
	}

	var res TrainResult
	err := e.store.Atomic(ctx, func(tx Store) error {
		skill, err := e.loadStudentSkill(ctx, tx, req.StudentID, tdef)
		if err != nil {
			return err
		}
		res.CeilingRaised = skill.RaiseCeiling(teaching.CeilingGrant)
		usage, err := e.learn(ctx, tx, req.StudentID, tdef, skill)
		if err != nil {
			return err
		}
		if res.CeilingRaised {
			if err := tx.SaveSkill(ctx, skill); err != nil {
				return fmt.Errorf("saving student skill: %w", err)
			}
		}
		res.Skill = skill
		res.Technique = usage
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("technique trained",
		zap.String("student", req.StudentID),
		zap.String("npc", req.NPCID),
		zap.String("technique", tdef.ID),
		zap.Bool("ceiling_raised", res.CeilingRaised),
		zap.Int("ceiling", res.Skill.Ceiling),
	)
	return &res, nil
}

// Learn is the self-study path: only the learning gate applies.
func (e *Engine) Learn(ctx context.Context, entityID, techniqueID string) (progression.EntityTechnique, error) {
	tdef, ok := e.catalogs.Techniques.Technique(techniqueID)
	if !ok {
		return progression.EntityTechnique{}, newError(CodeUnknownTechnique,
			map[string]string{"technique": techniqueID}, "unknown technique %q", techniqueID)
	}
	var usage progression.EntityTechnique
	err := e.store.Atomic(ctx, func(tx Store) error {
		skill, err := e.loadStudentSkill(ctx, tx, entityID, tdef)
		if err != nil {
			return err
		}
		usage, err = e.learn(ctx, tx, entityID, tdef, skill)
		return err
	})
	if err != nil {
		return progression.EntityTechnique{}, err
	}
	e.logger.Info("technique learned",
		zap.String("entity", entityID),
		zap.String("technique", tdef.ID),
	)
	return usage, nil
}

// InitializeSkill creates the entity's row for skillID at tier with the given
// ceiling, clamped so 0 <= tier <= ceiling <= 8.
func (e *Engine) InitializeSkill(ctx context.Context, entityID, skillID string, tier, ceiling int) (progression.EntitySkill, error) {
	if _, ok := e.catalogs.Techniques.Skill(skillID); !ok {
		return progression.EntitySkill{}, newError(CodeUnknownSkill, map[string]string{"skill": skillID},
			"unknown skill %q", skillID)
	}
	row := progression.NewEntitySkill(entityID, skillID, tier, ceiling)
	err := e.store.Atomic(ctx, func(tx Store) error {
		_, err := tx.Skill(ctx, entityID, skillID)
		if err == nil {
			return newError(CodeSkillAlreadyInitialized, map[string]string{"skill": skillID},
				"%s already has skill %q", entityID, skillID)
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("loading skill: %w", err)
		}
		if err := tx.SaveSkill(ctx, row); err != nil {
			return fmt.Errorf("saving skill: %w", err)
		}
		return nil
	})
	if err != nil {
		return progression.EntitySkill{}, err
	}
	return row, nil
}

func (e *Engine) lookupNPC(id string) *npc.Template {
	if e.catalogs.NPCs == nil {
		return nil
	}
	tmpl, ok := e.catalogs.NPCs.Get(id)
	if !ok {
		return nil
	}
	return tmpl
}

func (e *Engine) loadStudentSkill(ctx context.Context, tx Store, entityID string, tdef *technique.TechniqueDef) (progression.EntitySkill, error) {
	skill, err := tx.Skill(ctx, entityID, tdef.SkillID)
	if errors.Is(err, ErrNotFound) {
		return skill, newError(CodeSkillNotInitialized, map[string]string{"skill": tdef.SkillID},
			"%s has not initialized skill %q", entityID, tdef.SkillID)
	}
	if err != nil {
		return skill, fmt.Errorf("loading skill: %w", err)
	}
	return skill, nil
}

// learn applies the learning gate and writes the new usage row.
func (e *Engine) learn(
	ctx context.Context,
	tx Store,
	entityID string,
	tdef *technique.TechniqueDef,
	skill progression.EntitySkill,
) (progression.EntityTechnique, error) {
	_, err := tx.Technique(ctx, entityID, tdef.ID)
	if err == nil {
		return progression.EntityTechnique{}, newError(CodeAlreadyLearned, map[string]string{"technique": tdef.ID},
			"%s already knows %q", entityID, tdef.ID)
	}
	if !errors.Is(err, ErrNotFound) {
		return progression.EntityTechnique{}, fmt.Errorf("loading technique usage: %w", err)
	}

	learnedIDs, err := tx.LearnedTechniques(ctx, entityID)
	if err != nil {
		return progression.EntityTechnique{}, fmt.Errorf("listing learned techniques: %w", err)
	}
	learned := progression.LearnedSet(learnedIDs)
	if !progression.CanLearnTechnique(skill.CurrentTier, tdef.TierRequired, tdef.Prerequisites, learned) {
		if skill.CurrentTier < tdef.TierRequired {
			return progression.EntityTechnique{}, newError(CodeTierTooLow,
				map[string]string{"current": strconv.Itoa(skill.CurrentTier), "required": strconv.Itoa(tdef.TierRequired)},
				"%q requires %s tier %d, %s is tier %d", tdef.ID, tdef.SkillID, tdef.TierRequired, entityID, skill.CurrentTier)
		}
		missing := progression.MissingPrerequisites(tdef.Prerequisites, learned)
		return progression.EntityTechnique{}, newError(CodePrerequisitesMissing,
			map[string]string{"missing": strings.Join(missing, ",")},
			"%q requires %s first", tdef.ID, strings.Join(missing, ", "))
	}

	usage := progression.EntityTechnique{
		EntityID:     entityID,
		TechniqueID:  tdef.ID,
		LastDayReset: progression.DayIndex(e.now()),
	}
	if err := tx.SaveTechnique(ctx, usage); err != nil {
		return progression.EntityTechnique{}, fmt.Errorf("saving technique usage: %w", err)
	}
	return usage, nil
}
