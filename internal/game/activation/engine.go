// Package activation composes ability, potency, effect scaling, vulnerability,
// combo, XP, and tier rules into the request/response cycle of using a
// technique, plus the sibling flows that learn techniques and initialize skills.
package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
	"github.com/AmirZhou/hodos-sub001/internal/game/condition"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/potency"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// Narrator turns an authoritative summary into prose. It is an external
// consumer; its failures never fail an activation.
type Narrator interface {
	Narrate(ctx context.Context, summary string, rec Record) (string, error)
}

// Catalogs bundles the immutable reference data the engine reads.
type Catalogs struct {
	Techniques *technique.Catalog
	Combos     *combo.Registry
	Conditions *condition.Registry
	NPCs       *npc.Registry
}

// Request asks an actor to use a technique.
type Request struct {
	ActorID     string
	TechniqueID string
	// TargetID is empty when the technique has no target.
	TargetID string
	Context  technique.Context
	// Round is the encounter round; 0 disables combo tracking.
	Round int
	// ActorName and TargetName are display names for the summary. They
	// default to the IDs.
	ActorName  string
	TargetName string
}

// Engine runs activations and training against a Store.
type Engine struct {
	catalogs Catalogs
	store    Store
	tracker  combo.Tracker
	narrator Narrator
	gates    progression.QuestGate
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates an Engine.
//
// Precondition: catalogs.Techniques, store, and logger must be non-nil.
// tracker may be nil (combo bonuses are skipped); narrator may be nil (no
// narration); gates may be nil (every quest-gated teaching is refused).
// Postcondition: Returns a non-nil Engine using the wall clock.
func NewEngine(
	catalogs Catalogs,
	store Store,
	tracker combo.Tracker,
	narrator Narrator,
	gates progression.QuestGate,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		catalogs: catalogs,
		store:    store,
		tracker:  tracker,
		narrator: narrator,
		gates:    gates,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the engine's time source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Activate resolves one technique use.
//
// Validation failures return an *Error and leave entity state untouched.
// Storage failures are wrapped and returned as-is.
//
// Postcondition: On success the actor's usage counters, practice XP, and tier
// are persisted, a Record is appended to history, and the Result carries the
// authoritative Summary.
func (e *Engine) Activate(ctx context.Context, req Request) (*Result, error) {
	tdef, skill, err := e.resolve(req)
	if err != nil {
		e.logger.Debug("activation rejected",
			zap.String("actor", req.ActorID),
			zap.String("technique", req.TechniqueID),
			zap.Error(err),
		)
		return nil, err
	}

	// Target rows are read before the unit of work so that only the actor's
	// rows are locked.
	var target targetState
	if req.TargetID != "" {
		if target, err = e.readTarget(ctx, req.TargetID, skill, req.Context); err != nil {
			return nil, err
		}
	}

	at := e.now()
	day := progression.DayIndex(at)
	var rec Record

	err = e.store.Atomic(ctx, func(tx Store) error {
		actorSkill, err := tx.Skill(ctx, req.ActorID, skill.ID)
		if errors.Is(err, ErrNotFound) {
			return newError(CodeSkillNotInitialized, map[string]string{"skill": skill.ID},
				"%s has not initialized skill %q", req.ActorID, skill.ID)
		}
		if err != nil {
			return fmt.Errorf("loading actor skill: %w", err)
		}

		usage, err := tx.Technique(ctx, req.ActorID, tdef.ID)
		if errors.Is(err, ErrNotFound) {
			return newError(CodeTechniqueNotLearned, map[string]string{"technique": tdef.ID},
				"%s has not learned technique %q", req.ActorID, tdef.ID)
		}
		if err != nil {
			return fmt.Errorf("loading technique usage: %w", err)
		}

		if tdef.Cooldown > 0 {
			if used := usage.UsesOn(day); used >= tdef.Cooldown {
				return cooldownError(tdef.ID, used, tdef.Cooldown)
			}
		}

		actorScores, err := tx.Abilities(ctx, req.ActorID)
		if err != nil {
			return fmt.Errorf("loading actor abilities: %w", err)
		}
		power := potency.ActorPower(actorSkill.CurrentTier, actorScores.Get(skill.BaseAbility), tdef.RollBonus)

		resistance, counterTier := target.resistance, target.counterTier

		pot := potency.Determine(power, resistance)
		bundle := tdef.Effects.For(req.Context).Scale(pot)

		vuln, bonus := 1.0, 0
		if combat, ok := bundle.(technique.CombatEffects); ok && !pot.Fails() {
			combat, vuln, bonus, err = e.enrichCombat(ctx, req, skill.ID, target.conditions, combat)
			if err != nil {
				return err
			}
			bundle = combat
		}

		firstUse := usage.TimesUsed == 0
		usage.RecordUse(day)
		if err := tx.SaveTechnique(ctx, usage); err != nil {
			return fmt.Errorf("saving technique usage: %w", err)
		}

		xp := progression.Award(progression.AwardInput{
			FirstUse:         firstUse,
			TargetOutclasses: req.TargetID != "" && progression.TargetOutclasses(counterTier, actorSkill.CurrentTier),
			Potency:          pot,
			UsesToday:        usage.UsesToday,
			TechniqueTier:    tdef.TierRequired,
			ActorTier:        actorSkill.CurrentTier,
		})
		tierBefore := actorSkill.CurrentTier
		if xp > 0 {
			actorSkill.AddPracticeXP(xp)
			if err := tx.SaveSkill(ctx, actorSkill); err != nil {
				return fmt.Errorf("saving actor skill: %w", err)
			}
		}

		rec = Record{
			ID:            uuid.New(),
			ActorID:       req.ActorID,
			TargetID:      req.TargetID,
			TechniqueID:   tdef.ID,
			SkillID:       skill.ID,
			Context:       req.Context,
			Power:         power,
			Resistance:    resistance,
			Potency:       pot,
			Effects:       bundle.Pairs(),
			Vulnerability: vuln,
			ComboBonus:    bonus,
			XPAwarded:     xp,
			TierBefore:    tierBefore,
			TierAfter:     actorSkill.CurrentTier,
			DayIndex:      day,
			Round:         req.Round,
			At:            at,
		}
		if err := tx.AppendHistory(ctx, rec); err != nil {
			return fmt.Errorf("appending history: %w", err)
		}
		return nil
	})
	if err != nil {
		var verr *Error
		if errors.As(err, &verr) {
			e.logger.Debug("activation rejected",
				zap.String("actor", req.ActorID),
				zap.String("technique", req.TechniqueID),
				zap.String("code", string(verr.Code)),
			)
		}
		return nil, err
	}

	if req.Context == technique.Combat && req.Round > 0 && e.tracker != nil {
		if err := e.tracker.Remember(ctx, req.ActorID, tdef.ID, req.Round); err != nil {
			e.logger.Warn("remembering combo state",
				zap.String("actor", req.ActorID),
				zap.Error(err),
			)
		}
	}

	res := &Result{
		Record:  rec,
		Summary: Summarize(rec, tdef, req.ActorName, req.TargetName),
	}
	if e.narrator != nil {
		text, err := e.narrator.Narrate(ctx, res.Summary, rec)
		if err != nil {
			e.logger.Warn("narration failed",
				zap.String("activation", rec.ID.String()),
				zap.Error(err),
			)
		} else {
			res.Narration = text
		}
	}

	e.logger.Info("technique activated",
		zap.String("activation", rec.ID.String()),
		zap.String("actor", rec.ActorID),
		zap.String("technique", rec.TechniqueID),
		zap.String("context", string(rec.Context)),
		zap.Int("power", rec.Power),
		zap.Int("resistance", rec.Resistance),
		zap.Stringer("potency", rec.Potency),
		zap.Int("xp", rec.XPAwarded),
		zap.Bool("tier_up", rec.TieredUp()),
	)
	return res, nil
}

// EndEncounter clears combo history for the given entities.
func (e *Engine) EndEncounter(ctx context.Context, entityIDs ...string) error {
	if e.tracker == nil {
		return nil
	}
	for _, id := range entityIDs {
		if err := e.tracker.Forget(ctx, id); err != nil {
			return fmt.Errorf("forgetting combo state for %q: %w", id, err)
		}
	}
	return nil
}

// resolve performs the catalog checks that need no entity state.
func (e *Engine) resolve(req Request) (*technique.TechniqueDef, *technique.SkillDef, error) {
	tdef, ok := e.catalogs.Techniques.Technique(req.TechniqueID)
	if !ok {
		return nil, nil, newError(CodeUnknownTechnique, map[string]string{"technique": req.TechniqueID},
			"unknown technique %q", req.TechniqueID)
	}
	if !tdef.Contexts.Has(req.Context) {
		return nil, nil, newError(CodeUnsupportedContext,
			map[string]string{"context": string(req.Context), "supported": tdef.Contexts.String()},
			"technique %q cannot be used in %q; supported: %s", tdef.ID, req.Context, tdef.Contexts)
	}
	skill, ok := e.catalogs.Techniques.Skill(tdef.SkillID)
	if !ok {
		return nil, nil, newError(CodeUnknownSkill, map[string]string{"skill": tdef.SkillID},
			"technique %q references unknown skill %q", tdef.ID, tdef.SkillID)
	}
	return tdef, skill, nil
}

// targetState is what an activation needs to know about its target.
type targetState struct {
	resistance  int
	counterTier int
	conditions  []string
}

// readTarget reads the target's counter ability, its tier in the acting
// skill, and in combat its active conditions. A target without that skill
// defends at tier 0. The reads go through the engine's store outside any unit
// of work and take no row locks.
func (e *Engine) readTarget(ctx context.Context, targetID string, skill *technique.SkillDef, c technique.Context) (targetState, error) {
	var ts targetState
	scores, err := e.store.Abilities(ctx, targetID)
	if err != nil {
		return ts, fmt.Errorf("loading target abilities: %w", err)
	}
	row, err := e.store.Skill(ctx, targetID, skill.ID)
	switch {
	case err == nil:
		ts.counterTier = row.CurrentTier
	case !errors.Is(err, ErrNotFound):
		return ts, fmt.Errorf("loading target skill: %w", err)
	}
	ts.resistance = potency.TargetResistance(ts.counterTier, scores.Get(skill.CounterAbility))
	if c == technique.Combat {
		if ts.conditions, err = e.store.Conditions(ctx, targetID); err != nil {
			return ts, fmt.Errorf("loading target conditions: %w", err)
		}
	}
	return ts, nil
}

// enrichCombat applies the target's vulnerability to scaled damage, then adds
// any combo bonus. Damage is declared on the result only when the technique
// declared it or a combo bonus applies.
func (e *Engine) enrichCombat(
	ctx context.Context,
	req Request,
	skillID string,
	targetConditions []string,
	fx technique.CombatEffects,
) (technique.CombatEffects, float64, int, error) {
	vuln := 1.0
	if req.TargetID != "" {
		vuln = condition.VulnerabilityMultiplier(e.catalogs.Conditions, targetConditions, skillID)
	}

	bonus := 0
	if e.tracker != nil && req.Round > 0 {
		last, lastRound, ok, err := e.tracker.Last(ctx, req.ActorID)
		if err != nil {
			return fx, 0, 0, fmt.Errorf("reading combo state: %w", err)
		}
		if ok {
			bonus = e.catalogs.Combos.Bonus(req.TechniqueID, last, lastRound, req.Round)
		}
	}

	if fx.Damage == nil && bonus == 0 {
		return fx, vuln, 0, nil
	}
	dmg := 0
	if fx.Damage != nil {
		dmg = condition.ApplyVulnerability(*fx.Damage, vuln)
	}
	return fx.WithDamage(dmg + bonus), vuln, bonus, nil
}
