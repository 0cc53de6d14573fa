package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AmirZhou/hodos-sub001/internal/config"
	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
	"github.com/AmirZhou/hodos-sub001/internal/game/content"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
	"github.com/AmirZhou/hodos-sub001/internal/observability"
	"github.com/AmirZhou/hodos-sub001/internal/scripting"
	"github.com/AmirZhou/hodos-sub001/internal/storage/postgres"
	"github.com/AmirZhou/hodos-sub001/internal/storage/redis"
)

// app owns every long-lived dependency of one CLI invocation.
type app struct {
	engine   *activation.Engine
	store    *postgres.Store
	catalogs activation.Catalogs
	logger   *zap.Logger
	closers  []func()
}

func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	cats, err := content.Load(ctx, cfg.Content.Root, observability.Component(logger, "content"))
	if err != nil {
		return nil, err
	}
	a.catalogs = cats

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	if err := pool.Health(ctx, 5*time.Second); err != nil {
		a.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Int("port", cfg.Database.Port),
		zap.String("database", cfg.Database.Name),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	a.store = pool.Store()

	var tracker combo.Tracker = combo.NewMemoryTracker()
	if cfg.Redis.Enabled {
		rt, err := redis.NewComboTracker(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rt.Close() })
		tracker = rt
		logger.Info("redis combo tracker connected", zap.String("addr", cfg.Redis.Addr))
	}

	var gates progression.QuestGate
	if cfg.Content.ScriptDir != "" {
		qg, err := scripting.LoadQuestGates(cfg.Content.ScriptDir, cfg.Content.InstructionLimit,
			observability.Component(logger, "scripting"))
		if err != nil {
			a.Close()
			return nil, err
		}
		qg.Learned = func(ctx context.Context, entityID, techniqueID string) bool {
			_, err := a.store.Technique(ctx, entityID, techniqueID)
			return err == nil
		}
		a.closers = append(a.closers, qg.Close)
		gates = qg
	}

	a.engine = activation.NewEngine(cats, a.store, tracker, nil, gates, observability.Component(logger, "activation"))
	return a, nil
}

// Close releases dependencies in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "seed-npc":
		return a.seedNPC(ctx, args, out)
	case "init-skill":
		return a.initSkill(ctx, args, out)
	case "learn":
		return a.learn(ctx, args, out)
	case "train":
		return a.train(ctx, args, out)
	case "activate":
		return a.activate(ctx, args, out)
	case "end-encounter":
		return a.endEncounter(ctx, args, out)
	case "history":
		return a.history(ctx, args, out)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (a *app) seedNPC(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed-npc", flag.ContinueOnError)
	templateID := fs.String("template", "", "npc template id")
	id := fs.String("id", "", "instance id (default: generated)")
	conds := fs.String("conditions", "", "comma-separated active conditions")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tmpl, ok := a.catalogs.NPCs.Get(*templateID)
	if !ok {
		return fmt.Errorf("unknown npc template %q", *templateID)
	}
	inst, err := instanceFor(tmpl, *id, splitList(*conds))
	if err != nil {
		return err
	}
	if err := a.store.SeedNPC(ctx, inst, progression.DayIndex(time.Now())); err != nil {
		return err
	}
	fmt.Fprintf(out, "seeded %s from %s\n", inst.ID, tmpl.ID)
	return nil
}

// instanceFor builds the NPC instance to seed. An empty id spawns one with a
// generated ID.
func instanceFor(tmpl *npc.Template, id string, conditions []string) (*npc.Instance, error) {
	if id == "" {
		return npc.Spawn(tmpl, conditions...)
	}
	inst := npc.NewInstance(id, tmpl)
	for _, c := range conditions {
		inst.AddCondition(c)
	}
	return inst, nil
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (a *app) initSkill(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init-skill", flag.ContinueOnError)
	entity := fs.String("entity", "", "entity id")
	skill := fs.String("skill", "", "skill id")
	tier := fs.Int("tier", 0, "starting tier")
	ceiling := fs.Int("ceiling", 0, "starting ceiling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	row, err := a.engine.InitializeSkill(ctx, *entity, *skill, *tier, *ceiling)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s: tier %d (%s), ceiling %d\n",
		row.EntityID, row.SkillID, row.CurrentTier, progression.TierName(row.CurrentTier), row.Ceiling)
	return nil
}

func (a *app) learn(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("learn", flag.ContinueOnError)
	entity := fs.String("entity", "", "entity id")
	tech := fs.String("technique", "", "technique id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	usage, err := a.engine.Learn(ctx, *entity, *tech)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s learned %s\n", usage.EntityID, usage.TechniqueID)
	return nil
}

func (a *app) train(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	student := fs.String("student", "", "student entity id")
	npcID := fs.String("npc", "", "teaching npc template id")
	tech := fs.String("technique", "", "technique id")
	trust := fs.Int("trust", 0, "student's trust with the npc")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.engine.Train(ctx, activation.TrainRequest{
		StudentID: *student, NPCID: *npcID, TechniqueID: *tech, Trust: *trust,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s learned %s from %s; ceiling %d (raised: %v)\n",
		*student, res.Technique.TechniqueID, *npcID, res.Skill.Ceiling, res.CeilingRaised)
	return nil
}

func (a *app) activate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("activate", flag.ContinueOnError)
	actor := fs.String("actor", "", "actor entity id")
	tech := fs.String("technique", "", "technique id")
	target := fs.String("target", "", "target entity id")
	ctxName := fs.String("context", string(technique.Combat), "combat, scene, social, or exploration")
	round := fs.Int("round", 0, "encounter round (0 disables combos)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := technique.ParseContext(*ctxName)
	if err != nil {
		return err
	}
	res, err := a.engine.Activate(ctx, activation.Request{
		ActorID: *actor, TechniqueID: *tech, TargetID: *target, Context: c, Round: *round,
	})
	var aerr *activation.Error
	if errors.As(err, &aerr) {
		return fmt.Errorf("%s: %s", aerr.Code, aerr.Message)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, res.Summary)
	fmt.Fprintf(out, "XP +%d", res.XPAwarded())
	if res.Record.TieredUp() {
		fmt.Fprintf(out, ", tier up: %s", progression.TierName(res.Record.TierAfter))
	}
	fmt.Fprintln(out)
	return nil
}

func (a *app) endEncounter(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("end-encounter: list the entity ids")
	}
	if err := a.engine.EndEncounter(ctx, args...); err != nil {
		return err
	}
	fmt.Fprintf(out, "cleared combo state for %d entities\n", len(args))
	return nil
}

func (a *app) history(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	actor := fs.String("actor", "", "actor entity id")
	limit := fs.Int("limit", 20, "max records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	recs, err := a.store.History(ctx, *actor, *limit)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Fprintf(out, "%s  %-18s %-12s %-13s power=%d resist=%d xp=%d\n",
			r.At.Format(time.RFC3339), r.TechniqueID, r.Context, r.Potency, r.Power, r.Resistance, r.XPAwarded)
	}
	return nil
}
