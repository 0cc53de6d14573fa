// Package content loads every catalog directory into the engine's immutable
// reference data and checks references across catalogs.
package content

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AmirZhou/hodos-sub001/internal/game/activation"
	"github.com/AmirZhou/hodos-sub001/internal/game/combo"
	"github.com/AmirZhou/hodos-sub001/internal/game/condition"
	"github.com/AmirZhou/hodos-sub001/internal/game/npc"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// Subdirectories of the content root.
const (
	SkillsDir     = "skills"
	TechniquesDir = "techniques"
	CombosDir     = "combos"
	ConditionsDir = "conditions"
	NPCsDir       = "npcs"
)

// Load reads the five catalog directories under root concurrently, builds the
// technique catalog, and validates every cross-catalog reference.
//
// Precondition: root contains the five catalog subdirectories.
// Postcondition: Returns fully validated Catalogs, or an error. When the
// directories load but references are broken the error is a *Problems.
func Load(ctx context.Context, root string, logger *zap.Logger) (activation.Catalogs, error) {
	var (
		skills     []*technique.SkillDef
		techniques []*technique.TechniqueDef
		combos     *combo.Registry
		conditions *condition.Registry
		npcs       *npc.Registry
	)
	g, gctx := errgroup.WithContext(ctx)
	load := func(name string, fn func(dir string) error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(filepath.Join(root, name)); err != nil {
				return fmt.Errorf("loading %s: %w", name, err)
			}
			return nil
		})
	}
	load(SkillsDir, func(dir string) (err error) {
		skills, err = technique.LoadSkills(dir)
		return err
	})
	load(TechniquesDir, func(dir string) (err error) {
		techniques, err = technique.LoadTechniques(dir)
		return err
	})
	load(CombosDir, func(dir string) (err error) {
		combos, err = combo.LoadDirectory(dir)
		return err
	})
	load(ConditionsDir, func(dir string) (err error) {
		conditions, err = condition.LoadDirectory(dir)
		return err
	})
	load(NPCsDir, func(dir string) (err error) {
		npcs, err = npc.LoadRegistry(dir)
		return err
	})
	if err := g.Wait(); err != nil {
		return activation.Catalogs{}, err
	}

	cat := technique.NewCatalog()
	for _, s := range skills {
		if err := cat.RegisterSkill(s); err != nil {
			return activation.Catalogs{}, err
		}
	}
	for _, t := range techniques {
		if err := cat.RegisterTechnique(t); err != nil {
			return activation.Catalogs{}, err
		}
	}
	cats := activation.Catalogs{Techniques: cat, Combos: combos, Conditions: conditions, NPCs: npcs}
	if err := Check(cats); err != nil {
		return activation.Catalogs{}, err
	}

	logger.Info("content loaded",
		zap.String("root", root),
		zap.Int("skills", len(skills)),
		zap.Int("techniques", len(techniques)),
		zap.Int("combos", len(combos.All())),
		zap.Int("conditions", len(conditions.All())),
		zap.Int("npcs", len(npcs.All())),
	)
	return cats, nil
}

// Problems collects every broken reference found by Check.
type Problems struct {
	List []string
}

func (p *Problems) Error() string {
	if len(p.List) == 1 {
		return "content: " + p.List[0]
	}
	return fmt.Sprintf("content: %d problems, first: %s", len(p.List), p.List[0])
}

func (p *Problems) addf(format string, args ...any) {
	p.List = append(p.List, fmt.Sprintf(format, args...))
}

// Check validates references between catalogs: technique skills and
// prerequisites (including cycles), combo techniques and predecessors,
// condition vulnerability skills, combat effect conditions, and every NPC
// skill, technique, and teaching.
//
// Postcondition: Returns nil, or a *Problems listing every violation in a
// stable order.
func Check(c activation.Catalogs) error {
	p := &Problems{}
	if err := c.Techniques.Validate(); err != nil {
		p.addf("%v", err)
	}
	hasTech := func(id string) bool {
		_, ok := c.Techniques.Technique(id)
		return ok
	}
	hasSkill := func(id string) bool {
		_, ok := c.Techniques.Skill(id)
		return ok
	}

	for _, t := range c.Techniques.Techniques() {
		if t.Effects.Combat == nil || t.Effects.Combat.Condition == nil || c.Conditions == nil {
			continue
		}
		if id := *t.Effects.Combat.Condition; id != "" {
			if _, ok := c.Conditions.Get(id); !ok {
				p.addf("technique %q: unknown condition %q", t.ID, id)
			}
		}
	}
	if c.Combos != nil {
		for _, ch := range c.Combos.All() {
			if !hasTech(ch.TechniqueID) {
				p.addf("combo %q: unknown technique", ch.TechniqueID)
			}
			for _, pred := range ch.Predecessors {
				if !hasTech(pred) {
					p.addf("combo %q: unknown predecessor %q", ch.TechniqueID, pred)
				}
			}
		}
	}
	if c.Conditions != nil {
		for _, d := range c.Conditions.All() {
			for _, skill := range sortedKeys(d.Vulnerabilities) {
				if !hasSkill(skill) {
					p.addf("condition %q: unknown skill %q", d.ID, skill)
				}
			}
		}
	}
	if c.NPCs != nil {
		for _, tmpl := range c.NPCs.All() {
			for _, skill := range sortedKeys(tmpl.Skills) {
				if !hasSkill(skill) {
					p.addf("npc %q: unknown skill %q", tmpl.ID, skill)
				}
			}
			for _, id := range tmpl.Techniques {
				if !hasTech(id) {
					p.addf("npc %q: unknown technique %q", tmpl.ID, id)
				}
			}
			for _, teach := range tmpl.Teaches {
				t, ok := c.Techniques.Technique(teach.TechniqueID)
				switch {
				case !ok:
					p.addf("npc %q: teaches unknown technique %q", tmpl.ID, teach.TechniqueID)
				case !t.Teachable:
					p.addf("npc %q: teaches %q which is not teachable", tmpl.ID, t.ID)
				case teach.CeilingGrant < t.TierRequired:
					p.addf("npc %q: ceiling_grant %d for %q is below its tier_required %d",
						tmpl.ID, teach.CeilingGrant, t.ID, t.TierRequired)
				}
			}
		}
	}
	if len(p.List) == 0 {
		return nil
	}
	return p
}

// QuestGates lists every distinct quest gate named by a teaching, sorted.
func QuestGates(reg *npc.Registry) []string {
	if reg == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, tmpl := range reg.All() {
		for _, teach := range tmpl.Teaches {
			if teach.QuestGate != "" {
				seen[teach.QuestGate] = true
			}
		}
	}
	return sortedKeys(seen)
}

// AsProblems extracts the problem list from an error returned by Load or Check.
func AsProblems(err error) ([]string, bool) {
	var p *Problems
	if errors.As(err, &p) {
		return p.List, true
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
