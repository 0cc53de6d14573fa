package npc

import (
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
)

// Instance is a live NPC entity spawned from a template.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	// Abilities is copied from the template.
	Abilities ability.Scores
	// Skills is a copy of the template's skill tiers.
	Skills map[string]int
	// Techniques is a copy of the template's known techniques.
	Techniques []string
	conditions map[string]bool
}

// NewInstance creates a live NPC instance from a template.
//
// Precondition: id must be non-empty; tmpl must be non-nil.
// Postcondition: The instance owns copies of the template's skill map and
// technique list, and carries no conditions.
func NewInstance(id string, tmpl *Template) *Instance {
	skills := make(map[string]int, len(tmpl.Skills))
	for k, v := range tmpl.Skills {
		skills[k] = v
	}
	return &Instance{
		ID:         id,
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Abilities:  tmpl.Abilities,
		Skills:     skills,
		Techniques: append([]string(nil), tmpl.Techniques...),
		conditions: make(map[string]bool),
	}
}

// Spawn creates an instance of tmpl with a generated ID of the form
// "<template>-<uuid>" and applies the given conditions.
//
// Precondition: tmpl must be non-nil.
// Postcondition: Every call returns an instance with a distinct ID.
func Spawn(tmpl *Template, conditions ...string) (*Instance, error) {
	if tmpl == nil {
		return nil, errors.New("npc.Spawn: tmpl must not be nil")
	}
	inst := NewInstance(tmpl.ID+"-"+uuid.NewString(), tmpl)
	for _, c := range conditions {
		inst.AddCondition(c)
	}
	return inst, nil
}

// AddCondition applies a condition tag. Returns false if already present.
func (i *Instance) AddCondition(id string) bool {
	if i.conditions[id] {
		return false
	}
	i.conditions[id] = true
	return true
}

// RemoveCondition clears a condition tag. Returns false if it was absent.
func (i *Instance) RemoveCondition(id string) bool {
	if !i.conditions[id] {
		return false
	}
	delete(i.conditions, id)
	return true
}

// Conditions returns the active condition tags sorted by ID.
func (i *Instance) Conditions() []string {
	out := make([]string, 0, len(i.conditions))
	for id := range i.conditions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
