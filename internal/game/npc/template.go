// Package npc provides NPC template definitions, the teaching offers they
// author, and live instance management.
package npc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AmirZhou/hodos-sub001/internal/game/ability"
	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

// Teaching is an NPC's offer to train a technique.
type Teaching struct {
	TechniqueID string `yaml:"technique_id"`
	// TrustRequired is the minimum trust the student must hold with the NPC.
	TrustRequired int `yaml:"trust_required"`
	// CeilingGrant raises the student's skill ceiling to this tier when higher.
	CeilingGrant int `yaml:"ceiling_grant"`
	// QuestGate names a gate that must be satisfied first; empty means none.
	QuestGate string `yaml:"quest_gate"`
}

// Template defines a reusable NPC archetype loaded from YAML.
type Template struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Abilities   ability.Scores `yaml:"abilities"`
	// Skills maps skill ID to the NPC's tier in it.
	Skills map[string]int `yaml:"skills"`
	// Techniques the NPC knows and may itself activate.
	Techniques []string   `yaml:"techniques"`
	Teaches    []Teaching `yaml:"teaches"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, every skill tier
// is in [0, 8], and every teaching names a technique once with non-negative
// trust and a ceiling grant in [0, 8].
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	for skill, tier := range t.Skills {
		if tier < 0 || tier > technique.MaxTier {
			return fmt.Errorf("npc template %q: skill %q tier must be 0-%d, got %d", t.ID, skill, technique.MaxTier, tier)
		}
	}
	seen := make(map[string]bool, len(t.Teaches))
	for _, tc := range t.Teaches {
		if tc.TechniqueID == "" {
			return fmt.Errorf("npc template %q: teaching technique_id must not be empty", t.ID)
		}
		if seen[tc.TechniqueID] {
			return fmt.Errorf("npc template %q: technique %q taught twice", t.ID, tc.TechniqueID)
		}
		seen[tc.TechniqueID] = true
		if tc.TrustRequired < 0 {
			return fmt.Errorf("npc template %q: trust_required for %q must be >= 0", t.ID, tc.TechniqueID)
		}
		if tc.CeilingGrant < 0 || tc.CeilingGrant > technique.MaxTier {
			return fmt.Errorf("npc template %q: ceiling_grant for %q must be 0-%d", t.ID, tc.TechniqueID, technique.MaxTier)
		}
	}
	return nil
}

// Teaching returns the NPC's offer for techniqueID, or (nil, false).
func (t *Template) Teaching(techniqueID string) (*Teaching, bool) {
	for i := range t.Teaches {
		if t.Teaches[i].TechniqueID == techniqueID {
			return &t.Teaches[i], true
		}
	}
	return nil, false
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error. Unknown fields are rejected.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Registry holds templates keyed by ID. It is built once at startup and not
// mutated afterwards.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*Template)}
}

// Register adds tmpl.
//
// Postcondition: Returns an error if a template with the same ID exists.
func (r *Registry) Register(tmpl *Template) error {
	if _, ok := r.templates[tmpl.ID]; ok {
		return fmt.Errorf("npc: duplicate template %q", tmpl.ID)
	}
	r.templates[tmpl.ID] = tmpl
	return nil
}

// Get returns the template for id, or (nil, false).
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// All returns every template sorted by ID.
func (r *Registry) All() []*Template {
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadRegistry loads every template in dir into a new Registry.
func LoadRegistry(dir string) (*Registry, error) {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	reg := NewRegistry()
	for _, t := range templates {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
