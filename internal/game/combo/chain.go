// Package combo resolves combo-chain bonuses: extra damage granted when a
// technique follows one of its registered predecessors within a short window
// of rounds.
package combo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Window is the maximum number of rounds between a predecessor and its
// follow-up for the chain to fire.
const Window = 2

// Chain is the static definition of one combo.
type Chain struct {
	// TechniqueID is the follow-up technique that receives the bonus.
	TechniqueID  string   `yaml:"technique_id"`
	Predecessors []string `yaml:"predecessors"`
	BonusDamage  int      `yaml:"bonus_damage"`
}

// Validate checks that the chain satisfies basic invariants.
//
// Postcondition: Returns nil iff TechniqueID is non-empty, at least one
// predecessor is listed, and BonusDamage >= 0.
func (c *Chain) Validate() error {
	if c.TechniqueID == "" {
		return fmt.Errorf("combo: technique_id must not be empty")
	}
	if len(c.Predecessors) == 0 {
		return fmt.Errorf("combo %q: predecessors must not be empty", c.TechniqueID)
	}
	if c.BonusDamage < 0 {
		return fmt.Errorf("combo %q: bonus_damage must be >= 0, got %d", c.TechniqueID, c.BonusDamage)
	}
	return nil
}

// hasPredecessor reports whether id is a valid predecessor.
func (c *Chain) hasPredecessor(id string) bool {
	for _, p := range c.Predecessors {
		if p == id {
			return true
		}
	}
	return false
}

// Registry holds combo chains keyed by follow-up technique ID.
type Registry struct {
	chains map[string]*Chain
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[string]*Chain)}
}

// Register adds c to the registry.
//
// Precondition: c must not be nil.
// Postcondition: Returns an error if a chain for c.TechniqueID already exists.
func (r *Registry) Register(c *Chain) error {
	if _, exists := r.chains[c.TechniqueID]; exists {
		return fmt.Errorf("combo: duplicate chain for technique %q", c.TechniqueID)
	}
	r.chains[c.TechniqueID] = c
	return nil
}

// Get returns the chain ending in techniqueID, or (nil, false).
func (r *Registry) Get(techniqueID string) (*Chain, bool) {
	c, ok := r.chains[techniqueID]
	return c, ok
}

// All returns every chain sorted by follow-up technique ID.
func (r *Registry) All() []*Chain {
	out := make([]*Chain, 0, len(r.chains))
	for _, c := range r.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TechniqueID < out[j].TechniqueID })
	return out
}

// Bonus returns the bonus damage techniqueID earns when it follows
// lastTechniqueID used in lastRound, evaluated at currentRound. An empty
// lastTechniqueID means no previous technique.
//
// Postcondition: Returns 0 unless a chain for techniqueID lists lastTechniqueID
// as a predecessor and 0 <= currentRound-lastRound <= Window. A lastRound
// after currentRound is state left over from an earlier encounter.
func (r *Registry) Bonus(techniqueID, lastTechniqueID string, lastRound, currentRound int) int {
	if r == nil || lastTechniqueID == "" {
		return 0
	}
	c, ok := r.chains[techniqueID]
	if !ok || !c.hasPredecessor(lastTechniqueID) {
		return 0
	}
	if gap := currentRound - lastRound; gap < 0 || gap > Window {
		return 0
	}
	return c.BonusDamage
}

// LoadDirectory reads every *.yaml file in dir as a Chain.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a populated Registry, or an error on any parse,
// validation, or duplicate failure.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading combo dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var c Chain
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if err := reg.Register(&c); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
