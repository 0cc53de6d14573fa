package progression

import "context"

// CanLearnTechnique reports whether an entity at currentTier that has learned
// the techniques in learned may learn a technique requiring tierRequired and
// prerequisites. Ceiling and trust are not considered.
func CanLearnTechnique(currentTier, tierRequired int, prerequisites []string, learned map[string]bool) bool {
	if currentTier < tierRequired {
		return false
	}
	return len(MissingPrerequisites(prerequisites, learned)) == 0
}

// MissingPrerequisites returns the prerequisites absent from learned, in input
// order.
func MissingPrerequisites(prerequisites []string, learned map[string]bool) []string {
	var missing []string
	for _, p := range prerequisites {
		if !learned[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// LearnedSet builds the lookup set CanLearnTechnique expects.
func LearnedSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// QuestGate decides whether a named quest gate is satisfied for an entity.
type QuestGate interface {
	Satisfied(ctx context.Context, gate, entityID string) (bool, error)
}

// CompletedQuests is a QuestGate backed by a static set of completed quest IDs
// per entity.
type CompletedQuests map[string]map[string]bool

// Complete marks gate as completed for entityID.
func (c CompletedQuests) Complete(entityID, gate string) {
	if c[entityID] == nil {
		c[entityID] = make(map[string]bool)
	}
	c[entityID][gate] = true
}

// Satisfied implements QuestGate.
func (c CompletedQuests) Satisfied(_ context.Context, gate, entityID string) (bool, error) {
	return c[entityID][gate], nil
}
