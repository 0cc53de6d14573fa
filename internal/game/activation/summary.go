package activation

import (
	"strings"

	"github.com/AmirZhou/hodos-sub001/internal/game/technique"
)

const (
	summaryHeader = "TECHNIQUE ACTIVATION (authoritative)"
	summaryFooter = "These effects are authoritative. Narration must not contradict them."
)

// Summarize renders rec as the narration-ready text block. actorName and
// targetName fall back to the IDs on the record when empty.
func Summarize(rec Record, tdef *technique.TechniqueDef, actorName, targetName string) string {
	if actorName == "" {
		actorName = rec.ActorID
	}
	target := "none"
	switch {
	case targetName != "":
		target = targetName
	case rec.TargetID != "":
		target = rec.TargetID
	}

	effects := "none"
	if len(rec.Effects) > 0 {
		parts := make([]string, len(rec.Effects))
		for i, p := range rec.Effects {
			parts[i] = p.String()
		}
		effects = strings.Join(parts, ", ")
	}

	var b strings.Builder
	b.WriteString(summaryHeader + "\n")
	b.WriteString("Actor: " + actorName + "\n")
	b.WriteString("Technique: " + tdef.DisplayName() + " (" + tdef.ID + ")\n")
	b.WriteString("Target: " + target + "\n")
	b.WriteString("Context: " + string(rec.Context) + "\n")
	b.WriteString("Potency: " + rec.Potency.String() + "\n")
	b.WriteString("Effects: " + effects + "\n")
	b.WriteString(summaryFooter)
	return b.String()
}
