package technique

import (
	"fmt"
	"strings"
)

// Context is the situation a technique is invoked in. It selects which effect
// bundle of a technique applies.
type Context string

const (
	Combat      Context = "combat"
	Scene       Context = "scene"
	Social      Context = "social"
	Exploration Context = "exploration"
)

// Contexts lists every context in canonical order.
var Contexts = []Context{Combat, Scene, Social, Exploration}

// ParseContext validates s as a Context.
func ParseContext(s string) (Context, error) {
	for _, c := range Contexts {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown context %q", s)
}

// ContextSet is the set of contexts a technique may be invoked in.
type ContextSet []Context

// Has reports whether c is in the set.
func (s ContextSet) Has(c Context) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// String joins the set as "combat, social".
func (s ContextSet) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}
