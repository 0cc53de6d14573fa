// Package ability defines the six named ability scores and the modifier
// conversion used everywhere a score becomes a resolution bonus.
package ability

import "fmt"

// Name identifies one of the six ability scores.
type Name string

const (
	Strength     Name = "strength"
	Dexterity    Name = "dexterity"
	Constitution Name = "constitution"
	Intelligence Name = "intelligence"
	Wisdom       Name = "wisdom"
	Charisma     Name = "charisma"
)

// Names lists every ability in canonical order.
var Names = []Name{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// ParseName validates s as an ability name.
//
// Postcondition: Returns the Name, or an error if s is not one of the six abilities.
func ParseName(s string) (Name, error) {
	for _, n := range Names {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown ability %q", s)
}

// Scores holds the six raw ability scores of an actor or target.
type Scores struct {
	Strength     int `yaml:"strength" json:"strength"`
	Dexterity    int `yaml:"dexterity" json:"dexterity"`
	Constitution int `yaml:"constitution" json:"constitution"`
	Intelligence int `yaml:"intelligence" json:"intelligence"`
	Wisdom       int `yaml:"wisdom" json:"wisdom"`
	Charisma     int `yaml:"charisma" json:"charisma"`
}

// Get returns the score for the named ability, or 0 for an unknown name.
func (s Scores) Get(n Name) int {
	switch n {
	case Strength:
		return s.Strength
	case Dexterity:
		return s.Dexterity
	case Constitution:
		return s.Constitution
	case Intelligence:
		return s.Intelligence
	case Wisdom:
		return s.Wisdom
	case Charisma:
		return s.Charisma
	default:
		return 0
	}
}

// Modifier converts a raw score to its modifier: floor((score - 10) / 2).
// Go integer division truncates toward zero, so negative differences are
// shifted down by one before dividing.
//
// Postcondition: Returns floor((score - 10) / 2) for every int score.
func Modifier(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}
