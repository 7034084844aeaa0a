package optimize

import (
	"fmt"

	"github.com/xtding233/gacha-planner/internal/plan"
)

// Priority is a goal's importance label.
type Priority string

const (
	Highest Priority = "highest"
	High    Priority = "high"
	Medium  Priority = "medium"
	Skip    Priority = "skip"
)

// Target is the success rate a priority asks for.
func (p Priority) Target() float64 {
	switch p {
	case Highest:
		return 0.99
	case High:
		return 0.90
	case Medium:
		return 0.70
	}
	return 0
}

// rank orders priorities, lower first.
func (p Priority) rank() int {
	switch p {
	case Highest:
		return 0
	case High:
		return 1
	case Medium:
		return 2
	}
	return 3
}

// ParsePriority validates a priority label.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case Highest, High, Medium, Skip:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPriority, s)
}

// seedPulls is the fixed pull count the seeded heuristic hands each goal.
var seedPulls = map[plan.GoalKind]map[Priority]int{
	plan.KindCharacter: {Highest: 170, High: 140, Medium: 100},
	plan.KindWeapon:    {Highest: 150, High: 120, Medium: 80},
}

// SeedPulls returns the heuristic starting budget for a goal.
func SeedPulls(kind plan.GoalKind, p Priority) int {
	return seedPulls[kind][p]
}
