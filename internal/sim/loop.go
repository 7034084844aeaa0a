package sim

import (
	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
)

// GoalOutcome is what one goal produced in one repetition.
// Levels are copies-1, so -1 means the item was never obtained.
type GoalOutcome struct {
	Obtained          bool
	Level             int
	Pulls             int
	Lost              bool // a top-tier item arrived but never the target
	SecondaryObtained bool
	SecondaryLevel    int
	Skipped           bool // no budget, nothing pulled
}

func skipped() GoalOutcome {
	return GoalOutcome{Level: -1, SecondaryLevel: -1, Skipped: true}
}

// RunCharacterGoal pulls on the character banner until budget is spent or
// the target's level passes ceiling. The draw that passes the ceiling counts.
func RunCharacterGoal(s gacha.CharacterState, budget, ceiling int, r gacha.Rules, rng gacha.RandomSource) (gacha.CharacterState, GoalOutcome) {
	if budget <= 0 {
		return s, skipped()
	}
	var (
		copies  int
		pulls   int
		offHits bool
		o       gacha.Outcome
	)
	for pulls < budget && copies <= ceiling {
		s, o = gacha.PullCharacter(s, r, rng)
		pulls++
		switch o {
		case gacha.Featured:
			copies++
		case gacha.Standard:
			offHits = true
		}
	}
	return s, GoalOutcome{
		Obtained:       copies > 0,
		Level:          copies - 1,
		Pulls:          pulls,
		Lost:           offHits && copies == 0,
		SecondaryLevel: -1,
	}
}

// RunWeaponGoal pulls on the weapon banner toward target, one of featured.
// Under PolicyContinue, once target passes ceiling the loop retargets the other
// featured weapon with fate points reset and keeps going until that one passes
// ceiling too. Copies of the other weapon drawn before the switch count for it.
func RunWeaponGoal(s gacha.WeaponState, target string, featured [2]string, budget, ceiling int,
	policy plan.WeaponPolicy, r gacha.Rules, rng gacha.RandomSource) (gacha.WeaponState, GoalOutcome) {
	if budget <= 0 {
		return s, skipped()
	}
	other := featured[0]
	if other == target {
		other = featured[1]
	}

	var (
		primary, secondary int
		pulls              int
		offHits            bool
		switched           bool
		p                  gacha.WeaponPull
	)
	current := target
	for pulls < budget {
		if !switched && primary > ceiling {
			if policy != plan.PolicyContinue || secondary > ceiling {
				break
			}
			switched = true
			current = other
			s.FatePoints = 0
		}
		if switched && secondary > ceiling {
			break
		}

		s, p = gacha.PullWeapon(s, current, featured, r, rng)
		pulls++
		switch {
		case p.Outcome == gacha.Miss:
		case p.Item == target:
			primary++
		case p.Item == other:
			secondary++
			if !switched {
				offHits = true
			}
		default:
			offHits = true
		}
	}

	out := GoalOutcome{
		Obtained:       primary > 0,
		Level:          primary - 1,
		Pulls:          pulls,
		Lost:           offHits && primary == 0,
		SecondaryLevel: -1,
	}
	if policy == plan.PolicyContinue {
		out.SecondaryObtained = secondary > 0
		out.SecondaryLevel = secondary - 1
	}
	return s, out
}
