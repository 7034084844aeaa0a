package optimize

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
)

var (
	ErrNoGoals          = errors.New("optimizer needs at least one goal")
	ErrUnknownPriority  = errors.New("unknown priority")
	ErrInvalidBudget    = errors.New("budget must be >= 0")
	ErrConflictingGoals = errors.New("more than one weapon goal on a banner")
)

const (
	DefaultRepetitions = 1000
	DefaultIterations  = 100
)

// Problem is one optimization input. All fields are read-only during a search.
type Problem struct {
	Banners []plan.Banner
	Start   plan.StartState
	Rules   gacha.Rules
	Goals   []plan.Goal
	Budget  int

	Repetitions int    // per candidate evaluation
	Workers     int    // simulator workers
	Seed        uint64 // 0 picks one per search
	Logger      *slog.Logger
}

// ProblemFrom builds a Problem from a resolved plan.
func ProblemFrom(p plan.Plan) Problem {
	reps := p.Simulation.Repetitions
	if reps <= 0 || reps > DefaultRepetitions {
		reps = DefaultRepetitions
	}
	return Problem{
		Banners:     p.Banners,
		Start:       p.Start,
		Rules:       p.Rules,
		Goals:       p.Goals,
		Budget:      p.Budget,
		Repetitions: reps,
		Workers:     p.Simulation.Workers,
		Seed:        p.Simulation.Seed,
	}
}

// Validate checks what the strategies rely on.
func (p Problem) Validate() error {
	if len(p.Goals) == 0 {
		return ErrNoGoals
	}
	if p.Budget < 0 {
		return ErrInvalidBudget
	}
	weapons := map[string]bool{}
	for _, g := range p.Goals {
		if _, err := ParsePriority(g.Priority); err != nil {
			return err
		}
		if g.Kind == plan.KindWeapon {
			if weapons[g.Banner] {
				return fmt.Errorf("%w: %s", ErrConflictingGoals, g.Banner)
			}
			weapons[g.Banner] = true
		}
	}
	return nil
}

func (p Problem) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p Problem) bannerIndex(id string) int {
	for i, b := range p.Banners {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// active reports which goals can receive pulls: known banner, not skipped.
func (p Problem) active() []bool {
	out := make([]bool, len(p.Goals))
	for i, g := range p.Goals {
		out[i] = Priority(g.Priority) != Skip && p.bannerIndex(g.Banner) >= 0
	}
	return out
}

// seed hands out the fixed per-priority pull counts, highest priority first and,
// within one priority, later banners first, until the budget runs out.
func (p Problem) seed() []int {
	pulls := make([]int, len(p.Goals))
	active := p.active()
	order := make([]int, 0, len(p.Goals))
	for i := range p.Goals {
		if active[i] {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ga, gb := p.Goals[order[a]], p.Goals[order[b]]
		ra, rb := Priority(ga.Priority).rank(), Priority(gb.Priority).rank()
		if ra != rb {
			return ra < rb
		}
		return p.bannerIndex(ga.Banner) > p.bannerIndex(gb.Banner)
	})
	left := p.Budget
	for _, i := range order {
		g := p.Goals[i]
		n := min(SeedPulls(g.Kind, Priority(g.Priority))*(max(g.MaxLevel, 0)+1), left)
		pulls[i] = n
		left -= n
		if left == 0 {
			break
		}
	}
	return pulls
}

// Allocation turns per-goal pull counts into a plan allocation.
func (p Problem) Allocation(pulls []int) plan.Allocation {
	alloc := plan.Allocation{}
	for i, g := range p.Goals {
		ba := alloc[g.Banner]
		switch g.Kind {
		case plan.KindCharacter:
			ba.Characters = append(ba.Characters, plan.CharacterGoal{ID: g.Item, Pulls: pulls[i], MaxLevel: g.MaxLevel})
		case plan.KindWeapon:
			ba.Weapon = &plan.WeaponGoal{Target: g.Item, Pulls: pulls[i], MaxLevel: g.MaxLevel, Policy: g.Policy}
		}
		alloc[g.Banner] = ba
	}
	return alloc
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}
