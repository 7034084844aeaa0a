package optimize

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
	"github.com/xtding233/gacha-planner/internal/sim"
)

func banners() []plan.Banner {
	return []plan.Banner{
		{ID: "A", Characters: []string{"kinich"}, Weapons: [2]string{"fang", "staff"}},
		{ID: "B", Characters: []string{"mualani"}, Weapons: [2]string{"surf", "wave"}},
	}
}

func problem(budget int, goals ...plan.Goal) Problem {
	return Problem{
		Banners:     banners(),
		Rules:       gacha.DefaultRules(),
		Goals:       goals,
		Budget:      budget,
		Repetitions: 300,
		Workers:     2,
		Seed:        77,
	}
}

func TestPriorityTargets(t *testing.T) {
	for p, want := range map[Priority]float64{Highest: 0.99, High: 0.90, Medium: 0.70, Skip: 0} {
		if got := p.Target(); got != want {
			t.Errorf("%s target = %v, want %v", p, got, want)
		}
	}
	if _, err := ParsePriority("urgent"); !errors.Is(err, ErrUnknownPriority) {
		t.Fatalf("want ErrUnknownPriority, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	if err := problem(10).Validate(); !errors.Is(err, ErrNoGoals) {
		t.Fatalf("want ErrNoGoals, got %v", err)
	}
	bad := problem(10, plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "soon"})
	if err := bad.Validate(); !errors.Is(err, ErrUnknownPriority) {
		t.Fatalf("want ErrUnknownPriority, got %v", err)
	}
	dup := problem(10,
		plan.Goal{Banner: "A", Kind: plan.KindWeapon, Item: "fang", Priority: "high"},
		plan.Goal{Banner: "A", Kind: plan.KindWeapon, Item: "staff", Priority: "high"},
	)
	if err := dup.Validate(); !errors.Is(err, ErrConflictingGoals) {
		t.Fatalf("want ErrConflictingGoals, got %v", err)
	}
	neg := problem(-1, plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "high"})
	if err := neg.Validate(); !errors.Is(err, ErrInvalidBudget) {
		t.Fatalf("want ErrInvalidBudget, got %v", err)
	}
}

func TestSeedOrder(t *testing.T) {
	p := problem(200,
		plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "medium"},
		plan.Goal{Banner: "A", Kind: plan.KindWeapon, Item: "fang", Priority: "highest"},
		plan.Goal{Banner: "B", Kind: plan.KindCharacter, Item: "mualani", Priority: "high"},
		plan.Goal{Banner: "B", Kind: plan.KindWeapon, Item: "surf", Priority: "skip"},
	)
	got := p.seed()
	want := []int{0, 150, 50, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("seed = %v, want %v", got, want)
		}
	}

	tie := problem(170,
		plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "highest"},
		plan.Goal{Banner: "B", Kind: plan.KindCharacter, Item: "mualani", Priority: "highest"},
	)
	if got := tie.seed(); got[0] != 0 || got[1] != 170 {
		t.Fatalf("tie seed = %v, later banner should win", got)
	}

	unknown := problem(500, plan.Goal{Banner: "Z", Kind: plan.KindCharacter, Item: "x", Priority: "highest"})
	if got := unknown.seed(); got[0] != 0 {
		t.Fatalf("goal on unknown banner seeded with %d pulls", got[0])
	}
}

func TestScore(t *testing.T) {
	goals := []plan.Goal{
		{Banner: "A", Item: "kinich", Priority: "highest"},
		{Banner: "B", Item: "mualani", Priority: "medium"},
		{Banner: "B", Item: "ghost", Priority: "skip"},
	}
	res := &sim.Result{Goals: []sim.GoalResult{
		{Banner: "A", Item: "kinich", SuccessRate: 0.5, LevelRates: []float64{0.5}},
		{Banner: "B", Item: "mualani", SuccessRate: 0.95, LevelRates: []float64{0.95}},
	}}
	if got := Score(goals, res); math.Abs(got-51) > 1e-9 {
		t.Fatalf("score = %v, want 51", got)
	}

	leveled := []plan.Goal{{Banner: "A", Item: "kinich", Priority: "high", MaxLevel: 1}}
	res = &sim.Result{Goals: []sim.GoalResult{
		{Banner: "A", Item: "kinich", SuccessRate: 1, LevelRates: []float64{1, 0.6}},
	}}
	if got := Score(leveled, res); math.Abs(got-70) > 1e-9 {
		t.Fatalf("leveled score = %v, want 70", got)
	}
}

func TestProportionalInfeasibleTerminates(t *testing.T) {
	p := problem(1, plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "highest"})
	rep, err := Proportional{}.Search(context.Background(), p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if rep.Converged || rep.Iterations != DefaultMaxIterations {
		t.Fatalf("iterations = %d converged = %v", rep.Iterations, rep.Converged)
	}
	if sum(rep.Best.Pulls) > 1 {
		t.Fatalf("best spends %d pulls of a budget of 1", sum(rep.Best.Pulls))
	}
}

func TestProportionalConvergesOnZeroTarget(t *testing.T) {
	p := problem(100, plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "skip"})
	rep, err := Proportional{}.Search(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Converged || rep.Iterations != 1 || rep.Best.Score != PerfectScore {
		t.Fatalf("report = %+v", rep)
	}
}

func TestLocalSearch(t *testing.T) {
	p := problem(260,
		plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "high"},
		plan.Goal{Banner: "B", Kind: plan.KindWeapon, Item: "surf", Priority: "medium"},
	)
	seedScore := func() float64 {
		c, err := p.evaluate(context.Background(), p.seed(), p.Seed)
		if err != nil {
			t.Fatal(err)
		}
		return c.Score
	}()

	rep, err := LocalSearch{Iterations: 15}.Search(context.Background(), p)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if rep.Best.Score < seedScore {
		t.Fatalf("best %.2f worse than seed %.2f", rep.Best.Score, seedScore)
	}
	if sum(rep.Best.Pulls) > p.Budget {
		t.Fatalf("best spends %d of %d", sum(rep.Best.Pulls), p.Budget)
	}
	for i := 1; i < len(rep.Ranked); i++ {
		if rep.Ranked[i].Score > rep.Ranked[i-1].Score {
			t.Fatalf("ranked not best-first")
		}
	}
	if rep.Iterations > 15 {
		t.Fatalf("iterations = %d", rep.Iterations)
	}
}

func TestPerturbKeepsBudget(t *testing.T) {
	rng := gacha.NewSeededRNG(4)
	pulls := []int{100, 50, 0}
	movable := []int{0, 1, 2}
	for i := 0; i < 2000; i++ {
		next, ok := LocalSearch{}.perturb(pulls, movable, 160, 0.5, rng)
		if !ok {
			continue
		}
		for _, n := range next {
			if n < 0 {
				t.Fatalf("negative pulls %v", next)
			}
		}
		if sum(next) > 160 {
			t.Fatalf("perturb overspent: %v", next)
		}
		pulls = next
	}
}

func TestRunAll(t *testing.T) {
	p := problem(120, plan.Goal{Banner: "A", Kind: plan.KindCharacter, Item: "kinich", Priority: "medium"})
	reports, err := RunAll(context.Background(), p, LocalSearch{Iterations: 5}, Proportional{MaxIterations: 3})
	if err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if len(reports) != 2 || reports[0].Strategy != "local_search" || reports[1].Strategy != "proportional" {
		t.Fatalf("reports = %+v", reports)
	}
	for _, r := range reports {
		if len(r.Ranked) == 0 || r.Best.Score != r.Ranked[0].Score {
			t.Fatalf("%s: best not first of ranked", r.Strategy)
		}
	}

	if _, err := RunAll(context.Background(), problem(10)); !errors.Is(err, ErrNoGoals) {
		t.Fatalf("want ErrNoGoals, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RunAll(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
