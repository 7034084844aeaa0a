package sim

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
)

func twoBanners() []plan.Banner {
	day := func(d int) time.Time { return time.Date(2024, 8, d, 0, 0, 0, 0, time.UTC) }
	return []plan.Banner{
		{ID: "A", Start: day(1), End: day(20), Characters: []string{"kinich"}, Weapons: [2]string{"fang", "staff"}},
		{ID: "B", Start: day(21), End: day(31), Characters: []string{"mualani"}, Weapons: [2]string{"surf", "wave"}},
	}
}

func TestRunTwoBannerFirstCopy(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 90, MaxLevel: 0}}},
		},
		Rules: gacha.DefaultRules(),
	}
	res, err := New(Options{Repetitions: 10000, Seed: 20240828}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Repetitions != 10000 || len(res.Goals) != 1 {
		t.Fatalf("result = %+v", res)
	}
	want := TheoreticalFeatured(req.Rules, gacha.CharacterState{}, 90)
	got := res.Goals[0].SuccessRate
	if math.Abs(got-want) > 0.02 {
		t.Fatalf("success rate %.4f not close to theoretical %.4f", got, want)
	}
	if r := res.Goals[0]; r.SuccessRate+r.LossRate > 1+1e-9 {
		t.Fatalf("success %.4f + loss %.4f > 1", r.SuccessRate, r.LossRate)
	}
	if res.Goals[0].PullsUsed.Mean <= 0 || res.Goals[0].PullsUsed.P99 > 90 {
		t.Fatalf("pulls used = %+v", res.Goals[0].PullsUsed)
	}

	total := 0
	freq := 0.0
	for i, s := range res.Scenarios {
		if s.Pattern != "O -" && s.Pattern != "L -" && s.Pattern != "X -" {
			t.Fatalf("unexpected pattern %q", s.Pattern)
		}
		if i > 0 && s.Count > res.Scenarios[i-1].Count {
			t.Fatalf("scenarios not ranked by count: %+v", res.Scenarios)
		}
		total += s.Count
		freq += s.Frequency
	}
	if total != 10000 || math.Abs(freq-1) > 1e-9 {
		t.Fatalf("scenario counts %d / frequency %.6f", total, freq)
	}
}

func TestRunNonPositiveRepetitions(t *testing.T) {
	for _, n := range []int{0, -5} {
		res, err := New(Options{Repetitions: n}).Run(context.Background(), Request{Banners: twoBanners()})
		if err != nil || res == nil || res.Repetitions != 0 || len(res.Goals) != 0 || len(res.Scenarios) != 0 {
			t.Fatalf("n=%d: res=%+v err=%v", n, res, err)
		}
	}
}

func TestRunZeroBudgetGoal(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Weapon: &plan.WeaponGoal{Target: "fang", Pulls: 0}},
		},
		Rules: gacha.DefaultRules(),
	}
	res, err := New(Options{Repetitions: 500, Seed: 1}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	g := res.Goals[0]
	if g.SuccessRate != 0 || g.PullsUsed.Mean != 0 || g.LevelRates[0] != 0 {
		t.Fatalf("zero budget goal = %+v", g)
	}
	if len(res.Scenarios) != 1 || res.Scenarios[0].Pattern != "- -" || res.Scenarios[0].Count != 500 {
		t.Fatalf("scenarios = %+v", res.Scenarios)
	}
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {
				Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 120, MaxLevel: 1}},
				Weapon:     &plan.WeaponGoal{Target: "fang", Pulls: 80, Policy: plan.PolicyContinue},
			},
			"B": {Characters: []plan.CharacterGoal{{ID: "mualani", Pulls: 60}}},
		},
		Rules: gacha.DefaultRules(),
	}
	a, err := New(Options{Repetitions: 3000, ChunkSize: 250, Workers: 1, Seed: 9}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Options{Repetitions: 3000, ChunkSize: 250, Workers: 8, Seed: 9}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ between worker counts:\n%+v\n%+v", a, b)
	}
	if a.Goals[1].Secondary != "staff" {
		t.Fatalf("secondary = %q", a.Goals[1].Secondary)
	}
	lr := a.Goals[0].LevelRates
	if len(lr) != 2 || lr[0] < lr[1] || lr[0] != a.Goals[0].SuccessRate {
		t.Fatalf("level rates = %v success = %v", lr, a.Goals[0].SuccessRate)
	}
}

func TestRunLevelRatesFullBudget(t *testing.T) {
	req := Request{
		Banners: twoBanners()[:1],
		Allocation: plan.Allocation{
			"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 1000, MaxLevel: 2}}},
		},
		Rules: gacha.DefaultRules(),
	}
	res, err := New(Options{Repetitions: 400, Seed: 5}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range res.Goals[0].LevelRates {
		if r != 1 {
			t.Fatalf("LevelRates[%d] = %v, want 1 with a budget covering every level", i, r)
		}
	}
}

func TestRunProgressAndCancel(t *testing.T) {
	req := Request{
		Banners:    twoBanners(),
		Allocation: plan.Allocation{"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 30}}}},
		Rules:      gacha.DefaultRules(),
	}
	var seen []int
	opts := Options{Repetitions: 1000, ChunkSize: 100, Workers: 3, Seed: 2, Progress: func(p int) { seen = append(seen, p) }}
	if _, err := New(opts).Run(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 10 || seen[len(seen)-1] != 100 {
		t.Fatalf("progress = %v", seen)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress went backwards: %v", seen)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(opts).Run(ctx, req)
	if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("want ErrCanceled wrapping context.Canceled, got %v", err)
	}
}

func TestRunIgnoresUnknownReferences(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A":    {Characters: []plan.CharacterGoal{{ID: "somebody-else", Pulls: 50}}},
			"gone": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 50}}},
			"B":    {Characters: []plan.CharacterGoal{{ID: "mualani", Pulls: 10}}},
		},
		Rules: gacha.DefaultRules(),
	}
	res, err := New(Options{Repetitions: 100, Seed: 3}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Goals) != 1 || res.Goals[0].Banner != "B" {
		t.Fatalf("goals = %+v", res.Goals)
	}
	if _, ok := res.Goal("A", "somebody-else"); ok {
		t.Fatal("non-featured character should not produce a result")
	}
}

func TestRunCarryOver(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 200}}},
			"B": {Characters: []plan.CharacterGoal{{ID: "mualani", Pulls: 1}}},
		},
		Rules: gacha.DefaultRules(),
	}
	without, err := New(Options{Repetitions: 2000, Seed: 11}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	with, err := New(Options{Repetitions: 2000, Seed: 11, CarryOver: true}).Run(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	b0, _ := without.Goal("B", "mualani")
	b1, _ := with.Goal("B", "mualani")
	if b0.SuccessRate > 0.05 || b1.SuccessRate < 0.3 {
		t.Fatalf("carry over: without=%.3f with=%.3f", b0.SuccessRate, b1.SuccessRate)
	}
	a1, _ := with.Goal("A", "kinich")
	if a1.SuccessRate != 1 {
		t.Fatalf("A with 200 pulls = %.3f, want 1", a1.SuccessRate)
	}
}

func TestRunContinuePolicyLevelRates(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Weapon: &plan.WeaponGoal{Target: "fang", Pulls: 400, MaxLevel: 0, Policy: plan.PolicyContinue}},
		},
		Rules: gacha.DefaultRules(),
	}
	res, err := New(Options{Repetitions: 3000, Seed: 7}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	g := res.Goals[0]
	if g.SuccessRate < 0.99 {
		t.Fatalf("400 pulls should all but guarantee fang, got %.4f", g.SuccessRate)
	}
	if g.LevelRates[0] != g.SuccessRate {
		t.Fatalf("P(level >= 0) = %.4f, want success rate %.4f", g.LevelRates[0], g.SuccessRate)
	}
}

// cliffRules never hits before hard pity and always hits at it, so character
// goals consume no randomness.
func cliffRules() gacha.Rules {
	r := gacha.DefaultRules()
	r.Character = gacha.Curve{Base: 0, SoftStart: 90, Step: 0, Hard: 90}
	r.FeaturedChance = 1
	return r
}

func TestRunPityCarriesAcrossBanners(t *testing.T) {
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 89}}},
			"B": {Characters: []plan.CharacterGoal{{ID: "mualani", Pulls: 1}}},
		},
		Rules: cliffRules(),
	}
	res, err := New(Options{Repetitions: 50, Seed: 3}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	a, b := res.Goals[0], res.Goals[1]
	if a.SuccessRate != 0 || a.PullsUsed.Mean != 89 {
		t.Fatalf("A = %+v, want 89 pulls without a hit", a)
	}
	if b.SuccessRate != 1 || b.PullsUsed.Mean != 1 {
		t.Fatalf("B = %+v, want a hard pity hit on its first pull", b)
	}
	if len(res.Scenarios) != 1 || res.Scenarios[0].Pattern != "X O" {
		t.Fatalf("scenarios = %+v", res.Scenarios)
	}
}

func TestRunGuaranteeCarriesAcrossBanners(t *testing.T) {
	r := cliffRules()
	r.FeaturedChance = 0
	r.RadianceAfter = 0
	req := Request{
		Banners: twoBanners(),
		Allocation: plan.Allocation{
			"A": {Characters: []plan.CharacterGoal{{ID: "kinich", Pulls: 90}}},
			"B": {Characters: []plan.CharacterGoal{{ID: "mualani", Pulls: 90}}},
		},
		Rules: r,
	}
	res, err := New(Options{Repetitions: 50, Seed: 3}).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a := res.Goals[0]; a.LossRate != 1 || a.SuccessRate != 0 {
		t.Fatalf("A = %+v, want every split lost", a)
	}
	if b := res.Goals[1]; b.SuccessRate != 1 {
		t.Fatalf("B success = %.2f, want the carried guarantee to win", b.SuccessRate)
	}
	if res.Scenarios[0].Pattern != "L O" {
		t.Fatalf("scenarios = %+v", res.Scenarios)
	}
}

func TestRunFateResetsOnLaterBanner(t *testing.T) {
	r := gacha.DefaultRules()
	r.Weapon = gacha.Curve{Base: 1, SoftStart: 1, Step: 0, Hard: 1}
	r.WeaponFeaturedChance = 1
	start := plan.StartState{Weapon: gacha.WeaponState{FatePoints: 1}}
	run := func(alloc plan.Allocation) GoalResult {
		t.Helper()
		req := Request{Banners: twoBanners(), Allocation: alloc, Start: start, Rules: r}
		res, err := New(Options{Repetitions: 4000, Seed: 11}).Run(context.Background(), req)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return res.Goals[len(res.Goals)-1]
	}

	// starting fate belongs to the first banner and forces the target there
	first := run(plan.Allocation{"A": {Weapon: &plan.WeaponGoal{Target: "fang", Pulls: 1}}})
	if first.SuccessRate != 1 {
		t.Fatalf("first banner success = %.4f, want 1", first.SuccessRate)
	}

	// A ends with fate 1 (no pulls), B starts from 0 and its single draw is a coin flip
	later := run(plan.Allocation{
		"A": {Weapon: &plan.WeaponGoal{Target: "fang", Pulls: 0}},
		"B": {Weapon: &plan.WeaponGoal{Target: "surf", Pulls: 1}},
	})
	if later.Banner != "B" || math.Abs(later.SuccessRate-0.5) > 0.05 {
		t.Fatalf("B = %+v, want ~0.5 with fate reset", later)
	}
}
