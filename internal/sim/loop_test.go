package sim

import (
	"math"
	"testing"

	"github.com/xtding233/gacha-planner/internal/gacha"
	"github.com/xtding233/gacha-planner/internal/plan"
)

// seqRNG replays fixed values and counts how often it was consulted.
type seqRNG struct {
	vals  []float64
	calls int
}

func (s *seqRNG) Float64() float64 {
	v := s.vals[s.calls%len(s.vals)]
	s.calls++
	return v
}

// alwaysHit makes every weapon pull a top-tier item without consuming randomness.
func alwaysHit() gacha.Rules {
	r := gacha.DefaultRules()
	r.Weapon = gacha.Curve{Base: 1, SoftStart: 1, Step: 0, Hard: 1}
	return r
}

func TestZeroBudgetSkipsWithoutRandomness(t *testing.T) {
	rng := &seqRNG{vals: []float64{0.5}}
	cs := gacha.CharacterState{Pity: 40, Guaranteed: true}
	got, o := RunCharacterGoal(cs, 0, 0, gacha.DefaultRules(), rng)
	if !o.Skipped || o.Obtained || o.Pulls != 0 || o.Level != -1 {
		t.Fatalf("outcome = %+v", o)
	}
	if got != cs {
		t.Fatalf("state changed: %+v", got)
	}
	ws, wo := RunWeaponGoal(gacha.WeaponState{}, "a", [2]string{"a", "b"}, -3, 0, plan.PolicyStop, gacha.DefaultRules(), rng)
	if !wo.Skipped || wo.Pulls != 0 || ws != (gacha.WeaponState{}) {
		t.Fatalf("weapon outcome = %+v state = %+v", wo, ws)
	}
	if rng.calls != 0 {
		t.Fatalf("rng consulted %d times", rng.calls)
	}
}

func TestCharacterGoalHardPityGuaranteed(t *testing.T) {
	rng := &seqRNG{vals: []float64{0.99}}
	s, o := RunCharacterGoal(gacha.CharacterState{Pity: 89, Guaranteed: true}, 1, 0, gacha.DefaultRules(), rng)
	if !o.Obtained || o.Level != 0 || o.Pulls != 1 || o.Lost {
		t.Fatalf("outcome = %+v", o)
	}
	if s.Pity != 0 || s.Guaranteed {
		t.Fatalf("state = %+v", s)
	}
}

func TestCharacterGoalLostSplit(t *testing.T) {
	rng := &seqRNG{vals: []float64{0.9}} // loses the coin
	s, o := RunCharacterGoal(gacha.CharacterState{Pity: 89}, 1, 0, gacha.DefaultRules(), rng)
	if o.Obtained || !o.Lost || o.Level != -1 {
		t.Fatalf("outcome = %+v", o)
	}
	if !s.Guaranteed || s.Losses != 1 || s.Pity != 0 {
		t.Fatalf("state = %+v", s)
	}
}

func TestCharacterGoalStopsPastCeiling(t *testing.T) {
	rng := gacha.NewSeededRNG(3)
	_, o := RunCharacterGoal(gacha.CharacterState{}, 2000, 2, gacha.DefaultRules(), rng)
	if !o.Obtained || o.Level != 2 {
		t.Fatalf("outcome = %+v", o)
	}
	if o.Pulls >= 2000 || o.Pulls > 6*90 {
		t.Fatalf("pulls = %d, loop should stop once level 2 is reached", o.Pulls)
	}
}

func TestWeaponGoalStopPolicy(t *testing.T) {
	// pull 1: featured (0.1), coin picks b (0.1); pull 2: fate forces a.
	rng := &seqRNG{vals: []float64{0.1, 0.1}}
	s, o := RunWeaponGoal(gacha.WeaponState{}, "a", [2]string{"a", "b"}, 10, 0, plan.PolicyStop, alwaysHit(), rng)
	if !o.Obtained || o.Level != 0 || o.Pulls != 2 || o.Lost {
		t.Fatalf("outcome = %+v", o)
	}
	if o.SecondaryObtained || o.SecondaryLevel != -1 {
		t.Fatalf("stop policy reported secondary: %+v", o)
	}
	if s.FatePoints != 0 {
		t.Fatalf("fate = %d after forced draw", s.FatePoints)
	}
}

func TestWeaponGoalContinueRetargets(t *testing.T) {
	// pull 1: featured, coin picks a (0.9); switch to b; pull 2: featured, coin picks b.
	rng := &seqRNG{vals: []float64{0.1, 0.9, 0.1, 0.1}}
	_, o := RunWeaponGoal(gacha.WeaponState{FatePoints: 0}, "a", [2]string{"a", "b"}, 10, 0, plan.PolicyContinue, alwaysHit(), rng)
	if !o.Obtained || o.Level != 0 {
		t.Fatalf("primary outcome = %+v", o)
	}
	if !o.SecondaryObtained || o.SecondaryLevel != 0 || o.Pulls != 2 {
		t.Fatalf("secondary outcome = %+v", o)
	}
}

func TestWeaponGoalContinueCountsEarlySecondary(t *testing.T) {
	// b arrives first and is counted; a is then forced and both ceilings are passed.
	rng := &seqRNG{vals: []float64{0.1, 0.1}}
	_, o := RunWeaponGoal(gacha.WeaponState{}, "a", [2]string{"a", "b"}, 10, 0, plan.PolicyContinue, alwaysHit(), rng)
	if o.Pulls != 2 || !o.SecondaryObtained || !o.Obtained {
		t.Fatalf("outcome = %+v", o)
	}
}

func TestWeaponGoalLostOnStandard(t *testing.T) {
	rng := &seqRNG{vals: []float64{0.9}} // standard item
	s, o := RunWeaponGoal(gacha.WeaponState{}, "a", [2]string{"a", "b"}, 1, 0, plan.PolicyStop, alwaysHit(), rng)
	if o.Obtained || !o.Lost {
		t.Fatalf("outcome = %+v", o)
	}
	if !s.Guaranteed || s.FatePoints != 1 {
		t.Fatalf("state = %+v", s)
	}
}

func TestTheoreticalFirstHit(t *testing.T) {
	if got := TheoreticalFirstHit(gacha.CharacterCurve, 0, 0); got != 0 {
		t.Fatalf("0 pulls = %v", got)
	}
	if got := TheoreticalFirstHit(gacha.CharacterCurve, 0, 1); math.Abs(got-0.006) > 1e-12 {
		t.Fatalf("1 pull = %v", got)
	}
	if got := TheoreticalFirstHit(gacha.CharacterCurve, 0, 90); got != 1 {
		t.Fatalf("90 pulls = %v, want 1 (hard pity)", got)
	}
	if got := TheoreticalFirstHit(gacha.WeaponCurve, 70, 7); got != 1 {
		t.Fatalf("weapon from 70 = %v, want 1", got)
	}
}

func TestTheoreticalFeaturedGuaranteed(t *testing.T) {
	r := gacha.DefaultRules()
	if got := TheoreticalFeatured(r, gacha.CharacterState{Pity: 89, Guaranteed: true}, 1); got != 1 {
		t.Fatalf("guaranteed at hard pity = %v", got)
	}
	if got := TheoreticalFeatured(r, gacha.CharacterState{Pity: 89}, 1); got != 0.5 {
		t.Fatalf("coin at hard pity = %v", got)
	}
	if got := TheoreticalFeatured(r, gacha.CharacterState{}, 180); got < 0.9999 {
		t.Fatalf("two hard pities = %v, want ~1", got)
	}
}
