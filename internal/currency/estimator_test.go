package currency

import (
	"testing"

	"github.com/xtding233/gacha-planner/internal/gacha"
)

func newTestEstimator() *FixedPoint {
	return NewFixedPoint(gacha.DefaultRules(), DefaultYields(), DefaultExchange())
}

func TestEstimateZeroAndNegative(t *testing.T) {
	f := newTestEstimator()
	for _, in := range []Input{
		{},
		{CharacterPulls: -10},
		{CharacterPulls: -5, WeaponPulls: -5, Flexible: -20},
	} {
		est := f.Estimate(in)
		if est.BonusCurrency != 0 || est.BonusPulls != 0 || est.TotalPulls != 0 {
			t.Fatalf("Estimate(%+v) = %+v, want zero", in, est)
		}
		if est.Iterations != 0 {
			t.Fatalf("Estimate(%+v) iterated %d times, want 0", in, est.Iterations)
		}
	}
}

func TestEstimateZeroYields(t *testing.T) {
	f := NewFixedPoint(gacha.DefaultRules(), Yields{}, DefaultExchange())
	est := f.Estimate(Input{CharacterPulls: 160})
	if est.BonusCurrency != 0 || est.BonusPulls != 0 {
		t.Fatalf("zero yields gave bonus %+v", est)
	}
	if !est.Converged || est.Iterations != 1 {
		t.Fatalf("zero yields should settle on the first pass: %+v", est)
	}
}

func TestEstimateConverges(t *testing.T) {
	f := newTestEstimator()
	est := f.Estimate(Input{CharacterPulls: 180, WeaponPulls: 80, Targets: 2})
	if est.BonusPulls <= 0 {
		t.Fatalf("expected positive bonus pulls, got %+v", est)
	}
	if !est.Converged {
		t.Fatalf("estimate did not converge: %+v", est)
	}
	if est.Iterations > DefaultMaxIterations {
		t.Fatalf("iterations %d exceed cap", est.Iterations)
	}
	if est.TotalPulls != est.BasePulls+est.BonusPulls {
		t.Fatalf("total %v != base %v + bonus %v", est.TotalPulls, est.BasePulls, est.BonusPulls)
	}
	// bonus pulls are a small fraction of the base
	if est.BonusPulls > 0.25*est.BasePulls {
		t.Fatalf("bonus %v implausibly large for base %v", est.BonusPulls, est.BasePulls)
	}
}

func TestEstimateIterationCap(t *testing.T) {
	f := newTestEstimator()
	f.Tolerance = 1e-300
	f.MaxIterations = 3
	est := f.Estimate(Input{CharacterPulls: 300})
	if est.Iterations != 3 || est.Converged {
		t.Fatalf("want capped at 3 unconverged iterations, got %+v", est)
	}
}

func TestEstimateMonotonic(t *testing.T) {
	f := newTestEstimator()
	prev := -1.0
	for _, n := range []float64{10, 50, 90, 200, 400} {
		est := f.Estimate(Input{CharacterPulls: n})
		if est.BonusCurrency <= prev {
			t.Fatalf("bonus currency not increasing at %v pulls: %v <= %v", n, est.BonusCurrency, prev)
		}
		prev = est.BonusCurrency
	}
}

func TestEstimateFlexiblePicksLowerYield(t *testing.T) {
	f := newTestEstimator()
	in := Input{CharacterPulls: 100, WeaponPulls: 60, Flexible: 80, Targets: 1}
	est := f.Estimate(in)

	toChar := f.Estimate(Input{CharacterPulls: 180, WeaponPulls: 60, Targets: 1})
	toWeapon := f.Estimate(Input{CharacterPulls: 100, WeaponPulls: 140, Targets: 1})
	want, wantTo := toChar, ToCharacter
	if toWeapon.BonusCurrency < toChar.BonusCurrency {
		want, wantTo = toWeapon, ToWeapon
	}
	if est.FlexibleTo != wantTo || est.BonusCurrency != want.BonusCurrency {
		t.Fatalf("flexible went to %q (%v), want %q (%v)", est.FlexibleTo, est.BonusCurrency, wantTo, want.BonusCurrency)
	}
	if est.BasePulls != 240 {
		t.Fatalf("base pulls = %v, want 240", est.BasePulls)
	}
}

func TestEstimateFlexibleSingleSide(t *testing.T) {
	f := newTestEstimator()
	est := f.Estimate(Input{WeaponPulls: 40, Flexible: 40})
	if est.FlexibleTo != ToWeapon || est.WeaponPulls != 80 {
		t.Fatalf("flexible should join the only weapon side: %+v", est)
	}
	est = f.Estimate(Input{Flexible: 40})
	if est.FlexibleTo != ToCharacter || est.CharacterPulls != 40 {
		t.Fatalf("flexible alone should default to character: %+v", est)
	}
}
