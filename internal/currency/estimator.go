package currency

import (
	"math"

	"github.com/xtding233/gacha-planner/internal/gacha"
)

const (
	DefaultTolerance     = 0.01 // pulls
	DefaultMaxIterations = 10
)

// FlexibleTo values.
const (
	ToCharacter = "character"
	ToWeapon    = "weapon"
)

// Input describes the pulls to estimate bonus currency for.
type Input struct {
	CharacterPulls float64
	WeaponPulls    float64
	// Flexible pulls are not yet assigned to either banner type.
	Flexible float64
	// Targets is how many top-tier draws are first copies.
	Targets       int
	CharacterPity int
	WeaponPity    int
}

// Estimate is the converged (or capped) bonus currency estimate.
type Estimate struct {
	BasePulls      float64 `json:"base_pulls"`
	CharacterPulls float64 `json:"character_pulls"`
	WeaponPulls    float64 `json:"weapon_pulls"`
	FlexibleTo     string  `json:"flexible_to,omitempty"` // "character" | "weapon"
	BonusCurrency  float64 `json:"bonus_currency"`
	BonusPulls     float64 `json:"bonus_pulls"`
	TotalPulls     float64 `json:"total_pulls"`
	Iterations     int     `json:"iterations"`
	Converged      bool    `json:"converged"`
}

// Estimator turns planned pulls into expected bonus currency and pulls.
type Estimator interface {
	Estimate(in Input) Estimate
}

// FixedPoint estimates bonus currency by iterating
// pulls → expected draws → currency → extra pulls until the extra pulls settle.
// Extra pulls are redistributed in proportion to the base split.
type FixedPoint struct {
	Rules         gacha.Rules
	Yields        Yields
	Exchange      Exchange
	Tolerance     float64
	MaxIterations int
}

func NewFixedPoint(rules gacha.Rules, yields Yields, ex Exchange) *FixedPoint {
	return &FixedPoint{
		Rules:         rules,
		Yields:        yields,
		Exchange:      ex,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// Estimate implements Estimator. Negative pull counts are clamped to 0.
// When both banner types have pulls, Flexible goes to whichever side yields
// less currency, keeping the estimate conservative.
func (f *FixedPoint) Estimate(in Input) Estimate {
	char := math.Max(in.CharacterPulls, 0)
	weapon := math.Max(in.WeaponPulls, 0)
	flex := math.Max(in.Flexible, 0)

	switch {
	case flex == 0:
		return f.solve(in, char, weapon)
	case char > 0 && weapon > 0:
		toChar := f.solve(in, char+flex, weapon)
		toWeapon := f.solve(in, char, weapon+flex)
		if toWeapon.BonusCurrency < toChar.BonusCurrency {
			toWeapon.FlexibleTo = ToWeapon
			return toWeapon
		}
		toChar.FlexibleTo = ToCharacter
		return toChar
	case weapon > 0:
		est := f.solve(in, char, weapon+flex)
		est.FlexibleTo = ToWeapon
		return est
	default:
		est := f.solve(in, char+flex, weapon)
		est.FlexibleTo = ToCharacter
		return est
	}
}

func (f *FixedPoint) solve(in Input, char, weapon float64) Estimate {
	base := char + weapon
	est := Estimate{BasePulls: base, CharacterPulls: char, WeaponPulls: weapon, TotalPulls: base}
	if base <= 0 {
		est.Converged = true
		return est
	}

	tol := f.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := f.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	share := char / base
	bonus := 0.0
	for i := 0; i < maxIter; i++ {
		est.Iterations = i + 1
		amount := f.yield(in, char+bonus*share, weapon+bonus*(1-share))
		next := f.Exchange.PullsFor(amount)
		delta := math.Abs(next - bonus)
		bonus = next
		est.BonusCurrency = amount
		if delta < tol {
			est.Converged = true
			break
		}
	}
	est.BonusPulls = bonus
	est.TotalPulls = base + bonus
	return est
}

// yield is the expected currency returned by the given pulls.
func (f *FixedPoint) yield(in Input, char, weapon float64) float64 {
	notable := ExpectedDraws(f.Rules.CharacterNotable, 0, char)*f.Yields.CharacterNotable +
		ExpectedDraws(f.Rules.WeaponNotable, 0, weapon)*f.Yields.WeaponNotable

	top := ExpectedDraws(f.Rules.Character, in.CharacterPity, char) +
		ExpectedDraws(f.Rules.Weapon, in.WeaponPity, weapon)
	first := math.Min(top, float64(max(in.Targets, 0)))

	return notable + first*f.Yields.FirstCopy + (top-first)*f.Yields.Duplicate
}
