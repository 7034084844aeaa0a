package gacha

import "errors"

var ErrCurveConfig = errors.New("invalid pity curve config")

// maxRampProb keeps the soft ramp strictly below 1 so only Hard guarantees a hit.
const maxRampProb = 0.999999999999

// Curve maps a pity counter to the chance that this pull is top-tier.
// The counter is the 1-based index of the pull since the last hit, so the
// pull that reaches Hard is always a hit.
// Example: Base=0.006, SoftStart=73, Step=0.06, Hard=90 → pull #73 is 6.6%, pull #90 is 100%.
type Curve struct {
	Base      float64 // probability before soft pity
	SoftStart int     // first counter on the ramp
	Step      float64 // added per counter from SoftStart on
	Hard      int     // counter at which the probability is 1
}

var (
	CharacterCurve = Curve{Base: 0.006, SoftStart: 73, Step: 0.06, Hard: 90}
	WeaponCurve    = Curve{Base: 0.007, SoftStart: 63, Step: 0.07, Hard: 77}

	// lower-tier ("notable") curves, used by the currency estimator
	CharacterNotableCurve = Curve{Base: 0.051, SoftStart: 9, Step: 0.51, Hard: 10}
	WeaponNotableCurve    = Curve{Base: 0.06, SoftStart: 8, Step: 0.6, Hard: 10} // pull 9 clamps near 1 (live rate 96%)
)

// Prob returns the hit probability for the pull with the given counter.
// - counter >= Hard: 1 (hard pity).
// - counter < SoftStart: Base.
// - otherwise: Base + (counter-SoftStart+1)*Step, clamped below 1.
func (c Curve) Prob(counter int) float64 {
	if counter >= c.Hard {
		return 1.0
	}
	if counter < c.SoftStart {
		return c.Base
	}
	p := c.Base + float64(counter-(c.SoftStart-1))*c.Step
	if p > maxRampProb {
		p = maxRampProb
	}
	return p
}

// Validate checks that the curve is a usable pity curve.
func (c Curve) Validate() error {
	if err := validateProb(c.Base); err != nil || c.Base <= 0 || c.Base >= 1 {
		return ErrCurveConfig
	}
	if c.Hard <= 1 || c.SoftStart < 1 || c.SoftStart > c.Hard {
		return ErrCurveConfig
	}
	if c.Step < 0 {
		return ErrCurveConfig
	}
	return nil
}

// CharacterRate is the character banner top-tier probability at counter.
func CharacterRate(counter int) float64 { return CharacterCurve.Prob(counter) }

// WeaponRate is the weapon banner top-tier probability at counter.
func WeaponRate(counter int) float64 { return WeaponCurve.Prob(counter) }
