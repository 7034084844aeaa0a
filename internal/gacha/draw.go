package gacha

import "errors"

var ErrInvalidProb = errors.New("invalid probability p; must be 0..1")

// chance reports whether a draw under p hits.
// p <= 0 => no hit. p >= 1 => must hit. otherwise, rng.Float64() < p
func chance(p float64, rng RandomSource) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	return rng.Float64() < p
}
