package currency

import "github.com/xtding233/gacha-planner/internal/gacha"

// ExpectedDraws returns the expected number of hits on curve over pulls,
// starting from startPity. It propagates the exact distribution of the pity
// counter pull by pull, so it is deterministic. A fractional last pull
// contributes its share of that pull's hit chance.
func ExpectedDraws(curve gacha.Curve, startPity int, pulls float64) float64 {
	if pulls <= 0 || curve.Hard <= 0 {
		return 0
	}
	if startPity < 0 {
		startPity = 0
	}
	if startPity >= curve.Hard {
		startPity = curve.Hard - 1
	}

	dist := make([]float64, curve.Hard) // dist[c]: P(counter == c) before the next pull
	next := make([]float64, curve.Hard)
	dist[startPity] = 1

	whole := int(pulls)
	frac := pulls - float64(whole)
	total := 0.0

	for i := 0; i < whole; i++ {
		clear(next)
		for c, p := range dist {
			if p == 0 {
				continue
			}
			h := curve.Prob(c + 1)
			total += p * h
			next[0] += p * h
			if c+1 < curve.Hard {
				next[c+1] += p * (1 - h)
			}
		}
		dist, next = next, dist
	}
	if frac > 0 {
		for c, p := range dist {
			total += frac * p * curve.Prob(c+1)
		}
	}
	return total
}
