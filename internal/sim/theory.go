package sim

import "github.com/xtding233/gacha-planner/internal/gacha"

// TheoreticalFirstHit is P(at least one top-tier item within pulls) starting at startPity.
func TheoreticalFirstHit(curve gacha.Curve, startPity, pulls int) float64 {
	miss := 1.0
	for k := 1; k <= pulls; k++ {
		miss *= 1 - curve.Prob(startPity+k)
		if miss == 0 {
			break
		}
	}
	return 1 - miss
}

// TheoreticalFeatured is P(the featured character within pulls) from start,
// propagating the exact distribution over (pity, guarantee, losses).
func TheoreticalFeatured(r gacha.Rules, start gacha.CharacterState, pulls int) float64 {
	type key struct {
		pity       int
		guaranteed bool
		losses     int
	}
	capLosses := func(l int) int {
		if r.RadianceAfter > 0 && l > r.RadianceAfter {
			return r.RadianceAfter
		}
		return l
	}

	dist := map[key]float64{{start.Pity, start.Guaranteed, capLosses(start.Losses)}: 1}
	won := 0.0
	for i := 0; i < pulls && len(dist) > 0; i++ {
		next := make(map[key]float64, len(dist))
		for k, p := range dist {
			hit := r.Character.Prob(k.pity + 1)
			if hit < 1 {
				next[key{k.pity + 1, k.guaranteed, k.losses}] += p * (1 - hit)
			}
			ph := p * hit
			switch {
			case k.guaranteed, r.RadianceAfter > 0 && k.losses >= r.RadianceAfter:
				won += ph
			default:
				won += ph * r.FeaturedChance
				next[key{0, true, capLosses(k.losses + 1)}] += ph * (1 - r.FeaturedChance)
			}
		}
		dist = next
	}
	return won
}
