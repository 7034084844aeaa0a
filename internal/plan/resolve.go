// resolve.go
package plan

import (
	"fmt"
	"runtime"

	"github.com/xtding233/gacha-planner/internal/currency"
	"github.com/xtding233/gacha-planner/internal/gacha"
)

const (
	DefaultRepetitions = 10000
	DefaultChunkSize   = 1000
)

// Overrides carries per-run overrides (flags, request fields) applied after the merge.
type Overrides struct {
	Repetitions *int
	ChunkSize   *int
	Workers     *int
	Seed        *uint64
	CarryOver   *bool
	Budget      *int
}

// Resolve validates raw, applies o and builds the typed Plan.
func Resolve(raw RawConfig, o Overrides) (Plan, error) {
	if err := ValidateRaw(raw); err != nil {
		return Plan{}, err
	}

	rules := resolveRules(raw.Rules)
	if err := rules.Validate(); err != nil {
		return Plan{}, err
	}

	p := Plan{
		Version:    raw.Version,
		Rules:      rules,
		Yields:     currency.DefaultYields(),
		Exchange:   currency.DefaultExchange(),
		Simulation: resolveSimulation(raw.Simulation, o),
		Allocation: make(Allocation, len(raw.Allocation)),
	}
	applyYields(&p, raw.Yields)

	for _, bc := range raw.Banners {
		b := Banner{ID: bc.ID, Characters: append([]string(nil), bc.Characters...)}
		b.Start, _ = parseDate(bc.Start) // checked by ValidateRaw
		b.End, _ = parseDate(bc.End)
		if len(bc.Weapons) == 2 {
			b.Weapons = [2]string{bc.Weapons[0], bc.Weapons[1]}
		}
		p.Banners = append(p.Banners, b)
	}

	if s := raw.Start; s != nil {
		if s.Character.Pity >= rules.Character.Hard || s.Weapon.Pity >= rules.Weapon.Hard {
			return Plan{}, fmt.Errorf("%w: start pity must be below hard pity (%d/%d)",
				ErrInvalidConfig, rules.Character.Hard, rules.Weapon.Hard)
		}
		p.Start = StartState{
			Character: gacha.CharacterState{
				Pity:       s.Character.Pity,
				Guaranteed: s.Character.Guaranteed,
				Losses:     s.Character.Losses,
			},
			Weapon: gacha.WeaponState{
				Pity:       s.Weapon.Pity,
				Guaranteed: s.Weapon.Guaranteed,
				FatePoints: s.Weapon.FatePoints,
			},
		}
	}

	for id, ac := range raw.Allocation {
		ba := BannerAllocation{}
		for _, c := range ac.Characters {
			ba.Characters = append(ba.Characters, CharacterGoal(c))
		}
		if w := ac.Weapon; w != nil {
			ba.Weapon = &WeaponGoal{
				Target:   w.Target,
				Pulls:    w.Pulls,
				MaxLevel: w.MaxLevel,
				Policy:   policyOrStop(w.Policy),
			}
		}
		p.Allocation[id] = ba
	}

	for _, g := range raw.Goals {
		p.Goals = append(p.Goals, Goal{
			Banner:   g.Banner,
			Kind:     GoalKind(g.Kind),
			Item:     g.Item,
			Priority: g.Priority,
			MaxLevel: g.MaxLevel,
			Policy:   policyOrStop(g.Policy),
		})
	}

	if raw.Budget != nil {
		p.Budget = *raw.Budget
	}
	if o.Budget != nil {
		p.Budget = *o.Budget
	}
	return p, nil
}

func policyOrStop(s string) WeaponPolicy {
	if s == "" {
		return PolicyStop
	}
	return WeaponPolicy(s)
}

func resolveRules(rc *RulesConfig) gacha.Rules {
	r := gacha.DefaultRules()
	if rc == nil {
		return r
	}
	r.Character = resolveCurve(r.Character, rc.Character)
	r.Weapon = resolveCurve(r.Weapon, rc.Weapon)
	r.CharacterNotable = resolveCurve(r.CharacterNotable, rc.CharacterNotable)
	r.WeaponNotable = resolveCurve(r.WeaponNotable, rc.WeaponNotable)
	if rc.FeaturedChance != nil {
		r.FeaturedChance = *rc.FeaturedChance
	}
	if rc.WeaponFeaturedChance != nil {
		r.WeaponFeaturedChance = *rc.WeaponFeaturedChance
	}
	if rc.RadianceAfter != nil {
		r.RadianceAfter = *rc.RadianceAfter
	}
	if rc.FateThreshold != nil {
		r.FateThreshold = *rc.FateThreshold
	}
	return r
}

func resolveCurve(c gacha.Curve, cc *CurveConfig) gacha.Curve {
	if cc == nil {
		return c
	}
	if cc.Base != nil {
		c.Base = *cc.Base
	}
	if cc.SoftStart != nil {
		c.SoftStart = *cc.SoftStart
	}
	if cc.Step != nil {
		c.Step = *cc.Step
	}
	if cc.Hard != nil {
		c.Hard = *cc.Hard
	}
	return c
}

func applyYields(p *Plan, y *YieldsConfig) {
	if y == nil {
		return
	}
	if y.CharacterNotable != nil {
		p.Yields.CharacterNotable = *y.CharacterNotable
	}
	if y.WeaponNotable != nil {
		p.Yields.WeaponNotable = *y.WeaponNotable
	}
	if y.Duplicate != nil {
		p.Yields.Duplicate = *y.Duplicate
	}
	if y.FirstCopy != nil {
		p.Yields.FirstCopy = *y.FirstCopy
	}
	if y.PerPull != nil {
		p.Exchange.PerPull = *y.PerPull
	}
}

func resolveSimulation(sc *SimulationConfig, o Overrides) SimulationSettings {
	s := SimulationSettings{
		Repetitions: DefaultRepetitions,
		ChunkSize:   DefaultChunkSize,
		Workers:     runtime.GOMAXPROCS(0),
	}
	if sc != nil {
		if sc.Repetitions != nil {
			s.Repetitions = *sc.Repetitions
		}
		if sc.ChunkSize != nil && *sc.ChunkSize > 0 {
			s.ChunkSize = *sc.ChunkSize
		}
		if sc.Workers != nil && *sc.Workers > 0 {
			s.Workers = *sc.Workers
		}
		if sc.Seed != nil {
			s.Seed = *sc.Seed
		}
		if sc.CarryOver != nil {
			s.CarryOver = *sc.CarryOver
		}
	}
	if o.Repetitions != nil {
		s.Repetitions = *o.Repetitions
	}
	if o.ChunkSize != nil && *o.ChunkSize > 0 {
		s.ChunkSize = *o.ChunkSize
	}
	if o.Workers != nil && *o.Workers > 0 {
		s.Workers = *o.Workers
	}
	if o.Seed != nil {
		s.Seed = *o.Seed
	}
	if o.CarryOver != nil {
		s.CarryOver = *o.CarryOver
	}
	return s
}
