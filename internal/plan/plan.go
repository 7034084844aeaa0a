package plan

import (
	"time"

	"github.com/xtding233/gacha-planner/internal/currency"
	"github.com/xtding233/gacha-planner/internal/gacha"
)

// GoalKind tells which gacha system a goal pulls on.
type GoalKind string

const (
	KindCharacter GoalKind = "character"
	KindWeapon    GoalKind = "weapon"
)

// WeaponPolicy decides what happens once the chosen weapon reaches its ceiling.
type WeaponPolicy string

const (
	// PolicyStop ends the weapon goal.
	PolicyStop WeaponPolicy = "stop"
	// PolicyContinue retargets the other featured weapon and keeps pulling.
	PolicyContinue WeaponPolicy = "continue"
)

// Banner is one entry of the banner catalog. Never mutated after loading.
type Banner struct {
	ID         string
	Start      time.Time
	End        time.Time
	Characters []string // featured characters in pull order, 0..2
	Weapons    [2]string
}

// Features reports whether id is a featured character of the banner.
func (b Banner) Features(id string) bool {
	for _, c := range b.Characters {
		if c == id {
			return true
		}
	}
	return false
}

// Active reports whether t falls inside the banner's run.
// Banners without dates are always active.
func (b Banner) Active(t time.Time) bool {
	if !b.Start.IsZero() && t.Before(b.Start) {
		return false
	}
	if !b.End.IsZero() && t.After(b.End) {
		return false
	}
	return true
}

// CharacterGoal spends Pulls on one featured character until MaxLevel is reached.
type CharacterGoal struct {
	ID       string `json:"id"`
	Pulls    int    `json:"pulls"`
	MaxLevel int    `json:"max_level"`
}

// WeaponGoal spends Pulls on the weapon banner toward Target.
type WeaponGoal struct {
	Target   string       `json:"target"`
	Pulls    int          `json:"pulls"`
	MaxLevel int          `json:"max_level"`
	Policy   WeaponPolicy `json:"policy"`
}

// BannerAllocation is everything planned for one banner.
type BannerAllocation struct {
	Characters []CharacterGoal `json:"characters,omitempty"`
	Weapon     *WeaponGoal     `json:"weapon,omitempty"`
}

// Allocation maps banner id to its planned pulls.
type Allocation map[string]BannerAllocation

// Clone returns a deep copy so callers can perturb allocations freely.
func (a Allocation) Clone() Allocation {
	out := make(Allocation, len(a))
	for id, ba := range a {
		c := BannerAllocation{Characters: append([]CharacterGoal(nil), ba.Characters...)}
		if ba.Weapon != nil {
			w := *ba.Weapon
			c.Weapon = &w
		}
		out[id] = c
	}
	return out
}

// TotalPulls sums every goal's budget.
func (a Allocation) TotalPulls() int {
	n := 0
	for _, ba := range a {
		for _, c := range ba.Characters {
			n += c.Pulls
		}
		if ba.Weapon != nil {
			n += ba.Weapon.Pulls
		}
	}
	return n
}

// StartState is the pity carried into the first banner.
type StartState struct {
	Character gacha.CharacterState
	Weapon    gacha.WeaponState
}

// Goal is an optimizer goal: one item on one banner with a priority label.
type Goal struct {
	Banner   string
	Kind     GoalKind
	Item     string
	Priority string
	MaxLevel int
	Policy   WeaponPolicy
}

// SimulationSettings are the resolved batch simulator knobs.
type SimulationSettings struct {
	Repetitions int
	ChunkSize   int
	Workers     int
	Seed        uint64
	CarryOver   bool
}

// Plan is a resolved, validated RawConfig ready for the engine.
type Plan struct {
	Version    string
	Rules      gacha.Rules
	Yields     currency.Yields
	Exchange   currency.Exchange
	Simulation SimulationSettings
	Banners    []Banner
	Start      StartState
	Allocation Allocation
	Goals      []Goal
	Budget     int
}

// Banner looks up a banner by id.
func (p Plan) Banner(id string) (Banner, bool) {
	for _, b := range p.Banners {
		if b.ID == id {
			return b, true
		}
	}
	return Banner{}, false
}
