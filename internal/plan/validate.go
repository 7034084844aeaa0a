package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidConfig = errors.New("config validation failed")
	// ErrUnknownTarget: a weapon goal targets a weapon its banner does not feature.
	ErrUnknownTarget = errors.New("weapon target not featured on banner")
)

// ValidationError lists every problem found in one config.
type ValidationError struct {
	Problems []string
	causes   []error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.causes...)
}

func (e *ValidationError) add(cause error, format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
	if cause != nil {
		e.causes = append(e.causes, cause)
	}
}

// ValidateRaw checks semantic constraints of a RawConfig.
// Allocation entries for unknown banners are not errors; the simulator skips them.
func ValidateRaw(cfg RawConfig) error {
	errs := &ValidationError{}

	if cfg.Budget != nil && *cfg.Budget < 0 {
		errs.add(nil, "budget must be >= 0")
	}

	// simulation
	if s := cfg.Simulation; s != nil {
		if s.ChunkSize != nil && *s.ChunkSize < 0 {
			errs.add(nil, "simulation.chunk_size must be >= 0")
		}
		if s.Workers != nil && *s.Workers < 0 {
			errs.add(nil, "simulation.workers must be >= 0")
		}
	}

	// yields
	if y := cfg.Yields; y != nil {
		for name, v := range map[string]*float64{
			"character_notable": y.CharacterNotable,
			"weapon_notable":    y.WeaponNotable,
			"duplicate":         y.Duplicate,
			"first_copy":        y.FirstCopy,
		} {
			if v != nil && *v < 0 {
				errs.add(nil, "yields.%s must be >= 0", name)
			}
		}
		if y.PerPull != nil && *y.PerPull <= 0 {
			errs.add(nil, "yields.per_pull must be >= 1")
		}
	}

	// banners
	banners := make(map[string]BannerConfig, len(cfg.Banners))
	for i, b := range cfg.Banners {
		if b.ID == "" {
			errs.add(nil, "banners[%d].id is required", i)
			continue
		}
		if _, dup := banners[b.ID]; dup {
			errs.add(nil, "banners[%d].id %q is duplicated", i, b.ID)
		}
		banners[b.ID] = b
		if len(b.Characters) > 2 {
			errs.add(nil, "banner %q features at most 2 characters", b.ID)
		}
		if len(b.Weapons) != 0 && len(b.Weapons) != 2 {
			errs.add(nil, "banner %q must feature exactly 2 weapons", b.ID)
		}
		start, serr := parseDate(b.Start)
		if serr != nil {
			errs.add(nil, "banner %q start: %v", b.ID, serr)
		}
		end, eerr := parseDate(b.End)
		if eerr != nil {
			errs.add(nil, "banner %q end: %v", b.ID, eerr)
		}
		if serr == nil && eerr == nil && !start.IsZero() && !end.IsZero() && end.Before(start) {
			errs.add(nil, "banner %q ends before it starts", b.ID)
		}
	}

	// start
	if s := cfg.Start; s != nil {
		if s.Character.Pity < 0 || s.Weapon.Pity < 0 {
			errs.add(nil, "start pity must be >= 0")
		}
		if s.Character.Losses < 0 {
			errs.add(nil, "start.character.losses must be >= 0")
		}
		if s.Weapon.FatePoints < 0 || s.Weapon.FatePoints > 2 {
			errs.add(nil, "start.weapon.fate_points must be in [0,2]")
		}
	}

	// allocation
	for id, ac := range cfg.Allocation {
		for j, c := range ac.Characters {
			if c.Pulls < 0 {
				errs.add(nil, "allocation[%s].characters[%d].pulls must be >= 0", id, j)
			}
			if c.MaxLevel < 0 {
				errs.add(nil, "allocation[%s].characters[%d].max_level must be >= 0", id, j)
			}
		}
		if w := ac.Weapon; w != nil {
			if w.Pulls < 0 {
				errs.add(nil, "allocation[%s].weapon.pulls must be >= 0", id)
			}
			if w.MaxLevel < 0 {
				errs.add(nil, "allocation[%s].weapon.max_level must be >= 0", id)
			}
			if !validPolicy(w.Policy) {
				errs.add(nil, "allocation[%s].weapon.policy must be one of: stop, continue", id)
			}
			if b, ok := banners[id]; ok && !contains(b.Weapons, w.Target) {
				errs.add(ErrUnknownTarget, "allocation[%s].weapon.target %q is not featured on the banner", id, w.Target)
			}
		}
	}

	// goals
	for i, g := range cfg.Goals {
		switch GoalKind(g.Kind) {
		case KindCharacter, KindWeapon:
		default:
			errs.add(nil, "goals[%d].kind must be one of: character, weapon", i)
		}
		switch g.Priority {
		case "highest", "high", "medium", "skip":
		default:
			errs.add(nil, "goals[%d].priority must be one of: highest, high, medium, skip", i)
		}
		if g.Item == "" {
			errs.add(nil, "goals[%d].item is required", i)
		}
		if g.MaxLevel < 0 {
			errs.add(nil, "goals[%d].max_level must be >= 0", i)
		}
		if !validPolicy(g.Policy) {
			errs.add(nil, "goals[%d].policy must be one of: stop, continue", i)
		}
		if b, ok := banners[g.Banner]; ok && GoalKind(g.Kind) == KindWeapon && !contains(b.Weapons, g.Item) {
			errs.add(ErrUnknownTarget, "goals[%d].item %q is not featured on banner %q", i, g.Item, g.Banner)
		}
	}

	if len(errs.Problems) > 0 {
		return errs
	}
	return nil
}

func validPolicy(p string) bool {
	switch WeaponPolicy(p) {
	case "", PolicyStop, PolicyContinue:
		return true
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, s)
}
