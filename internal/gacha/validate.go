package gacha

import (
	"fmt"
	"math"
	"strings"
)

func validateProb(p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return ErrInvalidProb
	}
	if p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}

// Validate checks every curve and probability of the rule set.
func (r Rules) Validate() error {
	var errs []string

	curves := []struct {
		name string
		c    Curve
	}{
		{"character", r.Character},
		{"weapon", r.Weapon},
		{"character_notable", r.CharacterNotable},
		{"weapon_notable", r.WeaponNotable},
	}
	for _, cv := range curves {
		if err := cv.c.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("rules.%s: %v", cv.name, err))
		}
	}
	if err := validateProb(r.FeaturedChance); err != nil {
		errs = append(errs, "rules.featured_chance must be in [0,1]")
	}
	if err := validateProb(r.WeaponFeaturedChance); err != nil {
		errs = append(errs, "rules.weapon_featured_chance must be in [0,1]")
	}
	if r.RadianceAfter < 0 {
		errs = append(errs, "rules.radiance_after must be >= 0")
	}
	if r.FateThreshold < 1 {
		errs = append(errs, "rules.fate_threshold must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrRules, strings.Join(errs, "; "))
	}
	return nil
}
