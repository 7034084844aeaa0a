package gacha

import "errors"

var ErrRules = errors.New("invalid gacha rules")

// Rules bundles the probability model of both gacha systems.
type Rules struct {
	Character        Curve
	Weapon           Curve
	CharacterNotable Curve
	WeaponNotable    Curve

	FeaturedChance       float64 // character 50/50
	WeaponFeaturedChance float64 // weapon 75/25 featured vs standard
	RadianceAfter        int     // consecutive 50/50 losses that force the featured item; 0 disables
	FateThreshold        int     // fate points that force the chosen weapon
}

// DefaultRules returns the live game's rates.
func DefaultRules() Rules {
	return Rules{
		Character:            CharacterCurve,
		Weapon:               WeaponCurve,
		CharacterNotable:     CharacterNotableCurve,
		WeaponNotable:        WeaponNotableCurve,
		FeaturedChance:       0.5,
		WeaponFeaturedChance: 0.75,
		RadianceAfter:        2,
		FateThreshold:        1,
	}
}
