package gacha

// Outcome reports what one pull produced.
type Outcome int

const (
	Miss          Outcome = iota // no top-tier item
	Featured                     // the featured character, or the chosen weapon
	FeaturedOther                // the featured weapon that was not chosen
	Standard                     // a non-featured top-tier item
)

func (o Outcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case Featured:
		return "featured"
	case FeaturedOther:
		return "featured_other"
	case Standard:
		return "standard"
	}
	return "unknown"
}

// Hit reports whether a top-tier item occurred.
func (o Outcome) Hit() bool { return o != Miss }

// CharacterState is the character banner pity carried from pull to pull.
type CharacterState struct {
	Pity       int  // pulls since the last top-tier item
	Guaranteed bool // next top-tier item is the featured one
	Losses     int  // consecutive 50/50 losses
}

// WeaponState is the weapon banner pity carried from pull to pull.
type WeaponState struct {
	Pity       int
	Guaranteed bool
	FatePoints int // epitomized path progress toward the chosen weapon
}

// PullCharacter performs one character banner pull and returns the new state.
// - Pity increments, and the curve decides whether a top-tier item occurs.
// - On hit, Pity resets. A guarantee forces the featured item and clears itself.
// - Otherwise RadianceAfter consecutive losses force the featured item,
// else a FeaturedChance coin decides; a loss sets the guarantee and counts the loss.
// - Any featured result resets Losses.
func PullCharacter(s CharacterState, r Rules, rng RandomSource) (CharacterState, Outcome) {
	s.Pity++
	if !chance(r.Character.Prob(s.Pity), rng) {
		return s, Miss
	}
	s.Pity = 0

	switch {
	case s.Guaranteed:
		s.Guaranteed = false
		s.Losses = 0
		return s, Featured
	case r.RadianceAfter > 0 && s.Losses >= r.RadianceAfter:
		s.Losses = 0
		return s, Featured
	case chance(r.FeaturedChance, rng):
		s.Losses = 0
		return s, Featured
	}

	s.Guaranteed = true
	s.Losses++
	return s, Standard
}

// WeaponPull is the result of one weapon banner pull.
type WeaponPull struct {
	Outcome Outcome
	Item    string // weapon id for Featured/FeaturedOther; empty otherwise
}

// PullWeapon performs one weapon banner pull toward target, one of featured.
// - FatePoints >= FateThreshold forces target and resets FatePoints.
// - A guarantee picks one featured weapon 50/50; otherwise WeaponFeaturedChance
// picks a featured weapon 50/50 and the rest is a standard item.
// - The wrong featured weapon or a standard item adds a fate point, capped at
// the threshold; a standard item also sets the guarantee.
func PullWeapon(s WeaponState, target string, featured [2]string, r Rules, rng RandomSource) (WeaponState, WeaponPull) {
	s.Pity++
	if !chance(r.Weapon.Prob(s.Pity), rng) {
		return s, WeaponPull{Outcome: Miss}
	}
	s.Pity = 0

	if target != "" && s.FatePoints >= r.FateThreshold {
		s.FatePoints = 0
		s.Guaranteed = false
		return s, WeaponPull{Outcome: Featured, Item: target}
	}

	if s.Guaranteed || chance(r.WeaponFeaturedChance, rng) {
		s.Guaranteed = false
		item := featured[0]
		if chance(0.5, rng) {
			item = featured[1]
		}
		if item == target {
			s.FatePoints = 0
			return s, WeaponPull{Outcome: Featured, Item: item}
		}
		s.FatePoints = min(s.FatePoints+1, r.FateThreshold)
		return s, WeaponPull{Outcome: FeaturedOther, Item: item}
	}

	s.Guaranteed = true
	s.FatePoints = min(s.FatePoints+1, r.FateThreshold)
	return s, WeaponPull{Outcome: Standard}
}
