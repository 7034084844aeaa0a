package currency

import "math"

// Exchange defines how much bonus currency buys one pull.
type Exchange struct {
	Name    string // e.g. "Masterless Starglitter"
	PerPull int    // currency per pull, e.g. 5
}

func DefaultExchange() Exchange {
	return Exchange{Name: "Masterless Starglitter", PerPull: 5}
}

// PullsFor returns how many (fractional) pulls amount buys.
func (e Exchange) PullsFor(amount float64) float64 {
	if amount <= 0 || e.PerPull <= 0 {
		return 0
	}
	return amount / float64(e.PerPull)
}

// WholePulls returns the pulls amount actually buys in the shop.
func (e Exchange) WholePulls(amount float64) int {
	return int(math.Floor(e.PullsFor(amount) + 1e-9))
}

// Yields is the bonus currency each kind of draw returns.
type Yields struct {
	CharacterNotable float64 // lower-tier draw on the character banner
	WeaponNotable    float64 // lower-tier draw on the weapon banner
	Duplicate        float64 // top-tier item already owned
	FirstCopy        float64 // top-tier item not owned yet
}

func DefaultYields() Yields {
	return Yields{
		CharacterNotable: 2,
		WeaponNotable:    2,
		Duplicate:        10,
		FirstCopy:        0,
	}
}
