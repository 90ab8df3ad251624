// Package settlement prices issued tips against race results.
package settlement

import "strings"

// EachWayThreshold is the decimal price at or above which a bet is settled
// each-way rather than win-only.
const EachWayThreshold = 5.0

// PlaceTerms are the each-way fraction and number of paid places for a race.
type PlaceTerms struct {
	Fraction float64
	Places   int
}

// WinOnly is used when no each-way terms apply.
var WinOnly = PlaceTerms{Fraction: 0, Places: 1}

// PaysPlaces reports whether the terms pay out on a placed finish.
func (t PlaceTerms) PaysPlaces() bool {
	return t.Places > 1 && t.Fraction > 0
}

// IsHandicap reports whether a race name marks a handicap.
func IsHandicap(raceName string) bool {
	return strings.Contains(strings.ToLower(raceName), "hcp")
}

// ResolvePlaceTerms returns the place terms for a race. Rules are checked in
// order and the first match wins. A runner count of zero or less means the
// field size is unknown and falls through to win-only.
func ResolvePlaceTerms(runners int, raceName string) PlaceTerms {
	handicap := IsHandicap(raceName)

	switch {
	case handicap && runners >= 16:
		return PlaceTerms{Fraction: 0.25, Places: 4}
	case handicap && runners >= 12 && runners <= 15:
		return PlaceTerms{Fraction: 0.25, Places: 3}
	case runners >= 8:
		return PlaceTerms{Fraction: 0.20, Places: 3}
	case runners >= 5 && runners <= 7:
		return PlaceTerms{Fraction: 0.25, Places: 2}
	default:
		return WinOnly
	}
}
