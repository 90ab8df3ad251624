package settlement

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

var (
	half = decimal.NewFromFloat(0.5)
	one  = decimal.NewFromInt(1)
)

// RoundMoney rounds an amount to two decimal places.
func RoundMoney(amount float64) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ValidPrice reports whether a decimal price can be settled.
func ValidPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0) && price > 1.0
}

// Profit returns the rounded profit of one bet.
//
// Prices of EachWayThreshold and above are split evenly between a win leg
// and a place leg. The place leg only pays when the terms pay places and the
// runner finished inside them. Cheaper prices are settled as win bets.
// Non-runners and unusable prices return 0.
func Profit(price float64, pos models.Position, stake float64, terms PlaceTerms) float64 {
	if pos.IsNonRunner() || !ValidPrice(price) || math.IsNaN(stake) {
		return 0
	}

	p := decimal.NewFromFloat(price)
	s := decimal.NewFromFloat(stake)

	if price < EachWayThreshold {
		if pos.IsWin() {
			return p.Sub(one).Mul(s).Round(2).InexactFloat64()
		}
		return s.Neg().Round(2).InexactFloat64()
	}

	leg := half.Mul(s)

	winLeg := leg.Neg()
	if pos.IsWin() {
		winLeg = p.Sub(one).Mul(leg)
	}

	placeLeg := leg.Neg()
	if terms.PaysPlaces() && pos.WithinPlaces(terms.Places) {
		placeLeg = p.Mul(decimal.NewFromFloat(terms.Fraction)).Sub(one).Mul(leg)
	}

	return winLeg.Add(placeLeg).Round(2).InexactFloat64()
}

// Classify returns the outcome of a bet at the given price and terms.
func Classify(price float64, pos models.Position, terms PlaceTerms) models.Outcome {
	switch {
	case pos.IsNonRunner():
		return models.OutcomeNonRunner
	case pos.IsWin():
		return models.OutcomeWin
	case price >= EachWayThreshold && terms.PaysPlaces() && pos.WithinPlaces(terms.Places):
		return models.OutcomePlace
	default:
		return models.OutcomeLoss
	}
}
