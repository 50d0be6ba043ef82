// Package odds provides pure conversion functions between American odds,
// decimal odds, and implied probability.
package odds

import (
	"fmt"
	"math"

	"github.com/yourusername/edge-finder/internal/models"
)

// AmericanToDecimal converts American odds to decimal odds. Valid American
// odds are >= +100 or <= -100; anything in between has no meaning in the
// quoting format.
func AmericanToDecimal(american int) (float64, error) {
	switch {
	case american >= 100:
		return 1.0 + float64(american)/100.0, nil
	case american <= -100:
		return 1.0 + 100.0/math.Abs(float64(american)), nil
	default:
		return 0, fmt.Errorf("%w: %d", models.ErrInvalidOdds, american)
	}
}

// DecimalToImpliedProbability converts decimal odds to the market's implied
// probability, before any vig removal.
func DecimalToImpliedProbability(dec float64) (float64, error) {
	if math.IsNaN(dec) || dec < 1.0 {
		return 0, fmt.Errorf("%w: decimal odds %v below 1.0", models.ErrInvalidOdds, dec)
	}
	return 1.0 / dec, nil
}

// AmericanToImpliedProbability converts American odds directly to implied
// probability.
func AmericanToImpliedProbability(american int) (float64, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return DecimalToImpliedProbability(dec)
}

// RemoveVig normalizes raw implied probabilities for a set of mutually
// exclusive outcomes so they sum to 1.0, removing the bookmaker overround.
// Order is preserved.
func RemoveVig(probs []float64) ([]float64, error) {
	sum := 0.0
	for _, p := range probs {
		if math.IsNaN(p) {
			return nil, fmt.Errorf("%w: probability is NaN", models.ErrDegenerateMarket)
		}
		sum += p
	}
	if sum <= 0 {
		return nil, fmt.Errorf("%w: sum %v", models.ErrDegenerateMarket, sum)
	}

	fair := make([]float64, len(probs))
	for i, p := range probs {
		fair[i] = p / sum
	}
	return fair, nil
}

// ImpliedToAmerican converts a probability back into fair American odds,
// rounding to the nearest integer. Used to express a consensus probability
// in the market's quoting format.
func ImpliedToAmerican(p float64) (int, error) {
	if math.IsNaN(p) || p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: probability %v outside (0,1)", models.ErrInvalidParameter, p)
	}
	if p >= 0.5 {
		return -int(math.Round(p / (1 - p) * 100)), nil
	}
	return int(math.Round((1 - p) / p * 100)), nil
}

// ConsensusProbability averages the implied probabilities of the same outcome
// quoted by multiple bookmakers.
func ConsensusProbability(prices []int) (float64, error) {
	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: no quotes supplied", models.ErrInvalidOdds)
	}
	sum := 0.0
	for _, price := range prices {
		p, err := AmericanToImpliedProbability(price)
		if err != nil {
			return 0, err
		}
		sum += p
	}
	return sum / float64(len(prices)), nil
}
