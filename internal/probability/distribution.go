// Package probability turns historical team and player statistics into
// calibrated outcome probabilities using a Gaussian model of point
// differentials, totals, and player stat lines.
package probability

import (
	"fmt"
	"math"

	"github.com/yourusername/edge-finder/internal/models"
)

// Direction selects which tail of the distribution a probability covers.
type Direction int

const (
	// Above is the probability the variable exceeds the threshold.
	Above Direction = iota
	// Below is the probability the variable falls short of the threshold.
	Below
)

// TailProbability computes the probability that a normally distributed
// variable with the given mean and standard deviation lands above or below
// the threshold. Output is clamped to [0,1]; extreme z-scores saturate to
// 0 or 1 instead of overflowing.
func TailProbability(mean, stddev, threshold float64, dir Direction) (float64, error) {
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("%w: mean %v", models.ErrInvalidParameter, mean)
	}
	if math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return 0, fmt.Errorf("%w: threshold %v", models.ErrInvalidParameter, threshold)
	}
	if math.IsNaN(stddev) || stddev <= 0 {
		return 0, fmt.Errorf("%w: stddev %v must be positive", models.ErrInvalidParameter, stddev)
	}

	z := (threshold - mean) / stddev
	below := normalCDF(z)

	p := below
	if dir == Above {
		p = 1 - below
	}
	return clampProbability(p), nil
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(z float64) float64 {
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
