package probability

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/edge-finder/internal/models"
)

// TestTailProbabilitySymmetry verifies P(X > mean) == 0.5 for any stddev
func TestTailProbabilitySymmetry(t *testing.T) {
	for _, stddev := range []float64{0.001, 1, 10, 250} {
		p, err := TailProbability(42.0, stddev, 42.0, Above)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, p, 1e-9, "stddev %v", stddev)
	}
}

// TestTailProbabilityHomeFavoredScenario checks mean=3, stddev=10, threshold=0
func TestTailProbabilityHomeFavoredScenario(t *testing.T) {
	p, err := TailProbability(3.0, 10.0, 0, Above)
	require.NoError(t, err)
	assert.InDelta(t, 0.618, p, 0.001)
}

// TestTailProbabilityMonotonicity verifies the above-tail probability is
// non-increasing as the threshold rises
func TestTailProbabilityMonotonicity(t *testing.T) {
	prev := 1.1
	for threshold := -30.0; threshold <= 30.0; threshold += 0.5 {
		p, err := TailProbability(5.0, 8.0, threshold, Above)
		require.NoError(t, err)
		assert.LessOrEqual(t, p, prev, "threshold %v", threshold)
		prev = p
	}
}

// TestTailProbabilityComplement verifies above and below tails sum to 1
func TestTailProbabilityComplement(t *testing.T) {
	above, err := TailProbability(10, 4, 12, Above)
	require.NoError(t, err)
	below, err := TailProbability(10, 4, 12, Below)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, above+below, 1e-9)
}

// TestTailProbabilitySaturation verifies tiny stddev saturates to 0 or 1
// instead of overflowing
func TestTailProbabilitySaturation(t *testing.T) {
	p, err := TailProbability(100.0, 1e-12, 0, Above)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p)

	p, err = TailProbability(-100.0, 1e-12, 0, Above)
	require.NoError(t, err)
	assert.Equal(t, 0.0, p)
}

// TestTailProbabilityInvalidParameters tests stddev and NaN validation
func TestTailProbabilityInvalidParameters(t *testing.T) {
	_, err := TailProbability(0, 0, 0, Above)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = TailProbability(0, -1, 0, Above)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = TailProbability(math.NaN(), 1, 0, Above)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)

	_, err = TailProbability(0, 1, math.Inf(1), Below)
	assert.ErrorIs(t, err, models.ErrInvalidParameter)
}

// TestTailProbabilityAccuracy spot-checks the CDF against known values to
// four decimal digits
func TestTailProbabilityAccuracy(t *testing.T) {
	// P(Z < 1.96) = 0.9750, P(Z < 1.0) = 0.8413
	p, err := TailProbability(0, 1, 1.96, Below)
	require.NoError(t, err)
	assert.InDelta(t, 0.9750, p, 0.0001)

	p, err = TailProbability(0, 1, 1.0, Below)
	require.NoError(t, err)
	assert.InDelta(t, 0.8413, p, 0.0001)
}
