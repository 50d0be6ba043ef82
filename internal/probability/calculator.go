package probability

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/models"
)

// SportParams holds the empirically chosen constants for one sport. They are
// configuration inputs, not derived values; the variance numbers describe the
// league-typical spread of margins and totals since per-team variance is
// rarely available.
type SportParams struct {
	HomeAdvantage  float64
	MarginVariance float64
	TotalVariance  float64
}

// Params configures a Calculator.
type Params struct {
	// RecentFormWeight is the weight given to a player's recent-form average
	// when blending with the season average. Documented fallback: 0.4.
	RecentFormWeight float64
	Sports           map[string]SportParams
	// PropVariance maps a statistic category (e.g. "passing_yards") to the
	// variance used for player prop distributions.
	PropVariance map[string]float64
}

// Calculator produces probability estimates for the four supported outcome
// families. It is stateless after construction and safe for concurrent use.
type Calculator struct {
	params Params
	logger *logrus.Logger
}

// NewCalculator validates the supplied constants once and returns a ready
// calculator.
func NewCalculator(params Params, logger *logrus.Logger) (*Calculator, error) {
	if params.RecentFormWeight < 0 || params.RecentFormWeight > 1 {
		return nil, fmt.Errorf("%w: recent-form weight %v outside [0,1]", models.ErrInvalidParameter, params.RecentFormWeight)
	}
	for sport, sp := range params.Sports {
		if sp.MarginVariance <= 0 || sp.TotalVariance <= 0 {
			return nil, fmt.Errorf("%w: non-positive variance configured for sport %s", models.ErrInvalidParameter, sport)
		}
	}
	for category, v := range params.PropVariance {
		if v <= 0 {
			return nil, fmt.Errorf("%w: non-positive variance configured for category %s", models.ErrInvalidParameter, category)
		}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Calculator{params: params, logger: logger}, nil
}

// GameOutcome estimates the probability that the home team wins. The mean
// point differential is the difference in net ratings plus the home-field
// advantage constant, which is suppressed at neutral sites.
func (c *Calculator) GameOutcome(ctx models.GameContext) (*models.ProbabilityEstimate, error) {
	mean, stddev, err := c.marginDistribution(ctx)
	if err != nil {
		return nil, err
	}

	p, err := TailProbability(mean, stddev, 0, Above)
	if err != nil {
		return nil, err
	}

	return c.newEstimate(
		fmt.Sprintf("%s wins", ctx.Home.TeamID),
		p, mean, stddev,
		c.sampleConfidence(ctx.Home.SampleSize, ctx.Away.SampleSize),
	), nil
}

// SpreadCover estimates the probability that the home team covers the spread.
// The line is quoted as the home handicap (home favored by 3.5 means
// line = -3.5), so the home side covers when the margin exceeds -line.
func (c *Calculator) SpreadCover(ctx models.GameContext, line float64) (*models.ProbabilityEstimate, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return nil, fmt.Errorf("%w: spread line %v", models.ErrInvalidParameter, line)
	}

	mean, stddev, err := c.marginDistribution(ctx)
	if err != nil {
		return nil, err
	}

	p, err := TailProbability(mean, stddev, -line, Above)
	if err != nil {
		return nil, err
	}

	return c.newEstimate(
		fmt.Sprintf("%s covers %+.1f", ctx.Home.TeamID, line),
		p, mean, stddev,
		c.sampleConfidence(ctx.Home.SampleSize, ctx.Away.SampleSize),
	), nil
}

// TotalPoints estimates the probability that combined scoring goes over the
// market total line.
func (c *Calculator) TotalPoints(ctx models.GameContext, line float64) (*models.ProbabilityEstimate, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return nil, fmt.Errorf("%w: total line %v", models.ErrInvalidParameter, line)
	}
	if err := c.validateGameInput(ctx); err != nil {
		return nil, err
	}

	sp, err := c.sportParams(ctx.Sport)
	if err != nil {
		return nil, err
	}

	mean := ctx.Home.PointsScored + ctx.Away.PointsScored
	stddev := math.Sqrt(sp.TotalVariance)

	p, err := TailProbability(mean, stddev, line, Above)
	if err != nil {
		return nil, err
	}

	return c.newEstimate(
		fmt.Sprintf("over %.1f", line),
		p, mean, stddev,
		c.sampleConfidence(ctx.Home.SampleSize, ctx.Away.SampleSize),
	), nil
}

// PlayerProp estimates the probability that a player goes over the prop line.
// The expected performance blends the season average with recent form and is
// adjusted multiplicatively by the opponent's defensive-strength factor.
func (c *Calculator) PlayerProp(ctx models.PlayerPerformanceContext, line float64) (*models.ProbabilityEstimate, error) {
	if math.IsNaN(line) || math.IsInf(line, 0) {
		return nil, fmt.Errorf("%w: prop line %v", models.ErrInvalidParameter, line)
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if ctx.SampleSize < 1 {
		return nil, fmt.Errorf("%w: player %s has no games played", models.ErrInsufficientData, ctx.PlayerID)
	}

	variance, ok := c.params.PropVariance[ctx.StatCategory]
	if !ok {
		return nil, fmt.Errorf("%w: no variance configured for category %s", models.ErrInvalidParameter, ctx.StatCategory)
	}

	w := c.params.RecentFormWeight
	mean := ((1-w)*ctx.SeasonAverage + w*ctx.RecentAverage) * ctx.OpponentDefFactor
	stddev := math.Sqrt(variance)

	p, err := TailProbability(mean, stddev, line, Above)
	if err != nil {
		return nil, err
	}

	return c.newEstimate(
		fmt.Sprintf("%s %s over %.1f", ctx.PlayerID, ctx.StatCategory, line),
		p, mean, stddev,
		c.playerConfidence(ctx),
	), nil
}

// marginDistribution derives the home-minus-away point differential
// distribution shared by the game-outcome and spread calculations.
func (c *Calculator) marginDistribution(ctx models.GameContext) (mean, stddev float64, err error) {
	if err := c.validateGameInput(ctx); err != nil {
		return 0, 0, err
	}

	sp, err := c.sportParams(ctx.Sport)
	if err != nil {
		return 0, 0, err
	}

	mean = ctx.Home.NetRating() - ctx.Away.NetRating()
	if !ctx.NeutralSite {
		mean += sp.HomeAdvantage
	}
	return mean, math.Sqrt(sp.MarginVariance), nil
}

func (c *Calculator) validateGameInput(ctx models.GameContext) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if !ctx.Home.HasSample() {
		return fmt.Errorf("%w: team %s has no games counted", models.ErrInsufficientData, ctx.Home.TeamID)
	}
	if !ctx.Away.HasSample() {
		return fmt.Errorf("%w: team %s has no games counted", models.ErrInsufficientData, ctx.Away.TeamID)
	}
	return nil
}

func (c *Calculator) sportParams(sport string) (SportParams, error) {
	sp, ok := c.params.Sports[sport]
	if !ok {
		return SportParams{}, fmt.Errorf("%w: no constants configured for sport %s", models.ErrInvalidParameter, sport)
	}
	return sp, nil
}

// sampleConfidence scores confidence from the smaller of the two sample sizes.
func (c *Calculator) sampleConfidence(homeGames, awayGames int) float64 {
	games := homeGames
	if awayGames < games {
		games = awayGames
	}
	confidence := 0.5
	switch {
	case games >= 10:
		confidence += 0.3
	case games >= 5:
		confidence += 0.15
	}
	return confidence
}

// playerConfidence scores confidence from sample size and the consistency of
// recent form against the season average.
func (c *Calculator) playerConfidence(ctx models.PlayerPerformanceContext) float64 {
	confidence := 0.5
	switch {
	case ctx.SampleSize >= 10:
		confidence += 0.2
	case ctx.SampleSize >= 5:
		confidence += 0.1
	}
	if ctx.SeasonAverage > 0 && ctx.RecentSampleSize >= 3 {
		drift := math.Abs(ctx.RecentAverage-ctx.SeasonAverage) / ctx.SeasonAverage
		confidence += math.Max(0, 1-drift) * 0.3
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

func (c *Calculator) newEstimate(label string, p, mean, stddev, confidence float64) *models.ProbabilityEstimate {
	return &models.ProbabilityEstimate{
		OutcomeLabel: label,
		Probability:  p,
		Confidence:   confidence,
		Mean:         mean,
		StdDev:       stddev,
		CalculatedAt: time.Now().UTC(),
	}
}
