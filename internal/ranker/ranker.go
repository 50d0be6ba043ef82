// Package ranker joins model probability estimates against market odds to
// produce ranked betting opportunities.
package ranker

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/odds"
)

// Candidate pairs a probability estimate with the market quote for the same
// outcome.
type Candidate struct {
	Estimate models.ProbabilityEstimate
	Quote    models.OddsQuote
}

// Config holds the ranker's thresholds and staking inputs.
type Config struct {
	// MinEdge is the minimum model-minus-implied margin an opportunity must
	// clear. Documented fallback: 0.05.
	MinEdge float64
	// KellyFraction scales the Kelly-optimal stake; 0 disables staking.
	KellyFraction float64
	// Bankroll is the stake base in currency units.
	Bankroll decimal.Decimal
}

// Ranker filters and orders candidate bets by expected value.
type Ranker struct {
	cfg    Config
	logger *logrus.Logger
}

// NewRanker creates a ranker with the given thresholds.
func NewRanker(cfg Config, logger *logrus.Logger) *Ranker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Ranker{cfg: cfg, logger: logger}
}

// Rank converts each candidate's quote to an implied probability, computes
// edge and expected value, drops candidates below the minimum edge, and
// returns the remainder ordered by descending expected value. Ties break by
// descending edge, then ascending outcome label for determinism. Candidates
// with invalid quotes are skipped and logged, never aborting the batch.
func (r *Ranker) Rank(candidates []Candidate) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(candidates))
	for _, c := range candidates {
		opp, err := r.evaluate(c, nil)
		if err != nil {
			r.logger.WithError(err).WithField("outcome", c.Quote.OutcomeLabel).Warn("Skipping candidate")
			continue
		}
		if opp != nil {
			out = append(out, *opp)
		}
	}
	sortOpportunities(out)
	return out
}

// RankMarket ranks candidates for mutually exclusive outcomes of one market,
// removing the bookmaker vig before computing edges.
func (r *Ranker) RankMarket(candidates []Candidate) ([]models.Opportunity, error) {
	raw := make([]float64, len(candidates))
	for i, c := range candidates {
		p, err := odds.AmericanToImpliedProbability(c.Quote.Price)
		if err != nil {
			return nil, fmt.Errorf("quote for %s: %w", c.Quote.OutcomeLabel, err)
		}
		raw[i] = p
	}

	fair, err := odds.RemoveVig(raw)
	if err != nil {
		return nil, err
	}

	out := make([]models.Opportunity, 0, len(candidates))
	for i, c := range candidates {
		opp, err := r.evaluate(c, &fair[i])
		if err != nil {
			return nil, err
		}
		if opp != nil {
			out = append(out, *opp)
		}
	}
	sortOpportunities(out)
	return out, nil
}

// evaluate builds one opportunity, or nil when the edge is below threshold.
// impliedOverride carries a vig-removed probability when the candidate was
// part of a full market.
func (r *Ranker) evaluate(c Candidate, impliedOverride *float64) (*models.Opportunity, error) {
	if err := c.Quote.Validate(); err != nil {
		return nil, err
	}

	dec, err := odds.AmericanToDecimal(c.Quote.Price)
	if err != nil {
		return nil, err
	}

	implied := 0.0
	if impliedOverride != nil {
		implied = *impliedOverride
	} else {
		implied, err = odds.DecimalToImpliedProbability(dec)
		if err != nil {
			return nil, err
		}
	}

	p := c.Estimate.Probability
	edge := p - implied
	if edge < r.cfg.MinEdge {
		return nil, nil
	}

	ev := p*(dec-1) - (1 - p)

	return &models.Opportunity{
		ID:                 uuid.New(),
		Sport:              c.Quote.Sport,
		EventID:            c.Quote.EventID,
		MarketType:         c.Quote.MarketType,
		OutcomeLabel:       c.Quote.OutcomeLabel,
		Bookmaker:          c.Quote.Bookmaker,
		Price:              c.Quote.Price,
		DecimalOdds:        dec,
		ModelProbability:   p,
		ImpliedProbability: implied,
		Edge:               edge,
		ExpectedValue:      ev,
		SuggestedStake:     r.kellyStake(p, dec),
		Mean:               c.Estimate.Mean,
		StdDev:             c.Estimate.StdDev,
		Confidence:         c.Estimate.Confidence,
		GeneratedAt:        time.Now().UTC(),
	}, nil
}

// kellyStake sizes a stake with the fractional Kelly criterion, rounded to
// cents. Returns zero when staking is disabled or the bet has no positive
// Kelly fraction.
func (r *Ranker) kellyStake(p, dec float64) decimal.Decimal {
	if r.cfg.KellyFraction <= 0 || r.cfg.Bankroll.IsZero() || dec <= 1 {
		return decimal.Zero
	}
	b := dec - 1
	kelly := (b*p - (1 - p)) / b
	if kelly <= 0 {
		return decimal.Zero
	}
	stake := r.cfg.Bankroll.
		Mul(decimal.NewFromFloat(kelly)).
		Mul(decimal.NewFromFloat(r.cfg.KellyFraction))
	return stake.Round(2)
}

// Sort orders opportunities the way the ranker does: descending expected
// value, then descending edge, then ascending label. Exposed for callers that
// merge opportunities from several markets.
func Sort(opps []models.Opportunity) {
	sortOpportunities(opps)
}

func sortOpportunities(opps []models.Opportunity) {
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].ExpectedValue != opps[j].ExpectedValue {
			return opps[i].ExpectedValue > opps[j].ExpectedValue
		}
		if opps[i].Edge != opps[j].Edge {
			return opps[i].Edge > opps[j].Edge
		}
		return opps[i].OutcomeLabel < opps[j].OutcomeLabel
	})
}
