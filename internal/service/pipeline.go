package service

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/probability"
	"github.com/yourusername/edge-finder/internal/ranker"
)

// NewCalculatorFromConfig builds the probability calculator from the
// analysis configuration section.
func NewCalculatorFromConfig(cfg *config.Config, logger *logrus.Logger) (*probability.Calculator, error) {
	sports := make(map[string]probability.SportParams, len(cfg.Analysis.Sports))
	for sport, constants := range cfg.Analysis.Sports {
		sports[sport] = probability.SportParams{
			HomeAdvantage:  constants.HomeAdvantage,
			MarginVariance: constants.MarginVariance,
			TotalVariance:  constants.TotalVariance,
		}
	}

	return probability.NewCalculator(probability.Params{
		RecentFormWeight: cfg.Analysis.RecentFormWeight,
		Sports:           sports,
		PropVariance:     cfg.Analysis.PropVariance,
	}, logger)
}

// NewRankerFromConfig builds the opportunity ranker from the analysis
// configuration section.
func NewRankerFromConfig(cfg *config.Config, logger *logrus.Logger) *ranker.Ranker {
	return ranker.NewRanker(ranker.Config{
		MinEdge:       cfg.Analysis.MinEdge,
		KellyFraction: cfg.Analysis.KellyFraction,
		Bankroll:      decimal.NewFromFloat(cfg.Analysis.Bankroll),
	}, logger)
}
