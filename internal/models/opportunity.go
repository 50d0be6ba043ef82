package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProbabilityEstimate is the engine's output for one outcome. It carries the
// mean and standard deviation that produced the probability so results are
// reproducible and auditable. Never mutated after creation; a fresh estimate
// supersedes an old one.
type ProbabilityEstimate struct {
	OutcomeLabel string    `db:"outcome_label" json:"outcome_label"`
	Probability  float64   `db:"probability" json:"probability" validate:"gte=0,lte=1"`
	Confidence   float64   `db:"confidence" json:"confidence" validate:"gte=0,lte=1"`
	Mean         float64   `db:"mean" json:"mean"`
	StdDev       float64   `db:"std_dev" json:"std_dev"`
	CalculatedAt time.Time `db:"calculated_at" json:"calculated_at"`
}

// Opportunity pairs a model estimate with the market's implied probability
// for the same outcome. Ephemeral: created by the ranker, consumed by the
// presentation layer or persisted verbatim as a recommendation.
type Opportunity struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	Sport              string          `db:"sport" json:"sport"`
	EventID            string          `db:"event_id" json:"event_id"`
	MarketType         string          `db:"market_type" json:"market_type"`
	OutcomeLabel       string          `db:"outcome_label" json:"outcome_label"`
	Bookmaker          string          `db:"bookmaker" json:"bookmaker"`
	Price              int             `db:"price" json:"price"`
	DecimalOdds        float64         `db:"decimal_odds" json:"decimal_odds"`
	ModelProbability   float64         `db:"model_probability" json:"model_probability"`
	ImpliedProbability float64         `db:"implied_probability" json:"implied_probability"`
	Edge               float64         `db:"edge" json:"edge"`
	ExpectedValue      float64         `db:"expected_value" json:"expected_value"`
	SuggestedStake     decimal.Decimal `db:"suggested_stake" json:"suggested_stake"`
	Mean               float64         `db:"mean" json:"mean"`
	StdDev             float64         `db:"std_dev" json:"std_dev"`
	Confidence         float64         `db:"confidence" json:"confidence"`
	GeneratedAt        time.Time       `db:"generated_at" json:"generated_at"`
}
