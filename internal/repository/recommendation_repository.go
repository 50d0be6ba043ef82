package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/models"
)

// PostgresRecommendationRepository implements RecommendationRepository for PostgreSQL
type PostgresRecommendationRepository struct {
	db *database.DB
}

// NewPostgresRecommendationRepository creates a new recommendation repository
func NewPostgresRecommendationRepository(db *database.DB) RecommendationRepository {
	return &PostgresRecommendationRepository{db: db}
}

const recommendationColumns = `id, sport, event_id, market_type, outcome_label, bookmaker, price,
	decimal_odds, model_probability, implied_probability, edge, expected_value,
	suggested_stake, mean, std_dev, confidence, generated_at`

// InsertBatch persists a ranked batch of opportunities using a bulk COPY
func (r *PostgresRecommendationRepository) InsertBatch(ctx context.Context, opportunities []*models.Opportunity) error {
	if len(opportunities) == 0 {
		return nil
	}

	columns := []string{
		"id", "sport", "event_id", "market_type", "outcome_label", "bookmaker", "price",
		"decimal_odds", "model_probability", "implied_probability", "edge", "expected_value",
		"suggested_stake", "mean", "std_dev", "confidence", "generated_at",
	}

	rows := make([][]interface{}, len(opportunities))
	for i, o := range opportunities {
		rows[i] = []interface{}{
			o.ID, o.Sport, o.EventID, o.MarketType, o.OutcomeLabel, o.Bookmaker, o.Price,
			o.DecimalOdds, o.ModelProbability, o.ImpliedProbability, o.Edge, o.ExpectedValue,
			o.SuggestedStake, o.Mean, o.StdDev, o.Confidence, o.GeneratedAt,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"recommendations"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert recommendations: %w", err)
	}

	if count != int64(len(opportunities)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(opportunities))
	}

	return nil
}

// GetByID retrieves a single persisted opportunity
func (r *PostgresRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	query := fmt.Sprintf(`SELECT %s FROM recommendations WHERE id = $1`, recommendationColumns)

	opp := &models.Opportunity{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&opp.ID, &opp.Sport, &opp.EventID, &opp.MarketType, &opp.OutcomeLabel, &opp.Bookmaker, &opp.Price,
		&opp.DecimalOdds, &opp.ModelProbability, &opp.ImpliedProbability, &opp.Edge, &opp.ExpectedValue,
		&opp.SuggestedStake, &opp.Mean, &opp.StdDev, &opp.Confidence, &opp.GeneratedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}

	return opp, nil
}

// GetRecentBySport retrieves recent opportunities for a sport, best first
func (r *PostgresRecommendationRepository) GetRecentBySport(ctx context.Context, sport string, since time.Time, limit int) ([]*models.Opportunity, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE sport = $1 AND generated_at >= $2
		ORDER BY expected_value DESC, edge DESC
		LIMIT $3
	`, recommendationColumns)

	rows, err := r.db.GetPool().Query(ctx, query, sport, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var opportunities []*models.Opportunity
	for rows.Next() {
		opp := &models.Opportunity{}
		err := rows.Scan(
			&opp.ID, &opp.Sport, &opp.EventID, &opp.MarketType, &opp.OutcomeLabel, &opp.Bookmaker, &opp.Price,
			&opp.DecimalOdds, &opp.ModelProbability, &opp.ImpliedProbability, &opp.Edge, &opp.ExpectedValue,
			&opp.SuggestedStake, &opp.Mean, &opp.StdDev, &opp.Confidence, &opp.GeneratedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		opportunities = append(opportunities, opp)
	}

	return opportunities, rows.Err()
}

// DeleteOlderThan removes stale recommendations and reports how many went
func (r *PostgresRecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM recommendations WHERE generated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale recommendations: %w", err)
	}

	return tag.RowsAffected(), nil
}
