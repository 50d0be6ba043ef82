package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// Insert inserts a single odds quote
func (r *PostgresOddsRepository) Insert(ctx context.Context, quote *models.OddsQuote) error {
	query := `
		INSERT INTO odds_quotes (sport, event_id, market_type, outcome_label, bookmaker, price, line, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		quote.Sport, quote.EventID, quote.MarketType, quote.OutcomeLabel,
		quote.Bookmaker, quote.Price, quote.Line, quote.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert odds quote: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple odds quotes using a bulk COPY
func (r *PostgresOddsRepository) InsertBatch(ctx context.Context, quotes []*models.OddsQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	columns := []string{"sport", "event_id", "market_type", "outcome_label", "bookmaker", "price", "line", "observed_at"}

	rows := make([][]interface{}, len(quotes))
	for i, q := range quotes {
		rows[i] = []interface{}{
			q.Sport, q.EventID, q.MarketType, q.OutcomeLabel,
			q.Bookmaker, q.Price, q.Line, q.ObservedAt,
		}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"odds_quotes"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert odds quotes: %w", err)
	}

	if count != int64(len(quotes)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(quotes))
	}

	return nil
}

// GetLatestForEvent retrieves the most recent quote per bookmaker and outcome
// for one event and market
func (r *PostgresOddsRepository) GetLatestForEvent(ctx context.Context, eventID, marketType string) ([]*models.OddsQuote, error) {
	query := `
		SELECT DISTINCT ON (bookmaker, outcome_label)
			sport, event_id, market_type, outcome_label, bookmaker, price, line, observed_at
		FROM odds_quotes
		WHERE event_id = $1 AND market_type = $2
		ORDER BY bookmaker, outcome_label, observed_at DESC
	`

	return r.queryQuotes(ctx, query, eventID, marketType)
}

// GetByEventAndWindow retrieves all quotes for an event within a time range
func (r *PostgresOddsRepository) GetByEventAndWindow(ctx context.Context, eventID string, start, end time.Time) ([]*models.OddsQuote, error) {
	query := `
		SELECT sport, event_id, market_type, outcome_label, bookmaker, price, line, observed_at
		FROM odds_quotes
		WHERE event_id = $1 AND observed_at >= $2 AND observed_at <= $3
		ORDER BY observed_at ASC
	`

	return r.queryQuotes(ctx, query, eventID, start, end)
}

func (r *PostgresOddsRepository) queryQuotes(ctx context.Context, query string, args ...interface{}) ([]*models.OddsQuote, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.OddsQuote
	for rows.Next() {
		quote := &models.OddsQuote{}
		err := rows.Scan(
			&quote.Sport, &quote.EventID, &quote.MarketType, &quote.OutcomeLabel,
			&quote.Bookmaker, &quote.Price, &quote.Line, &quote.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds quote: %w", err)
		}
		quotes = append(quotes, quote)
	}

	return quotes, rows.Err()
}
