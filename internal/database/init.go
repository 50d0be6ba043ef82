package database

import (
	"context"
	"fmt"

	"github.com/yourusername/edge-finder/internal/config"
)

// schema holds the table definitions applied on startup. Idempotent so
// repeated boots against the same database are safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		abbreviation TEXT NOT NULL DEFAULT '',
		sport TEXT NOT NULL,
		conference TEXT,
		division TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		sport TEXT NOT NULL,
		home_team_id TEXT NOT NULL REFERENCES teams(id),
		away_team_id TEXT NOT NULL REFERENCES teams(id),
		start_time TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_sport_start ON games (sport, start_time)`,
	`CREATE TABLE IF NOT EXISTS team_stats (
		team_id TEXT NOT NULL,
		sport TEXT NOT NULL,
		points_scored DOUBLE PRECISION NOT NULL,
		points_allowed DOUBLE PRECISION NOT NULL,
		sample_size INT NOT NULL,
		recent_average DOUBLE PRECISION,
		as_of TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (team_id, as_of)
	)`,
	`CREATE TABLE IF NOT EXISTS player_stats (
		player_id TEXT NOT NULL,
		player_name TEXT NOT NULL DEFAULT '',
		team_id TEXT NOT NULL DEFAULT '',
		sport TEXT NOT NULL,
		season TEXT NOT NULL DEFAULT '',
		games_played INT NOT NULL,
		categories JSONB NOT NULL,
		recent_form DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		as_of TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (player_id, as_of)
	)`,
	`CREATE TABLE IF NOT EXISTS odds_quotes (
		id BIGSERIAL PRIMARY KEY,
		sport TEXT NOT NULL,
		event_id TEXT NOT NULL,
		market_type TEXT NOT NULL,
		outcome_label TEXT NOT NULL,
		bookmaker TEXT NOT NULL,
		price INT NOT NULL,
		line DOUBLE PRECISION,
		observed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_odds_quotes_event ON odds_quotes (event_id, market_type, observed_at DESC)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id UUID PRIMARY KEY,
		sport TEXT NOT NULL,
		event_id TEXT NOT NULL,
		market_type TEXT NOT NULL,
		outcome_label TEXT NOT NULL,
		bookmaker TEXT NOT NULL,
		price INT NOT NULL,
		decimal_odds DOUBLE PRECISION NOT NULL,
		model_probability DOUBLE PRECISION NOT NULL,
		implied_probability DOUBLE PRECISION NOT NULL,
		edge DOUBLE PRECISION NOT NULL,
		expected_value DOUBLE PRECISION NOT NULL,
		suggested_stake NUMERIC(12,2) NOT NULL,
		mean DOUBLE PRECISION NOT NULL,
		std_dev DOUBLE PRECISION NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_sport_generated ON recommendations (sport, generated_at DESC)`,
}

// Initialize creates a database connection pool and applies the schema
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func applySchema(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
