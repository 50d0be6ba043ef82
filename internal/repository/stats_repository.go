package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/models"
)

// PostgresStatsRepository implements StatsRepository for PostgreSQL
type PostgresStatsRepository struct {
	db *database.DB
}

// NewPostgresStatsRepository creates a new statistics repository
func NewPostgresStatsRepository(db *database.DB) StatsRepository {
	return &PostgresStatsRepository{db: db}
}

// UpsertTeamStats inserts or replaces a team's aggregates for its as-of date
func (r *PostgresStatsRepository) UpsertTeamStats(ctx context.Context, stats *models.TeamStats) error {
	if err := stats.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO team_stats (team_id, sport, points_scored, points_allowed, sample_size, recent_average, as_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (team_id, as_of) DO UPDATE SET
			points_scored = EXCLUDED.points_scored,
			points_allowed = EXCLUDED.points_allowed,
			sample_size = EXCLUDED.sample_size,
			recent_average = EXCLUDED.recent_average
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		stats.TeamID, stats.Sport, stats.PointsScored, stats.PointsAllowed,
		stats.SampleSize, stats.RecentAverage, stats.AsOf,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert team stats: %w", err)
	}

	return nil
}

// GetLatestTeamStats retrieves the most recent aggregates for a team
func (r *PostgresStatsRepository) GetLatestTeamStats(ctx context.Context, teamID string) (*models.TeamStats, error) {
	query := `
		SELECT team_id, sport, points_scored, points_allowed, sample_size, recent_average, as_of
		FROM team_stats
		WHERE team_id = $1
		ORDER BY as_of DESC
		LIMIT 1
	`

	stats := &models.TeamStats{}
	err := r.db.GetPool().QueryRow(ctx, query, teamID).Scan(
		&stats.TeamID, &stats.Sport, &stats.PointsScored, &stats.PointsAllowed,
		&stats.SampleSize, &stats.RecentAverage, &stats.AsOf,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team stats: %w", err)
	}

	return stats, nil
}

// UpsertPlayerStats inserts or replaces a player's statistics for its as-of date
func (r *PostgresStatsRepository) UpsertPlayerStats(ctx context.Context, stats *models.PlayerStats) error {
	query := `
		INSERT INTO player_stats (player_id, player_name, team_id, sport, season, games_played, categories, recent_form, as_of)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (player_id, as_of) DO UPDATE SET
			player_name = EXCLUDED.player_name,
			team_id = EXCLUDED.team_id,
			season = EXCLUDED.season,
			games_played = EXCLUDED.games_played,
			categories = EXCLUDED.categories,
			recent_form = EXCLUDED.recent_form
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		stats.PlayerID, stats.PlayerName, stats.TeamID, stats.Sport, stats.Season,
		stats.GamesPlayed, stats.Categories, stats.RecentForm, stats.AsOf,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player stats: %w", err)
	}

	return nil
}

// GetLatestPlayerStats retrieves the most recent statistics for a player
func (r *PostgresStatsRepository) GetLatestPlayerStats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	query := `
		SELECT player_id, player_name, team_id, sport, season, games_played, categories, recent_form, as_of
		FROM player_stats
		WHERE player_id = $1
		ORDER BY as_of DESC
		LIMIT 1
	`

	stats := &models.PlayerStats{}
	err := r.db.GetPool().QueryRow(ctx, query, playerID).Scan(
		&stats.PlayerID, &stats.PlayerName, &stats.TeamID, &stats.Sport, &stats.Season,
		&stats.GamesPlayed, &stats.Categories, &stats.RecentForm, &stats.AsOf,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	return stats, nil
}
