package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/models"
)

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db *database.DB
}

// NewPostgresGameRepository creates a new game repository
func NewPostgresGameRepository(db *database.DB) GameRepository {
	return &PostgresGameRepository{db: db}
}

// Upsert inserts a game or refreshes its schedule and status
func (r *PostgresGameRepository) Upsert(ctx context.Context, game *models.Game) error {
	query := `
		INSERT INTO games (id, sport, home_team_id, away_team_id, start_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			status = EXCLUDED.status,
			updated_at = now()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		game.ID, game.Sport, game.HomeTeamID, game.AwayTeamID, game.StartTime, game.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	return nil
}

// GetByID retrieves a game by its identifier
func (r *PostgresGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	query := `
		SELECT id, sport, home_team_id, away_team_id, start_time, status, created_at, updated_at
		FROM games
		WHERE id = $1
	`

	game := &models.Game{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&game.ID, &game.Sport, &game.HomeTeamID, &game.AwayTeamID,
		&game.StartTime, &game.Status, &game.CreatedAt, &game.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

// GetUpcoming retrieves scheduled games for a sport ordered by start time
func (r *PostgresGameRepository) GetUpcoming(ctx context.Context, sport string, limit int) ([]*models.Game, error) {
	query := `
		SELECT id, sport, home_team_id, away_team_id, start_time, status, created_at, updated_at
		FROM games
		WHERE sport = $1 AND status = $2 AND start_time > now()
		ORDER BY start_time ASC
		LIMIT $3
	`

	rows, err := r.db.GetPool().Query(ctx, query, sport, models.GameStatusScheduled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming games: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		game := &models.Game{}
		err := rows.Scan(
			&game.ID, &game.Sport, &game.HomeTeamID, &game.AwayTeamID,
			&game.StartTime, &game.Status, &game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}

// UpdateStatus transitions a game to a new status
func (r *PostgresGameRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE games SET status = $2, updated_at = now() WHERE id = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
