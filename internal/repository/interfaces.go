// Package repository provides PostgreSQL data access for the edge finder.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/edge-finder/internal/models"
)

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	Upsert(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	GetBySport(ctx context.Context, sport string) ([]*models.Team, error)
}

// GameRepository defines the interface for game data access
type GameRepository interface {
	Upsert(ctx context.Context, game *models.Game) error
	GetByID(ctx context.Context, id string) (*models.Game, error)
	GetUpcoming(ctx context.Context, sport string, limit int) ([]*models.Game, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// OddsRepository defines the interface for odds quote data access
type OddsRepository interface {
	Insert(ctx context.Context, quote *models.OddsQuote) error
	InsertBatch(ctx context.Context, quotes []*models.OddsQuote) error
	GetLatestForEvent(ctx context.Context, eventID, marketType string) ([]*models.OddsQuote, error)
	GetByEventAndWindow(ctx context.Context, eventID string, start, end time.Time) ([]*models.OddsQuote, error)
}

// StatsRepository defines the interface for team and player statistics access
type StatsRepository interface {
	UpsertTeamStats(ctx context.Context, stats *models.TeamStats) error
	GetLatestTeamStats(ctx context.Context, teamID string) (*models.TeamStats, error)
	UpsertPlayerStats(ctx context.Context, stats *models.PlayerStats) error
	GetLatestPlayerStats(ctx context.Context, playerID string) (*models.PlayerStats, error)
}

// RecommendationRepository defines the interface for persisted opportunities
type RecommendationRepository interface {
	InsertBatch(ctx context.Context, opportunities []*models.Opportunity) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
	GetRecentBySport(ctx context.Context, sport string, since time.Time, limit int) ([]*models.Opportunity, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
