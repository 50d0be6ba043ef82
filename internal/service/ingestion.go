package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/datasource"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/repository"
)

// recommendationRetention bounds how long persisted opportunities are kept.
// Quotes move constantly; a week-old recommendation is only useful for audit.
const recommendationRetention = 7 * 24 * time.Hour

// IngestionMetrics summarizes one ingestion run
type IngestionMetrics struct {
	Games    int
	Quotes   int
	Teams    int
	Errors   int
	Duration time.Duration
}

// IngestionService refreshes the database from the external providers. It is
// the write-side counterpart of the analysis pipeline: the scheduler drives
// it so the analysis service mostly reads warm data.
type IngestionService struct {
	oddsSource  datasource.OddsSource
	statsSource datasource.StatsSource
	repos       *repository.Repositories
	logger      *logrus.Logger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	oddsSource datasource.OddsSource,
	statsSource datasource.StatsSource,
	repos *repository.Repositories,
	logger *logrus.Logger,
) (*IngestionService, error) {
	if repos == nil {
		return nil, fmt.Errorf("repositories are required for ingestion")
	}

	return &IngestionService{
		oddsSource:  oddsSource,
		statsSource: statsSource,
		repos:       repos,
		logger:      logger,
	}, nil
}

// SyncSport refreshes games, odds, and team statistics for one sport
func (s *IngestionService) SyncSport(ctx context.Context, sport string) (*IngestionMetrics, error) {
	start := time.Now()
	m := &IngestionMetrics{}

	s.logger.WithField("sport", sport).Info("Starting sport sync")

	if err := s.syncGames(ctx, sport, m); err != nil {
		m.Errors++
		s.logger.WithError(err).WithField("sport", sport).Error("Game sync failed")
	}

	if err := s.syncOdds(ctx, sport, m); err != nil {
		m.Errors++
		s.logger.WithError(err).WithField("sport", sport).Error("Odds sync failed")
	}

	if err := s.syncTeamStats(ctx, sport, m); err != nil {
		m.Errors++
		s.logger.WithError(err).WithField("sport", sport).Error("Team stats sync failed")
	}

	m.Duration = time.Since(start)
	s.logger.WithFields(logrus.Fields{
		"sport":    sport,
		"games":    m.Games,
		"quotes":   m.Quotes,
		"teams":    m.Teams,
		"errors":   m.Errors,
		"duration": m.Duration,
	}).Info("Sport sync complete")

	if m.Errors > 0 {
		return m, fmt.Errorf("sport sync for %s finished with %d errors", sport, m.Errors)
	}
	return m, nil
}

// CleanupStale removes recommendations older than the retention window
func (s *IngestionService) CleanupStale(ctx context.Context) error {
	cutoff := time.Now().Add(-recommendationRetention)
	deleted, err := s.repos.Recommendation.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("Removed stale recommendations")
	}
	return nil
}

func (s *IngestionService) syncGames(ctx context.Context, sport string, m *IngestionMetrics) error {
	games, err := s.oddsSource.FetchEvents(ctx, sport)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	for i := range games {
		// Teams first so the game's foreign keys resolve
		for _, teamID := range []string{games[i].HomeTeamID, games[i].AwayTeamID} {
			team := &models.Team{ID: teamID, Name: teamID, Sport: sport}
			if err := s.repos.Team.Upsert(ctx, team); err != nil {
				return fmt.Errorf("failed to upsert team %s: %w", teamID, err)
			}
		}
		if err := s.repos.Game.Upsert(ctx, &games[i]); err != nil {
			return fmt.Errorf("failed to upsert game %s: %w", games[i].ID, err)
		}
		m.Games++
	}

	return nil
}

func (s *IngestionService) syncOdds(ctx context.Context, sport string, m *IngestionMetrics) error {
	quotes, err := s.oddsSource.FetchOdds(ctx, sport)
	if err != nil {
		return fmt.Errorf("failed to fetch odds: %w", err)
	}

	refs := make([]*models.OddsQuote, len(quotes))
	for i := range quotes {
		refs[i] = &quotes[i]
	}
	if err := s.repos.Odds.InsertBatch(ctx, refs); err != nil {
		return fmt.Errorf("failed to persist odds: %w", err)
	}

	m.Quotes += len(quotes)
	return nil
}

func (s *IngestionService) syncTeamStats(ctx context.Context, sport string, m *IngestionMetrics) error {
	stats, err := s.statsSource.FetchTeamStats(ctx, sport)
	if err != nil {
		return fmt.Errorf("failed to fetch team stats: %w", err)
	}

	for i := range stats {
		if err := s.repos.Stats.UpsertTeamStats(ctx, &stats[i]); err != nil {
			return fmt.Errorf("failed to persist stats for %s: %w", stats[i].TeamID, err)
		}
		m.Teams++
	}

	return nil
}
