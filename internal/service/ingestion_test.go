package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-finder/internal/logger"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/repository"
)

type MockTeamRepository struct {
	mock.Mock
}

func (m *MockTeamRepository) Upsert(ctx context.Context, team *models.Team) error {
	return m.Called(ctx, team).Error(0)
}

func (m *MockTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Team), args.Error(1)
}

func (m *MockTeamRepository) GetBySport(ctx context.Context, sport string) ([]*models.Team, error) {
	args := m.Called(ctx, sport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Team), args.Error(1)
}

type MockGameRepository struct {
	mock.Mock
}

func (m *MockGameRepository) Upsert(ctx context.Context, game *models.Game) error {
	return m.Called(ctx, game).Error(0)
}

func (m *MockGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGameRepository) GetUpcoming(ctx context.Context, sport string, limit int) ([]*models.Game, error) {
	args := m.Called(ctx, sport, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Game), args.Error(1)
}

func (m *MockGameRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

type MockOddsRepository struct {
	mock.Mock
}

func (m *MockOddsRepository) Insert(ctx context.Context, quote *models.OddsQuote) error {
	return m.Called(ctx, quote).Error(0)
}

func (m *MockOddsRepository) InsertBatch(ctx context.Context, quotes []*models.OddsQuote) error {
	return m.Called(ctx, quotes).Error(0)
}

func (m *MockOddsRepository) GetLatestForEvent(ctx context.Context, eventID, marketType string) ([]*models.OddsQuote, error) {
	args := m.Called(ctx, eventID, marketType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OddsQuote), args.Error(1)
}

func (m *MockOddsRepository) GetByEventAndWindow(ctx context.Context, eventID string, start, end time.Time) ([]*models.OddsQuote, error) {
	args := m.Called(ctx, eventID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OddsQuote), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) UpsertTeamStats(ctx context.Context, stats *models.TeamStats) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *MockStatsRepository) GetLatestTeamStats(ctx context.Context, teamID string) (*models.TeamStats, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamStats), args.Error(1)
}

func (m *MockStatsRepository) UpsertPlayerStats(ctx context.Context, stats *models.PlayerStats) error {
	return m.Called(ctx, stats).Error(0)
}

func (m *MockStatsRepository) GetLatestPlayerStats(ctx context.Context, playerID string) (*models.PlayerStats, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStats), args.Error(1)
}

type MockRecommendationRepository struct {
	mock.Mock
}

func (m *MockRecommendationRepository) InsertBatch(ctx context.Context, opportunities []*models.Opportunity) error {
	return m.Called(ctx, opportunities).Error(0)
}

func (m *MockRecommendationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Opportunity), args.Error(1)
}

func (m *MockRecommendationRepository) GetRecentBySport(ctx context.Context, sport string, since time.Time, limit int) ([]*models.Opportunity, error) {
	args := m.Called(ctx, sport, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Opportunity), args.Error(1)
}

func (m *MockRecommendationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type ingestionMocks struct {
	odds   *MockOddsSource
	stats  *MockStatsSource
	teams  *MockTeamRepository
	games  *MockGameRepository
	quotes *MockOddsRepository
	teamSt *MockStatsRepository
	recs   *MockRecommendationRepository
}

func newIngestionService(t *testing.T) (*IngestionService, *ingestionMocks) {
	t.Helper()

	m := &ingestionMocks{
		odds:   new(MockOddsSource),
		stats:  new(MockStatsSource),
		teams:  new(MockTeamRepository),
		games:  new(MockGameRepository),
		quotes: new(MockOddsRepository),
		teamSt: new(MockStatsRepository),
		recs:   new(MockRecommendationRepository),
	}
	repos := &repository.Repositories{
		Team:           m.teams,
		Game:           m.games,
		Odds:           m.quotes,
		Stats:          m.teamSt,
		Recommendation: m.recs,
	}

	svc, err := NewIngestionService(m.odds, m.stats, repos, logger.NewNopLogger())
	require.NoError(t, err)
	return svc, m
}

func TestNewIngestionServiceRequiresRepositories(t *testing.T) {
	_, err := NewIngestionService(new(MockOddsSource), new(MockStatsSource), nil, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestSyncSportPersistsGamesQuotesAndStats(t *testing.T) {
	svc, m := newIngestionService(t)
	ctx := context.Background()

	m.odds.On("FetchEvents", mock.Anything, testSport).Return([]models.Game{nflGame()}, nil).Once()
	m.odds.On("FetchOdds", mock.Anything, testSport).Return(moneylineQuotes(), nil).Once()
	m.stats.On("FetchTeamStats", mock.Anything, testSport).Return(nflTeamStats(), nil).Once()

	// Teams are written before the game they appear in.
	m.teams.On("Upsert", mock.Anything, mock.MatchedBy(func(team *models.Team) bool {
		return team.Sport == testSport
	})).Return(nil).Twice()
	m.games.On("Upsert", mock.Anything, mock.MatchedBy(func(game *models.Game) bool {
		return game.ID == "evt1"
	})).Return(nil).Once()
	m.quotes.On("InsertBatch", mock.Anything, mock.MatchedBy(func(quotes []*models.OddsQuote) bool {
		return len(quotes) == 2
	})).Return(nil).Once()
	m.teamSt.On("UpsertTeamStats", mock.Anything, mock.Anything).Return(nil).Twice()

	metrics, err := svc.SyncSport(ctx, testSport)
	require.NoError(t, err)

	assert.Equal(t, 1, metrics.Games)
	assert.Equal(t, 2, metrics.Quotes)
	assert.Equal(t, 2, metrics.Teams)
	assert.Equal(t, 0, metrics.Errors)

	m.odds.AssertExpectations(t)
	m.teams.AssertExpectations(t)
	m.games.AssertExpectations(t)
	m.quotes.AssertExpectations(t)
	m.teamSt.AssertExpectations(t)
}

func TestSyncSportContinuesAfterOddsFailure(t *testing.T) {
	svc, m := newIngestionService(t)
	ctx := context.Background()

	m.odds.On("FetchEvents", mock.Anything, testSport).Return([]models.Game{nflGame()}, nil).Once()
	m.odds.On("FetchOdds", mock.Anything, testSport).Return(nil, errors.New("provider down")).Once()
	m.stats.On("FetchTeamStats", mock.Anything, testSport).Return(nflTeamStats(), nil).Once()

	m.teams.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.games.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	m.teamSt.On("UpsertTeamStats", mock.Anything, mock.Anything).Return(nil)

	metrics, err := svc.SyncSport(ctx, testSport)

	// The failed odds leg is reported, but games and stats still land.
	require.Error(t, err)
	assert.Equal(t, 1, metrics.Errors)
	assert.Equal(t, 1, metrics.Games)
	assert.Equal(t, 0, metrics.Quotes)
	assert.Equal(t, 2, metrics.Teams)

	m.stats.AssertExpectations(t)
	m.teamSt.AssertExpectations(t)
}

func TestCleanupStaleUsesRetentionWindow(t *testing.T) {
	svc, m := newIngestionService(t)

	m.recs.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		expected := time.Now().Add(-recommendationRetention)
		return cutoff.Sub(expected).Abs() < time.Minute
	})).Return(int64(3), nil).Once()

	require.NoError(t, svc.CleanupStale(context.Background()))
	m.recs.AssertExpectations(t)
}
