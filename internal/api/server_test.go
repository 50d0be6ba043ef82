package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edge-finder/internal/cache"
	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/logger"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/probability"
	"github.com/yourusername/edge-finder/internal/ranker"
	"github.com/yourusername/edge-finder/internal/service"
)

const testSport = "americanfootball_nfl"

type mockOddsSource struct {
	mock.Mock
}

func (m *mockOddsSource) FetchEvents(ctx context.Context, sport string) ([]models.Game, error) {
	args := m.Called(ctx, sport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *mockOddsSource) FetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, error) {
	args := m.Called(ctx, sport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OddsQuote), args.Error(1)
}

func (m *mockOddsSource) FetchPlayerProps(ctx context.Context, sport, eventID string, categories []string) ([]models.PlayerProp, error) {
	args := m.Called(ctx, sport, eventID, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PlayerProp), args.Error(1)
}

func (m *mockOddsSource) Name() string { return "mock_odds" }

type mockStatsSource struct {
	mock.Mock
}

func (m *mockStatsSource) FetchTeamStats(ctx context.Context, sport string) ([]models.TeamStats, error) {
	args := m.Called(ctx, sport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TeamStats), args.Error(1)
}

func (m *mockStatsSource) FetchPlayerStats(ctx context.Context, sport, playerID string) (*models.PlayerStats, error) {
	args := m.Called(ctx, sport, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStats), args.Error(1)
}

func (m *mockStatsSource) Name() string { return "mock_stats" }

func testServerConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "edge-finder", Environment: "development", LogLevel: "debug"},
		Analysis: config.AnalysisConfig{
			MinEdge:          0.01,
			RecentFormWeight: 0.4,
			KellyFraction:    0.5,
			Bankroll:         1000,
			Sports: map[string]config.SportConstants{
				testSport: {HomeAdvantage: 2.5, MarginVariance: 100.0, TotalVariance: 182.25},
			},
			PropVariance: map[string]float64{"player_pass_yds": 4900.0},
		},
		Cache: config.CacheConfig{
			OddsTTLSeconds:     300,
			PropsTTLSeconds:    300,
			StatsTTLSeconds:    3600,
			AnalysisTTLSeconds: 600,
		},
		Server:    config.ServerConfig{Port: 8080},
		Ingestion: config.IngestionConfig{Sports: []string{testSport}, PollIntervalSeconds: 300, AnalysisIntervalSeconds: 600, HistoricalSync: "0 4 * * *"},
	}
}

func newTestServer(t *testing.T, oddsSource *mockOddsSource, statsSource *mockStatsSource) (*Server, *Hub) {
	t.Helper()

	cfg := testServerConfig()
	calc, err := probability.NewCalculator(probability.Params{
		RecentFormWeight: cfg.Analysis.RecentFormWeight,
		Sports: map[string]probability.SportParams{
			testSport: {HomeAdvantage: 2.5, MarginVariance: 100.0, TotalVariance: 182.25},
		},
		PropVariance: cfg.Analysis.PropVariance,
	}, logger.NewNopLogger())
	require.NoError(t, err)

	rk := ranker.NewRanker(ranker.Config{
		MinEdge:       cfg.Analysis.MinEdge,
		KellyFraction: cfg.Analysis.KellyFraction,
		Bankroll:      decimal.NewFromFloat(cfg.Analysis.Bankroll),
	}, logger.NewNopLogger())

	store := cache.New(time.Minute)
	log := logger.NewNopLogger()
	analysis := service.NewAnalysisService(oddsSource, statsSource, store, calc, rk, nil, cfg, log)
	hub := NewHub(log.WithField("component", "hub"))

	return NewServer(cfg, analysis, nil, nil, store, hub, log.WithField("component", "api")), hub
}

func mispricedMoneylineFixtures(oddsSource *mockOddsSource, statsSource *mockStatsSource) {
	now := time.Now().UTC()
	game := models.Game{
		ID:         "evt1",
		Sport:      testSport,
		HomeTeamID: "Kansas City Chiefs",
		AwayTeamID: "Buffalo Bills",
		StartTime:  now.Add(24 * time.Hour),
		Status:     models.GameStatusScheduled,
	}
	quotes := []models.OddsQuote{
		{Sport: testSport, EventID: "evt1", MarketType: models.MarketMoneyline, OutcomeLabel: "Kansas City Chiefs", Bookmaker: "draftkings", Price: 110, ObservedAt: now},
		{Sport: testSport, EventID: "evt1", MarketType: models.MarketMoneyline, OutcomeLabel: "Buffalo Bills", Bookmaker: "draftkings", Price: -130, ObservedAt: now},
	}
	stats := []models.TeamStats{
		{TeamID: "Kansas City Chiefs", Sport: testSport, PointsScored: 27.5, PointsAllowed: 24.0, SampleSize: 12, AsOf: now},
		{TeamID: "Buffalo Bills", Sport: testSport, PointsScored: 26.0, PointsAllowed: 23.0, SampleSize: 12, AsOf: now},
	}

	oddsSource.On("FetchOdds", mock.Anything, testSport).Return(quotes, nil)
	oddsSource.On("FetchEvents", mock.Anything, testSport).Return([]models.Game{game}, nil)
	statsSource.On("FetchTeamStats", mock.Anything, testSport).Return(stats, nil)
}

func TestGetSportOpportunitiesLiveFallback(t *testing.T) {
	oddsSource := new(mockOddsSource)
	statsSource := new(mockStatsSource)
	mispricedMoneylineFixtures(oddsSource, statsSource)

	srv, _ := newTestServer(t, oddsSource, statsSource)

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/"+testSport, nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Sport         string               `json:"sport"`
		Opportunities []models.Opportunity `json:"opportunities"`
		Count         int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, testSport, body.Sport)
	require.NotEmpty(t, body.Opportunities)
	assert.Equal(t, "Kansas City Chiefs", body.Opportunities[0].OutcomeLabel)
	assert.Equal(t, len(body.Opportunities), body.Count)
}

func TestGetOpportunitiesUnknownSport(t *testing.T) {
	srv, _ := newTestServer(t, new(mockOddsSource), new(mockStatsSource))

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/basketball_xyz", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOpportunitiesWithoutStore(t *testing.T) {
	srv, _ := newTestServer(t, new(mockOddsSource), new(mockStatsSource))

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusReportsCacheState(t *testing.T) {
	oddsSource := new(mockOddsSource)
	statsSource := new(mockStatsSource)
	mispricedMoneylineFixtures(oddsSource, statsSource)

	srv, _ := newTestServer(t, oddsSource, statsSource)

	// Warm the cache so the status endpoint has something to report.
	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/"+testSport, nil)
	srv.Routes().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "edge-finder", body["service"])

	cacheState, ok := body["cache"].(map[string]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, cacheState["items"].(float64), 1.0)
}

func TestRefreshInvalidatesCache(t *testing.T) {
	oddsSource := new(mockOddsSource)
	statsSource := new(mockStatsSource)

	// Fixtures registered twice: once for the warm-up request and once for
	// the forced refetch after invalidation.
	mispricedMoneylineFixtures(oddsSource, statsSource)

	srv, _ := newTestServer(t, oddsSource, statsSource)
	router := srv.Routes()

	warm := httptest.NewRequest(http.MethodGet, "/api/opportunities/"+testSport, nil)
	router.ServeHTTP(httptest.NewRecorder(), warm)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh/"+testSport, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	oddsSource.AssertNumberOfCalls(t, "FetchOdds", 2)
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	oddsSource := new(mockOddsSource)
	statsSource := new(mockStatsSource)
	srv, hub := newTestServer(t, oddsSource, statsSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the hub to register the client before broadcasting.
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(testSport, []models.Opportunity{{
		Sport:        testSport,
		EventID:      "evt1",
		MarketType:   models.MarketMoneyline,
		OutcomeLabel: "Kansas City Chiefs",
	}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var update OpportunityUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, "opportunities", update.Type)
	assert.Equal(t, testSport, update.Sport)
	require.Len(t, update.Opportunities, 1)
	assert.Equal(t, "evt1", update.Opportunities[0].EventID)
}

func TestHubShutdownReleasesClientPumps(t *testing.T) {
	srv, hub := newTestServer(t, new(mockOddsSource), new(mockStatsSource))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	before := runtime.NumGoroutine()
	go hub.Run(ctx)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Shutdown closes the client's connection, and both pump goroutines must
	// exit with it; a read loop stuck handing the client back to a hub that
	// no longer runs would hold the connection forever.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 3*time.Second, 25*time.Millisecond)
}
