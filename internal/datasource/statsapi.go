package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/metrics"
	"github.com/yourusername/edge-finder/internal/models"
)

const statsAPISourceName = "stats_api"

// StatsAPIClient implements StatsSource for the statistics provider
type StatsAPIClient struct {
	httpClient  *RateLimitedHTTPClient
	baseURL     string
	apiKey      string
	recentGames int
	logger      *logrus.Logger
}

// statsAPITeam represents one team's aggregates from the statistics provider
type statsAPITeam struct {
	TeamID        string    `json:"team_id"`
	PointsScored  float64   `json:"points_per_game"`
	PointsAllowed float64   `json:"points_allowed_per_game"`
	GamesPlayed   int       `json:"games_played"`
	RecentScoring []float64 `json:"recent_scoring"`
	AsOf          string    `json:"as_of"`
}

// statsAPIPlayer represents one player's season line from the statistics provider
type statsAPIPlayer struct {
	PlayerID    string             `json:"player_id"`
	PlayerName  string             `json:"player_name"`
	TeamID      string             `json:"team_id"`
	Season      string             `json:"season"`
	GamesPlayed int                `json:"games_played"`
	Averages    map[string]float64 `json:"averages"`
	RecentForm  []float64          `json:"recent_form"`
	AsOf        string             `json:"as_of"`
}

// NewStatsAPIClient creates a new statistics source client
func NewStatsAPIClient(httpClient *RateLimitedHTTPClient, cfg *config.StatsAPIConfig, logger *logrus.Logger) *StatsAPIClient {
	return &StatsAPIClient{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		recentGames: cfg.RecentGames,
		logger:      logger,
	}
}

// Name returns the name of the data source
func (c *StatsAPIClient) Name() string {
	return statsAPISourceName
}

// FetchTeamStats retrieves scoring aggregates for all teams in a sport.
// Malformed rows fail the whole fetch: a silently dropped team would make
// every game involving it uncalculable without explanation.
func (c *StatsAPIClient) FetchTeamStats(ctx context.Context, sport string) ([]models.TeamStats, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/teams/stats", c.baseURL, url.PathEscape(sport))

	var rows []statsAPITeam
	if err := c.getJSON(ctx, endpoint, &rows); err != nil {
		return nil, err
	}

	stats := make([]models.TeamStats, 0, len(rows))
	for _, row := range rows {
		s := models.TeamStats{
			TeamID:        row.TeamID,
			Sport:         sport,
			PointsScored:  row.PointsScored,
			PointsAllowed: row.PointsAllowed,
			SampleSize:    row.GamesPlayed,
			AsOf:          c.parseAsOf(row.AsOf),
		}
		if recent := recentAverage(row.RecentScoring, c.recentGames); recent != nil {
			s.RecentAverage = recent
		}
		if err := s.Validate(); err != nil {
			return nil, NewDataSourceError(statsAPISourceName, ErrCodeInvalidData,
				fmt.Sprintf("malformed team stats for %s", row.TeamID), err)
		}
		stats = append(stats, s)
	}

	return stats, nil
}

// FetchPlayerStats retrieves season statistics for one player
func (c *StatsAPIClient) FetchPlayerStats(ctx context.Context, sport, playerID string) (*models.PlayerStats, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/players/%s/stats", c.baseURL, url.PathEscape(sport), url.PathEscape(playerID))

	var row statsAPIPlayer
	if err := c.getJSON(ctx, endpoint, &row); err != nil {
		return nil, err
	}

	recent := row.RecentForm
	if c.recentGames > 0 && len(recent) > c.recentGames {
		recent = recent[len(recent)-c.recentGames:]
	}

	stats := &models.PlayerStats{
		PlayerID:    row.PlayerID,
		PlayerName:  row.PlayerName,
		TeamID:      row.TeamID,
		Sport:       sport,
		Season:      row.Season,
		GamesPlayed: row.GamesPlayed,
		Categories:  row.Averages,
		RecentForm:  recent,
		AsOf:        c.parseAsOf(row.AsOf),
	}

	return stats, nil
}

// recentAverage reduces the provider's recent scoring series to a single
// average over at most n games, newest last
func recentAverage(series []float64, n int) *float64 {
	if len(series) == 0 {
		return nil
	}
	if n > 0 && len(series) > n {
		series = series[len(series)-n:]
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	avg := sum / float64(len(series))
	return &avg
}

func (c *StatsAPIClient) parseAsOf(value string) time.Time {
	t, err := parseEventTime(value)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// getJSON executes an authenticated GET and decodes the response
func (c *StatsAPIClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.SourceFetchDuration.WithLabelValues(statsAPISourceName).Observe(time.Since(start).Seconds())
	}()
	metrics.StatsFetchesTotal.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NewDataSourceError(statsAPISourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewDataSourceError(statsAPISourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewDataSourceError(statsAPISourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(statsAPISourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(statsAPISourceName, ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewDataSourceError(statsAPISourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(statsAPISourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	return nil
}
