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

const oddsAPISourceName = "odds_api"

// OddsAPIClient implements OddsSource for The Odds API v4
type OddsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	regions    string
	markets    string
	logger     *logrus.Logger
}

// oddsAPIEvent represents an event from The Odds API
type oddsAPIEvent struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	CommenceTime string              `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []oddsAPIBookmaker  `json:"bookmakers"`
}

// oddsAPIBookmaker represents one bookmaker's markets for an event
type oddsAPIBookmaker struct {
	Key        string          `json:"key"`
	Title      string          `json:"title"`
	LastUpdate string          `json:"last_update"`
	Markets    []oddsAPIMarket `json:"markets"`
}

// oddsAPIMarket represents one market with its outcomes
type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

// oddsAPIOutcome represents a priced outcome
type oddsAPIOutcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int      `json:"price"`
	Point       *float64 `json:"point"`
}

// NewOddsAPIClient creates a new odds source client
func NewOddsAPIClient(httpClient *RateLimitedHTTPClient, cfg *config.OddsAPIConfig, logger *logrus.Logger) *OddsAPIClient {
	return &OddsAPIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		regions:    strings.Join(cfg.Regions, ","),
		markets:    strings.Join(cfg.Markets, ","),
		logger:     logger,
	}
}

// Name returns the name of the data source
func (c *OddsAPIClient) Name() string {
	return oddsAPISourceName
}

// FetchEvents retrieves upcoming games for a sport
func (c *OddsAPIClient) FetchEvents(ctx context.Context, sport string) ([]models.Game, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/events?%s", c.baseURL, url.PathEscape(sport), c.query(nil))

	var events []oddsAPIEvent
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	games := make([]models.Game, 0, len(events))
	for _, ev := range events {
		start, err := parseEventTime(ev.CommenceTime)
		if err != nil {
			c.logger.WithField("event_id", ev.ID).Warn("Skipping event with unparseable start time")
			continue
		}
		games = append(games, models.Game{
			ID:         ev.ID,
			Sport:      sport,
			HomeTeamID: ev.HomeTeam,
			AwayTeamID: ev.AwayTeam,
			StartTime:  start,
			Status:     models.GameStatusScheduled,
		})
	}

	return games, nil
}

// FetchOdds retrieves the configured game markets for a sport
func (c *OddsAPIClient) FetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, url.PathEscape(sport), c.query(map[string]string{
		"markets": c.markets,
	}))

	var events []oddsAPIEvent
	if err := c.getJSON(ctx, endpoint, &events); err != nil {
		return nil, err
	}

	var quotes []models.OddsQuote
	for _, ev := range events {
		quotes = append(quotes, c.convertEvent(sport, &ev)...)
	}

	return quotes, nil
}

// FetchPlayerProps retrieves player prop markets for one event. The provider
// quotes props per event, one market key per statistic category
// (e.g. player_pass_yds).
func (c *OddsAPIClient) FetchPlayerProps(ctx context.Context, sport, eventID string, categories []string) ([]models.PlayerProp, error) {
	endpoint := fmt.Sprintf("%s/sports/%s/events/%s/odds?%s",
		c.baseURL, url.PathEscape(sport), url.PathEscape(eventID), c.query(map[string]string{
			"markets": strings.Join(categories, ","),
		}))

	var event oddsAPIEvent
	if err := c.getJSON(ctx, endpoint, &event); err != nil {
		return nil, err
	}

	return c.convertProps(sport, &event), nil
}

// convertEvent flattens one event's bookmaker markets into quotes
func (c *OddsAPIClient) convertEvent(sport string, ev *oddsAPIEvent) []models.OddsQuote {
	var quotes []models.OddsQuote
	for _, bk := range ev.Bookmakers {
		observed, err := parseEventTime(bk.LastUpdate)
		if err != nil {
			observed = time.Now().UTC()
		}
		for _, mkt := range bk.Markets {
			for _, out := range mkt.Outcomes {
				quote := models.OddsQuote{
					Sport:        sport,
					EventID:      ev.ID,
					MarketType:   mkt.Key,
					OutcomeLabel: out.Name,
					Bookmaker:    bk.Key,
					Price:        out.Price,
					Line:         out.Point,
					ObservedAt:   observed,
				}
				if err := quote.Validate(); err != nil {
					c.logger.WithFields(logrus.Fields{
						"event_id":  ev.ID,
						"bookmaker": bk.Key,
						"outcome":   out.Name,
						"error":     err,
					}).Warn("Skipping invalid quote")
					continue
				}
				quotes = append(quotes, quote)
			}
		}
	}
	return quotes
}

// convertProps pairs over/under outcomes into player props. The provider
// labels the sides "Over"/"Under" and carries the player in the description.
func (c *OddsAPIClient) convertProps(sport string, ev *oddsAPIEvent) []models.PlayerProp {
	var props []models.PlayerProp
	for _, bk := range ev.Bookmakers {
		observed, err := parseEventTime(bk.LastUpdate)
		if err != nil {
			observed = time.Now().UTC()
		}
		for _, mkt := range bk.Markets {
			type side struct {
				price int
				line  float64
			}
			overs := map[string]side{}
			unders := map[string]side{}
			for _, out := range mkt.Outcomes {
				if out.Point == nil || out.Description == "" {
					continue
				}
				s := side{price: out.Price, line: *out.Point}
				switch out.Name {
				case "Over":
					overs[out.Description] = s
				case "Under":
					unders[out.Description] = s
				}
			}
			for player, over := range overs {
				under, ok := unders[player]
				if !ok || under.line != over.line {
					continue
				}
				props = append(props, models.PlayerProp{
					Sport:      sport,
					EventID:    ev.ID,
					PlayerID:   playerIDFromName(player),
					PlayerName: player,
					Category:   mkt.Key,
					Line:       over.line,
					OverPrice:  over.price,
					UnderPrice: under.price,
					Bookmaker:  bk.Key,
					ObservedAt: observed,
				})
			}
		}
	}
	return props
}

// playerIDFromName derives a stable identifier from the provider's display
// name. The odds provider has no player IDs so the name is all there is.
func playerIDFromName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// query assembles the common query string with the API key and regions
func (c *OddsAPIClient) query(extra map[string]string) string {
	values := url.Values{}
	values.Set("apiKey", c.apiKey)
	values.Set("regions", c.regions)
	values.Set("oddsFormat", "american")
	for k, v := range extra {
		values.Set(k, v)
	}
	return values.Encode()
}

// getJSON executes a GET and decodes the response, translating provider
// errors into DataSourceError values
func (c *OddsAPIClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	start := time.Now()
	defer func() {
		metrics.SourceFetchDuration.WithLabelValues(oddsAPISourceName).Observe(time.Since(start).Seconds())
	}()
	metrics.OddsFetchesTotal.Inc()

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return NewDataSourceError(oddsAPISourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewDataSourceError(oddsAPISourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(oddsAPISourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(oddsAPISourceName, ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NewDataSourceError(oddsAPISourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(oddsAPISourceName, ErrCodeInvalidData, "failed to parse response", err)
	}

	return nil
}
