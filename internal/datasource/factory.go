package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/config"
)

// Sources bundles the wired provider clients
type Sources struct {
	Odds  OddsSource
	Stats StatsSource

	oddsHTTP  *RateLimitedHTTPClient
	statsHTTP *RateLimitedHTTPClient
}

// NewSources builds both provider clients from configuration. Each provider
// gets its own HTTP client so one provider's rate limit or open circuit
// breaker never throttles the other.
func NewSources(cfg *config.Config, logger *logrus.Logger) (*Sources, error) {
	if cfg.OddsAPI.APIKey == "" {
		return nil, fmt.Errorf("odds API key is required")
	}

	oddsHTTP := NewRateLimitedHTTPClient(clientConfig(cfg.OddsAPI.TimeoutSeconds, cfg.OddsAPI.RateLimit), logger)
	statsHTTP := NewRateLimitedHTTPClient(clientConfig(cfg.StatsAPI.TimeoutSeconds, cfg.StatsAPI.RateLimit), logger)

	return &Sources{
		Odds:      NewOddsAPIClient(oddsHTTP, &cfg.OddsAPI, logger),
		Stats:     NewStatsAPIClient(statsHTTP, &cfg.StatsAPI, logger),
		oddsHTTP:  oddsHTTP,
		statsHTTP: statsHTTP,
	}, nil
}

// Close releases both providers' HTTP resources
func (s *Sources) Close() {
	if s.oddsHTTP != nil {
		_ = s.oddsHTTP.Close()
	}
	if s.statsHTTP != nil {
		_ = s.statsHTTP.Close()
	}
}

func clientConfig(timeoutSeconds int, rateLimit float64) HTTPClientConfig {
	hc := DefaultHTTPClientConfig()
	if timeoutSeconds > 0 {
		hc.Timeout = time.Duration(timeoutSeconds) * time.Second
	}
	if rateLimit > 0 {
		hc.RateLimit = rateLimit
	}
	return hc
}
