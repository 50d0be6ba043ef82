// Package datasource provides clients for the external odds and statistics
// providers, with shared retry, rate-limit, and circuit-breaker plumbing.
package datasource

import (
	"context"
	"time"

	"github.com/yourusername/edge-finder/internal/models"
)

// OddsSource defines the interface for fetching bookmaker odds
type OddsSource interface {
	// FetchEvents retrieves upcoming games for a sport
	FetchEvents(ctx context.Context, sport string) ([]models.Game, error)

	// FetchOdds retrieves the configured game markets for a sport
	FetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, error)

	// FetchPlayerProps retrieves player prop markets for one event
	FetchPlayerProps(ctx context.Context, sport, eventID string, categories []string) ([]models.PlayerProp, error)

	// Name returns the name of the data source
	Name() string
}

// StatsSource defines the interface for fetching team and player statistics
type StatsSource interface {
	// FetchTeamStats retrieves scoring aggregates for all teams in a sport
	FetchTeamStats(ctx context.Context, sport string) ([]models.TeamStats, error)

	// FetchPlayerStats retrieves season statistics for one player
	FetchPlayerStats(ctx context.Context, sport, playerID string) (*models.PlayerStats, error)

	// Name returns the name of the data source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// parseEventTime parses the RFC3339 timestamps both providers emit
func parseEventTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}
