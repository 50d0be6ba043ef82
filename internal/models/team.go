package models

import (
	"fmt"
	"math"
	"time"
)

// Team represents a sports team
type Team struct {
	ID           string    `db:"id" json:"id" validate:"required"`
	Name         string    `db:"name" json:"name" validate:"required"`
	Abbreviation string    `db:"abbreviation" json:"abbreviation"`
	Sport        string    `db:"sport" json:"sport" validate:"required"`
	Conference   *string   `db:"conference" json:"conference,omitempty"`
	Division     *string   `db:"division" json:"division,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TeamStats holds a team's historical scoring aggregates as of a given date.
// SampleSize is the number of games the averages were computed over and must
// be at least 1 before the stats can be used in a calculation.
type TeamStats struct {
	TeamID        string    `db:"team_id" json:"team_id" validate:"required"`
	Sport         string    `db:"sport" json:"sport" validate:"required"`
	PointsScored  float64   `db:"points_scored" json:"points_scored" validate:"gte=0"`
	PointsAllowed float64   `db:"points_allowed" json:"points_allowed" validate:"gte=0"`
	SampleSize    int       `db:"sample_size" json:"sample_size" validate:"gte=0"`
	RecentAverage *float64  `db:"recent_average" json:"recent_average,omitempty"`
	AsOf          time.Time `db:"as_of" json:"as_of"`
}

// NetRating returns average points scored minus average points allowed.
func (s *TeamStats) NetRating() float64 {
	return s.PointsScored - s.PointsAllowed
}

// Validate fails fast on malformed input from the statistics source.
func (s *TeamStats) Validate() error {
	if s.TeamID == "" {
		return fmt.Errorf("%w: missing team id", ErrInvalidStatistics)
	}
	if s.SampleSize < 0 {
		return fmt.Errorf("%w: negative sample size %d for team %s", ErrInvalidStatistics, s.SampleSize, s.TeamID)
	}
	if math.IsNaN(s.PointsScored) || math.IsInf(s.PointsScored, 0) {
		return fmt.Errorf("%w: points scored is not a number for team %s", ErrInvalidStatistics, s.TeamID)
	}
	if math.IsNaN(s.PointsAllowed) || math.IsInf(s.PointsAllowed, 0) {
		return fmt.Errorf("%w: points allowed is not a number for team %s", ErrInvalidStatistics, s.TeamID)
	}
	if s.PointsScored < 0 || s.PointsAllowed < 0 {
		return fmt.Errorf("%w: negative scoring average for team %s", ErrInvalidStatistics, s.TeamID)
	}
	if s.RecentAverage != nil && (math.IsNaN(*s.RecentAverage) || *s.RecentAverage < 0) {
		return fmt.Errorf("%w: invalid recent-form average for team %s", ErrInvalidStatistics, s.TeamID)
	}
	return nil
}

// HasSample reports whether the stats carry at least one counted game.
func (s *TeamStats) HasSample() bool {
	return s.SampleSize >= 1
}
