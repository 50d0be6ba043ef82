package models

import (
	"fmt"
	"math"
	"time"
)

// Player represents a player
type Player struct {
	ID        string    `db:"id" json:"id" validate:"required"`
	Name      string    `db:"name" json:"name" validate:"required"`
	TeamID    string    `db:"team_id" json:"team_id" validate:"required"`
	Position  string    `db:"position" json:"position"`
	Sport     string    `db:"sport" json:"sport" validate:"required"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PlayerPerformanceContext carries the inputs for a player prop calculation:
// the player's historical average for one statistic category, their recent
// form, and a multiplicative adjustment for the opponent's defensive strength.
// Immutable once constructed; the calculator never mutates it.
type PlayerPerformanceContext struct {
	PlayerID          string  `json:"player_id" validate:"required"`
	Sport             string  `json:"sport" validate:"required"`
	StatCategory      string  `json:"stat_category" validate:"required"`
	SeasonAverage     float64 `json:"season_average" validate:"gte=0"`
	RecentAverage     float64 `json:"recent_average" validate:"gte=0"`
	SampleSize        int     `json:"sample_size" validate:"gte=0"`
	RecentSampleSize  int     `json:"recent_sample_size" validate:"gte=0"`
	OpponentDefFactor float64 `json:"opponent_def_factor"`
}

// Validate fails fast on malformed input from the statistics source.
func (c *PlayerPerformanceContext) Validate() error {
	if c.PlayerID == "" {
		return fmt.Errorf("%w: missing player id", ErrInvalidStatistics)
	}
	if c.StatCategory == "" {
		return fmt.Errorf("%w: missing stat category for player %s", ErrInvalidStatistics, c.PlayerID)
	}
	if c.SampleSize < 0 || c.RecentSampleSize < 0 {
		return fmt.Errorf("%w: negative sample size for player %s", ErrInvalidStatistics, c.PlayerID)
	}
	for name, v := range map[string]float64{
		"season average":      c.SeasonAverage,
		"recent average":      c.RecentAverage,
		"opponent def factor": c.OpponentDefFactor,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is not a number for player %s", ErrInvalidStatistics, name, c.PlayerID)
		}
	}
	if c.SeasonAverage < 0 || c.RecentAverage < 0 {
		return fmt.Errorf("%w: negative average for player %s", ErrInvalidStatistics, c.PlayerID)
	}
	if c.OpponentDefFactor <= 0 {
		return fmt.Errorf("%w: opponent defensive factor must be positive for player %s", ErrInvalidStatistics, c.PlayerID)
	}
	return nil
}

// PlayerStats represents raw per-player statistics from the statistics source.
type PlayerStats struct {
	PlayerID   string             `db:"player_id" json:"player_id" validate:"required"`
	PlayerName string             `db:"player_name" json:"player_name"`
	TeamID     string             `db:"team_id" json:"team_id"`
	Sport      string             `db:"sport" json:"sport" validate:"required"`
	Season     string             `db:"season" json:"season"`
	GamesPlayed int               `db:"games_played" json:"games_played" validate:"gte=0"`
	Categories map[string]float64 `db:"categories" json:"categories"`
	RecentForm []float64          `db:"recent_form" json:"recent_form"`
	AsOf       time.Time          `db:"as_of" json:"as_of"`
}

// PerformanceContext builds the immutable calculation input for one statistic
// category, applying the given opponent defensive factor.
func (p *PlayerStats) PerformanceContext(category string, defFactor float64) (*PlayerPerformanceContext, error) {
	season, ok := p.Categories[category]
	if !ok {
		return nil, fmt.Errorf("%w: player %s has no %s data", ErrInsufficientData, p.PlayerID, category)
	}

	recent := season
	if len(p.RecentForm) > 0 {
		sum := 0.0
		for _, v := range p.RecentForm {
			sum += v
		}
		recent = sum / float64(len(p.RecentForm))
	}

	ctx := &PlayerPerformanceContext{
		PlayerID:          p.PlayerID,
		Sport:             p.Sport,
		StatCategory:      category,
		SeasonAverage:     season,
		RecentAverage:     recent,
		SampleSize:        p.GamesPlayed,
		RecentSampleSize:  len(p.RecentForm),
		OpponentDefFactor: defFactor,
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return ctx, nil
}
