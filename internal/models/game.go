package models

import "time"

// Game status values
const (
	GameStatusScheduled = "scheduled"
	GameStatusLive      = "live"
	GameStatusCompleted = "completed"
	GameStatusCancelled = "cancelled"
)

// Game represents a scheduled sports game
type Game struct {
	ID         string    `db:"id" json:"id" validate:"required"`
	Sport      string    `db:"sport" json:"sport" validate:"required"`
	HomeTeamID string    `db:"home_team_id" json:"home_team_id" validate:"required"`
	AwayTeamID string    `db:"away_team_id" json:"away_team_id" validate:"required"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// GameContext is the immutable input to a game-level probability
// calculation. Market lines are passed alongside it per market; the engine
// never persists a GameContext.
type GameContext struct {
	GameID      string    `json:"game_id"`
	Sport       string    `json:"sport"`
	Home        TeamStats `json:"home"`
	Away        TeamStats `json:"away"`
	NeutralSite bool      `json:"neutral_site"`
}

// Validate fails fast when either side's statistics are malformed.
func (g *GameContext) Validate() error {
	if err := g.Home.Validate(); err != nil {
		return err
	}
	return g.Away.Validate()
}
