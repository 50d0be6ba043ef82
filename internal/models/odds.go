package models

import (
	"fmt"
	"time"
)

// Market types quoted by the odds source
const (
	MarketMoneyline  = "h2h"
	MarketSpread     = "spreads"
	MarketTotal      = "totals"
	MarketPlayerProp = "player_prop"
)

// OddsQuote is a point-in-time bookmaker quote for one outcome, in American
// odds. The engine only derives probability from a quote, never mutates it.
type OddsQuote struct {
	Sport        string    `db:"sport" json:"sport" validate:"required"`
	EventID      string    `db:"event_id" json:"event_id" validate:"required"`
	MarketType   string    `db:"market_type" json:"market_type" validate:"required"`
	OutcomeLabel string    `db:"outcome_label" json:"outcome_label" validate:"required"`
	Bookmaker    string    `db:"bookmaker" json:"bookmaker" validate:"required"`
	Price        int       `db:"price" json:"price" validate:"required"`
	Line         *float64  `db:"line" json:"line,omitempty"`
	ObservedAt   time.Time `db:"observed_at" json:"observed_at" validate:"required"`
}

// Validate rejects quotes the conversion utilities cannot handle.
func (q *OddsQuote) Validate() error {
	if q.Price == 0 {
		return fmt.Errorf("%w: price is zero for %s", ErrInvalidOdds, q.OutcomeLabel)
	}
	if q.Price > -100 && q.Price < 100 {
		return fmt.Errorf("%w: price %d outside american range for %s", ErrInvalidOdds, q.Price, q.OutcomeLabel)
	}
	return nil
}

// PlayerProp is a bookmaker player-performance market: an over/under line on
// one statistic category with a price on each side.
type PlayerProp struct {
	Sport      string    `db:"sport" json:"sport" validate:"required"`
	EventID    string    `db:"event_id" json:"event_id" validate:"required"`
	PlayerID   string    `db:"player_id" json:"player_id" validate:"required"`
	PlayerName string    `db:"player_name" json:"player_name"`
	Category   string    `db:"category" json:"category" validate:"required"`
	Line       float64   `db:"line" json:"line"`
	OverPrice  int       `db:"over_price" json:"over_price" validate:"required"`
	UnderPrice int       `db:"under_price" json:"under_price" validate:"required"`
	Bookmaker  string    `db:"bookmaker" json:"bookmaker" validate:"required"`
	ObservedAt time.Time `db:"observed_at" json:"observed_at"`
}

// OverQuote returns the over side as a standalone quote.
func (p *PlayerProp) OverQuote() OddsQuote {
	line := p.Line
	return OddsQuote{
		Sport:        p.Sport,
		EventID:      p.EventID,
		MarketType:   MarketPlayerProp,
		OutcomeLabel: fmt.Sprintf("%s %s over %.1f", p.PlayerName, p.Category, p.Line),
		Bookmaker:    p.Bookmaker,
		Price:        p.OverPrice,
		Line:         &line,
		ObservedAt:   p.ObservedAt,
	}
}

// UnderQuote returns the under side as a standalone quote.
func (p *PlayerProp) UnderQuote() OddsQuote {
	line := p.Line
	return OddsQuote{
		Sport:        p.Sport,
		EventID:      p.EventID,
		MarketType:   MarketPlayerProp,
		OutcomeLabel: fmt.Sprintf("%s %s under %.1f", p.PlayerName, p.Category, p.Line),
		Bookmaker:    p.Bookmaker,
		Price:        p.UnderPrice,
		Line:         &line,
		ObservedAt:   p.ObservedAt,
	}
}
