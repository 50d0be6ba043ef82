package models

import "errors"

// Validation errors raised by the probability engine. All of these indicate
// malformed input rather than a transient condition, so none are retried.
var (
	ErrInvalidOdds       = errors.New("invalid american odds")
	ErrDegenerateMarket  = errors.New("degenerate market: implied probabilities sum to zero or less")
	ErrInvalidParameter  = errors.New("invalid distribution parameter")
	ErrInsufficientData  = errors.New("insufficient historical data")
	ErrInvalidStatistics = errors.New("invalid statistics record")
)

// Persistence errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
)
