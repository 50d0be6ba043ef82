// Package config provides configuration management for the edge finder.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	OddsAPI   OddsAPIConfig   `mapstructure:"odds_api" validate:"required"`
	StatsAPI  StatsAPIConfig  `mapstructure:"stats_api" validate:"required"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics" validate:"required"`
	Ingestion IngestionConfig `mapstructure:"ingestion" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// OddsAPIConfig represents the bookmaker odds source configuration
type OddsAPIConfig struct {
	BaseURL        string   `mapstructure:"base_url" validate:"required,url"`
	APIKey         string   `mapstructure:"api_key" validate:"required"`
	Regions        []string `mapstructure:"regions" validate:"required,min=1"`
	Markets        []string `mapstructure:"markets" validate:"required,min=1"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"required,gt=0"`
}

// StatsAPIConfig represents the statistics source configuration
type StatsAPIConfig struct {
	BaseURL        string  `mapstructure:"base_url" validate:"required,url"`
	APIKey         string  `mapstructure:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RateLimit      float64 `mapstructure:"rate_limit" validate:"required,gt=0"`
	RecentGames    int     `mapstructure:"recent_games" validate:"required,gt=0"`
}

// SportConstants holds the per-sport model constants. These are empirically
// chosen configuration inputs with no documented statistical derivation.
type SportConstants struct {
	HomeAdvantage  float64 `mapstructure:"home_advantage" validate:"gte=0"`
	MarginVariance float64 `mapstructure:"margin_variance" validate:"required,gt=0"`
	TotalVariance  float64 `mapstructure:"total_variance" validate:"required,gt=0"`
}

// AnalysisConfig represents the probability engine configuration
type AnalysisConfig struct {
	MinEdge          float64                   `mapstructure:"min_edge" validate:"gte=0,lte=1"`
	RecentFormWeight float64                   `mapstructure:"recent_form_weight" validate:"gte=0,lte=1"`
	KellyFraction    float64                   `mapstructure:"kelly_fraction" validate:"gte=0,lte=1"`
	Bankroll         float64                   `mapstructure:"bankroll" validate:"gte=0"`
	Sports           map[string]SportConstants `mapstructure:"sports" validate:"required,min=1"`
	PropVariance     map[string]float64        `mapstructure:"prop_variance"`
}

// CacheConfig represents the per-category cache windows. The cache itself is
// category-agnostic; these defaults are applied by callers per fetch.
type CacheConfig struct {
	OddsTTLSeconds     int `mapstructure:"odds_ttl_seconds" validate:"required,gt=0"`
	PropsTTLSeconds    int `mapstructure:"props_ttl_seconds" validate:"required,gt=0"`
	StatsTTLSeconds    int `mapstructure:"stats_ttl_seconds" validate:"required,gt=0"`
	AnalysisTTLSeconds int `mapstructure:"analysis_ttl_seconds" validate:"required,gt=0"`
}

// OddsTTL returns the odds window as a duration.
func (c CacheConfig) OddsTTL() time.Duration { return time.Duration(c.OddsTTLSeconds) * time.Second }

// PropsTTL returns the player props window as a duration.
func (c CacheConfig) PropsTTL() time.Duration { return time.Duration(c.PropsTTLSeconds) * time.Second }

// StatsTTL returns the statistics window as a duration.
func (c CacheConfig) StatsTTL() time.Duration { return time.Duration(c.StatsTTLSeconds) * time.Second }

// AnalysisTTL returns the aggregated-analysis window as a duration.
func (c CacheConfig) AnalysisTTL() time.Duration {
	return time.Duration(c.AnalysisTTLSeconds) * time.Second
}

// ServerConfig represents the dashboard API server configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IngestionConfig represents scheduled refresh configuration
type IngestionConfig struct {
	Sports                  []string `mapstructure:"sports" validate:"required,min=1"`
	PollIntervalSeconds     int      `mapstructure:"poll_interval_seconds" validate:"required,gt=0"`
	AnalysisIntervalSeconds int      `mapstructure:"analysis_interval_seconds" validate:"required,gt=0"`
	HistoricalSync          string   `mapstructure:"historical_sync" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
