package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "EDGE_FINDER"

// Load reads and parses the configuration from file and environment
// variables. Environment variable placeholders in the YAML (${VAR}) are
// expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with the documented fallbacks applied
// for optional fields: recent-form weight 0.4, minimum edge 0.05, odds and
// player-prop windows 5 minutes, statistics 1 hour, analysis 10 minutes.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	// Missing file: continue with defaults and environment variables

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("analysis.min_edge", 0.05)
	v.SetDefault("analysis.recent_form_weight", 0.4)
	v.SetDefault("analysis.kelly_fraction", 0.25)

	v.SetDefault("cache.odds_ttl_seconds", 300)
	v.SetDefault("cache.props_ttl_seconds", 300)
	v.SetDefault("cache.stats_ttl_seconds", 3600)
	v.SetDefault("cache.analysis_ttl_seconds", 600)

	v.SetDefault("odds_api.rate_limit", 5.0)
	v.SetDefault("odds_api.timeout_seconds", 30)
	v.SetDefault("stats_api.rate_limit", 5.0)
	v.SetDefault("stats_api.timeout_seconds", 30)
	v.SetDefault("stats_api.recent_games", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9191)
	v.SetDefault("metrics.path", "/metrics")
}
