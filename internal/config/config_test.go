package config

import (
	"os"
	"strings"
	"testing"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	expectedNoErrorMsg    = "expected no error, got %v"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.App.Name != "edge-finder" {
		t.Errorf("expected app name 'edge-finder', got '%s'", cfg.App.Name)
	}

	if cfg.App.Environment != "development" {
		t.Errorf("expected environment 'development', got '%s'", cfg.App.Environment)
	}

	if cfg.Database.Port != 5432 {
		t.Errorf("expected database port 5432, got %d", cfg.Database.Port)
	}

	nfl, ok := cfg.Analysis.Sports["americanfootball_nfl"]
	if !ok {
		t.Fatal("expected NFL sport constants to be loaded")
	}
	if nfl.HomeAdvantage != 2.5 {
		t.Errorf("expected NFL home advantage 2.5, got %v", nfl.HomeAdvantage)
	}
	if nfl.MarginVariance != 169.0 {
		t.Errorf("expected NFL margin variance 169.0, got %v", nfl.MarginVariance)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvExpansion tests ${VAR} expansion inside the YAML
func TestLoadConfigEnvExpansion(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
}

// TestLoadWithDefaultsMissingFile tests defaults are applied when no file exists
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Analysis.MinEdge != 0.05 {
		t.Errorf("expected default min edge 0.05, got %v", cfg.Analysis.MinEdge)
	}
	if cfg.Analysis.RecentFormWeight != 0.4 {
		t.Errorf("expected default recent form weight 0.4, got %v", cfg.Analysis.RecentFormWeight)
	}
	if cfg.Cache.OddsTTLSeconds != 300 {
		t.Errorf("expected default odds window 300s, got %d", cfg.Cache.OddsTTLSeconds)
	}
	if cfg.Cache.StatsTTLSeconds != 3600 {
		t.Errorf("expected default stats window 3600s, got %d", cfg.Cache.StatsTTLSeconds)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	os.Setenv("TEST_DB_PASSWORD", "pw")
	defer os.Unsetenv("TEST_DB_PASSWORD")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg := loadValid(t)

	cfg.App.Environment = "invalid"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateInvalidLogLevel tests validation of invalid log level
func TestValidateInvalidLogLevel(t *testing.T) {
	cfg := loadValid(t)

	cfg.App.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid log level")
	}
}

// TestValidateProductionRequiresSSL tests the production SSL cross-field rule
func TestValidateProductionRequiresSSL(t *testing.T) {
	cfg := loadValid(t)

	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "disable"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for production without SSL")
	}
	if !strings.Contains(err.Error(), "SSL") {
		t.Errorf("expected SSL error, got: %v", err)
	}

	cfg.Database.SSLMode = "require"
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no error with SSL required, got %v", err)
	}
}

// TestValidateIdleConnectionsBound tests the idle vs max connection rule
func TestValidateIdleConnectionsBound(t *testing.T) {
	cfg := loadValid(t)

	cfg.Database.MaxIdleConnections = cfg.Database.MaxConnections + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for idle connections exceeding max")
	}
}

// TestValidateIngestedSportNeedsConstants tests that every polled sport has
// calculator constants configured
func TestValidateIngestedSportNeedsConstants(t *testing.T) {
	cfg := loadValid(t)

	cfg.Ingestion.Sports = append(cfg.Ingestion.Sports, "icehockey_nhl")
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for sport without constants")
	}
	if !strings.Contains(err.Error(), "icehockey_nhl") {
		t.Errorf("expected error to name the sport, got: %v", err)
	}
}

// TestValidateNegativePropVariance tests rejection of non-positive prop variance
func TestValidateNegativePropVariance(t *testing.T) {
	cfg := loadValid(t)

	cfg.Analysis.PropVariance["passing_yards"] = -1.0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for negative prop variance")
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg := loadValid(t)

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, "postgres://") {
		t.Errorf("expected DSN to start with 'postgres://', got '%s'", dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected DSN to carry ssl mode, got '%s'", dsn)
	}
}

// TestIsDevelopment tests environment check function
func TestIsDevelopment(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: "development"}}

	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment() to return true")
	}
	if cfg.IsProduction() {
		t.Error("expected IsProduction() to return false")
	}
}

// TestCacheWindowDurations tests the duration helpers
func TestCacheWindowDurations(t *testing.T) {
	cfg := loadValid(t)

	if got := cfg.Cache.OddsTTL().Seconds(); got != 300 {
		t.Errorf("expected odds window 300s, got %v", got)
	}
	if got := cfg.Cache.StatsTTL().Seconds(); got != 3600 {
		t.Errorf("expected stats window 3600s, got %v", got)
	}
	if got := cfg.Cache.AnalysisTTL().Seconds(); got != 600 {
		t.Errorf("expected analysis window 600s, got %v", got)
	}
}

// TestOverlaySecrets tests that fetched secrets override file values
func TestOverlaySecrets(t *testing.T) {
	cfg := loadValid(t)

	overlaySecretsOnConfig(cfg, &SecretsOverlay{
		DatabasePassword: "vault-pw",
		OddsAPIKey:       "vault-odds-key",
	})

	if cfg.Database.Password != "vault-pw" {
		t.Errorf("expected overlaid database password, got '%s'", cfg.Database.Password)
	}
	if cfg.OddsAPI.APIKey != "vault-odds-key" {
		t.Errorf("expected overlaid odds API key, got '%s'", cfg.OddsAPI.APIKey)
	}
	if cfg.StatsAPI.APIKey != "test-stats-key" {
		t.Errorf("expected stats API key untouched, got '%s'", cfg.StatsAPI.APIKey)
	}
}

func loadValid(t *testing.T) *Config {
	t.Helper()

	os.Setenv("TEST_DB_PASSWORD", "pw")
	t.Cleanup(func() { os.Unsetenv("TEST_DB_PASSWORD") })

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config, got %v", err)
	}
	return cfg
}
