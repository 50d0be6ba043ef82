package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/edge-finder/internal/config"
)

// SetupTestDB creates a test database connection. Skips the test when
// EDGE_FINDER_TEST_DB is unset so the suite runs without a live database.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	if os.Getenv("EDGE_FINDER_TEST_DB") == "" {
		t.Skip("EDGE_FINDER_TEST_DB not set; skipping database integration test")
	}

	cfg, err := config.LoadWithDefaults(os.Getenv("EDGE_FINDER_TEST_CONFIG"))
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}
