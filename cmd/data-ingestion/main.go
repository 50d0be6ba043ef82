// Package main provides the entry point for the one-shot data ingestion job:
// pull games, odds and team statistics for every configured sport and store
// them, then prune stale recommendations.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/datasource"
	"github.com/yourusername/edge-finder/internal/logger"
	"github.com/yourusername/edge-finder/internal/repository"
	"github.com/yourusername/edge-finder/internal/service"
)

func main() {
	cfg, err := config.LoadWithDefaults(os.Getenv("EDGE_FINDER_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(context.Background(), cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"sports":      cfg.Ingestion.Sports,
	}).Info("Data ingestion starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create repositories")
	}

	sources, err := datasource.NewSources(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create data sources")
	}
	defer sources.Close()

	ingestion, err := service.NewIngestionService(sources.Odds, sources.Stats, repos, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create ingestion service")
	}

	failures := 0
	for _, sport := range cfg.Ingestion.Sports {
		m, err := ingestion.SyncSport(ctx, sport)
		if err != nil {
			failures++
			appLog.WithError(err).WithField("sport", sport).Error("Sync failed")
			continue
		}
		appLog.WithFields(logrus.Fields{
			"sport":    sport,
			"games":    m.Games,
			"quotes":   m.Quotes,
			"teams":    m.Teams,
			"errors":   m.Errors,
			"duration": m.Duration.String(),
		}).Info("Sport synced")
	}

	if err := ingestion.CleanupStale(ctx); err != nil {
		appLog.WithError(err).Error("Cleanup failed")
		failures++
	}

	if failures > 0 {
		appLog.WithField("failures", failures).Fatal("Data ingestion finished with errors")
	}
	appLog.Info("Data ingestion finished")
}
