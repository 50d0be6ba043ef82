// Package main provides the entry point for the long-running edge finder
// service: scheduled ingestion and analysis plus the dashboard API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/api"
	"github.com/yourusername/edge-finder/internal/cache"
	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/database"
	"github.com/yourusername/edge-finder/internal/datasource"
	"github.com/yourusername/edge-finder/internal/health"
	"github.com/yourusername/edge-finder/internal/logger"
	"github.com/yourusername/edge-finder/internal/metrics"
	"github.com/yourusername/edge-finder/internal/repository"
	"github.com/yourusername/edge-finder/internal/scheduler"
	"github.com/yourusername/edge-finder/internal/service"
)

// Build information - set via ldflags
var (
	Version = "dev"
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
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Edge finder starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database and repositories
	db, err := database.Initialize(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	repos, err := repository.NewRepositories(db)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create repositories")
	}

	// Data sources
	sources, err := datasource.NewSources(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create data sources")
	}
	defer sources.Close()

	// Analysis pipeline
	calculator, err := service.NewCalculatorFromConfig(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create probability calculator")
	}
	rk := service.NewRankerFromConfig(cfg, appLog)
	store := cache.New(time.Minute)

	analysisSvc := service.NewAnalysisService(
		sources.Odds, sources.Stats, store, calculator, rk, repos, cfg, appLog,
	)
	ingestionSvc, err := service.NewIngestionService(sources.Odds, sources.Stats, repos, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to create ingestion service")
	}

	// Scheduler
	sched := scheduler.NewScheduler(ingestionSvc, analysisSvc, appLog)
	if err := sched.ScheduleOddsPolling(cfg.Ingestion.PollIntervalSeconds, cfg.Ingestion.Sports); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule odds polling")
	}
	if err := sched.ScheduleAnalysis(cfg.Ingestion.AnalysisIntervalSeconds, cfg.Ingestion.Sports); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule analysis")
	}
	if err := sched.ScheduleMaintenance(cfg.Ingestion.HistoricalSync); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule maintenance")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}
	defer sched.Stop()

	// Dashboard API with websocket hub
	hub := api.NewHub(logger.WithComponent(appLog, "hub"))
	go hub.Run(ctx)

	apiServer := api.NewServer(
		cfg,
		analysisSvc,
		repos.Recommendation,
		sched,
		store,
		hub,
		logger.WithComponent(appLog, "api"),
	)
	go func() {
		if err := apiServer.Start(ctx); err != nil {
			appLog.WithError(err).Error("Dashboard API stopped")
			cancel()
		}
	}()

	// Health endpoints
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Logger:      appLog,
	})
	healthServer.RegisterDatabase(db)
	healthServer.Start(ctx)
	healthServer.SetReady(true)

	// Prometheus metrics
	if cfg.Metrics.Enabled {
		go serveMetrics(ctx, cfg, appLog)
	}

	appLog.WithFields(logrus.Fields{
		"sports":            cfg.Ingestion.Sports,
		"poll_interval":     cfg.Ingestion.PollIntervalSeconds,
		"analysis_interval": cfg.Ingestion.AnalysisIntervalSeconds,
		"api_port":          cfg.Server.Port,
	}).Info("Edge finder is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		appLog.WithField("signal", sig).Info("Shutdown signal received")
	case <-ctx.Done():
	}

	appLog.Info("Initiating graceful shutdown...")
	cancel()
	sched.Stop()

	// Give components time to cleanup
	time.Sleep(2 * time.Second)

	appLog.Info("Edge finder shut down successfully")
}

func serveMetrics(ctx context.Context, cfg *config.Config, appLog *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	appLog.WithFields(logrus.Fields{
		"port": cfg.Metrics.Port,
		"path": cfg.Metrics.Path,
	}).Info("Metrics server listening")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		appLog.WithError(err).Error("Metrics server stopped")
	}
}
