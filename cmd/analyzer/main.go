// Package main provides a one-shot analysis CLI: fetch current markets for a
// sport, run the probability engine, and print ranked opportunities without
// touching the database.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/edge-finder/internal/cache"
	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/datasource"
	"github.com/yourusername/edge-finder/internal/logger"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	appLog     *logrus.Logger
	cfg        *config.Config
	sources    *datasource.Sources
	analysis   *service.AnalysisService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(propsCmd)
	rootCmd.AddCommand(versionCmd)
}

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Run the probability engine against current markets",
	Long:  `Fetches current odds and team statistics for a sport, estimates outcome probabilities, and prints the opportunities clearing the configured edge.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sources != nil {
			sources.Close()
		}
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [sport]",
	Short: "Rank game markets for a sport",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		opps, err := analysis.AnalyzeSport(ctx, args[0])
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		displayOpportunities(args[0], opps)
		return nil
	},
}

var propsCmd = &cobra.Command{
	Use:   "props [sport]",
	Short: "Rank player prop markets for a sport",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		opps, err := analysis.AnalyzePlayerProps(ctx, args[0])
		if err != nil {
			return fmt.Errorf("player prop analysis failed: %w", err)
		}
		displayOpportunities(args[0], opps)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("analyzer %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	return config.Validate(cfg)
}

func setupDependencies() error {
	appLog = logger.NewLogger(cfg.App.LogLevel)
	appLog.SetLevel(logrus.WarnLevel)

	var err error
	sources, err = datasource.NewSources(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to create data sources: %w", err)
	}

	calculator, err := service.NewCalculatorFromConfig(cfg, appLog)
	if err != nil {
		return fmt.Errorf("failed to create probability calculator: %w", err)
	}
	rk := service.NewRankerFromConfig(cfg, appLog)

	// One-shot mode: no repositories, nothing is persisted.
	analysis = service.NewAnalysisService(
		sources.Odds, sources.Stats, cache.New(time.Minute), calculator, rk, nil, cfg, appLog,
	)
	return nil
}

func displayOpportunities(sport string, opps []models.Opportunity) {
	fmt.Printf("\n%s — %d opportunities above %.1f%% edge\n\n", sport, len(opps), cfg.Analysis.MinEdge*100)

	if len(opps) == 0 {
		fmt.Println("No mispriced markets found.")
		return
	}

	fmt.Printf("%-28s %-12s %-26s %-12s %8s %8s %8s %10s\n",
		"EVENT", "MARKET", "OUTCOME", "BOOK", "PRICE", "EDGE", "EV", "STAKE")
	for _, o := range opps {
		fmt.Printf("%-28s %-12s %-26s %-12s %+8d %7.2f%% %7.2f%% %10s\n",
			truncate(o.EventID, 28),
			o.MarketType,
			truncate(o.OutcomeLabel, 26),
			truncate(o.Bookmaker, 12),
			o.Price,
			o.Edge*100,
			o.ExpectedValue*100,
			o.SuggestedStake.StringFixed(2),
		)
	}
	fmt.Println()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
