// Package service orchestrates the edge finder's analysis and ingestion
// workflows.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/cache"
	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/datasource"
	"github.com/yourusername/edge-finder/internal/metrics"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/probability"
	"github.com/yourusername/edge-finder/internal/ranker"
	"github.com/yourusername/edge-finder/internal/repository"
)

// Cache key categories
const (
	cacheCategoryOdds     = "odds"
	cacheCategoryProps    = "props"
	cacheCategoryStats    = "stats"
	cacheCategoryAnalysis = "analysis"
)

// AnalysisService runs the full pipeline for one sport: fetch market odds
// and statistics, estimate outcome probabilities, and rank the results.
// Repositories are optional; when absent the service analyzes without
// persisting.
type AnalysisService struct {
	oddsSource  datasource.OddsSource
	statsSource datasource.StatsSource
	cache       *cache.TTLCache
	calculator  *probability.Calculator
	ranker      *ranker.Ranker
	repos       *repository.Repositories
	cfg         *config.Config
	logger      *logrus.Logger
}

// NewAnalysisService wires the analysis pipeline
func NewAnalysisService(
	oddsSource datasource.OddsSource,
	statsSource datasource.StatsSource,
	ttlCache *cache.TTLCache,
	calculator *probability.Calculator,
	rk *ranker.Ranker,
	repos *repository.Repositories,
	cfg *config.Config,
	logger *logrus.Logger,
) *AnalysisService {
	return &AnalysisService{
		oddsSource:  oddsSource,
		statsSource: statsSource,
		cache:       ttlCache,
		calculator:  calculator,
		ranker:      rk,
		repos:       repos,
		cfg:         cfg,
		logger:      logger,
	}
}

// AnalyzeSport evaluates every cached game market for a sport and returns
// the opportunities clearing the configured edge, best first. Individual
// markets that fail validation are logged and skipped; the run continues.
// The ranked result is memoized for the analysis window, so repeat calls
// inside it return the same list without re-ranking or re-persisting.
func (s *AnalysisService) AnalyzeSport(ctx context.Context, sport string) ([]models.Opportunity, error) {
	key := cache.Key{Category: cacheCategoryAnalysis, Sport: sport, Ref: "game_markets"}
	v, err := s.cache.Fetch(key, s.cfg.Cache.AnalysisTTL(), func() (interface{}, error) {
		opps, err := s.analyzeGameMarkets(ctx, sport)
		if err != nil {
			return nil, err
		}
		return opps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Opportunity), nil
}

func (s *AnalysisService) analyzeGameMarkets(ctx context.Context, sport string) ([]models.Opportunity, error) {
	start := time.Now()

	quotes, err := s.fetchOdds(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("analysis for %s: %w", sport, err)
	}

	teamStats, err := s.fetchTeamStats(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("analysis for %s: %w", sport, err)
	}

	games, err := s.fetchEvents(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("analysis for %s: %w", sport, err)
	}

	gamesByID := make(map[string]models.Game, len(games))
	for _, g := range games {
		gamesByID[g.ID] = g
	}

	var opportunities []models.Opportunity
	for key, group := range groupQuotes(quotes) {
		game, ok := gamesByID[key.eventID]
		if !ok {
			s.logger.WithField("event_id", key.eventID).Debug("Quotes for unknown event")
			continue
		}

		gameCtx, err := s.buildGameContext(game, teamStats)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", key.eventID).Warn("Skipping event")
			metrics.RecordSkippedCandidate()
			continue
		}

		ranked, err := s.rankGameMarket(key.marketType, gameCtx, game, group)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"event_id": key.eventID,
				"market":   key.marketType,
			}).Warn("Skipping market")
			metrics.RecordSkippedCandidate()
			continue
		}
		opportunities = append(opportunities, ranked...)
	}

	ranker.Sort(opportunities)
	s.record(ctx, sport, opportunities, start)
	return opportunities, nil
}

// AnalyzePlayerProps evaluates player prop markets for a sport's upcoming
// events. Like AnalyzeSport, the ranked result is memoized for the analysis
// window.
func (s *AnalysisService) AnalyzePlayerProps(ctx context.Context, sport string) ([]models.Opportunity, error) {
	key := cache.Key{Category: cacheCategoryAnalysis, Sport: sport, Ref: "player_props"}
	v, err := s.cache.Fetch(key, s.cfg.Cache.AnalysisTTL(), func() (interface{}, error) {
		opps, err := s.analyzePlayerProps(ctx, sport)
		if err != nil {
			return nil, err
		}
		return opps, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Opportunity), nil
}

func (s *AnalysisService) analyzePlayerProps(ctx context.Context, sport string) ([]models.Opportunity, error) {
	start := time.Now()

	games, err := s.fetchEvents(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("prop analysis for %s: %w", sport, err)
	}

	teamStats, err := s.fetchTeamStats(ctx, sport)
	if err != nil {
		return nil, fmt.Errorf("prop analysis for %s: %w", sport, err)
	}

	categories := s.propCategories()
	if len(categories) == 0 {
		return nil, fmt.Errorf("prop analysis for %s: %w: no prop variances configured", sport, models.ErrInvalidParameter)
	}

	var opportunities []models.Opportunity
	for _, game := range games {
		props, err := s.fetchProps(ctx, sport, game.ID, categories)
		if err != nil {
			s.logger.WithError(err).WithField("event_id", game.ID).Warn("Skipping event props")
			continue
		}

		for _, prop := range props {
			ranked, err := s.rankProp(ctx, sport, game, prop, teamStats)
			if err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"event_id": game.ID,
					"player":   prop.PlayerID,
					"category": prop.Category,
				}).Warn("Skipping prop")
				metrics.RecordSkippedCandidate()
				continue
			}
			opportunities = append(opportunities, ranked...)
		}
	}

	ranker.Sort(opportunities)
	s.record(ctx, sport, opportunities, start)
	return opportunities, nil
}

// InvalidateSport drops every cached entry for a sport so the next analysis
// refetches from the providers
func (s *AnalysisService) InvalidateSport(sport string) {
	s.cache.DeleteSport(sport)
}

// marketKey groups quotes belonging to one bookmaker's view of one market
type marketKey struct {
	eventID    string
	marketType string
	bookmaker  string
}

// groupQuotes splits quotes per event, market, and bookmaker. Vig removal is
// only meaningful within a single bookmaker's set of mutually exclusive
// outcomes.
func groupQuotes(quotes []models.OddsQuote) map[marketKey][]models.OddsQuote {
	groups := make(map[marketKey][]models.OddsQuote)
	for _, q := range quotes {
		key := marketKey{eventID: q.EventID, marketType: q.MarketType, bookmaker: q.Bookmaker}
		groups[key] = append(groups[key], q)
	}
	return groups
}

// rankGameMarket estimates probabilities for one bookmaker market and ranks
// its outcomes
func (s *AnalysisService) rankGameMarket(marketType string, gameCtx models.GameContext, game models.Game, quotes []models.OddsQuote) ([]models.Opportunity, error) {
	if len(quotes) != 2 {
		return nil, fmt.Errorf("%w: market has %d outcomes, expected 2", models.ErrDegenerateMarket, len(quotes))
	}

	candidates := make([]ranker.Candidate, 0, 2)
	switch marketType {
	case models.MarketMoneyline:
		homeEst, err := s.calculator.GameOutcome(gameCtx)
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			est := *homeEst
			switch q.OutcomeLabel {
			case game.HomeTeamID:
			case game.AwayTeamID:
				est = complement(est, fmt.Sprintf("%s wins", game.AwayTeamID))
			default:
				return nil, fmt.Errorf("%w: outcome %q matches neither side", models.ErrInvalidParameter, q.OutcomeLabel)
			}
			candidates = append(candidates, ranker.Candidate{Estimate: est, Quote: q})
		}

	case models.MarketSpread:
		homeLine, err := homeSpreadLine(quotes, game.HomeTeamID)
		if err != nil {
			return nil, err
		}
		homeEst, err := s.calculator.SpreadCover(gameCtx, homeLine)
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			est := *homeEst
			switch q.OutcomeLabel {
			case game.HomeTeamID:
			case game.AwayTeamID:
				est = complement(est, fmt.Sprintf("%s covers %+.1f", game.AwayTeamID, -homeLine))
			default:
				return nil, fmt.Errorf("%w: outcome %q matches neither side", models.ErrInvalidParameter, q.OutcomeLabel)
			}
			candidates = append(candidates, ranker.Candidate{Estimate: est, Quote: q})
		}

	case models.MarketTotal:
		line, err := sharedLine(quotes)
		if err != nil {
			return nil, err
		}
		overEst, err := s.calculator.TotalPoints(gameCtx, line)
		if err != nil {
			return nil, err
		}
		for _, q := range quotes {
			est := *overEst
			if q.OutcomeLabel == "Under" {
				est = complement(est, fmt.Sprintf("under %.1f", line))
			}
			candidates = append(candidates, ranker.Candidate{Estimate: est, Quote: q})
		}

	default:
		return nil, fmt.Errorf("%w: unsupported market type %q", models.ErrInvalidParameter, marketType)
	}

	return s.ranker.RankMarket(candidates)
}

// rankProp estimates one player prop market and ranks the over/under pair
func (s *AnalysisService) rankProp(ctx context.Context, sport string, game models.Game, prop models.PlayerProp, teamStats map[string]models.TeamStats) ([]models.Opportunity, error) {
	stats, err := s.fetchPlayerStats(ctx, sport, prop.PlayerID)
	if err != nil {
		return nil, err
	}

	defFactor := s.opponentDefFactor(stats.TeamID, game, teamStats)
	perfCtx, err := stats.PerformanceContext(prop.Category, defFactor)
	if err != nil {
		return nil, err
	}

	overEst, err := s.calculator.PlayerProp(*perfCtx, prop.Line)
	if err != nil {
		return nil, err
	}
	underEst := complement(*overEst, fmt.Sprintf("%s %s under %.1f", prop.PlayerID, prop.Category, prop.Line))

	return s.ranker.RankMarket([]ranker.Candidate{
		{Estimate: *overEst, Quote: prop.OverQuote()},
		{Estimate: underEst, Quote: prop.UnderQuote()},
	})
}

// opponentDefFactor scales a player's expectation by the opposing defense:
// points allowed relative to the league average. Falls back to neutral when
// the opponent is unknown.
func (s *AnalysisService) opponentDefFactor(playerTeamID string, game models.Game, teamStats map[string]models.TeamStats) float64 {
	var opponentID string
	switch playerTeamID {
	case game.HomeTeamID:
		opponentID = game.AwayTeamID
	case game.AwayTeamID:
		opponentID = game.HomeTeamID
	default:
		return 1.0
	}

	opponent, ok := teamStats[opponentID]
	if !ok || !opponent.HasSample() {
		return 1.0
	}

	var total float64
	var counted int
	for _, ts := range teamStats {
		if ts.HasSample() {
			total += ts.PointsAllowed
			counted++
		}
	}
	if counted == 0 || total == 0 {
		return 1.0
	}

	leagueAvg := total / float64(counted)
	return opponent.PointsAllowed / leagueAvg
}

// buildGameContext joins a game with both teams' latest statistics
func (s *AnalysisService) buildGameContext(game models.Game, teamStats map[string]models.TeamStats) (models.GameContext, error) {
	home, ok := teamStats[game.HomeTeamID]
	if !ok {
		return models.GameContext{}, fmt.Errorf("%w: no statistics for team %s", models.ErrInsufficientData, game.HomeTeamID)
	}
	away, ok := teamStats[game.AwayTeamID]
	if !ok {
		return models.GameContext{}, fmt.Errorf("%w: no statistics for team %s", models.ErrInsufficientData, game.AwayTeamID)
	}

	return models.GameContext{
		GameID: game.ID,
		Sport:  game.Sport,
		Home:   home,
		Away:   away,
	}, nil
}

// fetchOdds returns the sport's quotes, memoized for the odds window, and
// persists fresh quotes when a repository is wired
func (s *AnalysisService) fetchOdds(ctx context.Context, sport string) ([]models.OddsQuote, error) {
	key := cache.Key{Category: cacheCategoryOdds, Sport: sport, Ref: "game_markets"}
	v, err := s.cache.Fetch(key, s.cfg.Cache.OddsTTL(), func() (interface{}, error) {
		quotes, err := s.oddsSource.FetchOdds(ctx, sport)
		if err != nil {
			return nil, err
		}
		if s.repos != nil {
			refs := make([]*models.OddsQuote, len(quotes))
			for i := range quotes {
				refs[i] = &quotes[i]
			}
			if err := s.repos.Odds.InsertBatch(ctx, refs); err != nil {
				s.logger.WithError(err).Warn("Failed to persist odds quotes")
			}
		}
		return quotes, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.OddsQuote), nil
}

// fetchEvents returns the sport's upcoming games, memoized for the odds window
func (s *AnalysisService) fetchEvents(ctx context.Context, sport string) ([]models.Game, error) {
	key := cache.Key{Category: cacheCategoryOdds, Sport: sport, Ref: "events"}
	v, err := s.cache.Fetch(key, s.cfg.Cache.OddsTTL(), func() (interface{}, error) {
		games, err := s.oddsSource.FetchEvents(ctx, sport)
		if err != nil {
			return nil, err
		}
		if s.repos != nil {
			for i := range games {
				if err := s.repos.Game.Upsert(ctx, &games[i]); err != nil {
					s.logger.WithError(err).WithField("game_id", games[i].ID).Warn("Failed to persist game")
				}
			}
		}
		return games, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Game), nil
}

// fetchTeamStats returns the sport's team statistics keyed by team ID,
// memoized for the statistics window
func (s *AnalysisService) fetchTeamStats(ctx context.Context, sport string) (map[string]models.TeamStats, error) {
	key := cache.Key{Category: cacheCategoryStats, Sport: sport, Ref: "teams"}
	v, err := s.cache.Fetch(key, s.cfg.Cache.StatsTTL(), func() (interface{}, error) {
		stats, err := s.statsSource.FetchTeamStats(ctx, sport)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]models.TeamStats, len(stats))
		for i := range stats {
			byID[stats[i].TeamID] = stats[i]
			if s.repos != nil {
				if err := s.repos.Stats.UpsertTeamStats(ctx, &stats[i]); err != nil {
					s.logger.WithError(err).WithField("team_id", stats[i].TeamID).Warn("Failed to persist team stats")
				}
			}
		}
		return byID, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]models.TeamStats), nil
}

// fetchProps returns one event's prop markets, memoized for the props window
func (s *AnalysisService) fetchProps(ctx context.Context, sport, eventID string, categories []string) ([]models.PlayerProp, error) {
	key := cache.Key{Category: cacheCategoryProps, Sport: sport, Ref: eventID}
	v, err := s.cache.Fetch(key, s.cfg.Cache.PropsTTL(), func() (interface{}, error) {
		return s.oddsSource.FetchPlayerProps(ctx, sport, eventID, categories)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.PlayerProp), nil
}

// fetchPlayerStats returns one player's statistics, memoized for the
// statistics window
func (s *AnalysisService) fetchPlayerStats(ctx context.Context, sport, playerID string) (*models.PlayerStats, error) {
	key := cache.Key{Category: cacheCategoryStats, Sport: sport, Ref: playerID}
	v, err := s.cache.Fetch(key, s.cfg.Cache.StatsTTL(), func() (interface{}, error) {
		stats, err := s.statsSource.FetchPlayerStats(ctx, sport, playerID)
		if err != nil {
			return nil, err
		}
		if s.repos != nil {
			if err := s.repos.Stats.UpsertPlayerStats(ctx, stats); err != nil {
				s.logger.WithError(err).WithField("player_id", playerID).Warn("Failed to persist player stats")
			}
		}
		return stats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PlayerStats), nil
}

// propCategories returns the configured prop statistic categories in a
// stable order
func (s *AnalysisService) propCategories() []string {
	categories := make([]string, 0, len(s.cfg.Analysis.PropVariance))
	for category := range s.cfg.Analysis.PropVariance {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// record persists and counts a finished run's opportunities
func (s *AnalysisService) record(ctx context.Context, sport string, opportunities []models.Opportunity, start time.Time) {
	if s.repos != nil && len(opportunities) > 0 {
		refs := make([]*models.Opportunity, len(opportunities))
		for i := range opportunities {
			refs[i] = &opportunities[i]
		}
		if err := s.repos.Recommendation.InsertBatch(ctx, refs); err != nil {
			s.logger.WithError(err).Warn("Failed to persist recommendations")
		}
	}

	for _, opp := range opportunities {
		metrics.RecordOpportunity(opp.Sport, opp.MarketType)
	}
	metrics.RecordAnalysis(sport, time.Since(start).Seconds(), len(opportunities))

	s.logger.WithFields(logrus.Fields{
		"sport":         sport,
		"opportunities": len(opportunities),
		"duration":      time.Since(start),
	}).Info("Analysis complete")
}

// complement flips an estimate to the opposite side of a two-outcome market
func complement(est models.ProbabilityEstimate, label string) models.ProbabilityEstimate {
	est.OutcomeLabel = label
	est.Probability = 1 - est.Probability
	return est
}

// homeSpreadLine extracts the home side's handicap from a spread pair
func homeSpreadLine(quotes []models.OddsQuote, homeTeamID string) (float64, error) {
	for _, q := range quotes {
		if q.OutcomeLabel == homeTeamID {
			if q.Line == nil {
				return 0, fmt.Errorf("%w: spread quote without a line", models.ErrInvalidParameter)
			}
			return *q.Line, nil
		}
	}
	return 0, fmt.Errorf("%w: no home outcome in spread market", models.ErrInvalidParameter)
}

// sharedLine extracts the single line a totals pair is quoted at
func sharedLine(quotes []models.OddsQuote) (float64, error) {
	var line *float64
	for _, q := range quotes {
		if q.Line == nil {
			return 0, fmt.Errorf("%w: total quote without a line", models.ErrInvalidParameter)
		}
		if line != nil && *line != *q.Line {
			return 0, fmt.Errorf("%w: totals pair quoted at different lines", models.ErrInvalidParameter)
		}
		line = q.Line
	}
	if line == nil {
		return 0, fmt.Errorf("%w: empty totals market", models.ErrDegenerateMarket)
	}
	return *line, nil
}
