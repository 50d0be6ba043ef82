// Package api serves the dashboard HTTP API and the websocket stream of
// freshly ranked opportunities.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edge-finder/internal/cache"
	"github.com/yourusername/edge-finder/internal/config"
	"github.com/yourusername/edge-finder/internal/models"
	"github.com/yourusername/edge-finder/internal/ranker"
	"github.com/yourusername/edge-finder/internal/repository"
	"github.com/yourusername/edge-finder/internal/scheduler"
	"github.com/yourusername/edge-finder/internal/service"
)

const (
	defaultLimit   = 100
	maxLimit       = 500
	defaultWindow  = 24 * time.Hour
	handlerTimeout = 30 * time.Second
)

// Server exposes ranked opportunities over HTTP and websocket.
type Server struct {
	cfg             *config.Config
	analysis        *service.AnalysisService
	recommendations repository.RecommendationRepository
	sched           *scheduler.Scheduler
	store           *cache.TTLCache
	hub             *Hub
	logger          *logrus.Entry
	httpServer      *http.Server
	startedAt       time.Time
}

// NewServer wires the dashboard server. recommendations and sched may be nil;
// the corresponding endpoints degrade to live analysis / partial status.
func NewServer(
	cfg *config.Config,
	analysis *service.AnalysisService,
	recommendations repository.RecommendationRepository,
	sched *scheduler.Scheduler,
	store *cache.TTLCache,
	hub *Hub,
	logger *logrus.Entry,
) *Server {
	s := &Server{
		cfg:             cfg,
		analysis:        analysis,
		recommendations: recommendations,
		sched:           sched,
		store:           store,
		hub:             hub,
		logger:          logger,
		startedAt:       time.Now().UTC(),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}
	return s
}

// Routes builds the chi router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/opportunities", s.handleOpportunities)
		r.Get("/opportunities/{sport}", s.handleSportOpportunities)
		r.Get("/props/{sport}", s.handleProps)
		r.Get("/status", s.handleStatus)
		r.Post("/refresh/{sport}", s.handleRefresh)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.serveWebSocket)
	}

	return r
}

// Start serves until ctx is cancelled, then drains connections.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.cfg.Server.Port).Info("Dashboard API listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("dashboard API server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// handleOpportunities returns recent recommendations across all configured
// sports, ordered by expected value.
func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if s.recommendations == nil {
		s.respondError(w, http.StatusServiceUnavailable, "recommendation store not configured", nil)
		return
	}

	limit := parseIntParam(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	since := time.Now().Add(-parseWindowParam(r))

	merged := make([]models.Opportunity, 0, limit)
	for _, sport := range s.cfg.Ingestion.Sports {
		recs, err := s.recommendations.GetRecentBySport(ctx, sport, since, limit)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to load opportunities", err)
			return
		}
		for _, rec := range recs {
			merged = append(merged, *rec)
		}
	}
	ranker.Sort(merged)
	if len(merged) > limit {
		merged = merged[:limit]
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"opportunities": merged,
		"count":         len(merged),
		"since":         since,
	})
}

// handleSportOpportunities returns recent recommendations for one sport,
// falling back to a live analysis run when no store is wired.
func (s *Server) handleSportOpportunities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	sport := chi.URLParam(r, "sport")
	if !s.knownSport(sport) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("sport %q is not configured", sport), nil)
		return
	}

	limit := parseIntParam(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}

	if s.recommendations != nil {
		since := time.Now().Add(-parseWindowParam(r))
		recs, err := s.recommendations.GetRecentBySport(ctx, sport, since, limit)
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, "failed to load opportunities", err)
			return
		}
		opps := make([]models.Opportunity, 0, len(recs))
		for _, rec := range recs {
			opps = append(opps, *rec)
		}
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"sport":         sport,
			"opportunities": opps,
			"count":         len(opps),
			"since":         since,
		})
		return
	}

	opps, err := s.analysis.AnalyzeSport(ctx, sport)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "analysis failed", err)
		return
	}
	if len(opps) > limit {
		opps = opps[:limit]
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":         sport,
		"opportunities": opps,
		"count":         len(opps),
	})
}

// handleProps runs player-prop analysis for a sport. Results come from the
// cache when the odds window has not expired.
func (s *Server) handleProps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	sport := chi.URLParam(r, "sport")
	if !s.knownSport(sport) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("sport %q is not configured", sport), nil)
		return
	}

	opps, err := s.analysis.AnalyzePlayerProps(ctx, sport)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "player prop analysis failed", err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":         sport,
		"opportunities": opps,
		"count":         len(opps),
	})
}

// handleStatus reports scheduler and cache state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	hits, misses, ratio := s.store.Stats()
	status := map[string]interface{}{
		"service":    s.cfg.App.Name,
		"started_at": s.startedAt,
		"uptime":     time.Since(s.startedAt).String(),
		"sports":     s.cfg.Ingestion.Sports,
		"cache": map[string]interface{}{
			"items":     s.store.ItemCount(),
			"hits":      hits,
			"misses":    misses,
			"hit_ratio": ratio,
		},
	}
	if s.sched != nil {
		status["scheduler"] = map[string]interface{}{
			"running":  s.sched.IsRunning(),
			"next_run": s.sched.NextRun(),
		}
	}
	if s.hub != nil {
		status["connected_clients"] = s.hub.ClientCount()
	}

	s.respondJSON(w, http.StatusOK, status)
}

// handleRefresh drops cached data for a sport and re-runs analysis
// immediately, pushing the results to websocket subscribers.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	sport := chi.URLParam(r, "sport")
	if !s.knownSport(sport) {
		s.respondError(w, http.StatusNotFound, fmt.Sprintf("sport %q is not configured", sport), nil)
		return
	}

	s.analysis.InvalidateSport(sport)

	opps, err := s.analysis.AnalyzeSport(ctx, sport)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "analysis failed", err)
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(sport, opps)
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"sport":         sport,
		"opportunities": opps,
		"count":         len(opps),
		"refreshed_at":  time.Now().UTC(),
	})
}

func (s *Server) knownSport(sport string) bool {
	_, ok := s.cfg.Analysis.Sports[sport]
	return ok
}

func (s *Server) corsOrigins() []string {
	if len(s.cfg.Server.CORSOrigins) > 0 {
		return s.cfg.Server.CORSOrigins
	}
	return []string{"*"}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		s.logger.WithError(err).Warn(message)
	}
	s.respondJSON(w, status, map[string]interface{}{
		"error": message,
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// parseWindowParam reads the lookback window in hours, defaulting to 24.
func parseWindowParam(r *http.Request) time.Duration {
	hours := parseIntParam(r, "hours", 0)
	if hours <= 0 {
		return defaultWindow
	}
	return time.Duration(hours) * time.Hour
}
