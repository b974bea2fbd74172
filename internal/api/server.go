// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	handler "github.com/newthinker/kachi/internal/api/handler/api"
	"github.com/newthinker/kachi/internal/api/middleware"
	"github.com/newthinker/kachi/internal/api/response"
	"github.com/newthinker/kachi/internal/metrics"
)

// Server represents the HTTP server for kachi
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	handler    http.Handler
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	APIKey       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string
}

// Dependencies holds the services behind the routes. Metrics is optional.
type Dependencies struct {
	Recommender handler.Recommender
	Scorer      handler.Scorer
	Narrator    handler.Narrator
	Searcher    handler.Searcher
	Views       handler.ViewRecorder
	Metrics     *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Recommender == nil || deps.Scorer == nil || deps.Narrator == nil || deps.Searcher == nil {
		return nil, errors.New("recommender, scorer, narrator and searcher are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Minute
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	mws := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(logger)}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}
	mws = append(mws, middleware.Recover(logger))
	s.handler = middleware.Chain(mux, mws...)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	auth := middleware.APIKeyAuth(cfg.APIKey)

	recommendHandler := handler.NewRecommendHandler(deps.Recommender)
	scoreHandler := handler.NewScoreHandler(deps.Scorer, deps.Views, s.logger)
	adviceHandler := handler.NewAdviceHandler(deps.Narrator)
	searchHandler := handler.NewSearchHandler(deps.Searcher)

	s.mux.Handle("GET /recommend", auth(http.HandlerFunc(recommendHandler.Get)))
	s.mux.Handle("POST /score", auth(http.HandlerFunc(scoreHandler.Post)))
	s.mux.Handle("POST /advice", auth(http.HandlerFunc(adviceHandler.Post)))
	s.mux.Handle("GET /search", auth(http.HandlerFunc(searchHandler.Search)))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	if deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, deps.Metrics.Handler())
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
