// Package api serves the parser over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Nomadcxx/animeparse/internal/config"
	"github.com/Nomadcxx/animeparse/internal/database"
	"github.com/Nomadcxx/animeparse/internal/logging"
	"github.com/Nomadcxx/animeparse/internal/parser"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Server implements the API
type Server struct {
	parser  *parser.Parser
	opts    parser.Options
	db      *database.HistoryDB
	cfg     config.ServerConfig
	logger  *logging.Logger
	metrics *Metrics
	limiter *rate.Limiter
}

// NewServer creates a new API server. db may be nil, in which case the
// history endpoints answer 503.
func NewServer(p *parser.Parser, opts parser.Options, db *database.HistoryDB, cfg config.ServerConfig, logger *logging.Logger) *Server {
	if p == nil {
		p = parser.New(nil)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 1000
	}
	return &Server{
		parser:  p,
		opts:    opts,
		db:      db,
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(db),
		limiter: newLimiter(cfg.RateLimit, cfg.Burst),
	}
}

// Handler returns the HTTP handler with CORS, API routes and metrics
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Mount("/api/v1", s.apiRouter())
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))

	return r
}

// apiRouter returns a router with API routes
func (s *Server) apiRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/parse", s.handleParse)
		r.Post("/parse", s.handleParseBatch)
		r.Get("/tokens", s.handleTokens)
		r.Get("/history", s.handleHistory)
		r.Get("/history/stats", s.handleStats)
		r.Get("/search", s.handleSearch)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("api", "Request",
			logging.F("method", r.Method),
			logging.F("path", r.URL.Path),
			logging.F("status", ww.Status()),
			logging.F("duration_ms", time.Since(start).Milliseconds()),
			logging.F("request_id", middleware.GetReqID(r.Context())))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api", "Listening", logging.F("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		s.logger.Info("api", "Stopped")
		return nil
	}
}
