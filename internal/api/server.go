// Package api serves ROI statistics over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/watsonpaul80/tipping-monster/internal/health"
	"github.com/watsonpaul80/tipping-monster/internal/models"
	"github.com/watsonpaul80/tipping-monster/internal/roi"
)

// Stats answers the ROI queries served by the API.
type Stats interface {
	Bands(ctx context.Context, from, to time.Time) ([]roi.BandBucket, error)
	Tags(ctx context.Context, from, to time.Time) ([]models.ROIBucket, error)
	Periods(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error)
	NAPHistory(ctx context.Context, period roi.Period, from, to time.Time) ([]models.ROIBucket, error)
	Rolling(ctx context.Context, windowDays int, from, to time.Time) ([]roi.RollingPoint, error)
}

// Config holds the server settings.
type Config struct {
	Port           int
	AllowedOrigins []string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server is the stats HTTP server.
type Server struct {
	cfg     Config
	stats   Stats
	checker *health.Checker
	logger  *logrus.Entry
	router  chi.Router
	server  *http.Server
}

// NewServer creates the server and its routes.
func NewServer(cfg Config, stats Stats, checker *health.Checker, logger *logrus.Logger) *Server {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		cfg:     cfg,
		stats:   stats,
		checker: checker,
		logger:  logger.WithField("component", "api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.checker.HandleHealth)
	r.Get("/ready", s.checker.HandleReady)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/roi", func(r chi.Router) {
		r.Get("/bands", s.handleBands)
		r.Get("/tags", s.handleTags)
		r.Get("/periods", s.handlePeriods)
		r.Get("/rolling", s.handleRolling)
	})
	r.Get("/nap/history", s.handleNAPHistory)

	return r
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens in the background until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("port", s.cfg.Port).Info("Stats API starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Stats API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("Stats API shutdown error")
		}
	}()

	s.checker.SetReady(true)
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}
	s.checker.SetReady(false)
	s.logger.Info("Stats API shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"request_id":  middleware.GetReqID(r.Context()),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}
