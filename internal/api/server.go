// Package api provides the HTTP trigger API: health/readiness checks and
// the operator-facing POST /api/sync endpoint.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaxxstorm/loansync/internal/config"
	"github.com/jaxxstorm/loansync/internal/database"
	"github.com/jaxxstorm/loansync/internal/logger"
	"github.com/jaxxstorm/loansync/internal/syncjob"
	"github.com/jaxxstorm/loansync/internal/tenant"
)

// Server is the operator-facing HTTP API: liveness/readiness and the
// sync trigger endpoint.
type Server struct {
	router     *chi.Mux
	server     *http.Server
	provider   database.Provider
	tenantRepo tenant.Repository
	jobRepo    syncjob.Repository
	scheduler  SyncScheduler
	readiness  ReadinessChecker
	logger     *zap.Logger
}

// ReadinessChecker reports whether a background component (the
// scheduler's dispatch queue) is still accepting work.
type ReadinessChecker interface {
	IsReady() bool
}

// SyncScheduler is the trigger_sync entry point the API calls into. The
// interface exists so the API depends on a narrow contract rather than
// the concrete scheduler package.
type SyncScheduler interface {
	TriggerSync(ctx context.Context, t *tenant.Tenant, category syncjob.LoanCategory, force bool) (*uuid.UUID, error)
}

// New creates the HTTP API server.
func New(cfg *config.HTTPConfig, dbProvider database.Provider, tenantRepo tenant.Repository, jobRepo syncjob.Repository, sched SyncScheduler, log *zap.Logger) *Server {
	log = log.With(zap.String("component", "api"))

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.HTTPMiddleware(log))
	r.Use(logger.CorrelationIDMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	srv := &Server{
		router:     r,
		provider:   dbProvider,
		tenantRepo: tenantRepo,
		jobRepo:    jobRepo,
		scheduler:  sched,
		logger:     log,
		server: &http.Server{
			Addr:         cfg.Address(),
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}

	srv.registerRoutes()

	return srv
}

// SetReadinessChecker wires the scheduler's queue health into /ready.
func (s *Server) SetReadinessChecker(checker ReadinessChecker) {
	s.readiness = checker
}

func (s *Server) registerRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/sync", s.handleTriggerSync)
		r.Get("/jobs/{jobID}", s.handleGetJob)
		r.Handle("/", http.HandlerFunc(s.handleVersionRequired))
		r.Handle("/*", http.HandlerFunc(s.handleVersionRequired))
	})

	s.router.Route("/v{version}", func(r chi.Router) {
		r.Handle("/", http.HandlerFunc(s.handleUnsupportedVersion))
		r.Handle("/*", http.HandlerFunc(s.handleUnsupportedVersion))
	})
}

// handleHealth is the liveness check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleReady is the readiness check endpoint: metadata database plus,
// when wired, the scheduler's dispatch queue.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]string)

	if err := s.provider.Health(ctx); err != nil {
		s.logger.Warn("readiness check failed: database unhealthy", zap.Error(err))
		checks["database"] = "unhealthy"
		s.writeUnavailable(w, checks, err)
		return
	}
	checks["database"] = "healthy"

	if s.readiness != nil {
		if s.readiness.IsReady() {
			checks["scheduler"] = "ready"
		} else {
			checks["scheduler"] = "not_ready"
			s.writeUnavailable(w, checks, nil)
			return
		}
	}

	response := map[string]interface{}{
		"status": "ready",
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) writeUnavailable(w http.ResponseWriter, checks map[string]string, err error) {
	response := map[string]interface{}{
		"status": "unavailable",
		"checks": checks,
	}
	if err != nil {
		response["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	json.NewEncoder(w).Encode(response)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("server shutdown failed", zap.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("HTTP server shut down successfully")
	return nil
}
