// Package worker serves a read-only HTTP API over the prompt store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/prompt-tracker/internal/report"
	"github.com/thebtf/prompt-tracker/pkg/models"
)

// PromptReader is the read side of the prompt store used by the API.
type PromptReader interface {
	report.Source
	SessionPrompts(ctx context.Context, sessionID string) ([]*models.PromptRecord, error)
	GetPromptByID(ctx context.Context, id int64) (*models.PromptRecord, error)
}

// Service is the HTTP API.
type Service struct {
	version   string
	prompts   PromptReader
	router    chi.Router
	startTime time.Time
	ready     atomic.Bool
}

// NewService creates a Service with its routes registered.
func NewService(version string, prompts PromptReader) *Service {
	svc := &Service{
		version:   version,
		prompts:   prompts,
		router:    chi.NewRouter(),
		startTime: time.Now(),
	}
	svc.setupRoutes()
	return svc
}

// Handler returns the HTTP handler.
func (s *Service) Handler() http.Handler {
	return s.router
}

// SetReady marks the service ready or not.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Service) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger)

	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/ready", s.handleReady)
	s.router.Get("/api/version", s.handleVersion)

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireReady)
		r.Get("/api/stats", s.handleStats)
		r.Get("/api/sessions", s.handleSessions)
		r.Get("/api/sessions/{sessionID}/prompts", s.handleSessionPrompts)
		r.Get("/api/prompts/recent", s.handleRecentPrompts)
		r.Get("/api/prompts/{id}", s.handlePrompt)
		r.Get("/api/report", s.handleReport)
	})
}

// requireReady rejects data requests until the store is open.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "service not ready", http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.SetReady(false)
		log.Info().Msg("Shutting down API")
		return srv.Shutdown(shutdownCtx)
	}
}
