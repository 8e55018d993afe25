package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/incomerelay/internal/config"
	"github.com/mattjoyce/incomerelay/internal/events"
	"github.com/mattjoyce/incomerelay/internal/journal"
	"github.com/mattjoyce/incomerelay/internal/queue"
	"github.com/mattjoyce/incomerelay/internal/status"
)

const (
	ServiceName = "Income Statement Processing Service"
	Version     = "2.0.0"
)

// Ingestor serves the two upload endpoints.
type Ingestor interface {
	HandleInboundWebhook(w http.ResponseWriter, r *http.Request)
	HandleDirectUpload(w http.ResponseWriter, r *http.Request)
}

// StatusSource returns a copy of the processing counters.
type StatusSource interface {
	Snapshot() status.Stats
}

// QueueInspector reports worker pool activity.
type QueueInspector interface {
	Stats() queue.Stats
	// Healthy is false before Start and after Stop.
	Healthy() bool
}

// BatchLister reads recent batch outcomes.
type BatchLister interface {
	Recent(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Config holds API server configuration
type Config struct {
	Listen string

	// Configured is reported verbatim by /status.
	Configured config.Configured

	// RateLimitRPS of zero disables POST rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	Rules RulesInfo
}

// Deps are the collaborators behind the routes. Batches may be nil.
type Deps struct {
	Ingestor Ingestor
	Status   StatusSource
	Queue    QueueInspector
	Batches  BatchLister
	Events   *events.Hub
}

// Server represents the HTTP API server
type Server struct {
	config    Config
	ingestor  Ingestor
	status    StatusSource
	queue     QueueInspector
	batches   BatchLister
	events    *events.Hub
	limiter   *limiter
	logger    *slog.Logger
	server    *http.Server
	startedAt time.Time
}

// New creates a new API server instance
func New(cfg Config, d Deps, logger *slog.Logger) *Server {
	if d.Events == nil {
		d.Events = events.NewHub(0)
	}
	return &Server{
		config:    cfg,
		ingestor:  d.Ingestor,
		status:    d.Status,
		queue:     d.Queue,
		batches:   d.Batches,
		events:    d.Events,
		limiter:   newLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:    logger,
		startedAt: time.Now(),
	}
}

// Handler returns the routed handler without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server (blocking)
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.config.Listen,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not cancel request contexts; closing the hub ends
	// open event streams so Shutdown can finish.
	s.server.RegisterOnShutdown(s.events.Close)

	s.logger.Info("API server starting", "listen", s.config.Listen)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("API server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// setupRoutes configures the HTTP router
func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/status", s.handleStatus)
	r.Get("/batches", s.handleBatches)
	r.Get("/events", s.handleEvents)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)
		r.Post("/webhook/mailgun", s.ingestor.HandleInboundWebhook)
		r.Post("/ingest-income-statement", s.ingestor.HandleDirectUpload)
	})

	return r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
