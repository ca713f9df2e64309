// Package api serves contract analysis over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/clauselens/internal/logging"
	"github.com/ppiankov/clauselens/internal/metrics"
	"github.com/ppiankov/clauselens/internal/model"
	"github.com/ppiankov/clauselens/internal/pipeline"
	"github.com/ppiankov/clauselens/internal/share"
	"github.com/ppiankov/clauselens/internal/templates"
	"github.com/ppiankov/clauselens/internal/usage"
	"github.com/ppiankov/clauselens/internal/worker"
)

// Version is reported by /health
var Version = "dev"

const (
	limiterSweepEvery = time.Minute
	limiterIdle       = 10 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// Server represents the HTTP server
type Server struct {
	config    *model.Config
	pipeline  *pipeline.Pipeline
	templates *templates.Library
	shares    share.Store
	meter     *usage.Meter
	metrics   *metrics.Metrics
	limiter   *worker.Limiter // nil disables per-client rate limiting
	logger    logrus.FieldLogger
	maxBody   int64

	router *gin.Engine
	server *http.Server
}

// Option customizes a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics shares a metrics registry with the pipeline observer
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithShareStore replaces the in-memory share store
func WithShareStore(st share.Store) Option {
	return func(s *Server) { s.shares = st }
}

// WithUsageStore meters the free quota through st
func WithUsageStore(st usage.Store) Option {
	return func(s *Server) { s.meter = usage.NewMeter(st, s.config.Server.FreeDailyLimit) }
}

// WithTemplates replaces the embedded template library
func WithTemplates(lib *templates.Library) Option {
	return func(s *Server) { s.templates = lib }
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *model.Config, p *pipeline.Pipeline, opts ...Option) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		pipeline:  p,
		templates: templates.Default(),
		shares:    share.NewMemoryStore(cfg.Server.ShareTTL),
		meter:     usage.NewMeter(usage.NewMemoryStore(time.Hour), cfg.Server.FreeDailyLimit),
		logger:    logging.Discard(),
		maxBody:   int64(cfg.Limits.MaxChars)*8 + 64<<10,
	}
	if cfg.Server.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.Burst)
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	s.setupRoutes()
	return s
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if s.limiter != nil {
		go s.sweepLimiter(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", cfg.Addr).Info("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("HTTP API shutting down")
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(limiterIdle); n > 0 {
				s.logger.WithField("removed", n).Debug("swept idle client limiters")
			}
		}
	}
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := s.router.Group("/api/v1")
	v1.Use(s.rateLimitMiddleware())
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/compare", s.handleCompare)
		v1.GET("/usage", s.handleUsage)
		v1.GET("/templates", s.handleListTemplates)
		v1.GET("/templates/:id", s.handleGetTemplate)
		v1.POST("/templates/:id/analyze", s.handleAnalyzeTemplate)
		v1.POST("/share", s.handleCreateShare)
		v1.GET("/share/:id", s.handleGetShare)
	}
}
