// Package server exposes the linking pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/soundprediction/aboxlink"
	"github.com/soundprediction/aboxlink/pkg/config"
	"github.com/soundprediction/aboxlink/pkg/driver"
	"github.com/soundprediction/aboxlink/pkg/server/handlers"
)

// Server represents the HTTP server
type Server struct {
	config    *config.Config
	router    *gin.Engine
	pipeline  atomic.Pointer[aboxlink.Pipeline]
	extractor aboxlink.Extractor
	writer    driver.GraphWriter
	logger    *slog.Logger
	server    *http.Server

	registry *prometheus.Registry
	metrics  *Metrics
}

// Option configures a Server.
type Option func(*Server)

// WithExtractor enables text requests.
func WithExtractor(e aboxlink.Extractor) Option {
	return func(s *Server) { s.extractor = e }
}

// WithGraphWriter enables persistence. A writer that can verify its
// connectivity also gates readiness.
func WithGraphWriter(w driver.GraphWriter) Option {
	return func(s *Server) { s.writer = w }
}

// WithRegistry serves metrics from reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a new server instance
func New(cfg *config.Config, pipeline *aboxlink.Pipeline, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		logger: slog.Default(),
	}
	s.pipeline.Store(pipeline)
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	return s
}

// Pipeline returns the pipeline currently serving requests.
func (s *Server) Pipeline() *aboxlink.Pipeline {
	return s.pipeline.Load()
}

// SetPipeline swaps the serving pipeline. In-flight requests finish on the
// pipeline they started with.
func (s *Server) SetPipeline(p *aboxlink.Pipeline) {
	if p == nil {
		return
	}
	s.pipeline.Store(p)
	stats := p.Index().Stats()
	s.logger.Info("pipeline swapped",
		"classes", stats.Classes,
		"object_properties", stats.ObjectProperties,
		"data_properties", stats.DataProperties)
}

// ReloadFailed records a failed vocabulary reload. The current pipeline keeps serving.
func (s *Server) ReloadFailed(err error) {
	if s.metrics != nil {
		s.metrics.ObserveReload(err)
	}
	s.logger.Error("vocabulary reload failed, keeping current pipeline", "error", err)
}

// Reloaded installs a pipeline built from a reloaded vocabulary.
func (s *Server) Reloaded(p *aboxlink.Pipeline) {
	if s.metrics != nil {
		s.metrics.ObserveReload(nil)
	}
	s.SetPipeline(p)
}

// Metrics returns the server's collectors, available after Setup.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Setup sets up the server routes and middleware
func (s *Server) Setup() error {
	if s.config.Server.Mode != "" {
		gin.SetMode(s.config.Server.Mode)
	}

	metrics, err := NewMetrics(s.registry)
	if err != nil {
		return err
	}
	s.metrics = metrics

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogger(s.logger))
	s.router.Use(s.metrics.middleware())
	s.router.Use(corsMiddleware())

	s.setupRoutes()

	s.server = &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	var pinger handlers.Pinger
	if p, ok := s.writer.(handlers.Pinger); ok {
		pinger = p
	}
	healthHandler := handlers.NewHealthHandler(s, pinger)

	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	if s.Pipeline() == nil {
		return
	}
	linkHandler := handlers.NewLinkHandler(s, s.extractor, s.writer, s.metrics, s.logger)
	vocabHandler := handlers.NewVocabularyHandler(s)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/link", linkHandler.Link)
		v1.GET("/vocabulary", vocabHandler.Get)
	}
}

// Start starts the server
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
