// Package http serves health, readiness and Prometheus metrics endpoints for long-running
// SDK processes such as a session keepalive.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spaceandtimelabs/sxt-go-sdk/internal/metrics"
)

// ReadinessCheck reports whether one component is ready.
type ReadinessCheck func(ctx context.Context) error

// ServerConfig configures a Server.
type ServerConfig struct {
	Host string
	Port int
	// CORSOrigins is a comma-separated list of allowed origins. Empty disables CORS.
	CORSOrigins string
}

// Server is the HTTP server of a long-running command.
type Server struct {
	server *http.Server
	router *gin.Engine
	checks map[string]ReadinessCheck
	logger *slog.Logger
}

// NewServer creates a Server. /metrics is registered only when metricsProvider is set.
func NewServer(
	cfg ServerConfig,
	metricsProvider *metrics.Provider,
	checks map[string]ReadinessCheck,
	logger *slog.Logger,
) *Server {
	s := &Server{checks: checks, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	if corsMiddleware := createCORSMiddleware(cfg.CORSOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)
	if metricsProvider != nil {
		router.GET("/metrics", gin.WrapH(metricsProvider.Handler()))
	}
	s.router = router

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start serves until Shutdown is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	})
	defer stop()

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start http server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	components := gin.H{}
	ready := true
	for _, name := range names {
		err := s.checks[name](ctx)
		if err != nil {
			s.logger.Warn("readiness check failed", slog.String("component", name), slog.Any("error", err))
			ready = false
		}
		components[name] = componentStatus(err)
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
