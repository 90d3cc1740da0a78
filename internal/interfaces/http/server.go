// internal/interfaces/http/server.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nweibull/agentic-commerce-protocol-demo/internal/config"
	"github.com/nweibull/agentic-commerce-protocol-demo/internal/interfaces/http/middleware"
)

// HealthCheck is one readiness probe over a backing dependency
type HealthCheck struct {
	Name  string
	Check func() error
}

// Server represents one HTTP service process, merchant or PSP depending on
// the routes registered into it
type Server struct {
	config      *config.Config
	logger      *logrus.Logger
	gin         *gin.Engine
	httpServer  *http.Server
	redisClient *redis.Client
	register    func(*gin.Engine)
	checks      []HealthCheck
}

// NewServer creates a new HTTP server instance. register wires the service's
// routes onto the engine once the shared middleware is installed.
func NewServer(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client, register func(*gin.Engine), checks ...HealthCheck) *Server {
	return &Server{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		register:    register,
		checks:      checks,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if s.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	s.gin = gin.New()
	s.setupMiddleware()

	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	s.register(s.gin)

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	s.logger.WithFields(logrus.Fields{
		"app":  s.config.App.Name,
		"port": s.config.Server.Port,
	}).Info("🚀 HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("🛑 Shutting down HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("✅ HTTP server stopped gracefully")
	return nil
}

// setupMiddleware configures the middleware shared by both services
func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())

	if s.redisClient != nil {
		s.gin.Use(middleware.RateLimit(s.config, s.redisClient))
	}
}

// healthCheck is a liveness probe
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"app":       s.config.App.Name,
		"version":   s.config.App.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessCheck probes the backing dependencies
func (s *Server) readinessCheck(c *gin.Context) {
	status := http.StatusOK
	results := make(gin.H, len(s.checks))
	for _, check := range s.checks {
		if err := check.Check(); err != nil {
			results[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[check.Name] = "ok"
	}

	c.JSON(status, gin.H{
		"status":    readiness(status),
		"checks":    results,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func readiness(status int) string {
	if status == http.StatusOK {
		return "ready"
	}
	return "not_ready"
}
