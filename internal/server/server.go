// Package server provides the HTTP persistence service for templates,
// submissions, approvals and roster catalogs. It is a thin adapter that
// translates requests into repository calls and lifecycle transitions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fieldhq/jobsite-forms/internal/repository"
)

// Config holds HTTP server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP persistence service
type Server struct {
	config     Config
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server backed by the given repositories
func NewServer(
	config Config,
	templates *repository.TemplateRepository,
	submissions *repository.SubmissionRepository,
	approvals *repository.ApprovalRepository,
	roster *repository.RosterRepository,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: NewHandlers(templates, submissions, approvals, roster, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/templates/:id", s.handlers.GetTemplate)
		v1.POST("/templates/:id/submissions", s.handlers.CreateSubmission)
		v1.GET("/submissions/:id", s.handlers.GetSubmission)
		v1.PUT("/submissions/:id", s.handlers.UpdateSubmission)
		v1.DELETE("/submissions/:id", s.handlers.DeleteSubmission)
		v1.GET("/approvals/:id", s.handlers.GetApproval)
		v1.POST("/approvals", s.handlers.CreateApproval)
		v1.GET("/roster", s.handlers.GetRoster)
	}
}

// Router exposes the underlying handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins listening for requests
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
