// Package http is the HTTP adapter over the draft store, itemization engine,
// and submission orchestrator. It holds no business rules.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the given handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	server := &Server{
		config:   config,
		router:   router,
		handlers: handlers,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.Health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/drafts", s.handlers.CreateDraft)
		api.GET("/drafts/:id/header", s.handlers.GetHeader)
		api.PUT("/drafts/:id/header", s.handlers.UpdateHeader)

		api.GET("/drafts/:id/lines", s.handlers.ListLineItems)
		api.POST("/drafts/:id/lines", s.handlers.AddLineItem)
		api.PUT("/drafts/:id/lines/:lineID", s.handlers.UpdateLineItem)
		api.DELETE("/drafts/:id/lines/:lineID", s.handlers.DeleteLineItem)

		api.GET("/drafts/:id/lines/:lineID/itemization", s.handlers.GetItemization)
		api.PUT("/drafts/:id/lines/:lineID/itemization", s.handlers.SaveItemization)

		api.POST("/drafts/:id/validate", s.handlers.ValidateDraft)
		api.POST("/drafts/:id/submit", s.handlers.SubmitDraft)

		api.GET("/drafts/:id/stats", s.handlers.GetStats)
		api.POST("/drafts/:id/stats/export", s.handlers.ExportStats)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// Start begins serving HTTP requests
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
		return fmt.Errorf("http server failed: %w", err)
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
