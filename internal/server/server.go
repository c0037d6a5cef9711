// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the pipeline over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/legal-engine/internal/pipeline"
	"github.com/pdiddy/legal-engine/pkg/types"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "legal-engine"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server routes HTTP requests to a Pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	engine   *gin.Engine
	version  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New builds the gin engine and registers the routes.
func New(p *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline: p,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics)
	r.POST("/metrics/reset", s.resetMetrics)

	api := r.Group("/api")
	{
		api.POST("/legal-query", s.legalQuery)
		api.GET("/legal-domains", s.legalDomains)
		api.GET("/regions", s.regions)
	}

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

// QueryRequest is the body of POST /api/legal-query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	Domain   string `json:"domain"`
	Region   string `json:"region"`
}

func errorBody(code, message string) gin.H {
	return gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func (s *Server) legalQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err.Error()))
		return
	}

	q := types.Query{Text: req.Question}
	if req.Domain != "" {
		d := types.Domain(req.Domain)
		q.DomainHint = &d
	}
	if req.Region != "" {
		r := types.Region(req.Region)
		q.RegionHint = &r
	}

	res, err := s.pipeline.Resolve(c.Request.Context(), q)
	if err != nil {
		var inErr *pipeline.InputError
		if errors.As(err, &inErr) {
			c.JSON(http.StatusBadRequest, errorBody("INVALID_QUESTION", err.Error()))
			return
		}
		s.logger.ErrorContext(c.Request.Context(), "resolve failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("RESOLVE_FAILED", err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) legalDomains(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"domains":       types.Domains,
		"total_domains": len(types.Domains),
	})
}

func (s *Server) regions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"regions":       types.Regions,
		"total_regions": len(types.Regions),
	})
}

func (s *Server) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.pipeline.Metrics().Snapshot())
}

func (s *Server) resetMetrics(c *gin.Context) {
	s.pipeline.Metrics().Reset()
	c.JSON(http.StatusOK, gin.H{"success": true})
}
