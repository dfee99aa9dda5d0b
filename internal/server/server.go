// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes outline generation and educator sessions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/course-engine/internal/agent"
	"github.com/pdiddy/course-engine/internal/logging"
	"github.com/pdiddy/course-engine/internal/outline"
	"github.com/pdiddy/course-engine/internal/session"
	"github.com/pdiddy/course-engine/pkg/types"
)

// DefaultMaxUploadBytes bounds uploads when the config leaves it unset.
const DefaultMaxUploadBytes = 20 << 20

const shutdownTimeout = 10 * time.Second

// Generator produces an outline for a request.
type Generator interface {
	Generate(ctx context.Context, req *types.CourseRequest, opts agent.GenerateOptions) (*outline.Result, error)
}

// Server owns the router and its collaborators.
type Server struct {
	Engine *gin.Engine

	cfg      types.ServerConfig
	gen      Generator
	sessions *session.Manager
	log      *logging.Logger
}

// New builds the router. Gin's mode is left to the caller.
func New(cfg types.ServerConfig, gen Generator, sessions *session.Manager, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	s := &Server{
		cfg:      cfg,
		gen:      gen,
		sessions: sessions,
		log:      logger.With("component", "server"),
	}
	s.Engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	router.MaxMultipartMemory = s.cfg.MaxUploadBytes

	router.GET("/healthz", s.health)

	api := router.Group("/api/v1")
	{
		api.POST("/outlines", s.generateOutline)

		api.POST("/sessions", s.createSession)
		api.GET("/sessions/:id", s.getSession)
		api.DELETE("/sessions/:id", s.deleteSession)
		api.PUT("/sessions/:id/pdf", s.uploadPDF)
		api.POST("/sessions/:id/outline", s.generateSessionOutline)
		api.GET("/sessions/:id/outline", s.getSessionOutline)
		api.GET("/sessions/:id/outline.md", s.getSessionOutlineMarkdown)
	}
	return router
}

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		kv := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start).String(),
		}
		if id := c.Param("id"); id != "" {
			kv = append(kv, "session_id", id)
		}
		if status >= http.StatusInternalServerError {
			s.log.Warn("request", kv...)
		} else {
			s.log.Debug("request", kv...)
		}
	}
}

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
