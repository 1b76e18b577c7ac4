// Package httpapi exposes the catalog services as a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/novel-catalog/catalog/internal/database"
	"github.com/novel-catalog/catalog/internal/digest"
	"github.com/novel-catalog/catalog/internal/ingest"
	"github.com/novel-catalog/catalog/internal/logging"
	"github.com/novel-catalog/catalog/internal/services"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Hasher    *digest.Hasher
	Settings  services.DedupSettings
	Pipeline  *ingest.Pipeline
	Threshold float64 // used by scans that do not set one
	Logger    *slog.Logger
}

// Server routes API requests to the services.
type Server struct {
	db        *database.Context
	hasher    *digest.Hasher
	settings  services.DedupSettings
	pipeline  *ingest.Pipeline
	threshold float64
	logger    *slog.Logger
	router    *gin.Engine
}

// New builds a Server and its routes. A nil pipeline is created from the
// hasher and settings.
func New(db *database.Context, opts Options) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("httpapi: missing database context")
	}
	hasher := opts.Hasher
	if hasher == nil {
		var err error
		if hasher, err = digest.New(digest.DefaultAlgorithm); err != nil {
			return nil, err
		}
	}
	pipeline := opts.Pipeline
	if pipeline == nil {
		var err error
		pipeline, err = ingest.New(db, ingest.Options{Hasher: hasher, Settings: opts.Settings, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		db:        db,
		hasher:    hasher,
		settings:  opts.Settings,
		pipeline:  pipeline,
		threshold: opts.Threshold,
		logger:    logging.NewComponentLogger(opts.Logger, "http"),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", s.health)

	api := router.Group("/api")
	api.POST("/classify", s.classify)
	api.POST("/ingest", s.ingestFile)
	api.GET("/libraries/:id/duplicates", s.duplicates)
	api.POST("/groups", s.createGroup)
	api.PUT("/groups/:id/primary", s.setPrimary)
	api.POST("/works/:id/ungroup", s.ungroup)
	api.GET("/works/:id/members", s.members)
	api.POST("/works/:id/merge", s.merge)
	return router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
