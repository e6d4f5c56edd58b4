// Package server exposes registry aggregates over HTTP for dashboard front
// ends. Every request re-applies the filters to the memoized registry; the
// source file is read again only when it changes on disk.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
	"github.com/matsen/pubfrac/internal/report"
)

// ShutdownTimeout bounds graceful shutdown in Run.
const ShutdownTimeout = 5 * time.Second

// Loader returns the registry at path. *registry.Memo satisfies it.
type Loader interface {
	Load(ctx context.Context, path string) (*registry.Registry, error)
}

// Server serves one registry file.
type Server struct {
	source  string
	loader  Loader
	builder *report.Builder
	logger  *zap.Logger
}

// New creates a Server for the registry at source.
func New(source string, loader Loader, builder *report.Builder, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		source:  source,
		loader:  loader,
		builder: builder,
		logger:  logger.Named("server"),
	}
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(s.logger), CORS())

	router.GET("/healthcheck", HealthCheck)
	api := router.Group("/api")
	{
		api.GET("/aggregates", s.Aggregates)
		api.GET("/facets", s.Facets)
		api.GET("/report", s.Report)
	}
	return router
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("listening", zap.String("addr", addr), zap.String("source", s.source))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// AggregatesResponse is the body of GET /api/aggregates.
type AggregatesResponse struct {
	Taxonomy   attribution.Taxonomy    `json:"taxonomy"`
	Mode       attribution.Mode        `json:"mode"`
	Window     methodology.Window      `json:"window"`
	Aggregates []attribution.Aggregate `json:"aggregates"`
	Warnings   []string                `json:"warnings,omitempty"`
}

// Aggregates returns the selected aggregates of one taxonomy in display order.
func (s *Server) Aggregates(c *gin.Context) {
	rep, ok := s.build(c)
	if !ok {
		return
	}
	RespondOK(c, AggregatesResponse{
		Taxonomy:   rep.Taxonomy,
		Mode:       rep.Mode,
		Window:     rep.Window,
		Aggregates: attribution.SortForDisplay(rep.Aggregates),
		Warnings:   rep.Warnings,
	})
}

// Facets returns the years and divisions available for one taxonomy.
func (s *Server) Facets(c *gin.Context) {
	rep, ok := s.build(c)
	if !ok {
		return
	}
	RespondOK(c, rep.Facets)
}

// Report returns both taxonomies' reports.
func (s *Server) Report(c *gin.Context) {
	p, err := parseParams(c)
	if err != nil {
		respondFailure(c, err)
		return
	}
	reg, err := s.loader.Load(c.Request.Context(), s.source)
	if err != nil {
		s.logger.Error("loading registry", zap.Error(err))
		respondFailure(c, err)
		return
	}
	pair, err := s.builder.BuildAll(c.Request.Context(), reg, p)
	if err != nil {
		respondFailure(c, err)
		return
	}
	RespondOK(c, pair)
}

func (s *Server) build(c *gin.Context) (*report.Report, bool) {
	p, err := parseParams(c)
	if err != nil {
		respondFailure(c, err)
		return nil, false
	}
	reg, err := s.loader.Load(c.Request.Context(), s.source)
	if err != nil {
		s.logger.Error("loading registry", zap.Error(err))
		respondFailure(c, err)
		return nil, false
	}
	rep, err := s.builder.Build(reg, p)
	if err != nil {
		respondFailure(c, err)
		return nil, false
	}
	return rep, true
}
