package server

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/guiyumin/clipgrab/internal/config"
	"github.com/guiyumin/clipgrab/internal/downloader"
	"github.com/guiyumin/clipgrab/internal/job"
)

//go:embed web/index.html
var indexHTML []byte

// MediaService is what the HTTP surface needs from the downloader
type MediaService interface {
	Inspect(ctx context.Context, url string) (*downloader.Inspection, error)
	Download(ctx context.Context, req downloader.Request) (*job.Result, error)
}

// Server wraps the gin engine with graceful shutdown helpers
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	log     zerolog.Logger
	service MediaService
	history *HistoryDB
}

// New builds the server and registers all routes. history may be nil.
func New(cfg *config.Config, log zerolog.Logger, service MediaService, history *HistoryDB) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:     cfg,
		engine:  gin.New(),
		log:     log.With().Str("component", "http").Logger(),
		service: service,
		history: history,
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.log), requestMetrics())
	s.registerRoutes()
	return s
}

// Handler exposes the engine, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST("/media", s.handleMedia)
	api.GET("/download", s.handleDownload)

	if s.history != nil {
		api.GET("/history", s.handleHistory)
		api.DELETE("/history", s.handleClearHistory)
		api.DELETE("/history/:id", s.handleDeleteHistory)
	}
}

// Run starts the HTTP listener and shuts down gracefully when ctx ends
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("clipgrab HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
