package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/kaigaicareerlog/castlog/internal/api/handlers"
	"github.com/kaigaicareerlog/castlog/internal/api/middleware"
	"github.com/kaigaicareerlog/castlog/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Minimum interval between manual enrichment triggers
const enrichInterval = time.Minute

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	db       *models.Database
	rssDir   string
	enricher handlers.Enricher
	logger   *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(port, rssDir string, db *models.Database, enricher handlers.Enricher, logger *logrus.Logger) *Server {
	s := &Server{
		db:       db,
		rssDir:   rssDir,
		enricher: enricher,
		logger:   logger,
	}

	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         ":" + port,
		Handler:      middleware.Logging(router, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual enrichment scrapes every platform
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler, used by tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(router *mux.Router) {
	// Health check
	healthHandler := handlers.NewHealthHandler(s.logger)
	router.Handle("/health", healthHandler).Methods(http.MethodGet)

	// URL coverage of the latest episodes file
	statusHandler := handlers.NewStatusHandler(s.db, s.rssDir, s.logger)
	router.Handle("/status", statusHandler).Methods(http.MethodGet)

	// Single episode lookup
	episodeHandler := handlers.NewEpisodeHandler(s.rssDir, s.logger)
	router.Handle("/api/episodes/{guid}", episodeHandler).Methods(http.MethodGet)

	// Manual enrichment trigger
	enrichHandler := handlers.NewEnrichHandler(s.enricher, s.logger)
	limiter := rate.NewLimiter(rate.Every(enrichInterval), 1)
	router.Handle("/api/enrich", middleware.RateLimit(enrichHandler, limiter, s.logger)).Methods(http.MethodPost)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
