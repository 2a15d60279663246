package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jakechorley/data-curator/internal/config"
	"github.com/jakechorley/data-curator/pkg/collaborator"
	"github.com/jakechorley/data-curator/pkg/core/phases"
	"github.com/jakechorley/data-curator/pkg/core/services"
)

// requestTimeout must outlast a collaborator call so the fallback still gets to answer
const requestTimeout = 90 * time.Second

// Server is the HTTP backend of the browser curation tool
type Server struct {
	config    config.ServerConfig
	router    *chi.Mux
	session   *services.Session
	assistant *collaborator.Assistant
	calendar  *phases.Calendar
	logger    *zap.Logger
}

// NewServer creates a new API server. calendar may be nil.
func NewServer(
	cfg config.ServerConfig,
	session *services.Session,
	assistant *collaborator.Assistant,
	calendar *phases.Calendar,
	logger *zap.Logger,
) *Server {
	s := &Server{
		config:    cfg,
		session:   session,
		assistant: assistant,
		calendar:  calendar,
		logger:    logger,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/tables", func(r chi.Router) {
			r.Get("/", s.handleGetTables)
			r.Put("/", s.handlePutTables)
			r.Get("/{entity}", s.handleGetTable)
			r.Put("/{entity}", s.handlePutTable)
			r.Post("/{entity}/grid", s.handleIngestGrid)
		})

		r.Get("/validate", s.handleValidate)
		r.Get("/allocations", s.handleAllocations)
		r.Get("/phases", s.handlePhases)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleAddRule)
			r.Post("/parse", s.handleParseRule)
			r.Get("/recommendations", s.handleRecommendRules)
			r.Delete("/{index}", s.handleRemoveRule)
		})

		r.Route("/weights", func(r chi.Router) {
			r.Get("/", s.handleGetWeights)
			r.Put("/{key}", s.handleSetWeight)
		})

		r.Get("/export/config", s.handleExportConfig)
		r.Post("/import/config", s.handleImportConfig)
		r.Get("/export/csv/{entity}", s.handleExportCSV)

		r.Route("/assist", func(r chi.Router) {
			r.Post("/headers", s.handleMapHeaders)
			r.Post("/query", s.handleQueryData)
			r.Post("/modify", s.handleModifyData)
			r.Post("/corrections", s.handleSuggestCorrections)
			r.Post("/review", s.handleExternalReview)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using zap
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Debug("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		}()

		next.ServeHTTP(ww, r)
	})
}
