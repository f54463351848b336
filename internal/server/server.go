// Package server provides the HTTP API for textctr.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/otaku572/gptproduct/internal/config"
	"github.com/otaku572/gptproduct/internal/docstore"
	"go.uber.org/zap"
)

// Server is the HTTP server for the textctr API.
type Server struct {
	svc    *docstore.Service
	config *config.Config
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *docstore.Service, cfg *config.Config, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.storageReady)

		r.Get("/status", s.handleStatus)
		r.Get("/tags", s.handleTags)
		r.Get("/search", s.handleSearch)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)

			r.Route("/{projectID}", func(r chi.Router) {
				r.Put("/", s.handleUpdateProject)
				r.Delete("/", s.handleDeleteProject)

				r.Route("/documents", func(r chi.Router) {
					r.Get("/", s.handleListDocuments)
					r.Post("/", s.handleCreateDocument)

					r.Route("/{ref}", func(r chi.Router) {
						r.Get("/", s.handleGetDocument)
						r.Put("/", s.handleUpdateDocument)
						r.Delete("/", s.handleDeleteDocument)
						r.Get("/outline", s.handleOutline)
						r.Get("/export", s.handleExport)
						r.Get("/snapshots", s.handleListSnapshots)
						r.Post("/snapshots", s.handleCreateSnapshot)
						r.Post("/snapshots/{snapshotID}/restore", s.handleRestoreSnapshot)
					})
				})
			})
		})
	})

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
