package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/dgallion1/docscaffold/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docscaffold.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        doctree.Store
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. store must be the tree
// the orchestrator mutates.
func NewServer(orch *pipeline.Orchestrator, store doctree.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/messages", s.handleMessage)
		r.Get("/api/messages/{jobID}/status", s.handleMessageStatus)

		r.Get("/api/pages", s.handleListPages)
		r.Get("/api/document", s.handleExportDocument)
		r.Post("/api/document/import", s.handleImportDocument)

		r.Get("/api/stats", s.handleStats)

		r.Get("/ws", s.handleWebSocket)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// snapshot reads the document while no invocation is mutating it.
func (s *Server) snapshot() (*doctree.Document, error) {
	var doc *doctree.Document
	err := s.orchestrator.Exclusive(func(doctree.Tree) error {
		var err error
		doc, err = s.store.Snapshot()
		return err
	})
	return doc, err
}
