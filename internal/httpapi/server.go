// Package httpapi serves the engine's persisted verdict reports over
// HTTP: a read-only chi router backed by internal/store's
// ArtifactStore, with an in-memory cache of the global latest report
// kept warm by an fsnotify watch on the reports directory.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/trajectly/trajectly/internal/store"
)

const (
	latestKey        = "reports/latest.json"
	reportKeyPattern = "reports/%s.json"
)

// Server is a read-only HTTP API over a report ArtifactStore.
type Server struct {
	router    *chi.Mux
	logger    *zap.Logger
	artifacts *store.ArtifactStore

	cache *latestCache
}

// NewServer builds a Server backed by artifacts. Call Watch in a
// goroutine to keep the /v1/reports/latest cache warm as new reports
// land; without it, that endpoint still works, just always reading
// through to disk.
func NewServer(artifacts *store.ArtifactStore, logger *zap.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.Named("httpapi"),
		artifacts: artifacts,
		cache:     newLatestCache(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1/reports", func(r chi.Router) {
		r.Get("/", s.listReports)
		r.Get("/latest", s.getLatest)
		r.Get("/{specName}", s.getReport)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	keys, err := s.artifacts.List("reports/")
	if err != nil {
		s.logger.Error("list reports", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSONKeys(w, keys)
}

func (s *Server) getLatest(w http.ResponseWriter, r *http.Request) {
	if data, ok := s.cache.get(); ok {
		writeJSONBytes(w, data)
		return
	}
	s.serveKey(w, latestKey)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	specName := chi.URLParam(r, "specName")
	s.serveKey(w, sprintfReportKey(specName))
}

func (s *Server) serveKey(w http.ResponseWriter, key string) {
	data, err := s.artifacts.GetBytes(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "report not found", http.StatusNotFound)
			return
		}
		s.logger.Error("read report", zap.String("key", key), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSONBytes(w, data)
}
