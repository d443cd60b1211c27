// Package api serves the REST interface over the tracker, rule engine
// and store.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sandeepkv93/timeaudit/internal/config"
	"github.com/sandeepkv93/timeaudit/internal/rules"
	"github.com/sandeepkv93/timeaudit/internal/storage"
	"github.com/sandeepkv93/timeaudit/internal/tracker"
)

// Server exposes the application over HTTP.
type Server struct {
	store   *storage.Store
	tracker *tracker.Tracker
	engine  *rules.Engine
	cfg     *config.Config
	version string
}

func New(store *storage.Store, trk *tracker.Tracker, engine *rules.Engine, cfg *config.Config, version string) *Server {
	return &Server{store: store, tracker: trk, engine: engine, cfg: cfg, version: version}
}

// Handler builds the full route table with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/entries", s.handleListEntries)
	mux.HandleFunc("POST /api/v1/entries", s.handleCreateEntry)
	mux.HandleFunc("GET /api/v1/entries/current", s.handleCurrentEntry)
	mux.HandleFunc("POST /api/v1/entries/start", s.handleStart)
	mux.HandleFunc("POST /api/v1/entries/stop", s.handleStop)
	mux.HandleFunc("GET /api/v1/entries/{id}", s.handleGetEntry)
	mux.HandleFunc("PUT /api/v1/entries/{id}", s.handleUpdateEntry)
	mux.HandleFunc("DELETE /api/v1/entries/{id}", s.handleDeleteEntry)

	mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	mux.HandleFunc("PUT /api/v1/projects", s.handleSaveProject)
	mux.HandleFunc("GET /api/v1/projects/{id}", s.handleGetProject)

	mux.HandleFunc("GET /api/v1/categories", s.handleListCategories)
	mux.HandleFunc("PUT /api/v1/categories", s.handleSaveCategory)
	mux.HandleFunc("GET /api/v1/categories/{id}", s.handleGetCategory)

	mux.HandleFunc("GET /api/v1/rules", s.handleListRules)
	mux.HandleFunc("POST /api/v1/rules", s.handleAddRule)
	mux.HandleFunc("POST /api/v1/rules/match", s.handleMatchRule)
	mux.HandleFunc("PUT /api/v1/rules/{id}", s.handleUpdateRule)
	mux.HandleFunc("DELETE /api/v1/rules/{id}", s.handleDeleteRule)

	mux.HandleFunc("GET /api/v1/reports/summary", s.handleReportSummary)

	mux.HandleFunc("GET /api/v1/system/health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/system/backup", s.handleBackup)

	var handler http.Handler = mux
	if s.cfg.API.AuthEnabled {
		handler = s.withAuth(handler)
	}
	return loggingMiddleware(s.withCORS(handler))
}

// ListenAndServe runs the server until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.API.Host, s.cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/system/health" {
			next.ServeHTTP(w, r)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || s.cfg.API.Token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.API.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid or missing bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	origins := strings.Join(s.cfg.API.CORSOrigins, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origins != "" {
			w.Header().Set("Access-Control-Allow-Origin", origins)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("api: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain sentinels onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrAlreadyTracking), errors.Is(err, tracker.ErrNotTracking):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrInvalidRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
