// Package api exposes the conversation engine over HTTP.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/salescribe/salescribe/internal/conversation"
	"github.com/salescribe/salescribe/internal/crm"
	"github.com/salescribe/salescribe/internal/scoring"
)

type Server struct {
	router   *chi.Mux
	port     int
	sessions *conversation.SessionStore
	ctrl     *conversation.Controller
	scorer   *scoring.Scorer
	crmMode  crm.Mode
}

func NewServer(port int, sessions *conversation.SessionStore, ctrl *conversation.Controller, scorer *scoring.Scorer, crmMode crm.Mode) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		sessions: sessions,
		ctrl:     ctrl,
		scorer:   scorer,
		crmMode:  crmMode,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/salescribe/status", s.status)

	router.Route("/api/v1/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/{id}", s.getSession)
		r.Delete("/{id}", s.deleteSession)
		r.Post("/{id}/actions", s.applyAction)
		r.Get("/{id}/summary", s.sessionSummary)
	})
	router.Post("/api/v1/score", s.scoreTranscript)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":  "salescribe",
		"crm_mode": string(s.crmMode),
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
