// Package api exposes the generation pipeline over HTTP to the teacher UI.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/scolaris/plume/internal/evolution"
	"github.com/scolaris/plume/internal/generator"
	"github.com/scolaris/plume/internal/journal"
	"github.com/scolaris/plume/internal/period"
	"github.com/scolaris/plume/internal/prompt"
	"github.com/scolaris/plume/internal/record"
	"github.com/scolaris/plume/internal/store"
)

// Records is the slice of the store the API needs. An interface so handler
// tests can run against a fake instead of a database.
type Records interface {
	GetStudent(ctx context.Context, id uuid.UUID) (record.StudentRecord, error)
	ClassID(ctx context.Context, studentID uuid.UUID) (uuid.UUID, error)
	GetClassSettings(ctx context.Context, classID uuid.UUID) (store.ClassSettings, error)
	ListObservations(ctx context.Context, studentID uuid.UUID, p period.ID) ([]journal.Entry, error)
	InsertObservation(ctx context.Context, studentID uuid.UUID, e journal.Entry) error
	InsertAppreciation(ctx context.Context, rec store.AppreciationRecord) (uuid.UUID, error)
	SavePeriodAppreciation(ctx context.Context, studentID uuid.UUID, p period.ID, text string) error
}

// Generator is the generation client surface consumed by the handlers.
type Generator interface {
	Generate(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error)
	StrengthsWeaknesses(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error)
	NextSteps(ctx context.Context, rec record.StudentRecord, seq []period.ID, style prompt.StyleConfig, synthesis string, policy evolution.Policy) (generator.Result, error)
	Refine(ctx context.Context, req prompt.RefineRequest) (generator.Result, error)
}

type Server struct {
	router  *chi.Mux
	port    int
	records Records
	gen     Generator
	seq     []period.ID
	policy  evolution.Policy
	logger  *slog.Logger
}

func NewServer(port int, apiToken string, records Records, gen Generator, seq []period.ID, policy evolution.Policy, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		records: records,
		gen:     gen,
		seq:     seq,
		policy:  policy,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/plume/status", s.status)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Get("/students/{id}/evolutions", s.getEvolutions)
		r.Get("/students/{id}/journal", s.getJournal)
		r.Post("/students/{id}/observations", s.postObservation)
		r.Post("/students/{id}/appreciation", s.postAppreciation)
		r.Put("/students/{id}/periods/{period}/appreciation", s.putAppreciation)
		r.Post("/appreciations/refine", s.postRefine)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// BearerAuthMiddleware rejects requests without the configured token.
// An empty token disables auth (local development).
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "plume",
		"status":  "ready",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
