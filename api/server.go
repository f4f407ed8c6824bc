/*
server.go - HTTP router and middleware configuration

Wires URLs to handlers. The CRUD surface of the studio system lives in a
separate service; this router only exposes the archival pipeline.
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/extratos", func(r chi.Router) {
			r.Get("/", h.ListExtratos)
			r.Post("/generate", h.GenerateExtrato)
			r.Post("/check", h.CheckAndGenerate)
			r.Get("/runs", h.ListRuns)
			r.Get("/{ano}/{mes}", h.GetExtrato)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", h.ListUndoSnapshots)
			r.Post("/", h.CreateUndoSnapshot)
			r.Post("/cleanup", h.CleanupUndoSnapshots)
			r.Post("/{id}/restore", h.RestoreUndoSnapshot)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
