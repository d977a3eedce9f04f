/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for dashboards

SECURITY NOTE:
  No authentication middleware. The server is meant to sit behind an
  internal reverse proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - ../cmd/consortium: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", h.CreateRun)
			r.Get("/", h.ListRuns)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetRun)
				r.Get("/summary", h.GetSummary)
				r.Get("/baselines", h.GetBaselines)
				r.Get("/synergy/pairs", h.GetSynergyPairs)
				r.Get("/synergy/groups", h.GetSynergyGroups)
				r.Get("/roles", h.GetRoles)
				r.Get("/team", h.GetTeam)
			})
		})
	})

	return r
}
