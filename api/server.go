/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for admin frontends

ROUTE GROUPS:
  /api/employees/*      Employee directory and pay previews
  /api/employers/*      Payroll runs per employer
  /api/runs/*           Run inspection
  /api/records/*        Record inspection and lifecycle transitions
  /api/admin/*          Admin grants

SECURITY NOTE:
  The acting user comes from the X-User-ID header; there is no
  authentication middleware. Deploy behind a gateway that establishes
  identity.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
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
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/calculate", h.CalculatePay)
		})

		// Employer routes
		r.Route("/employers", func(r chi.Router) {
			r.Post("/{id}/runs", h.CreateRun)
			r.Get("/{id}/runs", h.ListRuns)
		})

		// Run routes
		r.Route("/runs", func(r chi.Router) {
			r.Get("/{id}", h.GetRun)
		})

		// Record routes
		r.Route("/records", func(r chi.Router) {
			r.Get("/{id}", h.GetRecord)
			r.Post("/{id}/approve", h.ApproveRecord)
			r.Post("/{id}/finalize", h.FinalizeRecord)
			r.Post("/{id}/void", h.VoidRecord)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/grants", h.GrantAdmin)
		})
	})

	return r
}
