/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontends

ROUTE GROUPS:
  /api/catalog        Item search
  /api/circulation/*  Borrow and return
  /api/donations      Donation intake
  /api/loans, /api/members, /api/fines
  /api/events, /api/volunteers, /api/help
  /api/admin/*        Demo data seeding

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Catalog
		r.Get("/catalog", h.SearchCatalog)

		// Circulation
		r.Route("/circulation", func(r chi.Router) {
			r.Post("/borrow", h.Borrow)
			r.Post("/return", h.Return)
		})
		r.Post("/donations", h.Donate)
		r.Get("/loans/{id}", h.GetLoan)
		r.Get("/members/{id}/loans", h.MemberLoans)

		// Fines
		r.Route("/fines", func(r chi.Router) {
			r.Get("/outstanding", h.OutstandingFines)
			r.Post("/{loanID}/settle", h.SettleFine)
		})

		// Community
		r.Route("/events", func(r chi.Router) {
			r.Get("/", h.SearchEvents)
			r.Post("/{id}/register", h.RegisterForEvent)
		})
		r.Post("/volunteers", h.Volunteer)
		r.Get("/help", h.AskForHelp)

		// Admin
		r.Route("/admin", func(r chi.Router) {
			r.Post("/seed", h.SeedDemo)
		})
	})

	return r
}
