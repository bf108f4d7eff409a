/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web clients

SECURITY NOTE:
  No authentication middleware; authentication lives in front of this
  service.

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
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/shifts", func(r chi.Router) {
			// Lifecycle operations
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.Post("/breaks/start", h.StartBreak)
			r.Post("/breaks/end", h.EndBreak)
			r.Post("/breaks/manual", h.AddManualBreak)
			r.Post("/travel/start", h.StartTravel)
			r.Post("/travel/end", h.EndTravel)
			r.Post("/auto-travel", h.SetAutoTravel)
			r.Post("/locations", h.ReportLocation)

			// Historical entry and corrections
			r.Post("/", h.CreateShift)
			r.Get("/{id}", h.GetShift)
			r.Put("/{id}/times", h.EditTimes)
			r.Post("/{id}/breaks", h.AddBreakEntry)
			r.Delete("/{id}/breaks/{index}", h.RemoveBreak)
			r.Post("/{id}/travel", h.AddTravelEntry)
			r.Delete("/{id}/travel/{index}", h.RemoveTravel)

			// Reads
			r.Get("/{id}/locations", h.GetLocations)
			r.Get("/{id}/summary", h.GetSummary)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}/active-shift", h.GetActiveShift)
			r.Get("/{id}/summary/week", h.GetWeekSummary)
		})
	})

	return r
}
