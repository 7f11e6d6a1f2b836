package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all API routes.
func SetupRoutes(h *Handlers, hc *HealthChecker, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	// Server identity header - distinguishes real server from stub API
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Server-Identity", "outreach-monitor-v1")
			next.ServeHTTP(w, req)
		})
	})

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !wildcard(allowedOrigins),
		MaxAge:           300,
	}))

	// Health checks
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	r.Route("/api", func(r chi.Router) {
		// Dashboard - all data in one call
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/classifications", h.GetClassifications)
		r.Get("/clients/{clientId}", h.GetClient)
		r.Get("/benchmarks", h.GetBenchmarks)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.GetTasks)
			r.Post("/{taskId}/complete", h.CompleteTask)
			r.Delete("/{taskId}/complete", h.ReopenTask)
		})

		r.Post("/query", h.Query)
		r.Post("/refresh", h.Refresh)
	})

	return r
}

func wildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
