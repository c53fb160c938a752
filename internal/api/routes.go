package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/reconcile", h.HandleReconcile)

		r.Route("/batches", func(r chi.Router) {
			r.Get("/", h.HandleListBatches)
			r.Get("/{id}", h.HandleGetBatch)
			r.Delete("/{id}", h.HandleDeleteBatch)
			r.Get("/{id}/download", h.HandleDownloadBatch)
			r.Post("/{id}/export", h.HandleExportBatch)
			r.Get("/{id}/metrics", h.HandleBatchMetrics)
		})
	})

	return r
}
