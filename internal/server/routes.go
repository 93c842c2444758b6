package server

import "github.com/go-chi/chi/v5"

// SetupRoutes registers the API routes.
func SetupRoutes(router chi.Router, h *Handlers) {
	router.Get("/healthz", h.Health)

	router.Route("/api", func(r chi.Router) {
		r.Post("/dataset", h.UploadDataset)
		r.Get("/dataset", h.Dataset)
		r.Post("/ask", h.Ask)
		r.Get("/history", h.History)
		r.Get("/history/export", h.ExportHistory)
		r.Delete("/session", h.DeleteSession)
	})
}
