// Package datasets provides the upload zone and dataset selection endpoints.
package datasets

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/askdata/internal/workspace"
)

// SetupRoutes configures routes for the datasets feature.
func SetupRoutes(router chi.Router, ws *workspace.Workspace, sessionStore sessions.Store, logger *slog.Logger) error {
	handlers := NewHandlers(ws, sessionStore, logger)

	router.Route("/api/datasets", func(r chi.Router) {
		r.Post("/upload", handlers.Upload)
		r.Post("/drag/{event}", handlers.Drag)
		r.Post("/{id}/select", handlers.Select)
	})

	return nil
}
