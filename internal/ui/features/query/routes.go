// Package query provides the question form endpoints.
package query

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/askdata/internal/workspace"
)

// SetupRoutes configures routes for the query feature.
func SetupRoutes(router chi.Router, ws *workspace.Workspace, logger *slog.Logger) error {
	handlers := NewHandlers(ws, logger)

	router.Post("/api/query", handlers.Submit)
	router.Post("/api/query/suggestions/{index}", handlers.Suggestion)

	return nil
}
