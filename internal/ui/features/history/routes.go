// Package history shows the queries the service has stored for the active dataset.
package history

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/askdata/internal/ui/features/common/components"
	"github.com/leapstack-labs/askdata/internal/workspace"
)

// SetupRoutes registers the stored-history feature routes.
func SetupRoutes(router chi.Router, ws *workspace.Workspace, logger *slog.Logger, isDev bool) error {
	handlers := NewHandlers(ws, logger, isDev)

	// Page route for clients without JavaScript
	router.Get("/history", handlers.HistoryPage)

	// Patches the dashboard's history slot
	router.Get(components.HistoryPath, handlers.HistorySSE)

	return nil
}
