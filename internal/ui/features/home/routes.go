// Package home provides the landing page and its live update stream.
package home

import (
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/askdata/internal/ui/notifier"
	"github.com/leapstack-labs/askdata/internal/workspace"
)

// SetupRoutes configures routes for the home feature.
func SetupRoutes(
	router chi.Router,
	ws *workspace.Workspace,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	isDev bool,
) error {
	handlers := NewHandlers(ws, sessionStore, notify, isDev)

	router.Get("/", handlers.HomePage)
	router.Get("/updates", handlers.HomePageUpdates)

	return nil
}
