// Package router sets up HTTP routes for the UI server.
package router

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	datasetsFeature "github.com/leapstack-labs/askdata/internal/ui/features/datasets"
	historyFeature "github.com/leapstack-labs/askdata/internal/ui/features/history"
	homeFeature "github.com/leapstack-labs/askdata/internal/ui/features/home"
	queryFeature "github.com/leapstack-labs/askdata/internal/ui/features/query"
	"github.com/leapstack-labs/askdata/internal/ui/notifier"
	"github.com/leapstack-labs/askdata/internal/ui/resources"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// SetupRoutes configures all routes for the UI server.
func SetupRoutes(
	router chi.Router,
	ws *workspace.Workspace,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	// Hot reload endpoint for dev mode
	if isDev {
		setupReload(router)
	}

	// Static assets
	router.Handle("/static/*", resources.Handler())

	// Feature routes
	if err := homeFeature.SetupRoutes(router, ws, sessionStore, notify, isDev); err != nil {
		return err
	}

	if err := datasetsFeature.SetupRoutes(router, ws, sessionStore, logger); err != nil {
		return err
	}

	if err := queryFeature.SetupRoutes(router, ws, logger); err != nil {
		return err
	}

	if err := historyFeature.SetupRoutes(router, ws, logger, isDev); err != nil {
		return err
	}

	return nil
}

func setupReload(router chi.Router) {
	reloadChan := make(chan struct{}, 1)
	var hotReloadOnce sync.Once

	router.Get("/reload", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		reload := func() { _ = sse.ExecuteScript("window.location.reload()") }
		hotReloadOnce.Do(reload)
		select {
		case <-reloadChan:
			reload()
		case <-r.Context().Done():
		}
	})

	router.Get("/hotreload", func(w http.ResponseWriter, _ *http.Request) {
		select {
		case reloadChan <- struct{}{}:
		default:
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}
