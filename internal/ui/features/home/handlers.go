package home

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/askdata/internal/ui/features/common"
	"github.com/leapstack-labs/askdata/internal/ui/features/common/components"
	"github.com/leapstack-labs/askdata/internal/ui/notifier"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// Handlers provides HTTP handlers for the home feature.
type Handlers struct {
	workspace    *workspace.Workspace
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, sessionStore sessions.Store, notify *notifier.Notifier, isDev bool) *Handlers {
	return &Handlers{
		workspace:    ws,
		sessionStore: sessionStore,
		notifier:     notify,
		isDev:        isDev,
	}
}

// HomePage renders the full page with the current session state.
func (h *Handlers) HomePage(w http.ResponseWriter, r *http.Request) {
	flashes := common.PopFlashes(w, r, h.sessionStore)
	app := components.AppContainer(common.BuildAppData(h.workspace, flashes...))

	if err := components.Page("Dashboard", h.isDev, app).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HomePageUpdates is the long-lived SSE endpoint for the page.
// It patches the app container whenever the workspace changes. It does not
// send the initial state; HomePage renders that.
func (h *Handlers) HomePageUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates, release := h.notifier.Subscribe()
	defer release()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := common.PatchApp(sse, h.workspace); err != nil {
				_ = sse.ConsoleError(err)
				// keep the stream open for the next update
			}
		}
	}
}
