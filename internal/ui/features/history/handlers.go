package history

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/internal/ui/features/common/components"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// defaultLimit caps how many stored queries are shown.
const defaultLimit = 50

// Handlers provides HTTP handlers for the stored-history feature.
type Handlers struct {
	workspace *workspace.Workspace
	logger    *slog.Logger
	isDev     bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, logger *slog.Logger, isDev bool) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{workspace: ws, logger: logger, isDev: isDev}
}

// HistoryPage renders the stored history as a standalone page.
func (h *Handlers) HistoryPage(w http.ResponseWriter, r *http.Request) {
	data := h.buildHistoryData(r.Context(), parseLimit(r))

	if err := components.Page("History", h.isDev, components.HistoryPanel(data)).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// HistorySSE patches the dashboard's history slot.
func (h *Handlers) HistorySSE(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	data := h.buildHistoryData(r.Context(), parseLimit(r))
	if err := sse.PatchElementTempl(components.HistoryPanel(data)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// buildHistoryData fetches the active dataset's stored queries, keeping the
// most recent limit entries. Failures become a message in the panel.
func (h *Handlers) buildHistoryData(ctx context.Context, limit int) components.HistoryData {
	active, ok := h.workspace.Store.Active()
	if !ok {
		return components.HistoryData{Error: "Please upload or select a dataset first."}
	}
	data := components.HistoryData{Dataset: active.Name}

	results, err := h.workspace.History(ctx)
	if err != nil {
		h.logger.Error("failed to load history", "dataset", active.ID, "error", err)
		data.Error = "Error loading query history. Please try again."
		var te *client.TransportError
		if errors.As(err, &te) && te.Message != "" {
			data.Error += " (" + te.Message + ")"
		}
		return data
	}

	if len(results) > limit {
		results = results[len(results)-limit:]
	}
	data.Results = render.BuildAll(results)
	return data
}

// parseLimit reads the limit query param, defaulting to 50.
func parseLimit(r *http.Request) int {
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return defaultLimit
}
