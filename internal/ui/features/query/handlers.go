package query

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/leapstack-labs/askdata/internal/client"
	querycontrol "github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/ui/features/common"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// Signals represents the signals sent from the frontend.
type Signals struct {
	Query string `json:"query"`
}

// Handlers provides HTTP handlers for the query feature.
type Handlers struct {
	workspace *workspace.Workspace
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{workspace: ws, logger: logger}
}

// Submit asks the query signal against the active dataset.
// On success the result log is patched and the signal cleared; on a transport
// failure the user is alerted and the signal keeps its text.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	var signals Signals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)

	err := h.workspace.Ask(r.Context(), signals.Query)
	switch {
	case err == nil:
	case errors.Is(err, querycontrol.ErrEmptyQuery):
		return
	case errors.Is(err, querycontrol.ErrBusy):
		_ = sse.ConsoleError(err)
		return
	case errors.Is(err, workspace.ErrNoActiveDataset):
		_ = common.Alert(sse, "Please upload or select a dataset first.")
		return
	default:
		h.logger.Error("query failed", "error", err)
		msg := client.QueryFailedMessage
		var um client.UserMessenger
		if errors.As(err, &um) {
			msg = um.UserMessage()
		}
		_ = common.Alert(sse, msg)
		return
	}

	if err := sse.MarshalAndPatchSignals(Signals{Query: ""}); err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := common.PatchApp(sse, h.workspace); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Suggestion loads a suggested prompt into the query signal without submitting it.
func (h *Handlers) Suggestion(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || !h.workspace.Query.ApplySuggestion(i) {
		http.Error(w, "unknown suggestion", http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(Signals{Query: h.workspace.Query.Text()}); err != nil {
		_ = sse.ConsoleError(err)
	}
}
