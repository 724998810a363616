package datasets

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/ui/features/common"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/starfederation/datastar-go/datastar"
)

// maxUploadMemory is how much of a multipart upload is held in memory; the rest spills to disk.
const maxUploadMemory = 32 << 20

// NoFileMessage is shown when an upload form arrives without a file.
const NoFileMessage = "Please choose a CSV or JSON file to upload."

// Handlers provides HTTP handlers for the datasets feature.
type Handlers struct {
	workspace    *workspace.Workspace
	sessionStore sessions.Store
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ws *workspace.Workspace, sessionStore sessions.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		workspace:    ws,
		sessionStore: sessionStore,
		logger:       logger,
	}
}

// Upload receives a file from the upload zone.
// Datastar requests are answered over SSE; plain form posts redirect back to the page.
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	var fileErr error
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		fileErr = err
	}

	source := upload.SourcePick
	if upload.Source(r.FormValue("source")) == upload.SourceDrop {
		source = upload.SourceDrop
	}

	var uploadErr error
	if fileErr == nil {
		f, header, err := r.FormFile("file")
		if err != nil {
			fileErr = err
		} else {
			defer func() { _ = f.Close() }()
			_, uploadErr = h.workspace.UploadFile(r.Context(), client.File{Name: header.Filename, Content: f}, source)
		}
	}

	msg := ""
	switch {
	case fileErr != nil:
		h.logger.Debug("upload form carried no file", "error", fileErr)
		msg = NoFileMessage
	case uploadErr != nil:
		h.logger.Error("upload failed", "source", source, "error", uploadErr)
		msg = userMessage(uploadErr, client.UploadFailedMessage)
	}

	if !common.IsDatastar(r) {
		if msg != "" {
			if err := common.AddFlash(w, r, h.sessionStore, msg); err != nil {
				h.logger.Warn("could not store flash", "error", err)
			}
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sse := datastar.NewSSE(w, r)
	if msg != "" {
		_ = common.Alert(sse, msg)
		return
	}
	if err := common.PatchApp(sse, h.workspace); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Drag drives the upload zone's hover state from enter, over and leave events.
func (h *Handlers) Drag(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "event") {
	case "enter":
		h.workspace.Upload.DragEnter()
	case "over":
		h.workspace.Upload.DragOver()
	case "leave":
		h.workspace.Upload.DragLeave()
	default:
		http.Error(w, "unknown drag event", http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := common.PatchApp(sse, h.workspace); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// Select makes a dataset active.
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sse := datastar.NewSSE(w, r)

	if !h.workspace.Select(id) {
		_ = sse.ConsoleError(errors.New("unknown dataset: " + id))
		return
	}
	if err := common.PatchApp(sse, h.workspace); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func userMessage(err error, fallback string) string {
	var um client.UserMessenger
	if errors.As(err, &um) {
		return um.UserMessage()
	}
	return fallback
}
