// Package workspace wires the upload zone, session store and query controller
// of one interaction session to a single analytics service.
package workspace

import (
	"context"
	"errors"
	"log/slog"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/session"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// ErrNoActiveDataset is returned when a query is asked before any dataset is active.
var ErrNoActiveDataset = errors.New("no active dataset: upload or select a dataset first")

// Service is the slice of the analytics service a workspace needs. *client.Client satisfies it.
type Service interface {
	upload.Uploader
	query.Submitter
	session.Lister
	ListQueries(ctx context.Context, datasetID string) ([]core.QueryResult, error)
}

// Options configures a Workspace.
type Options struct {
	Logger *slog.Logger
	// DiscardStale drops a query result whose dataset is no longer active when it arrives.
	// By default such a result is appended to the log of whatever dataset is active.
	DiscardStale bool
	// OnChange is invoked after any visible state change
	OnChange func()
}

// Workspace is one interaction session.
type Workspace struct {
	service Service
	logger  *slog.Logger
	discard bool

	Store  *session.Store
	Upload *upload.Controller
	Query  *query.Controller
}

// New creates a workspace over service.
func New(service Service, opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &Workspace{
		service: service,
		logger:  logger,
		discard: opts.DiscardStale,
		Store:   session.NewStore(logger.With("component", "session")),
	}

	w.Upload = upload.NewController(service, w.Store.RegisterUpload,
		upload.WithLogger(logger.With("component", "upload")),
		upload.WithOnChange(opts.OnChange),
	)
	w.Query = query.NewController(service, w.complete,
		query.WithLogger(logger.With("component", "query")),
		query.WithOnChange(opts.OnChange),
	)
	if opts.OnChange != nil {
		w.Store.OnChange(opts.OnChange)
	}
	return w
}

// Bootstrap loads the datasets already known to the service.
func (w *Workspace) Bootstrap(ctx context.Context) []core.Dataset {
	return w.Store.LoadInitial(ctx, w.service)
}

// UploadFile sends file through the upload zone.
func (w *Workspace) UploadFile(ctx context.Context, file client.File, source upload.Source) (*core.Dataset, error) {
	if source == upload.SourcePick {
		return w.Upload.Pick(ctx, file)
	}
	return w.Upload.Drop(ctx, file)
}

// Select makes dataset id active.
func (w *Workspace) Select(id string) bool {
	return w.Store.SelectDataset(id)
}

// Ask sets the query text and submits it against the active dataset.
// While a query is in flight it returns query.ErrBusy and keeps that query's text.
func (w *Workspace) Ask(ctx context.Context, text string) error {
	id := w.Store.ActiveID()
	if id == "" {
		return ErrNoActiveDataset
	}
	return w.Query.SubmitText(ctx, id, text)
}

// Submit submits the current query text against the active dataset.
func (w *Workspace) Submit(ctx context.Context) error {
	id := w.Store.ActiveID()
	if id == "" {
		return ErrNoActiveDataset
	}
	return w.Query.Submit(ctx, id)
}

// History returns the service's stored queries for the active dataset, oldest first.
func (w *Workspace) History(ctx context.Context) ([]core.QueryResult, error) {
	id := w.Store.ActiveID()
	if id == "" {
		return nil, ErrNoActiveDataset
	}
	return w.service.ListQueries(ctx, id)
}

func (w *Workspace) complete(c query.Completion) {
	if w.discard {
		if active := w.Store.ActiveID(); active != c.DatasetID {
			w.logger.Warn("discarding stale query result",
				"submission", c.SubmissionID,
				"issued_for", c.DatasetID,
				"active", active,
			)
			return
		}
	}
	w.Store.AppendResult(c.Result)
}
