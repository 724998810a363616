// Package query implements the query input: the current text, the in-flight
// guard, and the submission protocol.
package query

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// State is the submission state of a Controller.
type State int

// Controller states.
const (
	Ready State = iota
	Submitting
)

func (s State) String() string {
	if s == Submitting {
		return "submitting"
	}
	return "ready"
}

var (
	// ErrEmptyQuery is returned when the text is empty or whitespace only.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrBusy is returned when a submission is already in flight on this controller.
	ErrBusy = errors.New("a query is already being processed")
)

// Submitter issues one query. *client.Client satisfies it.
type Submitter interface {
	SubmitQuery(ctx context.Context, q core.QueryRequest) (*core.QueryResult, error)
}

// Completion is delivered once per structured result.
type Completion struct {
	// SubmissionID identifies the submission that produced the result
	SubmissionID string
	// DatasetID is the dataset the query was issued against
	DatasetID string
	Result    core.QueryResult
}

// Controller owns the query text and guards against overlapping submissions.
type Controller struct {
	submitter Submitter
	onResult  func(Completion)
	onChange  func()
	logger    *slog.Logger

	mu    sync.Mutex
	text  string
	state State
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithOnChange registers a callback invoked whenever the text or state changes.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates a query controller. onResult runs once per structured result.
func NewController(submitter Submitter, onResult func(Completion), opts ...Option) *Controller {
	c := &Controller{
		submitter: submitter,
		onResult:  onResult,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current submission state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Text returns the current query text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// SetText replaces the query text.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	c.text = text
	c.mu.Unlock()
	c.notify()
}

// Suggestions returns the suggested prompts.
func (c *Controller) Suggestions() []string {
	return Suggestions()
}

// ApplySuggestion copies suggestion i into the text. It never submits.
func (c *Controller) ApplySuggestion(i int) bool {
	s, ok := Suggestion(i)
	if !ok {
		return false
	}
	c.SetText(s)
	return true
}

// Submit sends the current text as a query against datasetID.
//
// Blank text returns ErrEmptyQuery and an in-flight submission returns
// ErrBusy; neither reaches the service. A structured result, including an
// analysis error, clears the text and is delivered to onResult. A transport
// failure keeps the text and is returned without calling onResult.
func (c *Controller) Submit(ctx context.Context, datasetID string) error {
	c.mu.Lock()
	if strings.TrimSpace(c.text) == "" {
		c.mu.Unlock()
		return ErrEmptyQuery
	}
	if c.state == Submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	return c.run(ctx, datasetID)
}

// SubmitText replaces the text with text and submits it. The busy check and
// the replacement happen under one lock, so ErrBusy leaves the text of the
// in-flight submission untouched.
func (c *Controller) SubmitText(ctx context.Context, datasetID, text string) error {
	c.mu.Lock()
	if c.state == Submitting {
		c.mu.Unlock()
		return ErrBusy
	}
	c.text = text
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		c.notify()
		return ErrEmptyQuery
	}
	return c.run(ctx, datasetID)
}

// run issues the submission. c.mu must be held; run releases it.
func (c *Controller) run(ctx context.Context, datasetID string) error {
	c.state = Submitting
	text := c.text
	c.mu.Unlock()
	c.notify()

	id := uuid.NewString()
	c.logger.Debug("query submitted", "submission", id, "dataset", datasetID, "text", text)

	res, err := c.submitter.SubmitQuery(ctx, core.QueryRequest{DatasetID: datasetID, QueryText: text})

	c.mu.Lock()
	c.state = Ready
	if err == nil {
		c.text = ""
	}
	c.mu.Unlock()
	c.notify()

	if err != nil {
		c.logger.Warn("query failed", "submission", id, "dataset", datasetID, "error", err)
		return err
	}

	c.logger.Debug("query completed", "submission", id, "result_type", res.ResultType)
	if c.onResult != nil {
		c.onResult(Completion{SubmissionID: id, DatasetID: datasetID, Result: *res})
	}
	return nil
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
