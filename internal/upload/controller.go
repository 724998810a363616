// Package upload implements the upload zone: drag hover state, the busy
// indicator during a transfer, and the completed-dataset event.
package upload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// State is the visual state of the upload zone.
type State int

// Upload zone states.
const (
	Idle State = iota
	DragHover
	Uploading
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case DragHover:
		return "drag-hover"
	case Uploading:
		return "uploading"
	default:
		return "unknown"
	}
}

// Source is how a file reached the zone.
type Source string

// File sources.
const (
	SourceDrop Source = "drop"
	SourcePick Source = "pick"
)

// Uploader performs one transfer. *client.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, file client.File) (*core.Dataset, error)
}

// Controller owns the upload zone's interaction state.
//
// Transfers are not serialized: a second file dropped while one is in flight
// starts another transfer, and whichever finishes first resets the busy flag.
type Controller struct {
	uploader   Uploader
	onUploaded func(core.Dataset)
	onChange   func()
	logger     *slog.Logger

	mu       sync.Mutex
	dragging bool
	busy     bool
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

// WithOnChange registers a callback invoked after every visual state change.
func WithOnChange(fn func()) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

// NewController creates an upload zone. onUploaded is called exactly once per successful transfer.
func NewController(uploader Uploader, onUploaded func(core.Dataset), opts ...Option) *Controller {
	c := &Controller{
		uploader:   uploader,
		onUploaded: onUploaded,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current zone state. Uploading wins over DragHover.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.busy:
		return Uploading
	case c.dragging:
		return DragHover
	default:
		return Idle
	}
}

// Busy reports whether the busy indicator is shown.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Dragging reports whether a drag is hovering over the zone.
func (c *Controller) Dragging() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragging
}

// DragEnter marks a drag entering the zone.
func (c *Controller) DragEnter() { c.setDragging(true) }

// DragOver marks a drag moving over the zone.
func (c *Controller) DragOver() { c.setDragging(true) }

// DragLeave marks a drag leaving the zone.
func (c *Controller) DragLeave() { c.setDragging(false) }

// Drop uploads a file dropped on the zone. No extension filter is applied.
func (c *Controller) Drop(ctx context.Context, file client.File) (*core.Dataset, error) {
	return c.transfer(ctx, file, SourceDrop)
}

// Pick uploads a file chosen from the picker.
func (c *Controller) Pick(ctx context.Context, file client.File) (*core.Dataset, error) {
	return c.transfer(ctx, file, SourcePick)
}

// Accepts is the advisory picker filter.
func (c *Controller) Accepts(name string) bool {
	return client.Accepts(name)
}

func (c *Controller) setDragging(v bool) {
	c.mu.Lock()
	changed := c.dragging != v
	c.dragging = v
	c.mu.Unlock()
	if changed {
		c.notify()
	}
}

func (c *Controller) setBusy(v bool) {
	c.mu.Lock()
	c.busy = v
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) transfer(ctx context.Context, file client.File, source Source) (*core.Dataset, error) {
	c.mu.Lock()
	c.dragging = false
	c.mu.Unlock()
	c.setBusy(true)

	c.logger.Debug("upload started", "file", file.Name, "source", string(source))
	ds, err := c.uploader.Upload(ctx, file)

	c.setBusy(false)

	if err != nil {
		c.logger.Warn("upload failed", "file", file.Name, "error", err)
		return nil, err
	}

	c.logger.Info("dataset uploaded", "id", ds.ID, "name", ds.Name)
	if c.onUploaded != nil {
		c.onUploaded(*ds)
	}
	return ds, nil
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
