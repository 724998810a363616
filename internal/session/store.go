// Package session holds the state of one interaction session: the known
// datasets, which one is active, and the result log of the active dataset.
package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/askdata/pkg/core"
)

// Lister fetches the datasets already known to the service. *client.Client satisfies it.
type Lister interface {
	ListDatasets(ctx context.Context) ([]core.Dataset, error)
}

// Snapshot is a consistent copy of the session state.
type Snapshot struct {
	Datasets     []core.Dataset
	ActiveID     string
	Results      []core.QueryResult
	Bootstrapped bool
}

// Active returns the active dataset, if any.
func (s Snapshot) Active() (core.Dataset, bool) {
	for _, ds := range s.Datasets {
		if ds.ID == s.ActiveID {
			return ds, true
		}
	}
	return core.Dataset{}, false
}

// Store is the single mutable session resource.
//
// The result log belongs to the active dataset: every change of the active
// dataset empties it. The active id, when set, always names a member of the
// dataset list.
type Store struct {
	logger *slog.Logger

	mu           sync.RWMutex
	datasets     []core.Dataset
	activeID     string
	results      []core.QueryResult
	selected     bool
	bootstrapped bool
	listeners    []func()
}

// NewStore creates an empty session.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// OnChange registers fn to run after every mutation.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// RegisterUpload prepends ds, makes it active and clears the result log.
// Datasets are not deduplicated: uploading the same file twice yields two entries.
func (s *Store) RegisterUpload(ds core.Dataset) {
	s.mu.Lock()
	s.datasets = slices.Insert(s.datasets, 0, ds)
	s.activeID = ds.ID
	s.results = nil
	s.selected = true
	s.mu.Unlock()

	s.logger.Debug("dataset registered", "id", ds.ID, "name", ds.Name)
	s.changed()
}

// SelectDataset makes id active and clears the result log.
// An unknown id leaves the session untouched and returns false.
func (s *Store) SelectDataset(id string) bool {
	s.mu.Lock()
	if !s.containsLocked(id) {
		s.mu.Unlock()
		s.logger.Warn("select ignored: unknown dataset", "id", id)
		return false
	}
	s.activeID = id
	s.results = nil
	s.selected = true
	s.mu.Unlock()

	s.logger.Debug("dataset selected", "id", id)
	s.changed()
	return true
}

// LoadInitial fetches the existing datasets at session start.
//
// A failed fetch is logged and the session continues empty. When datasets
// exist and nothing has been selected yet, the first one becomes active; this
// happens at most once per session.
func (s *Store) LoadInitial(ctx context.Context, lister Lister) []core.Dataset {
	datasets, err := lister.ListDatasets(ctx)
	if err != nil {
		s.logger.Error("failed to load datasets", "error", err)
		datasets = nil
	}

	s.mu.Lock()
	// Uploads registered while the list was in flight stay in front.
	merged := slices.Clone(s.datasets)
	for _, ds := range datasets {
		if !containsID(merged, ds.ID) {
			merged = append(merged, ds)
		}
	}
	s.datasets = merged
	if !s.selected && len(s.datasets) > 0 {
		s.activeID = s.datasets[0].ID
		s.results = nil
		s.selected = true
	}
	s.bootstrapped = true
	out := slices.Clone(s.datasets)
	s.mu.Unlock()

	s.logger.Info("session bootstrapped", "datasets", len(out))
	s.changed()
	return out
}

// AppendResult prepends res to the result log (newest first).
// It is appended to whatever dataset is active at the time of the call.
func (s *Store) AppendResult(res core.QueryResult) {
	s.mu.Lock()
	s.results = slices.Insert(s.results, 0, res)
	s.mu.Unlock()
	s.changed()
}

// Datasets returns the known datasets, newest first.
func (s *Store) Datasets() []core.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.datasets)
}

// ActiveID returns the active dataset id, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Active returns the active dataset.
func (s *Store) Active() (core.Dataset, bool) {
	return s.Snapshot().Active()
}

// Results returns the result log, newest first.
func (s *Store) Results() []core.QueryResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// Bootstrapped reports whether LoadInitial has completed.
func (s *Store) Bootstrapped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootstrapped
}

// Find returns the dataset with id.
func (s *Store) Find(id string) (core.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ds := range s.datasets {
		if ds.ID == id {
			return ds, true
		}
	}
	return core.Dataset{}, false
}

// Snapshot returns a consistent copy of the whole session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Datasets:     slices.Clone(s.datasets),
		ActiveID:     s.activeID,
		Results:      slices.Clone(s.results),
		Bootstrapped: s.bootstrapped,
	}
}

func (s *Store) containsLocked(id string) bool {
	return containsID(s.datasets, id)
}

func (s *Store) changed() {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

func containsID(datasets []core.Dataset, id string) bool {
	return slices.ContainsFunc(datasets, func(ds core.Dataset) bool { return ds.ID == id })
}
