package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listerFunc func(ctx context.Context) ([]core.Dataset, error)

func (f listerFunc) ListDatasets(ctx context.Context) ([]core.Dataset, error) { return f(ctx) }

func staticLister(datasets ...core.Dataset) Lister {
	return listerFunc(func(context.Context) ([]core.Dataset, error) { return datasets, nil })
}

func ds(id string) core.Dataset {
	return core.Dataset{ID: id, Name: id + ".csv"}
}

func result(text string) core.QueryResult {
	return core.QueryResult{QueryText: text, ResultType: core.ResultTable}
}

func TestStore_RegisterUploadSequence(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10} {
		t.Run(fmt.Sprintf("%d uploads", n), func(t *testing.T) {
			s := NewStore(testutil.NewTestLogger(t))
			for i := range n {
				before := len(s.Datasets())
				id := fmt.Sprintf("ds-%d", i)
				s.RegisterUpload(ds(id))

				datasets := s.Datasets()
				assert.Len(t, datasets, before+1)
				assert.Equal(t, id, datasets[0].ID, "newest first")
				assert.Equal(t, id, s.ActiveID())
			}
		})
	}
}

func TestStore_RegisterUploadNoDedup(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("same"))
	s.RegisterUpload(ds("same"))
	assert.Len(t, s.Datasets(), 2)
}

func TestStore_RegisterUploadClearsLog(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("a"))
	s.AppendResult(result("q1"))
	require.Len(t, s.Results(), 1)

	s.RegisterUpload(ds("b"))
	assert.Empty(t, s.Results())
}

func TestStore_SelectDatasetAlwaysClearsLog(t *testing.T) {
	tests := []struct {
		name    string
		results int
		target  string
	}{
		{"empty log, other dataset", 0, "a"},
		{"full log, other dataset", 3, "a"},
		{"full log, same dataset", 3, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(testutil.NewTestLogger(t))
			s.RegisterUpload(ds("a"))
			s.RegisterUpload(ds("b"))
			for i := range tt.results {
				s.AppendResult(result(fmt.Sprint(i)))
			}

			require.True(t, s.SelectDataset(tt.target))
			assert.Empty(t, s.Results())
			assert.Equal(t, tt.target, s.ActiveID())
		})
	}
}

func TestStore_SelectUnknownDatasetIsNoop(t *testing.T) {
	s := NewStore(testutil.NewTestLogger(t))
	s.RegisterUpload(ds("a"))
	s.AppendResult(result("q"))

	assert.False(t, s.SelectDataset("missing"))
	assert.Equal(t, "a", s.ActiveID())
	assert.Len(t, s.Results(), 1, "log untouched")
}

func TestStore_AppendResultNewestFirst(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("a"))
	s.AppendResult(result("first"))
	s.AppendResult(result("second"))

	results := s.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "second", results[0].QueryText)
	assert.Equal(t, "first", results[1].QueryText)
}

func TestStore_LoadInitialAutoSelectsFirst(t *testing.T) {
	s := NewStore(testutil.NewTestLogger(t))
	assert.False(t, s.Bootstrapped())

	got := s.LoadInitial(context.Background(), staticLister(ds("x"), ds("y")))
	assert.Len(t, got, 2)
	assert.True(t, s.Bootstrapped())
	assert.Equal(t, "x", s.ActiveID())

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, "x.csv", active.Name)
}

func TestStore_LoadInitialAutoSelectsOnce(t *testing.T) {
	s := NewStore(nil)
	s.LoadInitial(context.Background(), staticLister(ds("x"), ds("y")))
	require.True(t, s.SelectDataset("y"))

	s.LoadInitial(context.Background(), staticLister(ds("x"), ds("y")))
	assert.Equal(t, "y", s.ActiveID(), "an explicit choice is never overridden")
}

func TestStore_LoadInitialKeepsEarlierUpload(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("fresh"))

	got := s.LoadInitial(context.Background(), staticLister(ds("old"), ds("fresh")))
	require.Len(t, got, 2)
	assert.Equal(t, "fresh", got[0].ID)
	assert.Equal(t, "fresh", s.ActiveID())
}

func TestStore_LoadInitialFailureStartsEmpty(t *testing.T) {
	s := NewStore(testutil.NewTestLogger(t))
	failing := listerFunc(func(context.Context) ([]core.Dataset, error) {
		return nil, errors.New("connection refused")
	})

	got := s.LoadInitial(context.Background(), failing)
	assert.Empty(t, got)
	assert.True(t, s.Bootstrapped())
	assert.Empty(t, s.ActiveID())
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestStore_LoadInitialEmptyList(t *testing.T) {
	s := NewStore(nil)
	s.LoadInitial(context.Background(), staticLister())
	assert.Empty(t, s.ActiveID())

	// The first upload after an empty bootstrap still becomes active.
	s.RegisterUpload(ds("a"))
	assert.Equal(t, "a", s.ActiveID())
}

func TestStore_ReadersReturnCopies(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("a"))
	s.AppendResult(result("q"))

	datasets := s.Datasets()
	datasets[0].Name = "mutated"
	results := s.Results()
	results[0].QueryText = "mutated"

	assert.Equal(t, "a.csv", s.Datasets()[0].Name)
	assert.Equal(t, "q", s.Results()[0].QueryText)
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore(nil)
	s.RegisterUpload(ds("a"))
	s.RegisterUpload(ds("b"))
	s.AppendResult(result("q"))

	snap := s.Snapshot()
	assert.Equal(t, "b", snap.ActiveID)
	assert.Len(t, snap.Datasets, 2)
	assert.Len(t, snap.Results, 1)

	found, ok := s.Find("a")
	require.True(t, ok)
	assert.Equal(t, "a.csv", found.Name)
	_, ok = s.Find("zzz")
	assert.False(t, ok)
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore(nil)
	calls := 0
	s.OnChange(func() { calls++ })

	s.RegisterUpload(ds("a"))
	s.AppendResult(result("q"))
	s.SelectDataset("a")
	s.SelectDataset("missing")
	s.LoadInitial(context.Background(), staticLister())

	assert.Equal(t, 4, calls)
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.RegisterUpload(ds(fmt.Sprint(i)))
		}(i)
		go func() {
			defer wg.Done()
			s.AppendResult(result("q"))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	assert.Len(t, s.Datasets(), 20)
}
