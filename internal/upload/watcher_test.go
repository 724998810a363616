package upload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func TestWatcher_DropsNewFiles(t *testing.T) {
	dir := t.TempDir()
	backend := testutil.NewBackend(t)
	c, err := client.New(backend.URL())
	require.NoError(t, err)

	var mu sync.Mutex
	var registered []core.Dataset
	var results []DropResult

	zone := NewController(c, func(ds core.Dataset) {
		mu.Lock()
		defer mu.Unlock()
		registered = append(registered, ds)
	})
	w := NewWatcher(dir, zone,
		WithDebounce(20*time.Millisecond),
		WithWatchLogger(testutil.NewTestLogger(t)),
		WithResultHandler(func(r DropResult) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, r)
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the watcher a moment to register the folder.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte("region,amount\nEast,42\nWest,7\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.csv"), []byte("a\n1\n"), 0o600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(registered) == 1
	}, timeout, tick)

	cancel()
	require.NoError(t, <-errCh)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "sales.csv", registered[0].Name)
	assert.Equal(t, 2, registered[0].RowCount)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, []string{"sales.csv"}, backend.UploadNames())
}

func TestWatcher_MissingDir(t *testing.T) {
	zone := NewController(&stubUploader{}, nil)
	w := NewWatcher(filepath.Join(t.TempDir(), "nope"), zone)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to watch")
}

func TestWatcher_Wants(t *testing.T) {
	w := NewWatcher(".", nil)
	tests := []struct {
		path string
		want bool
	}{
		{"/data/sales.csv", true},
		{"/data/orders.JSON", true},
		{"/data/readme.md", false},
		{"/data/.sales.csv", false},
		{"/data/~lock.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, w.wants(tt.path))
		})
	}
}
