package ui

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/internal/ui/features"
	"github.com/leapstack-labs/askdata/pkg/core"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	c, err := client.New(backend.URL())
	require.NoError(t, err)

	cfg.Service = c
	cfg.SessionSecret = "test-secret-key-32-bytes-long!!"
	cfg.Logger = testutil.NewTestLogger(t)
	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s, backend
}

func TestServer_Routes(t *testing.T) {
	s, backend := newTestServer(t, Config{Dev: true})
	backend.Seed(core.Dataset{ID: "a", Name: "a.csv", RowCount: 1})
	s.Workspace().Bootstrap(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"home", http.MethodGet, "/", http.StatusOK, "Your Datasets"},
		{"stylesheet", http.MethodGet, "/static/app.css", http.StatusOK, ".upload-zone"},
		{"drop script", http.MethodGet, "/static/app.js", http.StatusOK, "askdataDrop"},
		{"hot reload", http.MethodGet, "/hotreload", http.StatusOK, "OK"},
		{"unknown suggestion", http.MethodPost, "/api/query/suggestions/99", http.StatusNotFound, "unknown suggestion"},
		{"unknown drag event", http.MethodPost, "/api/datasets/drag/sideways", http.StatusBadRequest, "unknown drag event"},
		{"missing", http.MethodGet, "/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tt.wantBody)
		})
	}
}

func TestServer_NoReloadOutsideDev(t *testing.T) {
	s, _ := newTestServer(t, Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hotreload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_SelectThroughRouter(t *testing.T) {
	s, backend := newTestServer(t, Config{})
	backend.Seed(core.Dataset{ID: "a", Name: "a.csv"}, core.Dataset{ID: "b", Name: "b.csv"})
	s.Workspace().Bootstrap(context.Background())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, features.DatastarRequest(http.MethodPost, "/api/datasets/b/select", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", s.Workspace().Store.ActiveID())
}

func TestServer_ServeBootstrapsAndStops(t *testing.T) {
	s, backend := newTestServer(t, Config{Port: freePort(t)})
	backend.Seed(core.Dataset{ID: "a", Name: "a.csv"})

	updates, release := s.Notifier().Subscribe()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("bootstrap did not broadcast")
	}
	assert.True(t, s.Workspace().Store.Bootstrapped())
	assert.Equal(t, "a", s.Workspace().Store.ActiveID())

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_WatchFolderUploads(t *testing.T) {
	dir := t.TempDir()
	s, backend := newTestServer(t, Config{Port: freePort(t), WatchDir: dir})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx) }()

	require.Eventually(t, func() bool { return s.Workspace().Store.Bootstrapped() }, 2*time.Second, 10*time.Millisecond)
	// Give the watcher a moment to register the folder.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dropped.csv"), []byte("x\n1\n"), 0o600))

	require.Eventually(t, func() bool { return backend.UploadCalls() >= 1 }, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		active, ok := s.Workspace().Store.Active()
		return ok && active.Name == "dropped.csv"
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-errCh)
}

func freePort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return p
}
