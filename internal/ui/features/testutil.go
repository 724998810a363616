// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/internal/ui/notifier"
	"github.com/leapstack-labs/askdata/internal/workspace"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Backend      *testutil.Backend
	Workspace    *workspace.Workspace
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
}

// SetupTestFixture creates a workspace over a fake backend seeded with datasets,
// and bootstraps it. Workspace changes broadcast on the fixture's notifier.
func SetupTestFixture(t *testing.T, datasets ...core.Dataset) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	backend := testutil.NewBackend(t)
	backend.Seed(datasets...)

	c, err := client.New(backend.URL(), client.WithLogger(logger))
	require.NoError(t, err)

	notify := notifier.New()
	ws := workspace.New(c, workspace.Options{Logger: logger, OnChange: notify.Broadcast})
	ws.Bootstrap(context.Background())

	return &TestFixture{
		Backend:      backend,
		Workspace:    ws,
		Notifier:     notify,
		SessionStore: NewTestSessionStore(),
	}
}

// RequestWithPathParam wraps a request with chi URL params.
func RequestWithPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(r *http.Request, timeout time.Duration) *http.Request {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	_ = cancel // the timeout releases it
	return r.WithContext(ctx)
}

// DatastarRequest builds a request the way the datastar client sends it.
// Non-empty signals are sent as the JSON body.
func DatastarRequest(method, target, signals string) *http.Request {
	var body io.Reader
	if signals != "" {
		body = strings.NewReader(signals)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Datastar-Request", "true")
	if signals != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// MultipartRequest builds a form upload carrying file and source fields.
func MultipartRequest(t *testing.T, target, name, content, source string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if source != "" {
		require.NoError(t, mw.WriteField("source", source))
	}
	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}
