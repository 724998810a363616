package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{"plain host", "http://localhost:8001", "http://localhost:8001/api", false},
		{"trailing slash", "http://localhost:8001/", "http://localhost:8001/api", false},
		{"with path", "https://example.com/analytics", "https://example.com/analytics/api", false},
		{"missing scheme", "localhost:8001", "", true},
		{"ftp scheme", "ftp://example.com", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestNew_Timeout(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	tests := []struct {
		name string
		opts []Option
		want time.Duration
	}{
		{"default client has no timeout", nil, 0},
		{"timeout on default client", []Option{WithTimeout(3 * time.Second)}, 3 * time.Second},
		{"shared client keeps its own timeout", []Option{WithHTTPClient(shared)}, time.Minute},
		{"timeout after shared client", []Option{WithHTTPClient(shared), WithTimeout(3 * time.Second)}, 3 * time.Second},
		{"timeout before shared client", []Option{WithTimeout(3 * time.Second), WithHTTPClient(shared)}, 3 * time.Second},
		{"zero timeout disables the shared one", []Option{WithHTTPClient(shared), WithTimeout(0)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New("http://localhost:8001", tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.httpClient.Timeout)
			assert.Equal(t, time.Minute, shared.Timeout, "caller's client untouched")
		})
	}
}

func TestAccepts(t *testing.T) {
	assert.True(t, Accepts("sales.csv"))
	assert.True(t, Accepts("SALES.JSON"))
	assert.False(t, Accepts("notes.txt"))
	assert.False(t, Accepts("csv"))
}

func TestClient_ListDatasets(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "a", Name: "a.csv", Columns: []string{"x"}, RowCount: 1})

	c := newTestClient(t, backend.URL())
	datasets, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 1)
	assert.Equal(t, "a.csv", datasets[0].Name)
}

func TestClient_ListDatasets_Empty(t *testing.T) {
	backend := testutil.NewBackend(t)

	c := newTestClient(t, backend.URL())
	datasets, err := c.ListDatasets(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, datasets)
	assert.Empty(t, datasets)
}

func TestClient_ListDatasets_Failure(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Fail("datasets", http.StatusInternalServerError)

	c := newTestClient(t, backend.URL())
	_, err := c.ListDatasets(context.Background())
	require.Error(t, err)

	var bootErr *BootstrapError
	require.True(t, errors.As(err, &bootErr))
	assert.Equal(t, http.StatusInternalServerError, bootErr.StatusCode)
	assert.Equal(t, BootstrapFailedMessage, bootErr.UserMessage())
}

func TestClient_Upload(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := newTestClient(t, backend.URL())

	csv := "region,amount\nEast,42\nWest,17\n"
	ds, err := c.Upload(context.Background(), File{Name: "sales.csv", Content: strings.NewReader(csv)})
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, "csv", ds.FileType)
	assert.Equal(t, []string{"region", "amount"}, ds.Columns)
	assert.Equal(t, 2, ds.RowCount)
	require.Len(t, ds.DataPreview, 2)
	assert.Equal(t, []string{"sales.csv"}, backend.UploadNames())
}

func TestClient_Upload_NoClientSideTypeCheck(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := newTestClient(t, backend.URL())

	_, err := c.Upload(context.Background(), File{Name: "notes.txt", Content: strings.NewReader("hello")})
	require.Error(t, err)

	assert.Equal(t, 1, backend.UploadCalls(), "file is sent even though the picker filter would reject it")

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Equal(t, http.StatusBadRequest, transferErr.StatusCode)
	assert.Contains(t, transferErr.Error(), "unsupported file type")
	assert.Equal(t, UploadFailedMessage, transferErr.UserMessage())
}

func TestClient_Upload_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base)
	_, err := c.Upload(context.Background(), File{Name: "sales.csv", Content: strings.NewReader("a\n1\n")})
	require.Error(t, err)

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Zero(t, transferErr.StatusCode)

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
}

func TestClient_Upload_InvalidDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "x", "name": "a.csv", "columns": ["a"], "row_count": 1,
			"data_preview": [{"b": 1}]}`)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.Upload(context.Background(), File{Name: "a.csv", Content: strings.NewReader("a\n1\n")})

	var transferErr *TransferError
	require.True(t, errors.As(err, &transferErr))
	assert.Contains(t, err.Error(), "invalid dataset")
}

func TestClient_OpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("region,amount\nEast,1\n"), 0o600))

	f, closeFn, err := OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = closeFn() }()
	assert.Equal(t, "sales.csv", f.Name)

	_, _, err = OpenFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestClient_SubmitQuery(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "ds-1", Name: "sales.csv"})
	backend.Answer(testutil.TableAnswer("df.groupby('region')['amount'].mean()",
		core.NewRecord("region", "East", "amount", 42)))

	c := newTestClient(t, backend.URL())
	res, err := c.SubmitQuery(context.Background(), core.QueryRequest{DatasetID: "ds-1", QueryText: "average amount by region"})
	require.NoError(t, err)

	assert.Equal(t, core.ResultTable, res.ResultType)
	assert.Equal(t, "df.groupby('region')['amount'].mean()", res.GeneratedCode)
	assert.Equal(t, core.QueryRequest{DatasetID: "ds-1", QueryText: "average amount by region"}, backend.LastQuery())

	table, ok := res.Payload().(core.TablePayload)
	require.True(t, ok)
	require.Len(t, table.Records, 1)
}

func TestClient_SubmitQuery_StructuredErrorIsNotAnError(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "ds-1"})
	backend.Answer(testutil.ErrorAnswer("df['missing']", "KeyError: 'missing'"))

	c := newTestClient(t, backend.URL())
	res, err := c.SubmitQuery(context.Background(), core.QueryRequest{DatasetID: "ds-1", QueryText: "q"})
	require.NoError(t, err)
	assert.True(t, res.IsError())
	assert.Equal(t, "KeyError: 'missing'", res.ErrorMessage)
}

func TestClient_SubmitQuery_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantSubstr string
	}{
		{
			name: "not found with detail",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"detail": "Dataset not found"}`)
			},
			wantStatus: http.StatusNotFound,
			wantSubstr: "Dataset not found",
		},
		{
			name: "server error without body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
			wantSubstr: "Bad Gateway",
		},
		{
			name: "no structured body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, "<html>proxy page</html>")
			},
			wantStatus: http.StatusOK,
			wantSubstr: "malformed response body",
		},
		{
			name: "missing result type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"generated_code": "x"}`)
			},
			wantSubstr: "no result_type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)

			c := newTestClient(t, srv.URL)
			_, err := c.SubmitQuery(context.Background(), core.QueryRequest{DatasetID: "x", QueryText: "q"})
			require.Error(t, err)

			var qErr *QueryTransportError
			require.True(t, errors.As(err, &qErr))
			assert.Equal(t, tt.wantStatus, qErr.StatusCode)
			assert.Contains(t, qErr.Error(), tt.wantSubstr)
			assert.Equal(t, QueryFailedMessage, qErr.UserMessage())
		})
	}
}

func TestClient_RequestHeaders(t *testing.T) {
	var gotID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		gotPath = r.URL.Path
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	_, err := c.ListDatasets(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/datasets", gotPath)
	assert.Len(t, gotID, 36)
}

func TestClient_ListQueries(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.Seed(core.Dataset{ID: "ds-1"})

	c := newTestClient(t, backend.URL())
	ctx := context.Background()

	history, err := c.ListQueries(ctx, "ds-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = c.SubmitQuery(ctx, core.QueryRequest{DatasetID: "ds-1", QueryText: "first"})
	require.NoError(t, err)
	_, err = c.SubmitQuery(ctx, core.QueryRequest{DatasetID: "ds-1", QueryText: "second"})
	require.NoError(t, err)

	history, err = c.ListQueries(ctx, "ds-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].QueryText)
	assert.False(t, history[0].CreatedAt.IsZero())
}

func TestClient_Ping(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := newTestClient(t, backend.URL())

	msg, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Data Analysis Tool API", msg)

	backend.Fail("root", http.StatusServiceUnavailable)
	_, err = c.Ping(context.Background())

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
}

func TestClient_ContextCancelled(t *testing.T) {
	backend := testutil.NewBackend(t)
	c := newTestClient(t, backend.URL())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListDatasets(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
