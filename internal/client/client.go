// Package client talks to the askdata analytics service.
//
// The service is a black box reachable over HTTP under {base}/api. Every call
// makes exactly one attempt; nothing is retried here.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// APIPrefix is appended to the configured base address.
const APIPrefix = "/api"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 64 << 10

// AcceptedExtensions is the advisory file filter offered by pickers.
// The client itself never rejects a file based on its name.
var AcceptedExtensions = []string{".csv", ".json"}

// Accepts reports whether name matches the advisory picker filter.
func Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, accepted := range AcceptedExtensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// File is a single local file handed to Upload.
type File struct {
	// Name is sent as the multipart filename; the service derives the dataset name from it
	Name string
	// Content is read once during the transfer
	Content io.Reader
}

// OpenFile opens a file on disk for upload. The returned close function must be called.
func OpenFile(path string) (File, func() error, error) {
	f, err := os.Open(path) //nolint:gosec // user-chosen upload path
	if err != nil {
		return File{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return File{Name: filepath.Base(path), Content: f}, f.Close, nil
}

// Client is a thin HTTP client for the analytics service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    *time.Duration
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. Zero means no timeout.
// The timeout is set on a copy, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the service at baseURL (scheme and host, optionally a path).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: missing host", baseURL)
	}

	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/") + APIPrefix,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout != nil {
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the resolved API root, e.g. http://localhost:8001/api.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListDatasets fetches every dataset known to the service.
func (c *Client) ListDatasets(ctx context.Context) ([]core.Dataset, error) {
	var datasets []core.Dataset
	if err := c.getJSON(ctx, "list datasets", "/datasets", &datasets); err != nil {
		return nil, &BootstrapError{TransportError: err}
	}
	if datasets == nil {
		datasets = []core.Dataset{}
	}
	return datasets, nil
}

// Upload transfers one file to the ingestion endpoint and returns the registered dataset.
func (c *Client) Upload(ctx context.Context, file File) (*core.Dataset, error) {
	const op = "upload"

	if file.Content == nil {
		return nil, &TransferError{&TransportError{Op: op, Message: "no file content"}}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, &TransferError{&TransportError{Op: op, Message: "failed to build form", Err: err}}
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, &TransferError{&TransportError{Op: op, Message: "failed to read file", Err: err}}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransferError{&TransportError{Op: op, Message: "failed to build form", Err: err}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/upload-dataset", &body)
	if err != nil {
		return nil, &TransferError{&TransportError{Op: op, Err: err}}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var ds core.Dataset
	if terr := c.do(req, op, &ds); terr != nil {
		return nil, &TransferError{terr}
	}
	if err := ds.Validate(); err != nil {
		return nil, &TransferError{&TransportError{Op: op, Message: "service returned an invalid dataset", Err: err}}
	}

	c.logger.Debug("dataset uploaded", "id", ds.ID, "name", ds.Name, "rows", ds.RowCount)
	return &ds, nil
}

// SubmitQuery sends one natural-language query and returns the tagged result.
// A result with ResultType "error" is a successful exchange, not an error.
func (c *Client) SubmitQuery(ctx context.Context, q core.QueryRequest) (*core.QueryResult, error) {
	const op = "query"

	payload, err := json.Marshal(q)
	if err != nil {
		return nil, &QueryTransportError{&TransportError{Op: op, Err: err}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/query", bytes.NewReader(payload))
	if err != nil {
		return nil, &QueryTransportError{&TransportError{Op: op, Err: err}}
	}
	req.Header.Set("Content-Type", "application/json")

	var res core.QueryResult
	if terr := c.do(req, op, &res); terr != nil {
		return nil, &QueryTransportError{terr}
	}
	if res.ResultType == "" {
		return nil, &QueryTransportError{&TransportError{Op: op, Message: "response carries no result_type"}}
	}
	return &res, nil
}

// ListQueries returns the service's stored query history for one dataset.
func (c *Client) ListQueries(ctx context.Context, datasetID string) ([]core.QueryResult, error) {
	var results []core.QueryResult
	if err := c.getJSON(ctx, "list queries", "/queries/"+url.PathEscape(datasetID), &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []core.QueryResult{}
	}
	return results, nil
}

// Ping checks that the service is reachable and returns its greeting.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.getJSON(ctx, "ping", "/", &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) *TransportError {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return c.do(req, op, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	return req, nil
}

// do executes req and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, op string, out any) *TransportError {
	start := time.Now()
	requestID := req.Header.Get(RequestIDHeader)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "request_id", requestID, "error", err)
		return &TransportError{Op: op, Message: "service unreachable", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("request completed",
		"op", op,
		"method", req.Method,
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorDetail(resp),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: "empty response body"}
		}
		return &TransportError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	return nil
}

// errorDetail extracts the service's {"detail": ...} message, falling back to the status text.
func errorDetail(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}

	if text := strings.TrimSpace(string(raw)); text != "" && len(text) < 200 {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
