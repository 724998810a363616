package testutil

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/leapstack-labs/askdata/pkg/core"
)

// previewRows matches how many rows the analytics service returns in data_preview.
const previewRows = 5

// QueryFunc scripts the answer to one query.
type QueryFunc func(req core.QueryRequest) core.QueryResult

// Backend is an in-memory stand-in for the analytics service.
// It speaks the same HTTP contract under /api and records every call.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	datasets    []core.Dataset
	queries     map[string][]core.QueryResult
	answer      QueryFunc
	failures    map[string]int
	hold        chan struct{}
	uploadCalls int
	queryCalls  int
	lastQuery   core.QueryRequest
	uploadNames []string
}

// NewBackend starts a fake service and stops it when the test ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		queries:  make(map[string][]core.QueryResult),
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/", b.handleRoot)
		r.Get("/datasets", b.handleListDatasets)
		r.Post("/upload-dataset", b.handleUpload)
		r.Post("/query", b.handleQuery)
		r.Get("/queries/{datasetID}", b.handleListQueries)
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the service base address without the /api prefix.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Seed registers datasets as if they had been uploaded earlier.
func (b *Backend) Seed(datasets ...core.Dataset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.datasets = append(b.datasets, datasets...)
}

// Answer scripts the response to every following query.
func (b *Backend) Answer(fn QueryFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answer = fn
}

// Fail makes every following call to op answer with status.
// Ops are "datasets", "upload", "query", "queries" and "root". A zero status clears the failure.
func (b *Backend) Fail(op string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, op)
		return
	}
	b.failures[op] = status
}

// HoldQueries blocks query responses until the returned release func is called.
func (b *Backend) HoldQueries() (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.hold = ch
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(ch) })
	}
}

// UploadCalls returns how many upload requests reached the service.
func (b *Backend) UploadCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.uploadCalls
}

// UploadNames returns the filenames of every upload received.
func (b *Backend) UploadNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.uploadNames...)
}

// QueryCalls returns how many query requests reached the service.
func (b *Backend) QueryCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queryCalls
}

// LastQuery returns the most recent query request body.
func (b *Backend) LastQuery() core.QueryRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastQuery
}

// TableAnswer returns a QueryFunc answering every query with the given records.
func TableAnswer(code string, records ...core.Record) QueryFunc {
	return func(req core.QueryRequest) core.QueryResult {
		data, _ := json.Marshal(records)
		if len(records) == 0 {
			data = []byte("[]")
		}
		return core.QueryResult{
			DatasetID:     req.DatasetID,
			QueryText:     req.QueryText,
			GeneratedCode: code,
			ResultType:    core.ResultTable,
			ResultData:    &core.ResultData{Type: core.ResultTable, Data: data},
		}
	}
}

// ErrorAnswer returns a QueryFunc answering every query with a structured analysis failure.
func ErrorAnswer(code, message string) QueryFunc {
	return func(req core.QueryRequest) core.QueryResult {
		return core.QueryResult{
			DatasetID:     req.DatasetID,
			QueryText:     req.QueryText,
			GeneratedCode: code,
			ResultType:    core.ResultError,
			ErrorMessage:  message,
		}
	}
}

func (b *Backend) failure(op string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	status, ok := b.failures[op]
	return status, ok
}

func (b *Backend) handleRoot(w http.ResponseWriter, _ *http.Request) {
	if status, ok := b.failure("root"); ok {
		writeDetail(w, status, "service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Data Analysis Tool API"})
}

func (b *Backend) handleListDatasets(w http.ResponseWriter, _ *http.Request) {
	if status, ok := b.failure("datasets"); ok {
		writeDetail(w, status, "failed to list datasets")
		return
	}
	b.mu.Lock()
	out := append([]core.Dataset{}, b.datasets...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.uploadCalls++
	b.mu.Unlock()

	if status, ok := b.failure("upload"); ok {
		writeDetail(w, status, "upload rejected")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()

	b.mu.Lock()
	b.uploadNames = append(b.uploadNames, header.Filename)
	b.mu.Unlock()

	ds, err := ingest(header.Filename, file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	b.datasets = append(b.datasets, ds)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, ds)
}

func (b *Backend) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req core.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	b.queryCalls++
	b.lastQuery = req
	hold := b.hold
	answer := b.answer
	b.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	if status, ok := b.failure("query"); ok {
		writeDetail(w, status, "query failed")
		return
	}

	if !b.hasDataset(req.DatasetID) {
		writeDetail(w, http.StatusNotFound, "Dataset not found")
		return
	}

	if answer == nil {
		answer = TableAnswer("result = df.head()")
	}
	res := answer(req)
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	res.CreatedAt = core.Timestamp{Time: time.Now().UTC()}

	b.mu.Lock()
	b.queries[req.DatasetID] = append(b.queries[req.DatasetID], res)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, res)
}

func (b *Backend) handleListQueries(w http.ResponseWriter, r *http.Request) {
	if status, ok := b.failure("queries"); ok {
		writeDetail(w, status, "failed to list queries")
		return
	}
	id := chi.URLParam(r, "datasetID")
	b.mu.Lock()
	out := append([]core.QueryResult{}, b.queries[id]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) hasDataset(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ds := range b.datasets {
		if ds.ID == id {
			return true
		}
	}
	return false
}

// ingest builds the dataset descriptor the service would return for a CSV or JSON file.
func ingest(name string, r io.Reader) (core.Dataset, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))

	var (
		columns []string
		rows    []core.Record
		err     error
	)
	switch ext {
	case "csv":
		columns, rows, err = ingestCSV(r)
	case "json":
		columns, rows, err = ingestJSON(r)
	default:
		return core.Dataset{}, fmt.Errorf("unsupported file type: %s", ext)
	}
	if err != nil {
		return core.Dataset{}, err
	}

	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}
	return core.Dataset{
		ID:          uuid.NewString(),
		Name:        name,
		FileType:    ext,
		Columns:     columns,
		RowCount:    len(rows),
		DataPreview: preview,
		UploadedAt:  core.Timestamp{Time: time.Now().UTC()},
	}, nil
}

func ingestCSV(r io.Reader) ([]string, []core.Record, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty file")
	}

	columns := records[0]
	rows := make([]core.Record, 0, len(records)-1)
	for _, line := range records[1:] {
		rec := make(core.Record, 0, len(columns))
		for i, col := range columns {
			var v any
			if i < len(line) {
				v = csvValue(line[i])
			}
			rec = append(rec, core.Field{Key: col, Value: v})
		}
		rows = append(rows, rec)
	}
	return columns, rows, nil
}

func csvValue(s string) any {
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return json.Number(s)
	}
	return s
}

func ingestJSON(r io.Reader) ([]string, []core.Record, error) {
	var rows []core.Record
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, nil, fmt.Errorf("invalid json: %w", err)
	}

	var columns []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	if rows == nil {
		rows = []core.Record{}
	}
	return columns, rows, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
