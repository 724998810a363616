package workspace

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/query"
	"github.com/leapstack-labs/askdata/internal/render"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/internal/upload"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, opts Options) (*Workspace, *testutil.Backend) {
	t.Helper()
	backend := testutil.NewBackend(t)
	c, err := client.New(backend.URL(), client.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	if opts.Logger == nil {
		opts.Logger = testutil.NewTestLogger(t)
	}
	return New(c, opts), backend
}

// salesCSV has 120 rows over the columns region and amount.
func salesCSV() string {
	var b strings.Builder
	b.WriteString("region,amount\n")
	regions := []string{"East", "West", "North", "South"}
	for i := range 120 {
		fmt.Fprintf(&b, "%s,%d\n", regions[i%len(regions)], 10+i)
	}
	return b.String()
}

func uploadCSV(t *testing.T, w *Workspace, name, body string) core.Dataset {
	t.Helper()
	ds, err := w.UploadFile(context.Background(), client.File{Name: name, Content: strings.NewReader(body)}, upload.SourceDrop)
	require.NoError(t, err)
	return *ds
}

func TestWorkspace_EndToEnd(t *testing.T) {
	w, backend := setup(t, Options{})
	ctx := context.Background()

	w.Bootstrap(ctx)
	assert.True(t, w.Store.Bootstrapped())

	ds := uploadCSV(t, w, "sales.csv", salesCSV())
	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, 120, ds.RowCount)
	assert.Equal(t, []string{"region", "amount"}, ds.Columns)

	active, ok := w.Store.Active()
	require.True(t, ok)
	assert.Equal(t, ds.ID, active.ID)

	backend.Answer(testutil.TableAnswer("df.groupby('region')['amount'].mean()",
		core.NewRecord("region", "East", "amount", 42)))

	require.NoError(t, w.Ask(ctx, "average amount by region"))
	assert.Equal(t, core.QueryRequest{DatasetID: ds.ID, QueryText: "average amount by region"}, backend.LastQuery())

	results := w.Store.Results()
	require.Len(t, results, 1)

	v := render.Build(results[0])
	require.Equal(t, render.KindTable, v.Kind)
	assert.Equal(t, []string{"region", "amount"}, v.Table.Header)
	assert.Equal(t, [][]string{{"East", "42"}}, v.Table.Rows)
	assert.Equal(t, "df.groupby('region')['amount'].mean()", v.Code)
	assert.Empty(t, w.Query.Text())
}

func TestWorkspace_BootstrapSelectsFirst(t *testing.T) {
	w, backend := setup(t, Options{})
	backend.Seed(core.Dataset{ID: "a", Name: "a.csv"}, core.Dataset{ID: "b", Name: "b.csv"})

	got := w.Bootstrap(context.Background())
	assert.Len(t, got, 2)
	assert.Equal(t, "a", w.Store.ActiveID())
}

func TestWorkspace_BootstrapFailureIsSwallowed(t *testing.T) {
	w, backend := setup(t, Options{})
	backend.Fail("datasets", http.StatusInternalServerError)

	got := w.Bootstrap(context.Background())
	assert.Empty(t, got)
	assert.True(t, w.Store.Bootstrapped())

	// The session keeps working in degraded mode.
	backend.Fail("datasets", 0)
	uploadCSV(t, w, "a.csv", "x\n1\n")
	assert.Len(t, w.Store.Datasets(), 1)
}

func TestWorkspace_ErrorResultsAreLoggedTransportFailuresAreNot(t *testing.T) {
	w, backend := setup(t, Options{})
	ctx := context.Background()
	uploadCSV(t, w, "sales.csv", "region,amount\nEast,1\n")

	backend.Answer(testutil.ErrorAnswer("df['nope']", "KeyError: 'nope'"))
	require.NoError(t, w.Ask(ctx, "sum of nope"))
	require.Len(t, w.Store.Results(), 1)
	assert.True(t, w.Store.Results()[0].IsError())

	backend.Fail("query", http.StatusBadGateway)
	err := w.Ask(ctx, "sum of amount")
	var qErr *client.QueryTransportError
	require.True(t, errors.As(err, &qErr))
	assert.Equal(t, client.QueryFailedMessage, qErr.UserMessage())
	assert.Len(t, w.Store.Results(), 1, "count unchanged")
	assert.Equal(t, "sum of amount", w.Query.Text())
}

func TestWorkspace_BusyAskKeepsInFlightText(t *testing.T) {
	w, backend := setup(t, Options{})
	ctx := context.Background()
	uploadCSV(t, w, "sales.csv", "region,amount\nEast,1\n")

	release := backend.HoldQueries()
	defer release()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Ask(ctx, "first question") }()
	require.Eventually(t, func() bool { return backend.QueryCalls() == 1 }, 2*time.Second, 10*time.Millisecond)

	err := w.Ask(ctx, "second question")
	assert.ErrorIs(t, err, query.ErrBusy)
	assert.Equal(t, "first question", w.Query.Text())

	backend.Fail("query", http.StatusBadGateway)
	release()

	var qErr *client.QueryTransportError
	require.ErrorAs(t, <-errCh, &qErr)
	assert.Equal(t, "first question", w.Query.Text())
	assert.Equal(t, 1, backend.QueryCalls())
	assert.Empty(t, w.Store.Results())
}

func TestWorkspace_UploadFailureRegistersNothing(t *testing.T) {
	w, backend := setup(t, Options{})
	backend.Fail("upload", http.StatusInternalServerError)

	_, err := w.UploadFile(context.Background(), client.File{Name: "a.csv", Content: strings.NewReader("x\n1\n")}, upload.SourcePick)
	var te *client.TransferError
	require.True(t, errors.As(err, &te))
	assert.Empty(t, w.Store.Datasets())
	assert.Equal(t, upload.Idle, w.Upload.State())
}

func TestWorkspace_AskWithoutDataset(t *testing.T) {
	w, backend := setup(t, Options{})
	err := w.Ask(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoActiveDataset)
	assert.Zero(t, backend.QueryCalls())

	_, err = w.History(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveDataset)
}

func TestWorkspace_BlankAskIsNoop(t *testing.T) {
	w, backend := setup(t, Options{})
	uploadCSV(t, w, "a.csv", "x\n1\n")

	err := w.Ask(context.Background(), "   ")
	assert.ErrorIs(t, err, query.ErrEmptyQuery)
	assert.Zero(t, backend.QueryCalls())
	assert.Equal(t, query.Ready, w.Query.State())
}

func TestWorkspace_SelectClearsLog(t *testing.T) {
	w, _ := setup(t, Options{})
	first := uploadCSV(t, w, "a.csv", "x\n1\n")
	uploadCSV(t, w, "b.csv", "x\n1\n")

	require.NoError(t, w.Ask(context.Background(), "show rows"))
	require.Len(t, w.Store.Results(), 1)

	require.True(t, w.Select(first.ID))
	assert.Empty(t, w.Store.Results())
	assert.False(t, w.Select("missing"))
}

func TestWorkspace_History(t *testing.T) {
	w, _ := setup(t, Options{})
	uploadCSV(t, w, "a.csv", "x\n1\n")
	ctx := context.Background()

	require.NoError(t, w.Ask(ctx, "first"))
	require.NoError(t, w.Ask(ctx, "second"))

	history, err := w.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[0].QueryText)
}

// staleScenario submits a held query against dataset a, switches to b, then releases the answer.
func staleScenario(t *testing.T, opts Options) (*Workspace, core.Dataset) {
	t.Helper()
	w, backend := setup(t, opts)
	a := uploadCSV(t, w, "a.csv", "x\n1\n")
	b := uploadCSV(t, w, "b.csv", "x\n1\n")
	require.True(t, w.Select(a.ID))

	release := backend.HoldQueries()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Ask(context.Background(), "slow question") }()

	require.Eventually(t, func() bool { return backend.QueryCalls() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.True(t, w.Select(b.ID))

	release()
	require.NoError(t, <-errCh)
	return w, b
}

func TestWorkspace_StaleResultLandsInActiveLogByDefault(t *testing.T) {
	w, b := staleScenario(t, Options{})

	assert.Equal(t, b.ID, w.Store.ActiveID())
	results := w.Store.Results()
	require.Len(t, results, 1, "late result attaches to the now-active dataset")
	assert.Equal(t, "slow question", results[0].QueryText)
}

func TestWorkspace_DiscardStale(t *testing.T) {
	w, _ := staleScenario(t, Options{DiscardStale: true})
	assert.Empty(t, w.Store.Results())
}

func TestWorkspace_OnChange(t *testing.T) {
	changes := 0
	w, _ := setup(t, Options{OnChange: func() { changes++ }})
	uploadCSV(t, w, "a.csv", "x\n1\n")
	assert.Positive(t, changes)
}
