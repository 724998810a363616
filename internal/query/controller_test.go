package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/askdata/internal/client"
	"github.com/leapstack-labs/askdata/internal/testutil"
	"github.com/leapstack-labs/askdata/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSubmitter struct {
	mu       sync.Mutex
	requests []core.QueryRequest
	result   core.QueryResult
	err      error
	gate     chan struct{}
}

func (s *stubSubmitter) SubmitQuery(_ context.Context, q core.QueryRequest) (*core.QueryResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, q)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	res := s.result
	return &res, nil
}

func (s *stubSubmitter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func tableResult() core.QueryResult {
	return core.QueryResult{
		GeneratedCode: "df.head()",
		ResultType:    core.ResultTable,
		ResultData:    &core.ResultData{Type: core.ResultTable, Data: []byte(`[]`)},
	}
}

func TestController_SubmitBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n  "} {
		t.Run("text="+text, func(t *testing.T) {
			sub := &stubSubmitter{result: tableResult()}
			called := false
			c := NewController(sub, func(Completion) { called = true })
			c.SetText(text)

			err := c.Submit(context.Background(), "ds-1")
			assert.ErrorIs(t, err, ErrEmptyQuery)
			assert.Zero(t, sub.calls(), "no transport call")
			assert.Equal(t, Ready, c.State())
			assert.False(t, called)
		})
	}
}

func TestController_SubmitSuccess(t *testing.T) {
	sub := &stubSubmitter{result: tableResult()}
	var completions []Completion
	c := NewController(sub, func(c Completion) { completions = append(completions, c) },
		WithLogger(testutil.NewTestLogger(t)))

	c.SetText("average amount by region")
	require.NoError(t, c.Submit(context.Background(), "ds-1"))

	require.Len(t, sub.requests, 1)
	assert.Equal(t, core.QueryRequest{DatasetID: "ds-1", QueryText: "average amount by region"}, sub.requests[0])

	require.Len(t, completions, 1, "result delivered exactly once")
	assert.Equal(t, "ds-1", completions[0].DatasetID)
	assert.NotEmpty(t, completions[0].SubmissionID)
	assert.Equal(t, core.ResultTable, completions[0].Result.ResultType)

	assert.Empty(t, c.Text(), "text cleared on success")
	assert.Equal(t, Ready, c.State())
}

func TestController_StructuredErrorIsDelivered(t *testing.T) {
	sub := &stubSubmitter{result: core.QueryResult{
		ResultType:    core.ResultError,
		ErrorMessage:  "KeyError: 'amount'",
		GeneratedCode: "df['amount']",
	}}
	var got []Completion
	c := NewController(sub, func(c Completion) { got = append(got, c) })

	c.SetText("sum amount")
	require.NoError(t, c.Submit(context.Background(), "ds-1"))

	require.Len(t, got, 1)
	assert.True(t, got[0].Result.IsError())
	assert.Empty(t, c.Text())
}

func TestController_TransportFailureKeepsText(t *testing.T) {
	transportErr := &client.QueryTransportError{TransportError: &client.TransportError{Op: "query", StatusCode: 502}}
	sub := &stubSubmitter{err: transportErr}
	called := false
	c := NewController(sub, func(Completion) { called = true })

	c.SetText("average amount by region")
	err := c.Submit(context.Background(), "ds-1")
	require.Error(t, err)

	var qErr *client.QueryTransportError
	assert.True(t, errors.As(err, &qErr))
	assert.False(t, called, "transport failures never reach the log")
	assert.Equal(t, "average amount by region", c.Text(), "text kept for resubmission")
	assert.Equal(t, Ready, c.State())
}

func TestController_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	sub := &stubSubmitter{result: tableResult(), gate: make(chan struct{})}
	completions := 0
	var mu sync.Mutex
	c := NewController(sub, func(Completion) {
		mu.Lock()
		completions++
		mu.Unlock()
	})

	c.SetText("first question")
	errCh := make(chan error, 1)
	go func() { errCh <- c.Submit(context.Background(), "ds-1") }()

	require.Eventually(t, func() bool { return sub.calls() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, Submitting, c.State())

	c.SetText("second question")
	err := c.Submit(context.Background(), "ds-1")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, sub.calls(), "no second transport call")

	close(sub.gate)
	require.NoError(t, <-errCh)
	assert.Equal(t, Ready, c.State())

	mu.Lock()
	assert.Equal(t, 1, completions)
	mu.Unlock()
}

func TestController_SubmitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantErr   error
		wantCalls int
		wantText  string
	}{
		{name: "replaces and submits", text: "average amount by region", wantCalls: 1, wantText: ""},
		{name: "blank text is not sent", text: "   ", wantErr: ErrEmptyQuery, wantText: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &stubSubmitter{result: tableResult()}
			c := NewController(sub, nil)
			c.SetText("old text")

			err := c.SubmitText(context.Background(), "ds-1", tt.text)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.text, sub.requests[0].QueryText)
			}
			assert.Equal(t, tt.wantCalls, sub.calls())
			assert.Equal(t, tt.wantText, c.Text())
			assert.Equal(t, Ready, c.State())
		})
	}
}

func TestController_SubmitTextWhileInFlightKeepsText(t *testing.T) {
	transportErr := &client.QueryTransportError{TransportError: &client.TransportError{Op: "query", StatusCode: 502}}
	sub := &stubSubmitter{err: transportErr, gate: make(chan struct{})}
	c := NewController(sub, nil)

	errCh := make(chan error, 1)
	go func() { errCh <- c.SubmitText(context.Background(), "ds-1", "first question") }()
	require.Eventually(t, func() bool { return sub.calls() == 1 }, 2*time.Second, 10*time.Millisecond)

	err := c.SubmitText(context.Background(), "ds-1", "second question")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "first question", c.Text(), "rejected text never replaces the in-flight one")

	close(sub.gate)
	var qErr *client.QueryTransportError
	require.ErrorAs(t, <-errCh, &qErr)

	assert.Equal(t, "first question", c.Text(), "failed question kept for resubmission")
	assert.Equal(t, 1, sub.calls())
	assert.Equal(t, Ready, c.State())
}

func TestController_Suggestions(t *testing.T) {
	sub := &stubSubmitter{}
	c := NewController(sub, nil)

	suggestions := c.Suggestions()
	require.Len(t, suggestions, 6)

	require.True(t, c.ApplySuggestion(3))
	assert.Equal(t, suggestions[3], c.Text())
	assert.Zero(t, sub.calls(), "chips never submit")

	assert.False(t, c.ApplySuggestion(-1))
	assert.False(t, c.ApplySuggestion(6))
	assert.Equal(t, suggestions[3], c.Text())
}

func TestSuggestions_ReturnsCopy(t *testing.T) {
	s := Suggestions()
	s[0] = "changed"
	first, ok := Suggestion(0)
	require.True(t, ok)
	assert.NotEqual(t, "changed", first)
}

func TestController_OnChange(t *testing.T) {
	changes := 0
	c := NewController(&stubSubmitter{result: tableResult()}, nil, WithOnChange(func() { changes++ }))

	c.SetText("q")
	require.NoError(t, c.Submit(context.Background(), "ds"))
	assert.Equal(t, 3, changes, "set text, submitting, ready")
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "submitting", Submitting.String())
}
