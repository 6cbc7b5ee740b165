package sequencer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GabrielNunesIT/pdd/internal/model"
	"github.com/GabrielNunesIT/pdd/internal/testutil"
)

// fakeRunner completes operations according to their input path.
type fakeRunner struct {
	mu      sync.Mutex
	order   []string
	running int
	peak    int
	delay   time.Duration
	onRun   func(op model.Operation)
}

func (r *fakeRunner) Run(ctx context.Context, op model.Operation) *model.OperationResult {
	r.mu.Lock()
	r.order = append(r.order, op.Input)
	r.running++
	if r.running > r.peak {
		r.peak = r.running
	}
	r.mu.Unlock()

	if r.onRun != nil {
		r.onRun(op)
	}
	time.Sleep(r.delay)

	res := model.NewOperationResult(op)
	res.Started = true
	switch op.Input {
	case "missing":
		res.Err = &model.InputError{Op: "open", Path: op.Input, Err: errors.New("no such file")}
	case "flaky":
		res.Sinks[0].Err = errors.New("refused")
	}

	r.mu.Lock()
	r.running--
	r.mu.Unlock()
	return res
}

func ops(t *testing.T, inputs ...string) []model.Operation {
	t.Helper()
	out := make([]model.Operation, 0, len(inputs))
	for _, in := range inputs {
		op, err := model.NewOperationBuilder().Input(in).File("out").Build()
		require.NoError(t, err)
		out = append(out, op)
	}
	return out
}

func TestSequencer_DeclarationOrder(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, testutil.NewTestLogger())

	summary := s.Run(context.Background(), ops(t, "a", "b", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, runner.order)
	require.Len(t, summary.Results, 3)
	for i, r := range summary.Results {
		assert.Equal(t, i, r.Index)
		assert.Equal(t, model.StatusReplicated, r.Status())
	}
	assert.NoError(t, summary.Err(true))
}

func TestSequencer_FailureDoesNotStopLaterOperations(t *testing.T) {
	runner := &fakeRunner{}
	s := New(runner, testutil.NewTestLogger())

	summary := s.Run(context.Background(), ops(t, "missing", "b"))

	assert.Equal(t, []string{"missing", "b"}, runner.order)
	assert.Equal(t, model.StatusFailed, summary.Results[0].Status())
	assert.Equal(t, model.StatusReplicated, summary.Results[1].Status())
	assert.Equal(t, 1, summary.Count(model.StatusFailed))

	err := summary.Err(false)
	assert.ErrorIs(t, err, ErrOperationsFailed)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestSequencer_StrictDegradation(t *testing.T) {
	s := New(&fakeRunner{}, testutil.NewTestLogger())

	summary := s.Run(context.Background(), ops(t, "flaky", "b"))

	assert.Equal(t, model.StatusPartial, summary.Results[0].Status())
	assert.NoError(t, summary.Err(false))
	assert.ErrorIs(t, summary.Err(true), ErrOperationsDegraded)
}

func TestSequencer_CancelSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{onRun: func(op model.Operation) {
		if op.Input == "b" {
			cancel()
		}
	}}
	s := New(runner, testutil.NewTestLogger())

	summary := s.Run(ctx, ops(t, "a", "b", "c"))

	assert.Equal(t, []string{"a", "b"}, runner.order)
	assert.Equal(t, model.StatusSkipped, summary.Results[2].Status())
	assert.Equal(t, 2, summary.Results[2].Index)
	assert.Equal(t, 1, summary.Count(model.StatusSkipped))
	assert.ErrorIs(t, summary.Err(true), ErrOperationsDegraded)
}

func TestSequencer_Parallel(t *testing.T) {
	runner := &fakeRunner{delay: 50 * time.Millisecond}
	s := New(runner, testutil.NewTestLogger(), WithParallel(2))

	summary := s.Run(context.Background(), ops(t, "a", "missing", "c", "d"))

	require.Len(t, summary.Results, 4)
	assert.LessOrEqual(t, runner.peak, 2)
	assert.ElementsMatch(t, []string{"a", "missing", "c", "d"}, runner.order)
	for i, r := range summary.Results {
		require.NotNil(t, r)
		assert.Equal(t, i, r.Index)
	}
	assert.Equal(t, model.StatusFailed, summary.Results[1].Status())
	assert.Equal(t, 3, summary.Count(model.StatusReplicated))
}

func TestSequencer_Empty(t *testing.T) {
	summary := New(&fakeRunner{}, testutil.NewTestLogger()).Run(context.Background(), nil)
	assert.Empty(t, summary.Results)
	assert.NoError(t, summary.Err(true))
}
