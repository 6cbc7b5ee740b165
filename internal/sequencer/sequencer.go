// Package sequencer runs a list of operations through the engine, one at a
// time or on a bounded worker pool.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

var (
	// ErrOperationsFailed is returned by Summary.Err when an operation could
	// not read its input.
	ErrOperationsFailed = errors.New("operations failed")
	// ErrOperationsDegraded is returned by Summary.Err in strict mode when an
	// operation did not fully replicate.
	ErrOperationsDegraded = errors.New("operations degraded")
)

// Runner runs a single operation.
type Runner interface {
	Run(ctx context.Context, op model.Operation) *model.OperationResult
}

// Option configures the Sequencer.
type Option func(*Sequencer)

// WithParallel sets how many operations may run at once. Values below 2 run
// them one after another.
func WithParallel(n int) Option {
	return func(s *Sequencer) {
		s.parallel = n
	}
}

// Sequencer runs operations in declaration order. A failed operation never
// prevents later ones from starting.
type Sequencer struct {
	runner   Runner
	parallel int
	logger   logger.ILogger
}

// New creates a sequential Sequencer.
func New(runner Runner, log logger.ILogger, opts ...Option) *Sequencer {
	s := &Sequencer{
		runner:   runner,
		parallel: 1,
		logger:   log.SubLogger("Sequencer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every operation and returns their results in declaration
// order. Operations not started before ctx is cancelled are reported as
// skipped.
func (s *Sequencer) Run(ctx context.Context, ops []model.Operation) *Summary {
	summary := &Summary{Results: make([]*model.OperationResult, len(ops))}

	if s.parallel > 1 && len(ops) > 1 {
		err := s.runPooled(ctx, ops, summary)
		if err == nil {
			return summary
		}
		s.logger.Warningf("worker pool unavailable, running sequentially: error=%v", err)
	}

	for i, op := range ops {
		summary.Results[i] = s.runOne(ctx, i, op)
	}
	return summary
}

func (s *Sequencer) runOne(ctx context.Context, index int, op model.Operation) *model.OperationResult {
	if ctx.Err() != nil {
		s.logger.Infof("operation %d skipped: %s", index+1, op)
		return model.SkippedResult(index, op)
	}

	res := s.runner.Run(ctx, op)
	res.Index = index
	s.report(res)
	return res
}

type task struct {
	index int
	op    model.Operation
}

// runPooled runs the operations on an ants pool of s.parallel workers.
// Submission follows declaration order and blocks while every worker is busy.
func (s *Sequencer) runPooled(ctx context.Context, ops []model.Operation, summary *Summary) error {
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(s.parallel, func(i interface{}) {
		defer wg.Done()

		t, ok := i.(task)
		if !ok {
			return
		}
		summary.Results[t.index] = s.runOne(ctx, t.index, t.op)
	})
	if err != nil {
		return err
	}
	defer pool.Release()

	s.logger.Debugf("running %d operations, %d at a time", len(ops), s.parallel)

	for i, op := range ops {
		wg.Add(1)
		if err := pool.Invoke(task{index: i, op: op}); err != nil {
			wg.Done()
			s.logger.Warningf("operation %d not scheduled: error=%v", i+1, err)
			summary.Results[i] = model.SkippedResult(i, op)
		}
	}

	wg.Wait()
	return nil
}

func (s *Sequencer) report(res *model.OperationResult) {
	switch res.Status() {
	case model.StatusFailed:
		s.logger.Errorf("operation %d failed: %v", res.Index+1, res.Err)
	case model.StatusPartial:
		s.logger.Warningf("operation %d replicated to %d of %d sinks, %d blocks dropped",
			res.Index+1, len(res.Sinks)-res.FailedSinks(), len(res.Sinks), res.BlocksDropped())
	default:
		s.logger.Infof("operation %d %s: blocks=%d, bytes=%d", res.Index+1, res.Status(), res.BlocksRead, res.BytesRead)
	}
}

// Summary holds the results of a sequencer run.
type Summary struct {
	Results []*model.OperationResult
}

// Count returns how many operations ended with status.
func (s *Summary) Count(status model.Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status() == status {
			n++
		}
	}
	return n
}

// Err reports whether the run should end with a failure exit status.
// Input failures always count; in strict mode so do cancelled, skipped and
// partially replicated operations.
func (s *Summary) Err(strict bool) error {
	if n := s.Count(model.StatusFailed); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsFailed, n, len(s.Results))
	}
	if !strict {
		return nil
	}
	if n := len(s.Results) - s.Count(model.StatusReplicated); n > 0 {
		return fmt.Errorf("%w: %d of %d", ErrOperationsDegraded, n, len(s.Results))
	}
	return nil
}
