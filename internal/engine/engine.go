// Package engine runs a single operation: it reads the input in blocks and
// fans every block out to the operation's sinks.
package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/input"
	"github.com/GabrielNunesIT/pdd/internal/model"
	"github.com/GabrielNunesIT/pdd/internal/sink"
)

// ErrShutdownTimeout marks a sink whose queued blocks were abandoned because
// it did not drain within the shutdown timeout after cancellation.
var ErrShutdownTimeout = errors.New("shutdown timeout exceeded")

// Option configures the Engine.
type Option func(*Engine)

// WithOpener sets the input opener.
func WithOpener(o input.Opener) Option {
	return func(e *Engine) {
		e.opener = o
	}
}

// WithSinkFactory sets the factory that materializes sink descriptions.
func WithSinkFactory(f sink.Factory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

// Engine is the block fan-out engine. It holds no per-run state and may run
// several operations concurrently.
type Engine struct {
	cfg     config.EngineConfig
	opener  input.Opener
	factory sink.Factory
	logger  logger.ILogger
}

// New creates an engine reading local inputs and writing to the sinks built
// from cfg.Sinks.
func New(cfg *config.Config, log logger.ILogger, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg.Engine,
		opener:  input.NewFileOpener(cfg.Input, log),
		factory: sink.NewFactory(cfg.Sinks, log),
		logger:  log.SubLogger("Engine"),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.cfg.QueueDepth < 1 {
		e.cfg.QueueDepth = 1
	}

	return e
}

// worker is the writer task of one live sink. Only the worker goroutine
// touches the sink handle and the written counters; the reader owns the
// queue's send side and the drop counter.
type worker struct {
	sink   sink.Sink
	queue  chan *model.Block
	result *model.SinkResult
	dead   atomic.Bool
}

// Run executes op and reports what every sink received.
//
// Only input failures are fatal. Sink failures are recorded on the sink's
// result and the remaining sinks keep receiving blocks. When ctx is
// cancelled the reader stops, and the writers finish the blocks already
// queued, bounded by the shutdown timeout, before every sink is closed.
func (e *Engine) Run(ctx context.Context, op model.Operation) *model.OperationResult {
	res := model.NewOperationResult(op)
	res.Started = true
	res.StartedAt = time.Now()

	e.logger.Infof("operation started: run=%s, %s", res.RunID, op)

	e.run(ctx, op, res)

	res.FinishedAt = time.Now()
	e.logger.Infof("operation finished: run=%s, status=%s, blocks=%d, bytes=%d, failed_sinks=%d/%d, duration=%v",
		res.RunID, res.Status(), res.BlocksRead, res.BytesRead, res.FailedSinks(), len(res.Sinks), res.Duration())

	return res
}

func (e *Engine) run(ctx context.Context, op model.Operation, res *model.OperationResult) {
	in, err := e.opener.Open(ctx, op)
	if err != nil {
		res.Err = &model.InputError{Op: "open", Path: op.Input, Err: err}
		e.logger.Errorf("input open failed: run=%s, error=%v", res.RunID, res.Err)
		return
	}

	// Cancellation closes the input so a read blocked on it is released.
	var closeOnce sync.Once
	closeInput := func() {
		closeOnce.Do(func() {
			if err := in.Close(); err != nil {
				e.logger.Debugf("input close error: path=%s, error=%v", op.Input, err)
			}
		})
	}
	stop := context.AfterFunc(ctx, closeInput)
	defer func() {
		stop()
		closeInput()
	}()

	workers := e.openSinks(ctx, op, res)

	// Writers outlive cancellation of ctx so queued blocks can still be
	// delivered. writeCtx is cancelled once the shutdown timeout expires.
	writeCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	defer abort()

	live := atomic.NewInt32(int32(len(workers)))

	var g errgroup.Group
	for _, w := range workers {
		g.Go(func() error {
			e.write(writeCtx, w, live)
			return nil
		})
	}

	done := make(chan struct{})
	go e.watchShutdown(ctx, done, abort)

	e.read(ctx, op, in, workers, live, res)

	for _, w := range workers {
		close(w.queue)
	}
	_ = g.Wait()
	close(done)
}

// openSinks materializes and opens every sink concurrently. Sinks that fail
// are recorded as failed at open and get no worker.
func (e *Engine) openSinks(ctx context.Context, op model.Operation, res *model.OperationResult) []*worker {
	opened := make([]*worker, len(op.Sinks))

	var g errgroup.Group
	for i, spec := range op.Sinks {
		g.Go(func() error {
			result := &res.Sinks[i]

			s, err := e.factory.New(spec)
			if err == nil {
				err = s.Open(ctx)
			}
			if err != nil {
				result.FailedAtOpen = true
				result.Err = &model.SinkError{Sink: spec.String(), Op: "open", Err: err}
				e.logger.Warningf("sink open failed: run=%s, error=%v", res.RunID, result.Err)
				return nil
			}

			opened[i] = &worker{
				sink:   s,
				queue:  make(chan *model.Block, e.cfg.QueueDepth),
				result: result,
			}
			e.logger.Debugf("sink opened: %s", s.Name())
			return nil
		})
	}
	_ = g.Wait()

	workers := make([]*worker, 0, len(opened))
	for _, w := range opened {
		if w != nil {
			workers = append(workers, w)
		}
	}
	return workers
}

// read is the reader task. It stops at end of input, at the block count
// cap, on a read error, on cancellation, or when every opened sink has died.
// When no sink opened at all the input is still read to the end and counted.
func (e *Engine) read(ctx context.Context, op model.Operation, in io.Reader, workers []*worker, live *atomic.Int32, res *model.OperationResult) {
	var seq int64
	for {
		if op.BlockCount > 0 && seq >= int64(op.BlockCount) {
			e.logger.Debugf("block count reached: count=%d", op.BlockCount)
			return
		}
		if ctx.Err() != nil {
			res.Cancelled = true
			return
		}
		if len(workers) > 0 && live.Load() == 0 {
			e.logger.Warningf("all sinks failed, stopping: run=%s", res.RunID)
			return
		}

		buf := make([]byte, op.BlockSize)
		n, err := readBlock(ctx, in, buf)
		if n > 0 {
			block := model.NewBlock(seq, buf[:n])
			seq++
			res.BlocksRead++
			res.BytesRead += int64(n)

			if !e.dispatch(ctx, workers, block) {
				res.Cancelled = true
				return
			}
		}

		switch {
		case err == nil && n == 0:
			// A reader with nothing more to give.
			return
		case err == nil:
		case errors.Is(err, io.EOF):
			return
		case ctx.Err() != nil:
			res.Cancelled = true
			return
		default:
			res.Err = &model.InputError{Op: "read", Path: op.Input, Err: err}
			e.logger.Errorf("input read failed: run=%s, error=%v", res.RunID, res.Err)
			return
		}
	}
}

type readResult struct {
	n   int
	err error
}

// readBlock reads into buf but returns as soon as ctx is cancelled. A read
// that is still blocked is abandoned together with buf; closing the input
// releases it.
func readBlock(ctx context.Context, in io.Reader, buf []byte) (int, error) {
	done := make(chan readResult, 1)
	go func() {
		n, err := in.Read(buf)
		done <- readResult{n: n, err: err}
	}()

	select {
	case r := <-done:
		return r.n, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// dispatch hands block to every live sink. Under backpressure it waits for
// room in each queue and returns false if ctx is cancelled while waiting.
// Under the drop policy a full queue skips the block for that sink and
// counts the gap.
func (e *Engine) dispatch(ctx context.Context, workers []*worker, block *model.Block) bool {
	for _, w := range workers {
		if w.dead.Load() {
			continue
		}

		if e.cfg.DropOnFullQueue {
			select {
			case w.queue <- block:
			default:
				w.result.BlocksDropped++
				e.logger.Debugf("queue full, dropped block %d for %s", block.Seq, w.sink.Name())
			}
			continue
		}

		select {
		case w.queue <- block:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// write is the writer task of one sink. It always drains its queue so the
// reader never blocks on a dead sink, and closes the sink exactly once.
func (e *Engine) write(ctx context.Context, w *worker, live *atomic.Int32) {
	name := w.sink.Name()

	for block := range w.queue {
		if w.dead.Load() {
			continue
		}

		err := ctx.Err()
		if err != nil {
			err = ErrShutdownTimeout
		} else {
			err = w.sink.Write(ctx, block)
		}
		if err != nil {
			w.result.Err = &model.SinkError{Sink: name, Op: "write", Seq: block.Seq, Err: err}
			w.dead.Store(true)
			live.Dec()
			e.logger.Warningf("sink failed: %v", w.result.Err)
			continue
		}

		w.result.BlocksWritten++
		w.result.BytesWritten += int64(block.Len())
		e.logger.Debugf("wrote %d bytes to %s", block.Len(), name)
	}

	if err := w.sink.Close(ctx); err != nil {
		var flushErr *sink.FlushError
		if errors.As(err, &flushErr) && w.result.Err == nil {
			// Blocks accepted by Write were not delivered after all.
			w.result.Err = &model.SinkError{Sink: name, Op: "flush", Err: err}
			e.logger.Warningf("sink failed: %v", w.result.Err)
			return
		}
		w.result.CloseErr = &model.SinkError{Sink: name, Op: "close", Err: err}
		e.logger.Warningf("sink close failed: %v", w.result.CloseErr)
		return
	}
	e.logger.Debugf("sink closed: %s", name)
}

// watchShutdown aborts the writers if ctx is cancelled and they have not
// finished within the shutdown timeout. A zero timeout waits for them.
func (e *Engine) watchShutdown(ctx context.Context, done <-chan struct{}, abort context.CancelFunc) {
	select {
	case <-done:
		return
	case <-ctx.Done():
	}

	if e.cfg.ShutdownTimeout <= 0 {
		return
	}

	timer := time.NewTimer(e.cfg.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		e.logger.Warningf("sinks did not drain within %v, abandoning queued blocks", e.cfg.ShutdownTimeout)
		abort()
	}
}
