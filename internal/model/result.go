package model

import (
	"time"

	"github.com/rs/xid"
)

// Status classifies how an operation ended.
type Status string

const (
	// StatusReplicated means every sink received every block.
	StatusReplicated Status = "replicated"
	// StatusPartial means at least one sink failed or missed blocks.
	StatusPartial Status = "partial"
	// StatusFailed means the input could not be opened or read.
	StatusFailed Status = "failed"
	// StatusCancelled means the run was stopped from outside.
	StatusCancelled Status = "cancelled"
	// StatusSkipped means the operation never started.
	StatusSkipped Status = "skipped"
)

// SinkResult is the outcome of one sink within an operation.
type SinkResult struct {
	Sink string
	Kind SinkKind

	BlocksWritten int64
	BytesWritten  int64

	// BlocksDropped counts blocks skipped because the sink's queue was full
	// under the drop policy.
	BlocksDropped int64

	// FailedAtOpen is set when the sink never became live.
	FailedAtOpen bool

	// Err is the error that marked the sink dead, if any. A flush failure
	// at close counts too, since accepted blocks were never delivered.
	Err error

	// CloseErr is reported separately; a failed close does not undo writes.
	CloseErr error
}

// Failed reports whether the sink did not receive every block handed to it.
func (r *SinkResult) Failed() bool {
	return r.Err != nil
}

// OperationResult is what the engine reports for one operation.
type OperationResult struct {
	Index     int
	RunID     string
	Operation Operation

	// BlocksRead is the number of blocks read and published to the sinks.
	BlocksRead int64
	BytesRead  int64

	// Sinks holds one result per sink, in declaration order.
	Sinks []SinkResult

	// Err is set for fatal input errors only.
	Err error

	Started   bool
	Cancelled bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// NewOperationResult creates a result with one pending entry per sink.
func NewOperationResult(op Operation) *OperationResult {
	r := &OperationResult{
		RunID:     xid.New().String(),
		Operation: op,
		Sinks:     make([]SinkResult, len(op.Sinks)),
	}
	for i, s := range op.Sinks {
		r.Sinks[i] = SinkResult{Sink: s.String(), Kind: s.Kind()}
	}
	return r
}

// SkippedResult reports an operation that never started.
func SkippedResult(index int, op Operation) *OperationResult {
	r := NewOperationResult(op)
	r.Index = index
	return r
}

// Status classifies the result.
func (r *OperationResult) Status() Status {
	switch {
	case !r.Started:
		return StatusSkipped
	case r.Err != nil:
		return StatusFailed
	case r.Cancelled:
		return StatusCancelled
	case r.FailedSinks() > 0 || r.BlocksDropped() > 0:
		return StatusPartial
	default:
		return StatusReplicated
	}
}

// FailedSinks returns the number of sinks that failed at open or mid-run.
func (r *OperationResult) FailedSinks() int {
	n := 0
	for i := range r.Sinks {
		if r.Sinks[i].Failed() {
			n++
		}
	}
	return n
}

// BlocksDropped sums the gap counts of every sink.
func (r *OperationResult) BlocksDropped() int64 {
	var n int64
	for i := range r.Sinks {
		n += r.Sinks[i].BlocksDropped
	}
	return n
}

// Duration returns how long the operation ran.
func (r *OperationResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
