package model

import "fmt"

// InputError is fatal for the operation it occurred in.
type InputError struct {
	// Op is "open" or "read".
	Op   string
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// SinkError marks a single sink dead. It never aborts the operation.
type SinkError struct {
	Sink string
	// Op is "open", "write", "flush" or "close".
	Op  string
	Seq int64
	Err error
}

func (e *SinkError) Error() string {
	if e.Op == "write" {
		return fmt.Sprintf("sink %s: write block %d: %v", e.Sink, e.Seq, e.Err)
	}
	return fmt.Sprintf("sink %s: %s: %v", e.Sink, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
