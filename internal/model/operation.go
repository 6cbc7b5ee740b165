// Package model defines the core data structures shared by the parser, the
// fan-out engine and the sequencer.
package model

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultBlockSize is the number of bytes per read when bs= is not given.
const DefaultBlockSize = 1024

var (
	ErrMissingInput      = errors.New("operation is missing an input")
	ErrNoSinks           = errors.New("operation must have at least one output")
	ErrInvalidBlockSize  = errors.New("block size must be greater than zero")
	ErrInvalidBlockCount = errors.New("block count must not be negative")
)

// Operation is one unit of work: one input replicated to every sink.
// It is immutable once built.
type Operation struct {
	// Input is the path of the byte source, or StdioPath for standard input.
	Input string

	// Sinks lists the destinations in declaration order.
	Sinks []SinkSpec

	// BlockSize is the maximum number of bytes per read.
	BlockSize int

	// BlockCount caps the number of blocks delivered. Zero means until the
	// input is exhausted.
	BlockCount int

	// Redirected marks an input that another process may still be appending
	// to, such as a redirected stdout log.
	Redirected bool
}

// String renders the operation in its command-line form.
func (o Operation) String() string {
	parts := []string{"if=" + o.Input}
	for _, s := range o.Sinks {
		parts = append(parts, s.String())
	}
	parts = append(parts, "bs="+strconv.Itoa(o.BlockSize))
	if o.BlockCount > 0 {
		parts = append(parts, "count="+strconv.Itoa(o.BlockCount))
	}
	if o.Redirected {
		parts = append(parts, "redir=1")
	}
	return strings.Join(parts, " ")
}

// OperationBuilder accumulates operation fields from key=value pairs and
// validates them once in Build.
type OperationBuilder struct {
	input      string
	sinks      []SinkSpec
	blockSize  int
	blockCount int
	redirected bool
	touched    bool
}

// NewOperationBuilder creates a builder with default block size and no cap.
func NewOperationBuilder() *OperationBuilder {
	return &OperationBuilder{
		blockSize: DefaultBlockSize,
	}
}

// Input sets the input path. A later call replaces an earlier one.
func (b *OperationBuilder) Input(path string) *OperationBuilder {
	b.input = path
	b.touched = true
	return b
}

// File adds a file sink.
func (b *OperationBuilder) File(path string) *OperationBuilder {
	return b.sink(FileSpec{Path: path})
}

// Socket adds a TCP socket sink.
func (b *OperationBuilder) Socket(host string, port int) *OperationBuilder {
	return b.sink(SocketSpec{Host: host, Port: port})
}

// HTTP adds an HTTP sink.
func (b *OperationBuilder) HTTP(method, url string) *OperationBuilder {
	return b.sink(HTTPSpec{Method: method, URL: url})
}

// Elasticsearch adds an Elasticsearch sink.
func (b *OperationBuilder) Elasticsearch(url, index string) *OperationBuilder {
	return b.sink(ElasticsearchSpec{URL: url, Index: index})
}

func (b *OperationBuilder) sink(s SinkSpec) *OperationBuilder {
	b.sinks = append(b.sinks, s)
	b.touched = true
	return b
}

// BlockSize sets the number of bytes per read.
func (b *OperationBuilder) BlockSize(n int) *OperationBuilder {
	b.blockSize = n
	b.touched = true
	return b
}

// Count caps the number of blocks delivered.
func (b *OperationBuilder) Count(n int) *OperationBuilder {
	b.blockCount = n
	b.touched = true
	return b
}

// Redirected marks the input as a growing stream.
func (b *OperationBuilder) Redirected(v bool) *OperationBuilder {
	b.redirected = v
	b.touched = true
	return b
}

// Empty reports whether no field was set since the builder was created.
func (b *OperationBuilder) Empty() bool {
	return !b.touched
}

// Build validates the accumulated fields and returns the operation.
func (b *OperationBuilder) Build() (Operation, error) {
	if b.input == "" {
		return Operation{}, ErrMissingInput
	}
	if len(b.sinks) == 0 {
		return Operation{}, ErrNoSinks
	}
	if b.blockSize <= 0 {
		return Operation{}, ErrInvalidBlockSize
	}
	if b.blockCount < 0 {
		return Operation{}, ErrInvalidBlockCount
	}

	sinks := make([]SinkSpec, len(b.sinks))
	copy(sinks, b.sinks)

	return Operation{
		Input:      b.input,
		Sinks:      sinks,
		BlockSize:  b.blockSize,
		BlockCount: b.blockCount,
		Redirected: b.redirected,
	}, nil
}
