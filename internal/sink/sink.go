// Package sink defines the interface and implementations for block destinations.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// ErrNotOpen is returned by Write when Open did not succeed.
var ErrNotOpen = errors.New("sink is not open")

// FlushError is returned by Close when blocks accepted by earlier Write
// calls were not delivered. It differs from a failure to release the handle:
// the sink did not receive everything.
type FlushError struct {
	Err error
}

func (e *FlushError) Error() string {
	return e.Err.Error()
}

func (e *FlushError) Unwrap() error {
	return e.Err
}

// Sink is the writer side of a sink description.
//
// The engine calls Open once, then Write for each block in read order from a
// single goroutine, then Close exactly once, even after a failed Write.
// Close is not called when Open failed.
type Sink interface {
	// Open creates the live handle (file, connection, client).
	Open(ctx context.Context) error

	// Write delivers one block. Any error marks the sink dead for the run.
	Write(ctx context.Context, block *model.Block) error

	// Close flushes and releases the handle. Buffering sinks return a
	// *FlushError when buffered blocks could not be delivered.
	Close(ctx context.Context) error

	// Name identifies the sink in logs and results.
	Name() string
}

// Factory materializes sink descriptions into writers.
type Factory interface {
	New(spec model.SinkSpec) (Sink, error)
}

// HTTPDoer abstracts HTTP client operations for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ensure http.Client implements HTTPDoer.
var _ HTTPDoer = (*http.Client)(nil)

// DefaultFactory builds the writers for every sink kind from configuration.
type DefaultFactory struct {
	cfg    config.SinkConfig
	logger logger.ILogger
}

// NewFactory creates a factory using the shared sink configuration.
func NewFactory(cfg config.SinkConfig, log logger.ILogger) *DefaultFactory {
	return &DefaultFactory{
		cfg:    cfg,
		logger: log,
	}
}

// New returns an unopened writer for spec.
func (f *DefaultFactory) New(spec model.SinkSpec) (Sink, error) {
	switch s := spec.(type) {
	case model.FileSpec:
		return NewFileSink(s, f.cfg.File, f.logger), nil
	case model.SocketSpec:
		return NewSocketSink(s, f.cfg.Socket, f.logger), nil
	case model.HTTPSpec:
		return NewHTTPSink(s, f.cfg.HTTP, f.logger), nil
	case model.ElasticsearchSpec:
		return NewElasticsearchSink(s, f.cfg.Elasticsearch, f.logger), nil
	default:
		return nil, fmt.Errorf("unsupported sink %T", spec)
	}
}
