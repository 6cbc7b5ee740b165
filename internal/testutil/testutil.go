// Package testutil holds helpers shared by package tests: a silent logger and
// testify mocks for the handles sinks and inputs wrap.
package testutil

import (
	"io"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/elastic/go-elasticsearch/v8/esutil"
)

var (
	_ io.WriteCloser     = (*WriteCloser)(nil)
	_ io.ReadCloser      = (*ReadCloser)(nil)
	_ esutil.BulkIndexer = (*BulkIndexer)(nil)
)

// NewTestLogger creates a logger that discards output, suitable for tests.
func NewTestLogger() logger.ILogger {
	return logger.NewConsoleLogger(io.Discard)
}
