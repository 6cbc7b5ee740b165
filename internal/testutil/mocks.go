package testutil

import (
	"context"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/stretchr/testify/mock"
)

// WriteCloser is a testify mock of io.WriteCloser.
type WriteCloser struct {
	mock.Mock
}

// NewWriteCloser creates a WriteCloser mock that asserts its expectations
// when the test finishes.
func NewWriteCloser(t interface {
	mock.TestingT
	Cleanup(func())
}) *WriteCloser {
	m := &WriteCloser{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *WriteCloser) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *WriteCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ReadCloser is a testify mock of io.ReadCloser.
type ReadCloser struct {
	mock.Mock
}

// NewReadCloser creates a ReadCloser mock that asserts its expectations
// when the test finishes.
func NewReadCloser(t interface {
	mock.TestingT
	Cleanup(func())
}) *ReadCloser {
	m := &ReadCloser{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ReadCloser) Read(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *ReadCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}

// BulkIndexer is a testify mock of esutil.BulkIndexer.
type BulkIndexer struct {
	mock.Mock
}

// NewBulkIndexer creates a BulkIndexer mock that asserts its expectations
// when the test finishes.
func NewBulkIndexer(t interface {
	mock.TestingT
	Cleanup(func())
}) *BulkIndexer {
	m := &BulkIndexer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *BulkIndexer) Add(ctx context.Context, item esutil.BulkIndexerItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *BulkIndexer) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *BulkIndexer) Stats() esutil.BulkIndexerStats {
	args := m.Called()
	return args.Get(0).(esutil.BulkIndexerStats)
}
