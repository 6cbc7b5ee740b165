package sink

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/natefinch/lumberjack"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// WriterFactory creates the writer behind a file sink.
type WriterFactory func(path string, cfg config.FileSinkConfig) (io.WriteCloser, error)

// FileOption configures the FileSink.
type FileOption func(*FileSink)

// WithWriterFactory sets a custom factory for creating the writer.
func WithWriterFactory(f WriterFactory) FileOption {
	return func(s *FileSink) {
		s.factory = f
	}
}

// FileSink writes blocks to a file, created or truncated at open.
type FileSink struct {
	spec    model.FileSpec
	cfg     config.FileSinkConfig
	factory WriterFactory
	writer  io.WriteCloser
	mu      sync.Mutex
	logger  logger.ILogger
}

// NewFileSink creates a new file sink.
func NewFileSink(spec model.FileSpec, cfg config.FileSinkConfig, log logger.ILogger, opts ...FileOption) *FileSink {
	s := &FileSink{
		spec:    spec,
		cfg:     cfg,
		factory: openFile,
		logger:  log.SubLogger("FileSink"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// openFile is the default WriterFactory.
func openFile(path string, cfg config.FileSinkConfig) (io.WriteCloser, error) {
	if path == model.StdioPath {
		return nopCloser{os.Stdout}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if cfg.MaxSizeMB <= 0 {
		return f, nil
	}

	// lumberjack appends to an existing file; the truncation above already
	// happened, so hand the path over.
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}, nil
}

// Name returns the sink identifier.
func (s *FileSink) Name() string {
	return s.spec.String()
}

// Open creates or truncates the target file.
func (s *FileSink) Open(ctx context.Context) error {
	w, err := s.factory(s.spec.Path, s.cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.writer = w
	s.mu.Unlock()

	s.logger.Debugf("opened file: path=%s, rotate=%t", s.spec.Path, s.cfg.MaxSizeMB > 0)
	return nil
}

// Close closes the file writer.
func (s *FileSink) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return nil
	}
	err := s.writer.Close()
	s.writer = nil
	return err
}

// Write appends the block to the file.
func (s *FileSink) Write(ctx context.Context, block *model.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writer == nil {
		return ErrNotOpen
	}

	n, err := s.writer.Write(block.Data)
	if err != nil {
		return err
	}
	if n < block.Len() {
		return io.ErrShortWrite
	}
	return nil
}

// nopCloser keeps standard output open when the sink closes.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
