// Package input opens the byte source an operation reads from.
package input

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// Opener opens the input of an operation.
// The returned reader is owned exclusively by the caller, who must close it.
type Opener interface {
	Open(ctx context.Context, op model.Operation) (io.ReadCloser, error)
}

// FileOpener opens paths on the local filesystem, or standard input for
// model.StdioPath. Redirected file inputs are followed past end of file.
type FileOpener struct {
	cfg    config.InputConfig
	stdin  io.Reader
	logger logger.ILogger
}

// NewFileOpener creates an opener reading standard input from os.Stdin.
func NewFileOpener(cfg config.InputConfig, log logger.ILogger) *FileOpener {
	return &FileOpener{
		cfg:    cfg,
		stdin:  os.Stdin,
		logger: log.SubLogger("Input"),
	}
}

// NewFileOpenerWithStdin creates an opener with a custom standard input (for testing).
func NewFileOpenerWithStdin(cfg config.InputConfig, stdin io.Reader, log logger.ILogger) *FileOpener {
	o := NewFileOpener(cfg, log)
	o.stdin = stdin
	return o
}

// Open opens op.Input for reading.
func (o *FileOpener) Open(ctx context.Context, op model.Operation) (io.ReadCloser, error) {
	if op.Input == model.StdioPath {
		if op.Redirected {
			o.logger.Debug("stdin is never followed, redir has no effect")
		}
		return &stdinReader{ctx: ctx, r: o.stdin}, nil
	}

	f, err := os.Open(op.Input)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", op.Input)
	}

	if !op.Redirected {
		return f, nil
	}

	follower := NewFollower(ctx, f, o.cfg, o.logger)
	o.logger.Debugf("following redirected input: path=%s, idle_timeout=%v", op.Input, o.cfg.FollowIdleTimeout)
	return follower, nil
}

// stdinReader reads standard input on behalf of one operation. Standard input
// is shared by every operation of a run, so Close only closes it once ctx is
// cancelled, which releases a read blocked on a pipe or terminal.
type stdinReader struct {
	ctx context.Context
	r   io.Reader
}

func (s *stdinReader) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *stdinReader) Close() error {
	if s.ctx.Err() == nil {
		return nil
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
