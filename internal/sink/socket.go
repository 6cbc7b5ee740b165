package sink

import (
	"context"
	"net"
	"time"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// DialFunc opens a stream connection.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// SocketOption configures the SocketSink.
type SocketOption func(*SocketSink)

// WithDialFunc sets a custom dialer.
func WithDialFunc(f DialFunc) SocketOption {
	return func(s *SocketSink) {
		s.dial = f
	}
}

// SocketSink writes blocks as raw bytes over one persistent TCP connection.
// A failed write leaves the connection unusable; there is no reconnect.
type SocketSink struct {
	spec   model.SocketSpec
	cfg    config.SocketSinkConfig
	dial   DialFunc
	conn   net.Conn
	logger logger.ILogger
}

// NewSocketSink creates a new socket sink.
func NewSocketSink(spec model.SocketSpec, cfg config.SocketSinkConfig, log logger.ILogger, opts ...SocketOption) *SocketSink {
	s := &SocketSink{
		spec:   spec,
		cfg:    cfg,
		logger: log.SubLogger("SocketSink"),
	}

	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}
	s.dial = dialer.DialContext

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the sink identifier.
func (s *SocketSink) Name() string {
	return s.spec.String()
}

// Open dials the destination.
func (s *SocketSink) Open(ctx context.Context) error {
	if s.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.DialTimeout)
		defer cancel()
	}

	conn, err := s.dial(ctx, "tcp", s.spec.Address())
	if err != nil {
		return err
	}
	s.conn = conn

	s.logger.Debugf("connected: address=%s, local=%s", s.spec.Address(), conn.LocalAddr())
	return nil
}

// Write sends the block bytes, bounded by the write timeout.
func (s *SocketSink) Write(ctx context.Context, block *model.Block) error {
	if s.conn == nil {
		return ErrNotOpen
	}

	deadline := time.Time{}
	if s.cfg.WriteTimeout > 0 {
		deadline = time.Now().Add(s.cfg.WriteTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	// net.Conn writes either the whole buffer or return an error.
	_, err := s.conn.Write(block.Data)
	return err
}

// Close closes the connection.
func (s *SocketSink) Close(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
