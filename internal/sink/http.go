package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// BlockSequenceHeader carries the block's position in read order.
const BlockSequenceHeader = "X-Pdd-Block-Seq"

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPOption configures an HTTPSink.
type HTTPOption func(*HTTPSink)

// WithHTTPClient sets a custom HTTP client for testing.
func WithHTTPClient(client HTTPDoer) HTTPOption {
	return func(h *HTTPSink) {
		h.client = client
	}
}

// HTTPSink issues one request per block with the block as the body.
// Failed requests are not retried.
type HTTPSink struct {
	spec   model.HTTPSpec
	cfg    config.HTTPSinkConfig
	client HTTPDoer
	logger logger.ILogger
}

// NewHTTPSink creates a new HTTP sink.
func NewHTTPSink(spec model.HTTPSpec, cfg config.HTTPSinkConfig, log logger.ILogger, opts ...HTTPOption) *HTTPSink {
	h := &HTTPSink{
		spec: spec,
		cfg:  cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log.SubLogger("HTTPSink"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the sink identifier.
func (h *HTTPSink) Name() string {
	return h.spec.String()
}

// Open checks that a request can be built for the method and URL.
// No connection is made until the first block.
func (h *HTTPSink) Open(ctx context.Context) error {
	if _, err := http.NewRequestWithContext(ctx, h.spec.Method, h.spec.URL, http.NoBody); err != nil {
		return err
	}
	h.logger.Debugf("ready: method=%s, url=%s", h.spec.Method, h.spec.URL)
	return nil
}

// Write sends the block as one request.
func (h *HTTPSink) Write(ctx context.Context, block *model.Block) error {
	req, err := http.NewRequestWithContext(ctx, h.spec.Method, h.spec.URL, bytes.NewReader(block.Data))
	if err != nil {
		return err
	}

	if h.cfg.ContentType != "" {
		req.Header.Set("Content-Type", h.cfg.ContentType)
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(BlockSequenceHeader, strconv.FormatInt(block.Seq, 10))

	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// Close releases idle connections.
func (h *HTTPSink) Close(ctx context.Context) error {
	if c, ok := h.client.(*http.Client); ok {
		c.CloseIdleConnections()
	}
	return nil
}
