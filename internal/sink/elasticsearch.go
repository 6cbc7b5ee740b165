package sink

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/goccy/go-json"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
	"github.com/GabrielNunesIT/pdd/internal/model"
)

// IndexerFactory creates a new BulkIndexer.
type IndexerFactory func(spec model.ElasticsearchSpec, cfg config.ElasticsearchSinkConfig, onError func(context.Context, error)) (esutil.BulkIndexer, error)

// ElasticsearchOption configures the ElasticsearchSink.
type ElasticsearchOption func(*ElasticsearchSink)

// WithIndexerFactory sets a custom factory for creating the BulkIndexer.
// This is primarily used for testing to inject a mock indexer.
func WithIndexerFactory(f IndexerFactory) ElasticsearchOption {
	return func(e *ElasticsearchSink) {
		e.factory = f
	}
}

// blockDocument is the indexed form of a block. Data is base64 encoded by
// the JSON encoder.
type blockDocument struct {
	Timestamp string `json:"@timestamp"`
	Sequence  int64  `json:"sequence"`
	Size      int    `json:"size"`
	Data      []byte `json:"data"`
}

// ElasticsearchSink indexes one document per block.
//
// Documents go through a bulk indexer with a single worker so they are sent
// in read order. Bulk failures are reported asynchronously; the first one
// fails the next Write, or Close if no write follows.
type ElasticsearchSink struct {
	spec    model.ElasticsearchSpec
	cfg     config.ElasticsearchSinkConfig
	factory IndexerFactory
	indexer esutil.BulkIndexer
	logger  logger.ILogger

	mu      sync.Mutex
	failure error
}

// NewElasticsearchSink creates a new Elasticsearch sink.
func NewElasticsearchSink(spec model.ElasticsearchSpec, cfg config.ElasticsearchSinkConfig, log logger.ILogger, opts ...ElasticsearchOption) *ElasticsearchSink {
	e := &ElasticsearchSink{
		spec:    spec,
		cfg:     cfg,
		factory: newBulkIndexer,
		logger:  log.SubLogger("ElasticsearchSink"),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// newBulkIndexer is the default IndexerFactory.
func newBulkIndexer(spec model.ElasticsearchSpec, cfg config.ElasticsearchSinkConfig, onError func(context.Context, error)) (esutil.BulkIndexer, error) {
	esCfg := elasticsearch.Config{
		Addresses: []string{spec.URL},
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("creating elasticsearch client: %w", err)
	}

	return esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        client,
		Index:         spec.Index,
		NumWorkers:    1,
		FlushBytes:    cfg.FlushBytes,
		FlushInterval: cfg.FlushInterval,
		OnError:       onError,
	})
}

// Name returns the sink identifier.
func (e *ElasticsearchSink) Name() string {
	return e.spec.String()
}

// Open creates the client and bulk indexer.
func (e *ElasticsearchSink) Open(ctx context.Context) error {
	indexer, err := e.factory(e.spec, e.cfg, func(ctx context.Context, err error) {
		e.fail(err)
	})
	if err != nil {
		return err
	}
	e.indexer = indexer
	e.logger.Debugf("bulk indexer ready: url=%s, index=%s", e.spec.URL, e.spec.Index)
	return nil
}

// Write queues the block for indexing.
func (e *ElasticsearchSink) Write(ctx context.Context, block *model.Block) error {
	if e.indexer == nil {
		return ErrNotOpen
	}
	if err := e.err(); err != nil {
		return err
	}

	data, err := json.Marshal(blockDocument{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Sequence:  block.Seq,
		Size:      block.Len(),
		Data:      block.Data,
	})
	if err != nil {
		return err
	}

	return e.indexer.Add(ctx, esutil.BulkIndexerItem{
		Action: "index",
		Body:   bytes.NewReader(data),
		OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
			if err == nil {
				err = fmt.Errorf("index block %d: %s: %s", block.Seq, res.Error.Type, res.Error.Reason)
			}
			e.fail(err)
		},
	})
}

// Close flushes the bulk indexer. Any failure seen is returned as a
// *FlushError since the documents were already accepted by Write.
func (e *ElasticsearchSink) Close(ctx context.Context) error {
	if e.indexer == nil {
		return nil
	}
	if err := e.indexer.Close(ctx); err != nil {
		return &FlushError{Err: err}
	}

	stats := e.indexer.Stats()
	e.logger.Debugf("bulk indexer closed: indexed=%d, failed=%d", stats.NumIndexed, stats.NumFailed)
	if err := e.err(); err != nil {
		return &FlushError{Err: err}
	}
	if stats.NumFailed > 0 {
		return &FlushError{Err: fmt.Errorf("%d block documents failed to index", stats.NumFailed)}
	}
	return nil
}

func (e *ElasticsearchSink) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failure == nil {
		e.failure = err
		e.logger.Warningf("indexing failed: index=%s, error=%v", e.spec.Index, err)
	}
}

func (e *ElasticsearchSink) err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure
}
