// Package config provides configuration loading with layered overrides.
// Load order: defaults -> YAML file -> environment variables.
package config

import (
	"os"
	"time"

	configloader "github.com/GabrielNunesIT/go-libs/config-loader"
)

// Config is the root configuration structure for pdd.
type Config struct {
	LogLevel  string          `koanf:"loglevel" yaml:"log_level" json:"log_level"`
	Engine    EngineConfig    `koanf:"engine"`
	Input     InputConfig     `koanf:"input"`
	Sequencer SequencerConfig `koanf:"sequencer"`
	Sinks     SinkConfig      `koanf:"sinks"`
}

// EngineConfig controls the block fan-out engine.
type EngineConfig struct {
	// QueueDepth is the number of blocks buffered per sink.
	QueueDepth int `koanf:"queuedepth" yaml:"queue_depth" json:"queue_depth"`
	// DropOnFullQueue skips a block for a sink whose queue is full instead of
	// waiting for it. Skipped blocks are counted per sink.
	DropOnFullQueue bool `koanf:"droponfullqueue" yaml:"drop_on_full_queue" json:"drop_on_full_queue"`
	// ShutdownTimeout bounds how long sink writers may drain after cancellation.
	ShutdownTimeout time.Duration `koanf:"shutdowntimeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// InputConfig controls how inputs are read.
type InputConfig struct {
	// FollowIdleTimeout ends a redirected input after this long without new
	// data. Zero follows until cancelled.
	FollowIdleTimeout time.Duration `koanf:"followidletimeout" yaml:"follow_idle_timeout" json:"follow_idle_timeout"`
	// PollInterval re-checks a followed input when no file event arrives.
	PollInterval time.Duration `koanf:"pollinterval" yaml:"poll_interval" json:"poll_interval"`
}

// SequencerConfig controls how operations are scheduled.
type SequencerConfig struct {
	// Parallel is the number of operations run at once; 1 runs them in order.
	Parallel int `koanf:"parallel"`
}

// SinkConfig holds configuration shared by every sink of a kind.
type SinkConfig struct {
	File          FileSinkConfig          `koanf:"file"`
	Socket        SocketSinkConfig        `koanf:"socket"`
	HTTP          HTTPSinkConfig          `koanf:"http"`
	Elasticsearch ElasticsearchSinkConfig `koanf:"elasticsearch"`
}

// FileSinkConfig configures file sinks.
type FileSinkConfig struct {
	MaxSizeMB  int  `koanf:"maxsizemb" yaml:"max_size_mb" json:"max_size_mb"` // 0 disables rotation
	MaxBackups int  `koanf:"maxbackups" yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int  `koanf:"maxagedays" yaml:"max_age_days" json:"max_age_days"`
	Compress   bool `koanf:"compress"`
}

// SocketSinkConfig configures TCP socket sinks.
type SocketSinkConfig struct {
	DialTimeout  time.Duration `koanf:"dialtimeout" yaml:"dial_timeout" json:"dial_timeout"`
	WriteTimeout time.Duration `koanf:"writetimeout" yaml:"write_timeout" json:"write_timeout"`
	KeepAlive    time.Duration `koanf:"keepalive" yaml:"keep_alive" json:"keep_alive"`
}

// HTTPSinkConfig configures HTTP sinks.
type HTTPSinkConfig struct {
	Timeout     time.Duration     `koanf:"timeout"`
	ContentType string            `koanf:"contenttype" yaml:"content_type" json:"content_type"`
	Headers     map[string]string `koanf:"headers"`
}

// ElasticsearchSinkConfig configures Elasticsearch sinks.
type ElasticsearchSinkConfig struct {
	Username      string        `koanf:"username"`
	Password      string        `koanf:"password"`
	FlushBytes    int           `koanf:"flushbytes" yaml:"flush_bytes" json:"flush_bytes"`
	FlushInterval time.Duration `koanf:"flushinterval" yaml:"flush_interval" json:"flush_interval"`
}

// defaults returns the default configuration values.
func defaults() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			QueueDepth:      64,
			DropOnFullQueue: false,
			ShutdownTimeout: 30 * time.Second,
		},
		Input: InputConfig{
			FollowIdleTimeout: 30 * time.Second,
			PollInterval:      250 * time.Millisecond,
		},
		Sequencer: SequencerConfig{
			Parallel: 1,
		},
		Sinks: SinkConfig{
			File: FileSinkConfig{
				MaxSizeMB:  0,
				MaxBackups: 3,
				MaxAgeDays: 7,
				Compress:   false,
			},
			Socket: SocketSinkConfig{
				DialTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
				KeepAlive:    30 * time.Second,
			},
			HTTP: HTTPSinkConfig{
				Timeout:     10 * time.Second,
				ContentType: "application/octet-stream",
			},
			Elasticsearch: ElasticsearchSinkConfig{
				FlushBytes:    5e+6, // 5MB
				FlushInterval: 1 * time.Second,
			},
		},
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	cfg := defaults()
	return &cfg
}

// Load reads configuration from all sources with proper override order.
// Order: defaults -> config file -> environment variables.
func Load(configPath string) (*Config, error) {
	opts := []configloader.Option[Config]{
		configloader.WithDefaults[Config](defaults()),
	}

	// Add file source if path provided or if default config exists
	if configPath != "" {
		opts = append(opts, configloader.WithFile[Config](configPath))
	} else {
		for _, path := range []string{"./pdd.yaml", "/etc/pdd/config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				opts = append(opts, configloader.WithFile[Config](path))
				break
			}
		}
	}

	opts = append(opts, configloader.WithEnv[Config]("PDD_"))

	loader := configloader.NewConfigLoader[Config](opts...)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
