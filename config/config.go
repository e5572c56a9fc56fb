package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shardstream/shardstream/logger"
)

// Config is the root engine configuration.
type Config struct {
	Logging  logger.Config  `yaml:"logging" mapstructure:"logging"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Shuffle  ShuffleConfig  `yaml:"shuffle" mapstructure:"shuffle"`
	Decode   DecodeConfig   `yaml:"decode" mapstructure:"decode"`
	Prefetch PrefetchConfig `yaml:"prefetch" mapstructure:"prefetch"`
}

// SourceConfig configures the source resolver.
type SourceConfig struct {
	// OpenTimeout bounds a single open/spawn attempt. Zero means no timeout.
	OpenTimeout time.Duration `yaml:"open_timeout" mapstructure:"open_timeout" validate:"gte=0"`
	// HTTPCommand is the external retrieval command template for http/https
	// references. The reference URL is appended as a shell-quoted argument.
	HTTPCommand string `yaml:"http_command" mapstructure:"http_command"`
	// Retry configures retry of retryable open failures.
	Retry RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures exponential-backoff retry for shard opens.
type RetryConfig struct {
	// MaxAttempts includes the first attempt. 1 disables retry.
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=1"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	BackoffFactor  float64       `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"gte=1"`
	Jitter         float64       `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`
}

// ShuffleConfig configures shard-order and sample-level shuffling. The two
// are independent knobs.
type ShuffleConfig struct {
	// ShardSeed seeds shard-order shuffling. Zero leaves shard order as
	// expanded.
	ShardSeed int64 `yaml:"shard_seed" mapstructure:"shard_seed"`
	// BufferSize is the bounded sample-shuffle buffer capacity. 1 is the
	// identity transform.
	BufferSize int `yaml:"buffer_size" mapstructure:"buffer_size" validate:"gte=1"`
}

// DecodeConfig configures the decode stage.
type DecodeConfig struct {
	// OnError selects the per-field failure policy: keep_raw or abort_sample.
	OnError string `yaml:"on_error" mapstructure:"on_error" validate:"oneof=keep_raw abort_sample"`
}

// PrefetchConfig configures concurrent shard prefetching. Workers == 0
// disables prefetch (single-threaded, strictly lazy iteration).
type PrefetchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=0"`
	Queue   int `yaml:"queue" mapstructure:"queue" validate:"gte=0"`
}

// ApplyDefaults applies default values to all sections.
func (c *Config) ApplyDefaults() {
	c.Logging.ApplyDefaults()
	if c.Source.HTTPCommand == "" {
		c.Source.HTTPCommand = "curl -f -s -L"
	}
	if c.Source.Retry.MaxAttempts == 0 {
		c.Source.Retry.MaxAttempts = 1
	}
	if c.Source.Retry.InitialBackoff == 0 {
		c.Source.Retry.InitialBackoff = 100 * time.Millisecond
	}
	if c.Source.Retry.MaxBackoff == 0 {
		c.Source.Retry.MaxBackoff = 10 * time.Second
	}
	if c.Source.Retry.BackoffFactor == 0 {
		c.Source.Retry.BackoffFactor = 2.0
	}
	if c.Shuffle.BufferSize == 0 {
		c.Shuffle.BufferSize = 1
	}
	if c.Decode.OnError == "" {
		c.Decode.OnError = "keep_raw"
	}
	if c.Prefetch.Workers > 0 && c.Prefetch.Queue == 0 {
		c.Prefetch.Queue = 2 * c.Prefetch.Workers
	}
}

// Validate validates the configuration using struct tags plus the logging
// section's own rules.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return validate.Struct(c)
}

var validate = validator.New(validator.WithRequiredStructEnabled())
