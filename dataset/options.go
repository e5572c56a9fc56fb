package dataset

import (
	"github.com/shardstream/shardstream/config"
	"github.com/shardstream/shardstream/decode"
	"github.com/shardstream/shardstream/logger"
	"github.com/shardstream/shardstream/resilience"
	"github.com/shardstream/shardstream/source"
)

// FromConfig translates a loaded engine configuration into Open options.
// Explicit options appended after these win, so callers can override
// individual knobs:
//
//	p, err := dataset.Open(patterns, append(dataset.FromConfig(cfg), dataset.WithShuffle(1000, seed))...)
func FromConfig(cfg *config.Config) []Option {
	log := logger.New(&cfg.Logging)
	opts := []Option{
		WithLogger(log),
		WithRegistry(source.DefaultRegistry(
			source.WithHTTPCommand(cfg.Source.HTTPCommand),
			source.WithOpenTimeout(cfg.Source.OpenTimeout),
			source.WithRetry(resilience.RetryConfig{
				MaxAttempts:    cfg.Source.Retry.MaxAttempts,
				InitialBackoff: cfg.Source.Retry.InitialBackoff,
				MaxBackoff:     cfg.Source.Retry.MaxBackoff,
				BackoffFactor:  cfg.Source.Retry.BackoffFactor,
				Jitter:         cfg.Source.Retry.Jitter,
			}),
			source.WithLogger(log),
		)),
	}
	if cfg.Shuffle.ShardSeed != 0 {
		opts = append(opts, WithShardShuffle(cfg.Shuffle.ShardSeed))
	}
	if cfg.Shuffle.BufferSize > 1 {
		opts = append(opts, WithShuffleRand(cfg.Shuffle.BufferSize))
	}
	if cfg.Decode.OnError != "" {
		policy := decode.PolicyKeepRaw
		if cfg.Decode.OnError == "abort_sample" {
			policy = decode.PolicyAbortSample
		}
		opts = append(opts, WithDecode(decode.Default(), policy))
	}
	if cfg.Prefetch.Workers > 0 {
		opts = append(opts, WithPrefetch(cfg.Prefetch.Workers, cfg.Prefetch.Queue))
	}
	return opts
}
