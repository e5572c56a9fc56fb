package dataset

import (
	"context"
	"math/rand"

	"github.com/google/uuid"

	"github.com/shardstream/shardstream/decode"
	"github.com/shardstream/shardstream/expand"
	"github.com/shardstream/shardstream/logger"
	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
	"github.com/shardstream/shardstream/source"
	"github.com/shardstream/shardstream/tarshard"
)

type options struct {
	registry *source.Registry
	log      *logger.Logger

	shardShuffle bool
	shardSeed    int64

	shuffleN    int
	shuffleSeed int64
	shuffleRand bool

	decodeReg    *decode.Registry
	decodePolicy decode.Policy

	continueOnError bool

	prefetchWorkers int
	prefetchQueue   int
}

// Option configures Open.
type Option func(*options)

// WithRegistry sets the source registry used to open shard references.
// Defaults to source.DefaultRegistry.
func WithRegistry(r *source.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the dataset's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithShardShuffle randomizes the shard visit order with a seeded
// permutation. This is independent of sample-level shuffling: it
// decorrelates shards cheaply without any sample buffering.
func WithShardShuffle(seed int64) Option {
	return func(o *options) {
		o.shardShuffle = true
		o.shardSeed = seed
	}
}

// WithShuffle adds a sample-level shuffle stage with a buffer of n and a
// seeded source of randomness. n of 1 leaves the order untouched.
func WithShuffle(n int, seed int64) Option {
	return func(o *options) {
		o.shuffleN = n
		o.shuffleSeed = seed
	}
}

// WithShuffleRand is WithShuffle with a time-seeded source, for runs
// that don't need reproducibility.
func WithShuffleRand(n int) Option {
	return func(o *options) {
		o.shuffleN = n
		o.shuffleRand = true
	}
}

// WithDecode adds a decode stage over reg with the given failure policy.
func WithDecode(reg *decode.Registry, policy decode.Policy) Option {
	return func(o *options) {
		o.decodeReg = reg
		o.decodePolicy = policy
	}
}

// WithContinueOnError makes a failing shard abort only its own
// contribution: the failure is logged and the stream moves to the next
// shard. The default is to fail the whole run.
func WithContinueOnError() Option {
	return func(o *options) { o.continueOnError = true }
}

// WithPrefetch reads shards with the given number of concurrent workers
// feeding a bounded sample queue. Sample order across shards becomes
// arrival order. queue <= 0 defaults to twice the worker count.
func WithPrefetch(workers, queue int) Option {
	return func(o *options) {
		o.prefetchWorkers = workers
		o.prefetchQueue = queue
	}
}

// Open expands patterns into a shard list and returns the lazy sample
// pipeline over it. Expansion is eager, so malformed patterns fail here,
// but no shard is opened until the pipeline is pulled.
func Open(patterns []string, opts ...Option) (*pipeline.Pipeline[sample.Sample], error) {
	o := &options{
		registry: source.DefaultRegistry(),
		log:      logger.NewFromEnv(),
	}
	for _, opt := range opts {
		opt(o)
	}

	refs, err := expand.ExpandAll(patterns)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := o.log.WithComponent("dataset").WithFields(logger.Fields(logger.FieldRunID, runID))
	log.Debug("dataset opened", logger.Fields("shards", len(refs)))

	if o.shardShuffle {
		refs = append([]string(nil), refs...)
		rng := rand.New(rand.NewSource(o.shardSeed))
		rng.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })
	}

	openShard := func(ctx context.Context, ref string) (pipeline.Iterator[sample.Sample], error) {
		return o.open(ctx, ref, log)
	}

	var p *pipeline.Pipeline[sample.Sample]
	if o.prefetchWorkers > 0 {
		p = prefetch(refs, o.prefetchWorkers, o.prefetchQueue, openShard, o.shardError(log))
	} else {
		p = pipeline.FlatMap(pipeline.FromSlice(refs), func(ctx context.Context, ref string) (pipeline.Iterator[sample.Sample], error) {
			it, err := openShard(ctx, ref)
			if err != nil {
				if err = o.shardError(log)(ref, err); err != nil {
					return nil, err
				}
				return pipeline.Empty[sample.Sample]().Iter(ctx), nil
			}
			if o.continueOnError {
				it = &skipErrIter{inner: it, ref: ref, log: log}
			}
			return it, nil
		})
	}

	if o.shuffleN > 1 {
		var rng *rand.Rand
		if !o.shuffleRand {
			rng = rand.New(rand.NewSource(o.shuffleSeed))
		}
		p = pipeline.Shuffle(p, o.shuffleN, rng)
	}
	if o.decodeReg != nil {
		p = decode.Stage(o.decodeReg, o.decodePolicy, decode.WithLogger(log))(p)
	}
	return p, nil
}

// open resolves one shard reference into a traced sample iterator.
func (o *options) open(ctx context.Context, ref string, log *logger.Logger) (pipeline.Iterator[sample.Sample], error) {
	ctx, span := startShardSpan(ctx, ref)
	stream, err := o.registry.OpenRead(ctx, ref)
	if err != nil {
		endShardSpan(span, err)
		return nil, err
	}
	log.Debug("shard opened", logger.Fields(logger.FieldShard, ref))
	inner := tarshard.NewReader(stream,
		tarshard.WithShard(ref),
		tarshard.WithLogger(log),
	)
	return &tracedIter{inner: inner, span: span}, nil
}

// shardError decides what a shard failure does to the run.
func (o *options) shardError(log *logger.Logger) func(ref string, err error) error {
	return func(ref string, err error) error {
		if !o.continueOnError {
			return err
		}
		log.Warn("skipping failed shard", logger.Fields(
			logger.FieldShard, ref,
			logger.FieldError, err.Error(),
		))
		return nil
	}
}

// skipErrIter turns a mid-shard error into early shard exhaustion.
type skipErrIter struct {
	inner pipeline.Iterator[sample.Sample]
	ref   string
	log   *logger.Logger
}

func (it *skipErrIter) Next(ctx context.Context) (sample.Sample, bool, error) {
	s, ok, err := it.inner.Next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return s, false, err
		}
		it.log.Warn("abandoning failed shard", logger.Fields(
			logger.FieldShard, it.ref,
			logger.FieldError, err.Error(),
		))
		return s, false, nil
	}
	return s, ok, nil
}

func (it *skipErrIter) Close() error { return it.inner.Close() }

// Mix interleaves multiple datasets by policy; see pipeline.Mix.
func Mix(policy pipeline.MixPolicy, datasets ...*pipeline.Pipeline[sample.Sample]) *pipeline.Pipeline[sample.Sample] {
	return pipeline.Mix(policy, datasets...)
}

// MixWeighted interleaves datasets proportionally to explicit weights;
// see pipeline.MixWeighted.
func MixWeighted(weights []float64, rng *rand.Rand, datasets ...*pipeline.Pipeline[sample.Sample]) *pipeline.Pipeline[sample.Sample] {
	return pipeline.MixWeighted(weights, rng, datasets...)
}
