package pipeline

import (
	"context"
	"math/rand"
	"time"
)

// MixPolicy selects how Mix interleaves its inputs.
type MixPolicy int

const (
	// MixRoundRobin pulls one value from each input in rotation. The
	// first exhausted input terminates the whole mixed stream
	// immediately ("shortest stream wins"), bounding a mixed epoch to
	// the smallest constituent dataset.
	MixRoundRobin MixPolicy = iota
	// MixProportional picks the next input at random, biased by weight.
	// Exhausted inputs drop out; the stream ends when all inputs end.
	MixProportional
)

// Mix interleaves multiple pipelines according to policy. For
// MixProportional the weights are uniform; use MixWeighted for explicit
// weights.
func Mix[T any](policy MixPolicy, pipelines ...*Pipeline[T]) *Pipeline[T] {
	switch policy {
	case MixProportional:
		return MixWeighted(nil, nil, pipelines...)
	default:
		return &Pipeline[T]{
			create: func(ctx context.Context) Iterator[T] {
				return &roundRobinIter[T]{iters: createAll(ctx, pipelines)}
			},
		}
	}
}

// MixWeighted interleaves pipelines with per-input selection weights.
// Nil weights means uniform; a nil rng gets a time-seeded one per run.
// Weights must be positive and match the number of pipelines.
func MixWeighted[T any](weights []float64, rng *rand.Rand, pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			w := make([]float64, len(pipelines))
			for i := range w {
				if weights == nil {
					w[i] = 1
				} else {
					w[i] = weights[i]
				}
			}
			r := rng
			if r == nil {
				r = rand.New(rand.NewSource(time.Now().UnixNano()))
			}
			return &proportionalIter[T]{
				iters:   createAll(ctx, pipelines),
				weights: w,
				rng:     r,
			}
		},
	}
}

func createAll[T any](ctx context.Context, pipelines []*Pipeline[T]) []Iterator[T] {
	iters := make([]Iterator[T], len(pipelines))
	for i, p := range pipelines {
		iters[i] = p.create(ctx)
	}
	return iters
}

type roundRobinIter[T any] struct {
	iters []Iterator[T]
	index int
	done  bool
}

func (it *roundRobinIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.done || len(it.iters) == 0 {
		return zero, false, nil
	}
	val, ok, err := it.iters[it.index].Next(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		// Shortest stream wins: end the combined stream mid-rotation
		// without draining the remaining inputs.
		it.done = true
		return zero, false, nil
	}
	it.index = (it.index + 1) % len(it.iters)
	return val, true, nil
}

func (it *roundRobinIter[T]) Close() error {
	return closeAll(it.iters)
}

type proportionalIter[T any] struct {
	iters   []Iterator[T]
	weights []float64
	rng     *rand.Rand
	total   float64
	started bool
}

func (it *proportionalIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if !it.started {
		it.started = true
		for _, w := range it.weights {
			it.total += w
		}
	}
	for it.total > 0 {
		i := it.pick()
		val, ok, err := it.iters[i].Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			return val, true, nil
		}
		// Exhausted input drops out of the rotation.
		it.total -= it.weights[i]
		it.weights[i] = 0
	}
	return zero, false, nil
}

func (it *proportionalIter[T]) pick() int {
	r := it.rng.Float64() * it.total
	for i, w := range it.weights {
		if w == 0 {
			continue
		}
		r -= w
		if r < 0 {
			return i
		}
	}
	// Float round-off: fall back to the last live input.
	for i := len(it.weights) - 1; i > 0; i-- {
		if it.weights[i] > 0 {
			return i
		}
	}
	return 0
}

func (it *proportionalIter[T]) Close() error {
	return closeAll(it.iters)
}

func closeAll[T any](iters []Iterator[T]) error {
	var firstErr error
	for _, iter := range iters {
		if err := iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
