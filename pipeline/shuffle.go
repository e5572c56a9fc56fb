package pipeline

import (
	"context"
	"math/rand"
	"time"
)

// Shuffle randomizes value order using a bounded buffer of capacity n.
// The buffer is filled from upstream; each pull then swaps one
// uniformly-random buffered value for the next upstream one, and the
// buffer drains once upstream is exhausted.
//
// This is local randomization bounded by n, not a global shuffle: a value
// can move at most n positions relative to values still in the buffer.
// The trade-off buys streaming without materializing the dataset. n == 1
// is the identity transform. A nil rng gets a time-seeded one per run.
func Shuffle[T any](p *Pipeline[T], n int, rng *rand.Rand) *Pipeline[T] {
	if n < 1 {
		n = 1
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			r := rng
			if r == nil {
				r = rand.New(rand.NewSource(time.Now().UnixNano()))
			}
			return &shuffleIter[T]{source: p.create(ctx), capacity: n, rng: r}
		},
	}
}

type shuffleIter[T any] struct {
	source   Iterator[T]
	buf      []T
	capacity int
	rng      *rand.Rand
	filled   bool
	upstream bool // upstream exhausted
}

func (it *shuffleIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if !it.filled {
		it.filled = true
		it.buf = make([]T, 0, it.capacity)
		for len(it.buf) < it.capacity {
			val, ok, err := it.source.Next(ctx)
			if err != nil {
				return zero, false, err
			}
			if !ok {
				it.upstream = true
				break
			}
			it.buf = append(it.buf, val)
		}
	}
	if len(it.buf) == 0 {
		return zero, false, nil
	}

	i := it.rng.Intn(len(it.buf))
	out := it.buf[i]

	if !it.upstream {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if ok {
			it.buf[i] = val
			return out, true, nil
		}
		it.upstream = true
	}

	// Draining: remove slot i.
	last := len(it.buf) - 1
	it.buf[i] = it.buf[last]
	it.buf = it.buf[:last]
	return out, true, nil
}

func (it *shuffleIter[T]) Close() error {
	it.buf = nil
	return it.source.Close()
}
