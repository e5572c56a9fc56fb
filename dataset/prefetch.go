package dataset

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
)

type prefetchResult struct {
	s   sample.Sample
	err error
}

// prefetch reads shards with a pool of concurrent workers feeding one
// bounded sample queue. Samples arrive in completion order, not shard
// order. onErr decides whether a shard failure skips the shard (nil) or
// fails the run (non-nil).
func prefetch(
	refs []string,
	workers, queue int,
	open func(ctx context.Context, ref string) (pipeline.Iterator[sample.Sample], error),
	onErr func(ref string, err error) error,
) *pipeline.Pipeline[sample.Sample] {
	if queue <= 0 {
		queue = 2 * workers
	}
	return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[sample.Sample] {
		pctx, cancel := context.WithCancel(ctx)
		g, gctx := errgroup.WithContext(pctx)

		refCh := make(chan string)
		out := make(chan prefetchResult, queue)

		g.Go(func() error {
			defer close(refCh)
			for _, ref := range refs {
				select {
				case refCh <- ref:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})

		for i := 0; i < workers; i++ {
			g.Go(func() error {
				for ref := range refCh {
					if err := readShard(gctx, ref, open, onErr, out); err != nil {
						return err
					}
				}
				return nil
			})
		}

		go func() {
			err := g.Wait()
			if err != nil && pctx.Err() == nil {
				select {
				case out <- prefetchResult{err: err}:
				case <-pctx.Done():
				}
			}
			close(out)
		}()

		return &prefetchIter{out: out, cancel: cancel}
	})
}

// readShard streams one shard into the queue. The shard's stream is
// closed on every exit path.
func readShard(
	ctx context.Context,
	ref string,
	open func(ctx context.Context, ref string) (pipeline.Iterator[sample.Sample], error),
	onErr func(ref string, err error) error,
	out chan<- prefetchResult,
) error {
	it, err := open(ctx, ref)
	if err != nil {
		return onErr(ref, err)
	}
	defer it.Close()
	for {
		s, ok, err := it.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			return onErr(ref, err)
		}
		if !ok {
			return nil
		}
		select {
		case out <- prefetchResult{s: s}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

type prefetchIter struct {
	out    <-chan prefetchResult
	cancel context.CancelFunc
}

func (it *prefetchIter) Next(ctx context.Context) (sample.Sample, bool, error) {
	var zero sample.Sample
	select {
	case r, open := <-it.out:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			return zero, false, r.err
		}
		return r.s, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

// Close stops the workers; each closes its in-flight shard stream on the
// way out.
func (it *prefetchIter) Close() error {
	it.cancel()
	return nil
}
