// Package pipeline provides composable, pull-based stream stages for
// sample streams.
//
// Pipelines are lazy: no work happens until values are pulled via
// Collect, Drain, or ForEach. Each stage pulls from the previous stage on
// demand, so a shard is never read further than the consumer asks for and
// memory stays bounded regardless of shard size.
//
// Stages compose by ordered application: each operator takes a pipeline
// and returns a new one. The only stateful stages are Shuffle (a bounded
// buffer) and Mix (per-input cursors); each owns its state exclusively,
// so a pipeline needs no locking.
//
// Every Iterator has a mandatory Close. Operators propagate Close to
// their sources on normal exhaustion, error, and early abandonment alike;
// this is what releases descriptors and terminates spawned subprocesses
// when a consumer stops mid-stream.
//
// # Operators
//
// Synchronous (single-goroutine):
//
//   - Map: transform each value
//   - FlatMap: expand each value into a sub-stream (shard → samples)
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value
//   - Concat: join pipelines sequentially
//   - Shuffle: bounded-buffer local randomization
//   - Mix: interleave independent pipelines by policy
//
// Concurrent (multi-goroutine):
//
//   - Buffer: decouple producer/consumer with a bounded channel
//   - Merge: combine pipelines in arrival order, draining all of them
//   - Parallel: concurrent Map with a worker pool (order NOT preserved)
package pipeline
