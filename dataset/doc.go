// Package dataset assembles the full shard-streaming pipeline: pattern
// expansion, shard-list iteration, per-shard reading, and the optional
// shuffle, decode, and prefetch stages, behind one Open call.
//
// Open is construction only; no shard is touched until the returned
// pipeline is pulled. Shards stream one at a time by default; prefetch
// opens several concurrently into a bounded queue at the cost of sample
// order. Every run is tagged with a fresh run id in its log fields, and
// shard traversals are wrapped in OpenTelemetry spans (API only; wiring
// an SDK is the host's call).
package dataset
