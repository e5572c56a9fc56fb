// Package tarshard reads tar-format shard archives into key-grouped
// samples.
//
// Entries stream in archive order; consecutive entries whose names share
// the portion before the first dot form one sample.Sample, with the
// remainder of the name as the field name. The reader holds at most one
// in-progress sample, so shards of any size stream in constant memory.
//
// Closing the reader closes the underlying stream. Reaching the end of
// the archive does the same, and any close error (a nonzero exit from a
// pipe-backed stream, say) surfaces from the final Next call so a failed
// retrieval cannot pass for an empty shard.
package tarshard
