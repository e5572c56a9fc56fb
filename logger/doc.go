// Package logger wraps zerolog with structured, component-tagged logging
// for the shardstream library. Every skipped entry, dropped field, and
// recovered shard failure is logged here; no diagnostic is silently
// swallowed.
package logger
