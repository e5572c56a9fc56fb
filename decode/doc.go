// Package decode turns raw sample fields into usable values.
//
// Decoding is rule-driven: a Registry holds an ordered list of
// (predicate, transform) rules, tried in registration order with first
// match winning; fields no rule matches pass through as raw bytes.
// Registries are plain per-session values, never process-wide state:
// construct one, register rules, hand it to Stage.
//
// Compression is handled before rule dispatch. A field name ending in a
// known compression extension (.gz, .zst, .lz4) is decompressed and the
// suffix stripped, so rules only ever see uncompressed payloads and
// `foo.json.gz` is indistinguishable from `foo.json` downstream.
package decode
