// Package sample defines the record type flowing through shardstream
// pipelines: a set of named fields sharing one key within a shard.
package sample

import "sort"

// Sample is one key-grouped record from a shard. Key is the shared
// basename of the archive entries that formed it (the characters before
// the first dot); field names are the extension suffixes after that dot
// (`jpg`, `left.png`, `json`). Raw fields hold []byte; the decode stage
// replaces values with their decoded forms in place of the bytes.
//
// A Sample is treated as immutable once produced by a shard reader.
// Stages derive new Samples with Clone/WithField rather than mutating
// upstream state; the Key must be preserved through every stage.
type Sample struct {
	Key    string
	Fields map[string]any
}

// New creates an empty sample with the given key.
func New(key string) Sample {
	return Sample{Key: key, Fields: make(map[string]any)}
}

// Bytes returns the raw byte content of a field, if the field exists and
// has not been decoded yet.
func (s Sample) Bytes(field string) ([]byte, bool) {
	v, ok := s.Fields[field]
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

// Value returns a field's value (raw or decoded).
func (s Sample) Value(field string) (any, bool) {
	v, ok := s.Fields[field]
	return v, ok
}

// Has reports whether the sample carries the named field.
func (s Sample) Has(field string) bool {
	_, ok := s.Fields[field]
	return ok
}

// Len returns the number of fields.
func (s Sample) Len() int {
	return len(s.Fields)
}

// FieldNames returns the sample's field names in sorted order. Insertion
// order within a sample carries no meaning.
func (s Sample) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for name := range s.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a sample with the same key and a fresh field map. Field
// values are shared, not deep-copied; stages replace values, they do not
// mutate them.
func (s Sample) Clone() Sample {
	out := Sample{Key: s.Key, Fields: make(map[string]any, len(s.Fields))}
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	return out
}

// WithField returns a clone with one field set (added or replaced).
func (s Sample) WithField(name string, value any) Sample {
	out := s.Clone()
	out.Fields[name] = value
	return out
}

// WithoutField returns a clone with one field removed.
func (s Sample) WithoutField(name string) Sample {
	out := s.Clone()
	delete(out.Fields, name)
	return out
}
