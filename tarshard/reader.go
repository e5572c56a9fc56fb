package tarshard

import (
	"archive/tar"
	"context"
	"io"
	"strings"

	"github.com/shardstream/shardstream/errors"
	"github.com/shardstream/shardstream/logger"
	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
)

// Option configures a shard reader.
type Option func(*reader)

// WithLogger sets the reader's logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *reader) { r.log = l }
}

// WithShard tags the reader's log output and errors with the shard's
// reference, for attribution when many shards stream concurrently.
func WithShard(name string) Option {
	return func(r *reader) { r.shard = name }
}

// NewReader returns an iterator over the samples of one tar shard. The
// reader takes ownership of stream and closes it when the archive is
// exhausted or the iterator is closed, whichever comes first.
func NewReader(stream io.ReadCloser, opts ...Option) pipeline.Iterator[sample.Sample] {
	r := &reader{
		stream: stream,
		tr:     tar.NewReader(stream),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type reader struct {
	stream io.ReadCloser
	tr     *tar.Reader
	log    *logger.Logger
	shard  string

	pending *sample.Sample
	done    bool
	closed  bool
	// finErr is the stream's close error, held back until the final
	// pending sample has been flushed.
	finErr error
}

func (r *reader) Next(ctx context.Context) (sample.Sample, bool, error) {
	var zero sample.Sample
	for {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		if r.done {
			if r.pending != nil {
				out := *r.pending
				r.pending = nil
				return out, true, nil
			}
			err := r.finErr
			r.finErr = nil
			return zero, false, err
		}

		hdr, err := r.tr.Next()
		if err == io.EOF {
			r.done = true
			r.finErr = r.closeStream()
			continue
		}
		if err != nil {
			r.closeStream()
			r.done = true
			r.pending = nil
			return zero, false, errors.MalformedEntry(r.shard, err.Error())
		}

		if hdr.Typeflag != tar.TypeReg {
			r.skip(hdr.Name, "not a regular file")
			continue
		}
		key, field, ok := splitName(hdr.Name)
		if !ok {
			r.skip(hdr.Name, "no key/field separator")
			continue
		}
		data, err := io.ReadAll(r.tr)
		if err != nil {
			r.closeStream()
			r.done = true
			r.pending = nil
			return zero, false, errors.MalformedEntry(hdr.Name, err.Error())
		}

		if r.pending != nil && r.pending.Key != key {
			out := *r.pending
			next := sample.New(key)
			next.Fields[field] = data
			r.pending = &next
			return out, true, nil
		}
		if r.pending == nil {
			next := sample.New(key)
			r.pending = &next
		} else if _, dup := r.pending.Fields[field]; dup {
			r.log.Warn("duplicate field in sample, keeping last", logger.Fields(
				logger.FieldShard, r.shard,
				logger.FieldKey, key,
				logger.FieldField, field,
			))
		}
		r.pending.Fields[field] = data
	}
}

func (r *reader) Close() error {
	if r.closed {
		err := r.finErr
		r.finErr = nil
		return err
	}
	return r.closeStream()
}

func (r *reader) closeStream() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.stream.Close()
}

func (r *reader) skip(name, reason string) {
	r.log.Warn("skipping archive entry", logger.Fields(
		logger.FieldShard, r.shard,
		logger.FieldEntry, name,
		logger.FieldError, errors.MalformedEntry(name, reason).Error(),
	))
}

// splitName splits an entry name into sample key and field name at the
// first dot. Names with no dot, or with an empty key or field, cannot be
// grouped.
func splitName(name string) (key, field string, ok bool) {
	name = strings.TrimPrefix(name, "./")
	i := strings.IndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}
