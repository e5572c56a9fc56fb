package decode

import (
	"context"

	"github.com/shardstream/shardstream/errors"
	"github.com/shardstream/shardstream/logger"
	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
)

// Policy selects what happens to a sample when one of its fields fails
// to decode or decompress.
type Policy int

const (
	// PolicyKeepRaw keeps the failing field's raw bytes and logs a
	// diagnostic. The sample flows on with the rest of its fields decoded.
	PolicyKeepRaw Policy = iota
	// PolicyAbortSample drops the whole sample and logs a diagnostic.
	// The stream continues with the next sample.
	PolicyAbortSample
)

// StageOption configures a decode stage.
type StageOption func(*stageIter)

// WithLogger sets the stage's logger.
func WithLogger(l *logger.Logger) StageOption {
	return func(it *stageIter) { it.log = l }
}

// Stage returns a pipeline stage that decompresses and decodes every
// raw field of each sample through reg. The sample key is metadata, not
// a field, and is never decoded.
func Stage(reg *Registry, policy Policy, opts ...StageOption) func(*pipeline.Pipeline[sample.Sample]) *pipeline.Pipeline[sample.Sample] {
	return func(p *pipeline.Pipeline[sample.Sample]) *pipeline.Pipeline[sample.Sample] {
		return pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[sample.Sample] {
			it := &stageIter{
				source: p.Iter(ctx),
				reg:    reg,
				policy: policy,
				log:    logger.Nop(),
			}
			for _, opt := range opts {
				opt(it)
			}
			return it
		})
	}
}

type stageIter struct {
	source pipeline.Iterator[sample.Sample]
	reg    *Registry
	policy Policy
	log    *logger.Logger
}

func (it *stageIter) Next(ctx context.Context) (sample.Sample, bool, error) {
	for {
		s, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return s, ok, err
		}
		out, ok := it.decodeSample(s)
		if ok {
			return out, true, nil
		}
		// Sample aborted; pull the next one.
	}
}

func (it *stageIter) Close() error { return it.source.Close() }

// decodeSample decodes every raw field of s into a derived sample. The
// second return is false when the policy aborts the sample.
func (it *stageIter) decodeSample(s sample.Sample) (sample.Sample, bool) {
	out := sample.New(s.Key)
	for _, field := range s.FieldNames() {
		raw, isRaw := s.Bytes(field)
		if !isRaw {
			// Already decoded upstream; pass through.
			out.Fields[field], _ = s.Value(field)
			continue
		}
		name, payload, err := Decompress(field, raw)
		if err == nil {
			var v any
			var matched bool
			v, matched, err = it.reg.Decode(name, payload)
			if err == nil {
				if matched {
					out.Fields[name] = v
				} else {
					out.Fields[name] = payload
				}
				continue
			}
		}

		it.log.Warn("field decode failed", logger.Fields(
			logger.FieldKey, s.Key,
			logger.FieldField, field,
			logger.FieldError, errors.DecodeFailure(field, err).Error(),
		))
		if it.policy == PolicyAbortSample {
			return sample.Sample{}, false
		}
		out.Fields[field] = raw
	}
	return out, true
}
