package dataset

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shardstream/shardstream/pipeline"
	"github.com/shardstream/shardstream/sample"
)

const tracerName = "github.com/shardstream/shardstream/dataset"

// startShardSpan opens a span covering one shard traversal, from open to
// stream close.
func startShardSpan(ctx context.Context, ref string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "dataset.ReadShard",
		trace.WithAttributes(attribute.String("shard.ref", ref)),
	)
}

func endShardSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// tracedIter ties a shard span's lifetime to the shard iterator's.
type tracedIter struct {
	inner pipeline.Iterator[sample.Sample]
	span  trace.Span
	count int64
}

func (it *tracedIter) Next(ctx context.Context) (sample.Sample, bool, error) {
	s, ok, err := it.inner.Next(ctx)
	if err != nil {
		it.span.RecordError(err)
		it.span.SetStatus(codes.Error, err.Error())
	}
	if ok {
		it.count++
	}
	return s, ok, err
}

func (it *tracedIter) Close() error {
	err := it.inner.Close()
	it.span.SetAttributes(attribute.Int64("shard.samples", it.count))
	endShardSpan(it.span, err)
	return err
}
