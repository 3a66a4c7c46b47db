package solver

import (
	"context"

	"abt/experiments/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "abt/solver"

// searchTracer wraps a search in a span when enabled. The tracer comes from the
// global provider, so nothing is exported until the process installs one.
type searchTracer struct {
	tracer  trace.Tracer
	enabled bool
}

func newSearchTracer(enabled bool) *searchTracer {
	return &searchTracer{
		tracer:  otel.Tracer(tracerName),
		enabled: enabled,
	}
}

func (t *searchTracer) startSearch(ctx context.Context, s *Solver) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "abt.search",
		trace.WithAttributes(
			attribute.Int("abt.goroutines", s.goroutines),
			attribute.Int("abt.episodes", s.episodes),
			attribute.String("abt.duration", s.duration.String()),
			attribute.Int("abt.max_depth", s.maxDepth),
			attribute.Float64("abt.discount_factor", s.discountFactor),
		),
	)
}

func (t *searchTracer) endSearch(span trace.Span, metric metrics.SearchMetric, treeSize int64, err error) {
	defer span.End()
	span.SetAttributes(
		attribute.Int("abt.episodes_run", metric.Episodes),
		attribute.Int("abt.nodes_created", metric.Nodes),
		attribute.Int64("abt.tree_size", treeSize),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
