package server

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/insightlink-dev/insightlink/pkg/server"

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// startRunSpan opens the span covering one Start..Stop run.
func startRunSpan(ctx context.Context, tracer trace.Tracer, runID string, p Profile, addr string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "insightlink.session",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("insightlink.run_id", runID),
			attribute.String("insightlink.profile", p.Key),
			attribute.Int("insightlink.quality", p.Quality),
			attribute.String("net.host.addr", addr),
		),
	)
}

// startStreamSpan opens the span covering one viewer's stream.
func startStreamSpan(ctx context.Context, tracer trace.Tracer, addr string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "insightlink.stream",
		trace.WithAttributes(attribute.String("net.peer.addr", addr)),
	)
}

// endSpan records err (if any) and the frame count, then ends the span.
func endSpan(span trace.Span, frames int64, err error) {
	span.SetAttributes(attribute.Int64("insightlink.frames", frames))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
