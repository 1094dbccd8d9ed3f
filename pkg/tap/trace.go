package tap

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "rivulet-tap"

// startConnSpan opens a span covering one websocket subscription.
func (s *Server) startConnSpan(ctx context.Context, stream, remote string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "tap.subscribe",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("tap.stream", stream),
			attribute.String("net.peer", remote),
		),
	)
}

// endConnSpan closes the span, recording how the subscription ended.
func endConnSpan(span trace.Span, frames int64, err error) {
	span.SetAttributes(attribute.Int64("tap.frames_sent", frames))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func resolveTracer(name string) trace.Tracer {
	if name == "" {
		name = defaultTracerName
	}
	return otel.Tracer(name)
}
