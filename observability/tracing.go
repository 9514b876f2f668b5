package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/meshchat/roomlog"

// Tracer provides OpenTelemetry tracing for roomlog.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new roomlog tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartPruneSpan starts a new span for a prune run over one room.
func (t *Tracer) StartPruneSpan(ctx context.Context, roomID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "roomlog.prune",
		trace.WithAttributes(
			attribute.String("roomlog.room_id", roomID),
		),
	)
}

// EndPruneSpan ends a prune span with result attributes.
func (t *Tracer) EndPruneSpan(span trace.Span, matched, redacted, failed int) {
	span.SetAttributes(
		attribute.Int("roomlog.matched", matched),
		attribute.Int("roomlog.redacted", redacted),
		attribute.Int("roomlog.failed", failed),
	)
	span.End()
}
