// Package otel holds the span helpers and attribute keys shared by the synchronizer.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys recorded on synchronizer spans
const (
	AttrResourceID    = attribute.Key("resource.id")
	AttrResourceCount = attribute.Key("resource.count")
	AttrPlaybackTime  = attribute.Key("playback.time")
	AttrPlaybackRate  = attribute.Key("playback.rate")
	AttrSyncRound     = attribute.Key("sync.round")
	AttrSyncOutcome   = attribute.Key("sync.outcome")
)

// Values of AttrSyncOutcome
const (
	OutcomeCompleted = "completed"
	OutcomeAbandoned = "abandoned"
)

// StartSpan starts a span on tracer. With a nil tracer it returns the span
// already carried by ctx, a no-op span when there is none.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// EndWithOutcome records outcome on span and ends it. A nil span is ignored.
func EndWithOutcome(span trace.Span, outcome string) {
	if span == nil {
		return
	}
	span.SetAttributes(AttrSyncOutcome.String(outcome))
	span.End()
}

// RecordError attaches err to span as an event and marks the span failed.
// The status description stays generic. Nil spans and nil errors are ignored.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "operation failed")
}
