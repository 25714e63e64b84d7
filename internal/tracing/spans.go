package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartGetSpan creates the root span for one Engine.Get call.
func StartGetSpan(ctx context.Context, fingerprint, hostID, pathID string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "engine.get",
		trace.WithAttributes(
			attribute.String("cache.fingerprint", fingerprint),
			attribute.String("cache.host_id", hostID),
			attribute.String("cache.path_id", pathID),
		),
	)
}

// StartTierSpan creates a child span around a suspending tier lookup or
// write (L1, L2) so its latency shows up independent of the origin fetch.
func StartTierSpan(ctx context.Context, tier, op string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "tier."+tier+"."+op,
		trace.WithAttributes(
			attribute.String("cache.tier", tier),
			attribute.String("cache.op", op),
		),
	)
}

// StartOriginSpan creates a child span for the (possibly single-flighted)
// origin fetch.
func StartOriginSpan(ctx context.Context, shared bool) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "origin.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.Bool("origin.single_flight_shared", shared)),
	)
}

// StartSecretSpan creates a child span around a secret store lookup used to
// resolve or refresh a cipher key.
func StartSecretSpan(ctx context.Context, keyRef string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "secret.resolve",
		trace.WithAttributes(attribute.String("secret.key_ref", keyRef)),
	)
}

// SetResultAttributes records the outcome of a Get call on the current span.
func SetResultAttributes(ctx context.Context, source string, statusCode string, bodyLen int) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("cache.source", source),
		attribute.String("cache.status_code", statusCode),
		attribute.Int("cache.body_len", bodyLen),
	)
}

// RecordError records an error on the current span.
func RecordError(ctx context.Context, err error) {
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
	}
}
