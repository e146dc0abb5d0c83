// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Tracing:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("watershed"))
//	metrics.RecordStage(ctx, "fill", "ok", duration)
//
// Exporters are only installed by the Telemetry component when enabled.
// Otherwise the global no-op providers make every call free.
package observability
