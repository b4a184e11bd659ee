// Package observability provides OpenTelemetry tracing and metrics integration
// for the request layer.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("objfetch"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanAttempt)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("objfetch"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("objfetch"))
//	metrics.RecordAttempt(ctx, resp.StatusCode, anonymous, responseWait)
package observability
