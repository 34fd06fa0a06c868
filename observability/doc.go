// Package observability wires OpenTelemetry tracing and metrics for
// restverb executors.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultConfig("orders"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultConfig("orders"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("orders"))
//	exec := httpclient.New(base, httpclient.WithMetrics(metrics))
//
// Both exporters speak OTLP over HTTP.
package observability
