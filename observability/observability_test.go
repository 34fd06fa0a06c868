package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("orders")
	if cfg.ServiceName != "orders" {
		t.Errorf("expected ServiceName 'orders', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 || !cfg.Insecure {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("expected interval 15s, got %v", cfg.MetricInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing service", func(c *Config) { c.ServiceName = "" }, "service_name"},
		{"missing endpoint", func(c *Config) { c.Endpoint = "" }, "endpoint"},
		{"bad rate", func(c *Config) { c.SampleRate = 1.5 }, "sample_rate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig("orders")
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("expected error containing %q, got %v", tc.errMsg, err)
			}
		})
	}
}

func TestInitTracer_InvalidConfig(t *testing.T) {
	if _, err := InitTracer(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty config")
	}
	if _, err := InitMeter(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty config")
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "orders", ServiceVersion: "1.2.0", Environment: "staging"})
	if err != nil {
		t.Fatalf("newResource() error = %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got[AttrServiceName] != "orders" {
		t.Errorf("expected service.name=orders, got %q", got[AttrServiceName])
	}
	if got[AttrEnvironment] != "staging" {
		t.Errorf("expected environment=staging, got %q", got[AttrEnvironment])
	}
}

func TestSampler(t *testing.T) {
	if sampler(1).Description() != sdktrace.AlwaysSample().Description() {
		t.Error("expected always-on sampler at rate 1")
	}
	if sampler(0).Description() != sdktrace.NeverSample().Description() {
		t.Error("expected always-off sampler at rate 0")
	}
	if !strings.Contains(sampler(0.5).Description(), "TraceIDRatioBased") {
		t.Errorf("expected ratio sampler, got %s", sampler(0.5).Description())
	}
}

func TestTracer(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := Tracer(tp).Start(context.Background(), SpanHTTPRequest)
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != SpanHTTPRequest {
		t.Errorf("unexpected span name %q", ended[0].Name())
	}
	if ended[0].InstrumentationScope().Name != InstrumentationName {
		t.Errorf("unexpected scope %q", ended[0].InstrumentationScope().Name)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "items-api", "GET", 200, 100*time.Millisecond)
	metrics.RecordError(ctx, "items-api", "client")
}

func TestMetrics_Recorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	ctx := context.Background()
	metrics.RecordRequestStart(ctx)
	metrics.RecordRequestEnd(ctx, "items-api", "POST", 201, 20*time.Millisecond)
	metrics.RecordError(ctx, "items-api", "server")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	found := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}

	total, ok := found[MetricRequestTotal].Data.(metricdata.Sum[int64])
	if !ok || len(total.DataPoints) != 1 {
		t.Fatalf("expected one request.total data point, got %+v", found[MetricRequestTotal])
	}
	dp := total.DataPoints[0]
	if dp.Value != 1 {
		t.Errorf("expected count 1, got %d", dp.Value)
	}
	if v, _ := dp.Attributes.Value(attribute.Key("status")); v.AsString() != "201" {
		t.Errorf("expected status=201, got %q", v.AsString())
	}

	active, ok := found[MetricRequestActive].Data.(metricdata.Sum[int64])
	if !ok || len(active.DataPoints) != 1 || active.DataPoints[0].Value != 0 {
		t.Errorf("expected active back to 0, got %+v", found[MetricRequestActive].Data)
	}

	errs, ok := found[MetricErrorTotal].Data.(metricdata.Sum[int64])
	if !ok || len(errs.DataPoints) != 1 {
		t.Fatalf("expected one error.total data point")
	}
	if v, _ := errs.DataPoints[0].Attributes.Value(attribute.Key("kind")); v.AsString() != "server" {
		t.Errorf("expected kind=server, got %q", v.AsString())
	}
}
