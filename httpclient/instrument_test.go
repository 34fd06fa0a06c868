package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/restverb/logger"
	"github.com/kbukum/restverb/observability"
	"github.com/kbukum/restverb/resttest"
)

func newRecordingProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, sr
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestSpans(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	ctx := context.Background()

	ok := newExec(resttest.Respond(http.StatusOK, `{"id":1,"name":"x"}`), WithTracerProvider(tp), WithName("items-api"))
	if _, err := Get[resttest.Item](ctx, ok, "/items/1"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	failing := newExec(resttest.Respond(http.StatusInternalServerError, `{"error":"boom"}`), WithTracerProvider(tp))
	_ = failing.Delete(ctx, "/items/1")

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}

	first := spans[0]
	if first.Name() != observability.SpanHTTPRequest {
		t.Errorf("unexpected span name %q", first.Name())
	}
	if first.SpanKind() != trace.SpanKindClient {
		t.Errorf("expected client span, got %v", first.SpanKind())
	}
	if got := spanAttr(first, observability.AttrStatusCode).AsInt64(); got != http.StatusOK {
		t.Errorf("expected status attribute 200, got %d", got)
	}
	if got := spanAttr(first, observability.AttrClientName).AsString(); got != "items-api" {
		t.Errorf("expected client attribute, got %q", got)
	}
	if got := spanAttr(first, observability.AttrURL).AsString(); got != testBase+"/items/1" {
		t.Errorf("expected url attribute, got %q", got)
	}
	if first.Status().Code == codes.Error {
		t.Error("successful exchange should not be marked as error")
	}

	second := spans[1]
	if second.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", second.Status())
	}
	if got := spanAttr(second, observability.AttrErrorKind).AsString(); got != string(KindServer) {
		t.Errorf("expected error kind attribute, got %q", got)
	}
}

func TestTraceContextPropagated(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	tp, sr := newRecordingProvider(t)
	tr := resttest.Respond(http.StatusNoContent, ``)
	e := newExec(tr, WithTracerProvider(tp))

	if err := e.Delete(context.Background(), "/items/1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	header := tr.LastRequest().Header.Get("Traceparent")
	if header == "" {
		t.Fatal("expected traceparent header")
	}
	span := sr.Ended()[0]
	if !strings.Contains(header, span.SpanContext().TraceID().String()) {
		t.Errorf("traceparent %q does not carry trace id %s", header, span.SpanContext().TraceID())
	}
}

func TestMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	e := newExec(resttest.Respond(http.StatusNotFound, `{"error":"not found"}`), WithMetrics(metrics), WithName("items-api"))
	_, _ = Get[resttest.Item](context.Background(), e, "/items/9")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatal(err)
	}

	counts := map[string]int64{}
	attrs := map[string]attribute.Set{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok && len(sum.DataPoints) > 0 {
				counts[m.Name] = sum.DataPoints[0].Value
				attrs[m.Name] = sum.DataPoints[0].Attributes
			}
		}
	}

	if counts[observability.MetricRequestTotal] != 1 {
		t.Errorf("expected one exchange recorded, got %d", counts[observability.MetricRequestTotal])
	}
	reqAttrs := attrs[observability.MetricRequestTotal]
	if v, _ := reqAttrs.Value("status"); v.AsString() != "404" {
		t.Errorf("expected status=404, got %q", v.AsString())
	}
	if counts[observability.MetricErrorTotal] != 1 {
		t.Errorf("expected one error recorded, got %d", counts[observability.MetricErrorTotal])
	}
	errAttrs := attrs[observability.MetricErrorTotal]
	if v, _ := errAttrs.Value("kind"); v.AsString() != string(KindClient) {
		t.Errorf("expected kind=client, got %q", v.AsString())
	}
	if counts[observability.MetricRequestActive] != 0 {
		t.Errorf("expected no exchanges in flight, got %d", counts[observability.MetricRequestActive])
	}
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line is not JSON: %v (%s)", err, line)
		}
		out = append(out, m)
	}
	return out
}

func TestExchangeLogging(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "debug", Format: "json"}, "test")
	tr := resttest.Respond(http.StatusCreated, `{"id":2,"name":"y"}`)
	e := New(testBase, WithDoer(tr), WithLogger(log), WithBodyLogging(), WithName("items-api"))

	if err := e.Post(context.Background(), "/items", resttest.Item{Name: "y"}); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	l := lines[0]
	if l["level"] != "debug" || l["message"] != "request completed" {
		t.Errorf("unexpected line %v", l)
	}
	if l[logger.FieldMethod] != http.MethodPost || l[logger.FieldStatus] != float64(http.StatusCreated) {
		t.Errorf("expected method and status, got %v", l)
	}
	if l[logger.FieldRequestID] != tr.LastRequest().Header.Get(HeaderRequestID) {
		t.Errorf("expected logged request id to match header, got %v", l[logger.FieldRequestID])
	}
	if l["client"] != "items-api" {
		t.Errorf("expected client field, got %v", l["client"])
	}
	if l["request_body"] != `{"id":0,"name":"y"}` || l[logger.FieldBody] != `{"id":2,"name":"y"}` {
		t.Errorf("expected bodies logged, got %v / %v", l["request_body"], l[logger.FieldBody])
	}
	if _, ok := l[logger.FieldDuration]; !ok {
		t.Error("expected duration field")
	}
}

func TestExchangeLogging_Failure(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, &logger.Config{Level: "info", Format: "json"}, "test")
	e := New(testBase, WithDoer(resttest.Refuse()), WithLogger(log))

	_ = e.Delete(context.Background(), "/items/1")

	lines := logLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d", len(lines))
	}
	l := lines[0]
	if l["level"] != "warn" || l[logger.FieldKind] != string(KindTransport) {
		t.Errorf("unexpected line %v", l)
	}
	if _, ok := l[logger.FieldBody]; ok {
		t.Error("bodies must not be logged unless enabled")
	}
}

type emptyDoer struct{}

func (emptyDoer) Do(*http.Request) (*http.Response, error) { return nil, nil }

func TestDoerWithoutResponse(t *testing.T) {
	tp, sr := newRecordingProvider(t)
	e := New(testBase, WithDoer(emptyDoer{}), WithLogger(logger.Nop()), WithTracerProvider(tp))

	err := e.Delete(context.Background(), "/items/1")
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no response") {
		t.Errorf("expected missing response in error, got %q", err.Error())
	}
	if got := len(sr.Ended()); got != 1 {
		t.Fatalf("expected the span to be ended, got %d ended spans", got)
	}
	if sr.Ended()[0].Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", sr.Ended()[0].Status())
	}
}
