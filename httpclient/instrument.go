package httpclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/restverb/logger"
	"github.com/kbukum/restverb/observability"
)

// exchangeScope carries the span, timing and log context of one exchange.
type exchangeScope struct {
	e         *Executor
	ctx       context.Context
	span      trace.Span
	method    string
	url       string
	requestID string
	reqBody   []byte
	start     time.Time
}

func (e *Executor) begin(ctx context.Context, method, url, reqID string, body []byte) *exchangeScope {
	ctx, span := e.tracer.Start(ctx, observability.SpanHTTPRequest,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(observability.AttrClientName, e.name),
			attribute.String(observability.AttrHTTPMethod, method),
			attribute.String(observability.AttrURL, url),
			attribute.String(observability.AttrRequestID, reqID),
		),
	)
	if e.metrics != nil {
		e.metrics.RecordRequestStart(ctx)
	}
	return &exchangeScope{
		e:         e,
		ctx:       ctx,
		span:      span,
		method:    method,
		url:       url,
		requestID: reqID,
		reqBody:   body,
		start:     time.Now(),
	}
}

// end finishes the span, logs the exchange and records metrics. status is 0
// when no response was received.
func (x *exchangeScope) end(status int, respBody []byte, err error) {
	e := x.e
	duration := time.Since(x.start)
	defer x.span.End()

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldMethod, x.method,
		logger.FieldURL, x.url,
		logger.FieldStatus, status,
		logger.FieldRequestID, x.requestID,
	), duration)
	if e.logBodies {
		if x.reqBody != nil {
			fields["request_body"] = string(x.reqBody)
		}
		fields[logger.FieldBody] = string(respBody)
	}
	if status != 0 {
		x.span.SetAttributes(attribute.Int(observability.AttrStatusCode, status))
	}

	log := e.log.WithContext(x.ctx)
	if err != nil {
		kind := string(kindOf(err))
		x.span.RecordError(err)
		x.span.SetStatus(codes.Error, kind)
		x.span.SetAttributes(attribute.String(observability.AttrErrorKind, kind))
		fields[logger.FieldKind] = kind
		fields[logger.FieldError] = err.Error()
		log.Warn("request failed", fields)
	} else {
		log.Debug("request completed", fields)
	}

	if e.metrics != nil {
		e.metrics.RecordRequestEnd(x.ctx, e.name, x.method, status, duration)
		if err != nil {
			e.metrics.RecordError(x.ctx, e.name, string(kindOf(err)))
		}
	}
}

// fail logs and counts a failure that happened outside an exchange, such
// as a rejected payload or an undecodable success body.
func (e *Executor) fail(ctx context.Context, err *Error) error {
	err.Client = e.name
	e.log.WithContext(ctx).Warn("request failed", logger.Fields(
		logger.FieldMethod, err.Method,
		logger.FieldURL, err.URL,
		logger.FieldStatus, err.StatusCode,
		logger.FieldKind, string(err.Kind),
		logger.FieldError, err.Error(),
	))
	if e.metrics != nil {
		e.metrics.RecordError(ctx, e.name, string(err.Kind))
	}
	return err
}

func kindOf(err error) Kind {
	if e, ok := asError(err); ok {
		return e.Kind
	}
	return KindTransport
}
