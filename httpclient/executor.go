package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/restverb/logger"
	"github.com/kbukum/restverb/observability"
	"github.com/kbukum/restverb/validation"
	"github.com/kbukum/restverb/version"
)

// HeaderRequestID carries the per-call request id.
const HeaderRequestID = "X-Request-Id"

// Executor performs REST verb exchanges against one base URL. It is
// immutable after construction and safe for concurrent use when its Doer is.
type Executor struct {
	name             string
	baseURL          string
	doer             Doer
	codec            Codec
	decodeError      ErrorDecoder
	log              *logger.Logger
	tracer           trace.Tracer
	metrics          *observability.Metrics
	headers          map[string]string
	expect           map[string][]int
	validatePayloads bool
	logBodies        bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithDoer replaces the transport.
func WithDoer(d Doer) Option {
	return func(e *Executor) { e.doer = d }
}

// WithCodec replaces the payload and body codec.
func WithCodec(c Codec) Option {
	return func(e *Executor) { e.codec = c }
}

// WithErrorDecoder sets how 4xx/5xx bodies are decoded.
func WithErrorDecoder(d ErrorDecoder) Option {
	return func(e *Executor) { e.decodeError = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) { e.tracer = observability.Tracer(tp) }
}

// WithMetrics records every exchange on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

// WithHeader adds a default header sent on every call.
func WithHeader(key, value string) Option {
	return func(e *Executor) { e.headers[key] = value }
}

// WithSuccessStatus replaces the accepted status codes for a method.
func WithSuccessStatus(method string, codes ...int) Option {
	return func(e *Executor) { e.expect[method] = slices.Clone(codes) }
}

// WithPayloadValidation validates struct payloads before sending.
func WithPayloadValidation() Option {
	return func(e *Executor) { e.validatePayloads = true }
}

// WithBodyLogging includes bodies in debug logs.
func WithBodyLogging() Option {
	return func(e *Executor) { e.logBodies = true }
}

// WithName names the executor in logs, spans, metrics and errors.
func WithName(name string) Option {
	return func(e *Executor) { e.name = name }
}

// New creates an executor for baseURL. The URL is not validated; a malformed
// URL fails each call with a KindTransport error.
func New(baseURL string, opts ...Option) *Executor {
	e := &Executor{
		name:        defaultName,
		baseURL:     baseURL,
		codec:       JSONCodec{},
		decodeError: defaultErrorDecoder,
		headers:     make(map[string]string),
		expect:      maps.Clone(defaultExpect),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.doer == nil {
		e.doer = NewDoer()
	}
	if e.log == nil {
		e.log = logger.Get("httpclient")
	}
	if e.tracer == nil {
		e.tracer = observability.Tracer(nil)
	}
	e.log = e.log.WithFields(logger.Fields("client", e.name))
	return e
}

// NewFromConfig validates cfg and creates an executor from it. Explicit
// opts are applied after the ones derived from cfg.
func NewFromConfig(cfg Config, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return New(cfg.BaseURL, append(cfg.Options(), opts...)...), nil
}

// Name returns the executor name.
func (e *Executor) Name() string { return e.name }

// BaseURL returns the base URL requests are built from.
func (e *Executor) BaseURL() string { return e.baseURL }

// Do performs exactly one exchange. On a status the call does not accept it
// returns the response together with a *Error; on any other failure the
// response is nil.
func (e *Executor) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	url := e.baseURL + req.Path

	body, err := e.encodePayload(req.Payload)
	if err != nil {
		return nil, e.fail(ctx, &Error{Kind: KindPayload, Method: method, URL: url, Err: err})
	}

	x := e.begin(ctx, method, url, requestID(req.Headers), body)
	resp, err := e.exchange(x.ctx, method, url, body, req.Headers, x.requestID)
	if err != nil {
		x.end(0, nil, err)
		return nil, err
	}

	if e.accepts(method, req.Expect, resp.StatusCode) {
		x.end(resp.StatusCode, resp.Body, nil)
		return resp, nil
	}

	apiErr := e.statusError(method, url, resp)
	x.end(resp.StatusCode, resp.Body, apiErr)
	return resp, apiErr
}

// encodePayload validates and encodes a payload. A nil payload means no body.
func (e *Executor) encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return nil, nil
	}
	if e.validatePayloads && validation.IsStruct(payload) {
		if err := validation.Validate(payload); err != nil {
			return nil, err
		}
	}
	data, err := e.codec.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// exchange sends the request and reads the response. The response body is
// closed exactly once on every path.
func (e *Executor) exchange(ctx context.Context, method, url string, body []byte, headers map[string]string, reqID string) (*Response, error) {
	transportErr := func(err error) error {
		return &Error{Kind: KindTransport, Client: e.name, Method: method, URL: url, Err: err}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, transportErr(fmt.Errorf("build request: %w", err))
	}
	e.setHeaders(ctx, httpReq, headers, body != nil, reqID)

	if err := ctx.Err(); err != nil {
		return nil, transportErr(err)
	}

	resp, err := e.doer.Do(httpReq)
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return nil, transportErr(err)
	}
	if resp == nil {
		return nil, transportErr(errors.New("doer returned no response"))
	}

	var data []byte
	if resp.Body != nil {
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, transportErr(fmt.Errorf("read response body: %w", err))
		}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       data,
	}, nil
}

func (e *Executor) setHeaders(ctx context.Context, r *http.Request, headers map[string]string, hasBody bool, reqID string) {
	r.Header.Set("Accept", e.codec.ContentType())
	r.Header.Set("User-Agent", version.UserAgent())
	for k, v := range e.headers {
		r.Header.Set(k, v)
	}
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	if hasBody && r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", e.codec.ContentType())
	}
	r.Header.Set(HeaderRequestID, reqID)
	observability.Propagator().Inject(ctx, propagation.HeaderCarrier(r.Header))
}

func (e *Executor) accepts(method string, expect []int, status int) bool {
	if len(expect) == 0 {
		var ok bool
		if expect, ok = e.expect[method]; !ok {
			return status >= 200 && status < 300
		}
	}
	return slices.Contains(expect, status)
}

// statusError classifies a response whose status the call did not accept.
func (e *Executor) statusError(method, url string, resp *Response) *Error {
	apiErr := &Error{
		Client:     e.name,
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		apiErr.Kind = KindClient
	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		apiErr.Kind = KindServer
	default:
		apiErr.Kind = KindUnexpected
		return apiErr
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return apiErr
	}
	payload, err := e.decodeError(e.codec, resp.Body)
	if err != nil {
		apiErr.Err = err
		return apiErr
	}
	apiErr.Payload = payload
	return apiErr
}

// decode decodes a success body into out. An empty body leaves out untouched.
func (e *Executor) decode(ctx context.Context, method, url string, resp *Response, out any) error {
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := e.codec.Unmarshal(resp.Body, out); err != nil {
		return e.fail(ctx, &Error{
			Kind:       KindDecode,
			Client:     e.name,
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
			Err:        err,
		})
	}
	return nil
}

// requestID returns the caller's request id, or a new one.
func requestID(headers map[string]string) string {
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == HeaderRequestID && v != "" {
			return v
		}
	}
	return uuid.NewString()
}
