package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	apperrors "github.com/kbukum/restverb/errors"
)

// Kind classifies an executor failure.
type Kind string

const (
	// KindTransport means no response was obtained: the request could not
	// be built, sent or read, or the context ended.
	KindTransport Kind = "transport"
	// KindPayload means the payload failed local validation or encoding.
	// Nothing was sent.
	KindPayload Kind = "payload"
	// KindClient is a 4xx response.
	KindClient Kind = "client"
	// KindServer is a 5xx response.
	KindServer Kind = "server"
	// KindUnexpected is any other status the call did not accept.
	KindUnexpected Kind = "unexpected"
	// KindDecode means a success body did not decode into the target.
	KindDecode Kind = "decode"
)

// maxBodyInMessage bounds how much of a response body Error() repeats.
const maxBodyInMessage = 512

// Error is returned by every failed executor call.
type Error struct {
	// Kind classifies the failure.
	Kind Kind
	// Client is the executor name.
	Client string
	// Method and URL identify the originating request.
	Method string
	URL    string
	// StatusCode is the HTTP status code (0 when no response was received).
	StatusCode int
	// Body is the raw response body, if any.
	Body []byte
	// Payload is the error body decoded by the ErrorDecoder (4xx/5xx only).
	Payload any
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "httpclient: %s %s: %s", e.Method, e.URL, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if body := strings.TrimSpace(string(e.Body)); body != "" {
		if len(body) > maxBodyInMessage {
			n := maxBodyInMessage
			for n > 0 && !utf8.RuneStart(body[n]) {
				n--
			}
			body = body[:n] + "..."
		}
		b.WriteString(": ")
		b.WriteString(body)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// AppError maps the failure onto the application error taxonomy, for
// services that surface upstream failures to their own callers.
func (e *Error) AppError() *apperrors.AppError {
	service := e.Client
	if service == "" {
		service = e.URL
	}

	var app *apperrors.AppError
	switch e.Kind {
	case KindTransport:
		if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, context.Canceled) {
			app = apperrors.Timeout(e.Method + " " + e.URL)
		} else {
			app = apperrors.ConnectionFailed(service)
		}
	case KindPayload:
		if ae, ok := apperrors.AsAppError(e.Err); ok {
			return ae
		}
		app = apperrors.InvalidInput("payload", errString(e.Err))
	case KindClient:
		app = clientAppError(e.StatusCode, service)
	case KindServer:
		if e.StatusCode == http.StatusServiceUnavailable {
			app = apperrors.ServiceUnavailable(service)
		} else {
			app = apperrors.ExternalServiceError(service, nil)
		}
	default:
		app = apperrors.ExternalServiceError(service, nil)
	}

	app.WithDetail("url", e.URL).WithCause(e)
	if e.StatusCode != 0 {
		app.WithDetail("upstream_status", e.StatusCode)
	}
	return app
}

func clientAppError(status int, service string) *apperrors.AppError {
	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound("resource", "")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperrors.Validation(fmt.Sprintf("The %s rejected the request.", service))
	case http.StatusUnauthorized:
		return apperrors.Unauthorized("")
	case http.StatusForbidden:
		return apperrors.Forbidden("")
	case http.StatusConflict:
		return apperrors.Conflict(fmt.Sprintf("The %s reported a conflict.", service))
	case http.StatusTooManyRequests:
		return apperrors.RateLimited()
	default:
		return apperrors.ExternalServiceError(service, nil)
	}
}

func errString(err error) string {
	if err == nil {
		return "invalid payload"
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

func isKind(err error, kind Kind) bool {
	e, ok := asError(err)
	return ok && e.Kind == kind
}

// IsTransport reports whether no response was obtained.
func IsTransport(err error) bool { return isKind(err, KindTransport) }

// IsPayload reports whether the payload was rejected before sending.
func IsPayload(err error) bool { return isKind(err, KindPayload) }

// IsClientError reports whether the server answered with a 4xx status.
func IsClientError(err error) bool { return isKind(err, KindClient) }

// IsServerError reports whether the server answered with a 5xx status.
func IsServerError(err error) bool { return isKind(err, KindServer) }

// IsUnexpected reports whether the status was neither accepted nor 4xx/5xx.
func IsUnexpected(err error) bool { return isKind(err, KindUnexpected) }

// IsDecode reports whether a success body could not be decoded.
func IsDecode(err error) bool { return isKind(err, KindDecode) }

// IsNotFound reports whether the server answered 404.
func IsNotFound(err error) bool {
	e, ok := asError(err)
	return ok && e.Kind == KindClient && e.StatusCode == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if e, ok := asError(err); ok {
		return e.StatusCode
	}
	return 0
}

// ErrorPayload returns the decoded error body carried by err when it has
// type E. Pair it with DecodeErrorAs[E].
func ErrorPayload[E any](err error) (E, bool) {
	var zero E
	e, ok := asError(err)
	if !ok || e.Payload == nil {
		return zero, false
	}
	v, ok := e.Payload.(E)
	return v, ok
}
