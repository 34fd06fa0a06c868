package httpclient

import "net/http"

// Request describes one exchange.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string
	// Path is appended verbatim to the executor's base URL.
	Path string
	// Payload is encoded with the executor's Codec. Nil sends no body.
	Payload any
	// Headers are request-specific headers, applied over the defaults.
	Headers map[string]string
	// Expect lists the accepted status codes. Empty uses the method default.
	Expect []int
}

// Response is the raw result of an exchange.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// RequestOption configures a single call.
type RequestOption func(*Request)

// WithRequestHeader sets a header on one call.
func WithRequestHeader(key, value string) RequestOption {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// WithExpect overrides the accepted status codes for one call.
func WithExpect(codes ...int) RequestOption {
	return func(r *Request) { r.Expect = codes }
}

// defaultExpect holds the success status of each verb.
var defaultExpect = map[string][]int{
	http.MethodGet:    {http.StatusOK},
	http.MethodPost:   {http.StatusCreated},
	http.MethodPut:    {http.StatusNoContent},
	http.MethodDelete: {http.StatusNoContent},
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
