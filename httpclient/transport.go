package httpclient

import "net/http"

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewTransport returns the executor's default transport: one connection per
// exchange, no proxy, no transparent compression.
func NewTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DisableKeepAlives = true
	t.DisableCompression = true
	t.Proxy = nil
	return t
}

// NewDoer returns the default Doer. Redirects are not followed; a 3xx
// response is handed back to the executor as-is.
func NewDoer() *http.Client {
	return &http.Client{
		Transport: NewTransport(),
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
