package resttest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"syscall"
)

// Handler produces the outcome of one exchange.
type Handler func(req *http.Request) (*http.Response, error)

// Transport is an in-memory Doer. It counts exchanges and how many times
// each response body is closed.
type Transport struct {
	mu       sync.Mutex
	handler  Handler
	requests []*http.Request
	payloads [][]byte
	bodies   []*Body
}

// NewTransport returns a Transport that answers with h.
func NewTransport(h Handler) *Transport {
	return &Transport{handler: h}
}

// Respond returns a Transport that answers every request with status and a
// JSON body.
func Respond(status int, body string) *Transport {
	return NewTransport(func(req *http.Request) (*http.Response, error) {
		return NewResponse(req, status, body), nil
	})
}

// Refuse returns a Transport that fails every request as a refused
// connection.
func Refuse() *Transport {
	return NewTransport(func(*http.Request) (*http.Response, error) {
		return nil, ConnectionRefused()
	})
}

// RespondAndFail returns a Transport that hands back both a response and
// an error, which a Doer is allowed to do.
func RespondAndFail(status int, body string, err error) *Transport {
	return NewTransport(func(req *http.Request) (*http.Response, error) {
		return NewResponse(req, status, body), err
	})
}

// FailRead returns a Transport whose response bodies fail on Read.
func FailRead(status int, err error) *Transport {
	return NewTransport(func(req *http.Request) (*http.Response, error) {
		resp := NewResponse(req, status, "")
		resp.Body.(*Body).readErr = err
		return resp, nil
	})
}

// ConnectionRefused returns the error a dialer reports for ECONNREFUSED.
func ConnectionRefused() error {
	return &net.OpError{
		Op:  "dial",
		Net: "tcp",
		Err: os.NewSyscallError("connect", syscall.ECONNREFUSED),
	}
}

// NewResponse builds a response with a JSON content type and a Body that
// counts its closes. The Transport tracks bodies of responses its handler
// returns.
func NewResponse(req *http.Request, status int, body string) *http.Response {
	return &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       &Body{r: strings.NewReader(body)},
		Request:    req,
	}
}

// Do implements the executor's Doer.
func (t *Transport) Do(req *http.Request) (*http.Response, error) {
	var payload []byte
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("resttest: read request body: %w", err)
		}
		payload = data
	}

	resp, err := t.handler(req)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests = append(t.requests, req)
	t.payloads = append(t.payloads, payload)
	if resp != nil {
		if b, ok := resp.Body.(*Body); ok {
			t.bodies = append(t.bodies, b)
		}
	}
	return resp, err
}

// Calls returns the number of exchanges performed.
func (t *Transport) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// Closes returns the close count of every response body handed out, in
// exchange order.
func (t *Transport) Closes() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]int, len(t.bodies))
	for i, b := range t.bodies {
		out[i] = b.Closes()
	}
	return out
}

// LastRequest returns the most recent request, or nil.
func (t *Transport) LastRequest() *http.Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return t.requests[len(t.requests)-1]
}

// LastPayload returns the body of the most recent request, or nil.
func (t *Transport) LastPayload() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.payloads) == 0 {
		return nil
	}
	return t.payloads[len(t.payloads)-1]
}

// Body is a response body that counts Close calls.
type Body struct {
	mu      sync.Mutex
	r       io.Reader
	readErr error
	closes  int
}

func (b *Body) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closes > 0 {
		return 0, errors.New("resttest: read on closed body")
	}
	if b.readErr != nil {
		return 0, b.readErr
	}
	return b.r.Read(p)
}

func (b *Body) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

// Closes returns how many times Close was called.
func (b *Body) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}
