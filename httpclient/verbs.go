package httpclient

import (
	"context"
	"net/http"
)

func newRequest(method, path string, payload any, opts []RequestOption) Request {
	req := Request{Method: method, Path: path, Payload: payload}
	for _, opt := range opts {
		opt(&req)
	}
	return req
}

// Get fetches path and decodes the success body into a T. An empty body
// yields the zero T.
func Get[T any](ctx context.Context, e *Executor, path string, opts ...RequestOption) (T, error) {
	var out T
	if err := e.GetInto(ctx, path, &out, opts...); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// GetInto fetches path and decodes the success body into out, which must be
// a pointer.
func (e *Executor) GetInto(ctx context.Context, path string, out any, opts ...RequestOption) error {
	req := newRequest(http.MethodGet, path, nil, opts)
	resp, err := e.Do(ctx, req)
	if err != nil {
		return err
	}
	return e.decode(ctx, http.MethodGet, e.baseURL+path, resp, out)
}

// Post sends payload to path. It succeeds on 201 Created.
func (e *Executor) Post(ctx context.Context, path string, payload any, opts ...RequestOption) error {
	_, err := e.Do(ctx, newRequest(http.MethodPost, path, payload, opts))
	return err
}

// Put sends payload to path. It succeeds on 204 No Content.
func (e *Executor) Put(ctx context.Context, path string, payload any, opts ...RequestOption) error {
	_, err := e.Do(ctx, newRequest(http.MethodPut, path, payload, opts))
	return err
}

// Delete removes the resource at path. It succeeds on 204 No Content.
func (e *Executor) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	_, err := e.Do(ctx, newRequest(http.MethodDelete, path, nil, opts))
	return err
}
