// Package httpclient provides the REST verb executor: a small, reusable
// engine that performs one GET, POST, PUT or DELETE exchange per call
// against a JSON API and maps the outcome onto a structured *Error.
//
// Concrete API clients hold an *Executor and expose domain methods on top
// of it:
//
//	type ItemsClient struct {
//	    exec *httpclient.Executor
//	}
//
//	func (c *ItemsClient) Item(ctx context.Context, id int) (Item, error) {
//	    return httpclient.Get[Item](ctx, c.exec, fmt.Sprintf("/items/%d", id))
//	}
//
//	func (c *ItemsClient) Create(ctx context.Context, it Item) error {
//	    return c.exec.Post(ctx, "/items", it)
//	}
//
// # Status classification
//
// Each verb expects one success status: GET 200, POST 201, PUT 204 and
// DELETE 204. Any other status fails: 4xx as KindClient, 5xx as KindServer
// (both with the error body decoded by the ErrorDecoder) and everything else
// as KindUnexpected. WithSuccessStatus and WithExpect widen the accepted set.
//
// # Transport
//
// The default Doer never reuses connections, follows no redirects, uses no
// proxy and leaves compression off. The executor imposes no timeout and no
// retries; callers bound a call with the context they pass in.
package httpclient
