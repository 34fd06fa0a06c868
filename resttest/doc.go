// Package resttest provides test doubles for code built on the REST verb
// executor.
//
// Server is a gin-backed fake items API running on an httptest server. It
// implements testutil.TestComponent, records every request and can be told
// to answer a route with an arbitrary status and body:
//
//	srv := resttest.NewServer(resttest.Item{ID: 1, Name: "x"})
//	testutil.T(t).Setup(srv)
//	srv.Fail(http.MethodGet, "/items/1", http.StatusInternalServerError, `{"error":"boom"}`)
//
// Transport is an in-memory Doer that counts exchanges and response body
// closes, for asserting resource discipline without a network.
package resttest
