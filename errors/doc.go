// Package errors provides the application error model used to surface
// failures of remote APIs to callers of restverb-based clients.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection following RFC 7807.
package errors
