// Package component defines lifecycle interfaces for the pieces of a
// restverb deployment: executors talking to upstream services and the
// fake servers that stand in for them in tests.
//
// A Registry starts components in registration order and stops them in
// reverse, so a fake upstream registered first is up before the executor
// that targets it.
package component
