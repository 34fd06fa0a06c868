package testutil

import (
	"context"

	"github.com/kbukum/restverb/component"
)

// TestComponent extends component.Component with state control used to
// isolate test cases from each other.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error

	// Snapshot captures the current state of the component.
	Snapshot(ctx context.Context) (interface{}, error)

	// Restore returns the component to a state captured by Snapshot.
	Restore(ctx context.Context, snapshot interface{}) error
}
