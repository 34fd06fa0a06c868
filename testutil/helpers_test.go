package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/restverb/component"
	"github.com/kbukum/restverb/testutil"
)

type fakeUpstream struct {
	name     string
	started  bool
	stopped  bool
	items    map[int]string
	startErr error
}

func newFakeUpstream(name string) *fakeUpstream {
	return &fakeUpstream{name: name, items: map[int]string{}}
}

func (f *fakeUpstream) Name() string { return f.name }

func (f *fakeUpstream) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started, f.stopped = true, false
	return nil
}

func (f *fakeUpstream) Stop(ctx context.Context) error {
	f.started, f.stopped = false, true
	return nil
}

func (f *fakeUpstream) Health(ctx context.Context) component.Health {
	return component.Health{Name: f.name, Status: component.StatusHealthy}
}

func (f *fakeUpstream) Reset(ctx context.Context) error {
	f.items = map[int]string{}
	return nil
}

func (f *fakeUpstream) Snapshot(ctx context.Context) (interface{}, error) {
	snap := make(map[int]string, len(f.items))
	for k, v := range f.items {
		snap[k] = v
	}
	return snap, nil
}

func (f *fakeUpstream) Restore(ctx context.Context, snapshot interface{}) error {
	items, ok := snapshot.(map[int]string)
	if !ok {
		return errors.New("unexpected snapshot type")
	}
	f.items = items
	return nil
}

var _ testutil.TestComponent = (*fakeUpstream)(nil)

func TestSetup(t *testing.T) {
	up := newFakeUpstream("items")

	cleanup, err := testutil.Setup(up)
	if err != nil {
		t.Fatalf("Setup() failed: %v", err)
	}
	if !up.started {
		t.Error("component should be started after Setup()")
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup() failed: %v", err)
	}
	if !up.stopped {
		t.Error("component should be stopped after cleanup()")
	}
}

func TestSetup_StartError(t *testing.T) {
	up := newFakeUpstream("items")
	up.startErr = errors.New("listen failed")

	cleanup, err := testutil.Setup(up)
	if err == nil {
		t.Fatal("expected error from Setup()")
	}
	if cleanup != nil {
		t.Error("expected nil cleanup on failure")
	}
}

func TestTeardown(t *testing.T) {
	up := newFakeUpstream("items")
	_, _ = testutil.Setup(up)
	if err := testutil.Teardown(up); err != nil {
		t.Fatalf("Teardown() failed: %v", err)
	}
	if !up.stopped {
		t.Error("component should be stopped after Teardown()")
	}
}

func TestTHelper_SetupStopsOnCleanup(t *testing.T) {
	up := newFakeUpstream("items")

	t.Run("inner", func(t *testing.T) {
		testutil.T(t).Setup(up)
		if !up.started {
			t.Error("component should be started")
		}
	})

	if !up.stopped {
		t.Error("component should be stopped after the subtest finished")
	}
}

func TestTHelper_SnapshotRestore(t *testing.T) {
	up := newFakeUpstream("items")
	h := testutil.T(t).WithContext(context.Background())
	h.Setup(up)

	up.items[1] = "widget"
	snap := h.Snapshot(up)

	up.items[2] = "gadget"
	h.Restore(up, snap)
	if len(up.items) != 1 || up.items[1] != "widget" {
		t.Errorf("expected restored state, got %v", up.items)
	}

	h.Reset(up)
	if len(up.items) != 0 {
		t.Errorf("expected empty state after reset, got %v", up.items)
	}
}
