package component

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health {
	return m.health
}

type describedComponent struct {
	mockComponent
	desc Description
}

func (d *describedComponent) Describe() Description { return d.desc }

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "items-api"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "items-api"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	for _, name := range []string{"fake-upstream", "items-api", "orders-api"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if want := []string{"fake-upstream", "items-api", "orders-api"}; !reflect.DeepEqual(started, want) {
		t.Errorf("start order = %v, want %v", started, want)
	}
	if want := []string{"orders-api", "items-api", "fake-upstream"}; !reflect.DeepEqual(stopped, want) {
		t.Errorf("stop order = %v, want %v", stopped, want)
	}
}

func TestStartAllFailureStopsOnlyStarted(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "b", startErr: errors.New("bind failed"), startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "c", startOrder: &started, stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("expected start failure for b, got %v", err)
	}
	if !reflect.DeepEqual(started, []string{"a", "b"}) {
		t.Errorf("expected c not to start, got %v", started)
	}

	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if !reflect.DeepEqual(stopped, []string{"a"}) {
		t.Errorf("expected only a to stop, got %v", stopped)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	errA := errors.New("a stuck")
	errB := errors.New("b stuck")
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errA})
	_ = r.Register(&mockComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both stop errors, got %v", err)
	}
}

func TestHealthAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded, Message: "slow"}})

	got := r.HealthAll(context.Background())
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[1].Status != StatusDegraded || got[1].Message != "slow" {
		t.Errorf("unexpected health for b: %+v", got[1])
	}
}

func TestDescribe(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "plain"})
	_ = r.Register(&describedComponent{
		mockComponent: mockComponent{name: "items-api"},
		desc:          Description{Type: "http-client", Details: "base=http://items"},
	})

	got := r.Describe()
	if len(got) != 1 {
		t.Fatalf("expected 1 description, got %d", len(got))
	}
	if got[0].Name != "items-api" {
		t.Errorf("expected name to default to component name, got %q", got[0].Name)
	}
	if got[0].Type != "http-client" {
		t.Errorf("unexpected type %q", got[0].Type)
	}
}

func TestGetAndAll(t *testing.T) {
	r := NewRegistry()
	c := &mockComponent{name: "items-api"}
	_ = r.Register(c)

	if r.Get("items-api") != c {
		t.Error("expected Get to return the registered component")
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for unknown component")
	}
	if len(r.All()) != 1 {
		t.Errorf("expected 1 component, got %d", len(r.All()))
	}
}
