package component

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/regkit/logger"
)

// mockComponent implements Component for testing.
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

func newTestRegistry() *Registry {
	return NewRegistry(logger.Nop())
}

func TestRegisterDuplicate(t *testing.T) {
	r := newTestRegistry()
	if err := r.Register(&mockComponent{name: "registration"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "registration"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "registration"})

	if got := r.Get("registration"); got == nil || got.Name() != "registration" {
		t.Fatalf("expected registered component, got %v", got)
	}
	if got := r.Get("missing"); got != nil {
		t.Error("expected nil for unregistered component")
	}
}

func TestStartStopOrdering(t *testing.T) {
	r := newTestRegistry()
	var starts, stops []string

	r.Register(&mockComponent{name: "server", startOrder: &starts, stopOrder: &stops})
	r.Register(&mockComponent{name: "registration", startOrder: &starts, stopOrder: &stops})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if len(starts) != 2 || starts[0] != "server" || starts[1] != "registration" {
		t.Errorf("unexpected start order: %v", starts)
	}
	// Registration is torn down before the server it advertises.
	if len(stops) != 2 || stops[0] != "registration" || stops[1] != "server" {
		t.Errorf("unexpected stop order: %v", stops)
	}
}

func TestStartAllAborts(t *testing.T) {
	r := newTestRegistry()
	var starts []string

	r.Register(&mockComponent{name: "a", startOrder: &starts})
	r.Register(&mockComponent{name: "b", startOrder: &starts, startErr: errors.New("boom")})
	r.Register(&mockComponent{name: "c", startOrder: &starts})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected StartAll to fail")
	}
	if len(starts) != 2 {
		t.Errorf("expected start to abort after failure, got %v", starts)
	}
}

func TestStopAllContinuesPastFailures(t *testing.T) {
	r := newTestRegistry()
	var stops []string

	r.Register(&mockComponent{name: "a", stopOrder: &stops})
	r.Register(&mockComponent{name: "b", stopOrder: &stops, stopErr: errors.New("boom")})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	err := r.StopAll(context.Background())
	if err == nil {
		t.Error("expected aggregated stop error")
	}
	if len(stops) != 2 {
		t.Errorf("expected both components stopped, got %v", stops)
	}
}

func TestHealthAll(t *testing.T) {
	r := newTestRegistry()
	r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded}})

	results := r.HealthAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 health results, got %d", len(results))
	}
	if results[1].Status != StatusDegraded {
		t.Errorf("expected degraded, got %s", results[1].Status)
	}
}
