package component

import (
	"context"
	"errors"
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

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "toolbox"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "toolbox"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	for _, name := range []string{"telemetry", "inspector", "toolbox"} {
		if err := r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped}); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if strings.Join(started, ",") != "telemetry,inspector,toolbox" {
		t.Errorf("unexpected start order %v", started)
	}
	if strings.Join(stopped, ",") != "toolbox,inspector,telemetry" {
		t.Errorf("unexpected stop order %v", stopped)
	}
}

func TestStartAllFailureStopsOnlyStarted(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	r.Register(&mockComponent{name: "a", startOrder: &started, stopOrder: &stopped})
	r.Register(&mockComponent{name: "b", startErr: errors.New("binary missing"), startOrder: &started, stopOrder: &stopped})
	r.Register(&mockComponent{name: "c", startOrder: &started, stopOrder: &stopped})

	ctx := context.Background()
	err := r.StartAll(ctx)
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("expected start failure for b, got %v", err)
	}
	if len(started) != 2 {
		t.Errorf("expected c not to start, got %v", started)
	}

	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if strings.Join(stopped, ",") != "a" {
		t.Errorf("expected only a to stop, got %v", stopped)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{name: "a", stopErr: errors.New("a failed")})
	r.Register(&mockComponent{name: "b", stopErr: errors.New("b failed")})

	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	err := r.StopAll(ctx)
	if err == nil {
		t.Fatal("expected stop errors")
	}
	if !strings.Contains(err.Error(), "a failed") || !strings.Contains(err.Error(), "b failed") {
		t.Errorf("expected both errors, got %v", err)
	}
}

func TestHealthAllAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockComponent{name: "db", health: Health{Name: "db", Status: StatusHealthy}})
	r.Register(&mockComponent{name: "toolbox", health: Health{Name: "toolbox", Status: StatusUnhealthy, Message: "not started"}})

	health := r.HealthAll(context.Background())
	if len(health) != 2 {
		t.Fatalf("expected 2 results, got %d", len(health))
	}
	if health[1].Status != StatusUnhealthy {
		t.Errorf("expected toolbox unhealthy, got %s", health[1].Status)
	}
	if r.Get("db") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get result")
	}
	if len(r.All()) != 2 {
		t.Errorf("expected 2 components, got %d", len(r.All()))
	}
}
