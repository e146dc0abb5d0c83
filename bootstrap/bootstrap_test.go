package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/watershed/component"
	"github.com/kbukum/watershed/config"
	"github.com/kbukum/watershed/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	desc     *component.Description
	started  bool
	stopped  bool
	log      *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	m.record("start " + m.name)
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	m.record("stop " + m.name)
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) component.Health {
	if m.health.Name == "" {
		return component.Health{Name: m.name, Status: component.StatusHealthy}
	}
	return m.health
}

func (m *mockComponent) record(s string) {
	if m.log != nil {
		*m.log = append(*m.log, s)
	}
}

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() component.Description { return *d.desc }

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "test-cli", Version: "1.0.0"}}
	opts = append([]Option{WithLogger(logger.Nop()), WithSummaryOutput(io.Discard)}, opts...)
	app, err := NewApp(cfg, opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "test-cli" || app.Version != "1.0.0" {
		t.Errorf("unexpected name/version %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Error("expected registry, logger and summary")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("default graceful timeout = %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "x", Environment: "moon"}}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app := newTestApp(t, WithGracefulTimeout(3*time.Second))
	if app.gracefulTimeout != 3*time.Second {
		t.Errorf("graceful timeout = %v", app.gracefulTimeout)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := app.RegisterComponent(&mockComponent{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	var events []string
	a := &mockComponent{name: "a", log: &events}
	b := &mockComponent{name: "b", log: &events}
	app.RegisterComponent(a)
	app.RegisterComponent(b)
	app.OnStart(func(ctx context.Context) error { events = append(events, "onStart"); return nil })
	app.OnConfigure(func(ctx context.Context, app *App[*testConfig]) error {
		events = append(events, "configure "+app.Cfg.Name)
		return nil
	})
	app.OnStop(func(ctx context.Context) error { events = append(events, "onStop"); return nil })

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	want := []string{"start a", "start b", "onStart", "configure test-cli", "task", "onStop", "stop b", "stop a"}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestRunTaskErrors(t *testing.T) {
	taskErr := errors.New("task failed")
	tests := []struct {
		name      string
		setup     func(app *App[*testConfig], c *mockComponent)
		task      error
		wantErr   string
		wantTask  bool
		wantStops bool
	}{
		{
			name:     "task error",
			setup:    func(*App[*testConfig], *mockComponent) {},
			task:     taskErr,
			wantErr:  "task failed",
			wantTask: true, wantStops: true,
		},
		{
			name: "component start error",
			setup: func(_ *App[*testConfig], c *mockComponent) {
				c.startErr = errors.New("no binary")
			},
			wantErr: "no binary",
		},
		{
			name: "start hook error",
			setup: func(app *App[*testConfig], _ *mockComponent) {
				app.OnStart(func(context.Context) error { return errors.New("hook") })
			},
			wantErr: "onStart hook failed", wantStops: true,
		},
		{
			name: "configure error",
			setup: func(app *App[*testConfig], _ *mockComponent) {
				app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("wire") })
			},
			wantErr: "configuration failed", wantStops: true,
		},
		{
			name: "stop error surfaces when task succeeds",
			setup: func(_ *App[*testConfig], c *mockComponent) {
				c.stopErr = errors.New("close")
			},
			wantErr: "close", wantTask: true, wantStops: true,
		},
		{
			name: "task error wins over stop error",
			setup: func(_ *App[*testConfig], c *mockComponent) {
				c.stopErr = errors.New("close")
			},
			task:    taskErr,
			wantErr: "task failed", wantTask: true, wantStops: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			c := &mockComponent{name: "toolbox"}
			app.RegisterComponent(c)
			tt.setup(app, c)

			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error {
				ran = true
				return tt.task
			})
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
			if ran != tt.wantTask {
				t.Errorf("task ran = %v", ran)
			}
			if c.stopped != tt.wantStops {
				t.Errorf("component stopped = %v", c.stopped)
			}
		})
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Fatalf("empty registry: %v", err)
	}
	app.RegisterComponent(&mockComponent{name: "ok"})
	app.RegisterComponent(&mockComponent{name: "db", health: component.Health{
		Name: "db", Status: component.StatusDegraded, Message: "slow",
	}})
	err := app.ReadyCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "db=degraded(slow)") {
		t.Fatalf("ReadyCheck = %v", err)
	}
}

func TestSummaryDisplay(t *testing.T) {
	var buf bytes.Buffer
	app := newTestApp(t, WithSummaryOutput(&buf))
	app.RegisterComponent(&describedComponent{mockComponent{
		name: "toolbox",
		desc: &component.Description{Name: "Toolbox", Type: "toolbox", Details: "qgis_process 3.34"},
	}})
	app.RegisterComponent(&mockComponent{name: "archive", health: component.Health{
		Name: "archive", Status: component.StatusUnhealthy, Message: "bucket missing",
	}})

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"test-cli 1.0.0 started in",
		"Infrastructure",
		"└── ✅ Toolbox: qgis_process 3.34",
		"├── ✅ toolbox: healthy",
		"└── ❌ archive: unhealthy - bucket missing",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryDiscard(t *testing.T) {
	s := NewSummary("x", "")
	s.TrackInfrastructure("a", "toolbox", "d", true)
	s.Display(io.Discard)
	s.Display(nil)

	var buf bytes.Buffer
	s.Display(&buf)
	if !strings.Contains(buf.String(), "x dev started") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestHealthStatusIcon(t *testing.T) {
	tests := map[component.HealthStatus]string{
		component.StatusHealthy:   "✅",
		component.StatusDegraded:  "⚠️",
		component.StatusUnhealthy: "❌",
		"unknown":                 "❓",
	}
	for status, want := range tests {
		if got := healthStatusIcon(status); got != want {
			t.Errorf("healthStatusIcon(%q) = %q, want %q", status, got, want)
		}
	}
}
