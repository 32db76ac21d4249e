package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/william251082/fileupload/component"
	"github.com/william251082/fileupload/config"
	"github.com/william251082/fileupload/logger"
)

type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	return m.health
}
func (m *mockComponent) Describe() component.Description {
	return component.Description{Name: m.name, Type: "mock", Details: "in-memory"}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test", "1.0"), WithLogger(logger.Nop()), WithSummaryOutput(io.Discard))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("fileupload", "1.0.0"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "fileupload" || app.Version != "1.0.0" {
		t.Errorf("unexpected identity %q %q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Fatal("expected registry, logger and summary")
	}
	if app.Cfg.Environment != "development" {
		t.Errorf("expected typed config, got environment %q", app.Cfg.Environment)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppAppliesDefaults(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Name: "svc"}}
	if _, err := NewApp(cfg, WithLogger(logger.Nop())); err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if cfg.Environment != "development" || cfg.Logging.Level == "" {
		t.Errorf("defaults not applied: %+v", cfg.ServiceConfig)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestWithGracefulTimeout(t *testing.T) {
	app, _ := NewApp(newTestConfig("test", "1.0"), WithLogger(logger.Nop()), WithGracefulTimeout(30*time.Second))
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
}

func TestRegisterComponent(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("database")); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("database") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(healthy("database")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestReadyCheck(t *testing.T) {
	t.Run("all healthy", func(t *testing.T) {
		app := newTestApp(t)
		app.RegisterComponent(healthy("database"))
		if err := app.ReadyCheck(context.Background()); err != nil {
			t.Errorf("expected ready, got %v", err)
		}
	})

	t.Run("unhealthy names the component", func(t *testing.T) {
		app := newTestApp(t)
		app.RegisterComponent(&mockComponent{
			name:   "storage",
			health: component.Health{Name: "storage", Status: component.StatusUnhealthy, Message: "bucket missing"},
		})
		err := app.ReadyCheck(context.Background())
		if err == nil || !strings.Contains(err.Error(), "storage=unhealthy(bucket missing)") {
			t.Errorf("unexpected ready check result: %v", err)
		}
	})

	t.Run("empty registry", func(t *testing.T) {
		if err := newTestApp(t).ReadyCheck(context.Background()); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("database")
	app.RegisterComponent(comp)

	var order []string
	app.OnStart(func(ctx context.Context) error {
		order = append(order, "start")
		return nil
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if !comp.started {
			t.Error("components must be started before configure")
		}
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		order = append(order, "stop")
		return nil
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := "start,configure,ready,task,stop"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if !comp.stopped {
		t.Error("expected component to be stopped after task")
	}
}

func TestRunTaskError(t *testing.T) {
	app := newTestApp(t)
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		return fmt.Errorf("task error")
	})
	if err == nil || err.Error() != "task error" {
		t.Errorf("expected 'task error', got %v", err)
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunTaskStartupFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
		want  string
	}{
		{"component", func(app *App[*testConfig]) {
			app.RegisterComponent(&mockComponent{name: "database", startErr: boom})
		}, "initialization failed"},
		{"start hook", func(app *App[*testConfig]) {
			app.OnStart(func(context.Context) error { return boom })
		}, "onStart hook failed"},
		{"configure", func(app *App[*testConfig]) {
			app.OnConfigure(func(context.Context, *App[*testConfig]) error { return boom })
		}, "configuration failed"},
		{"ready hook", func(app *App[*testConfig]) {
			app.OnReady(func(context.Context) error { return boom })
		}, "onReady hook failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			tt.setup(app)
			ran := false
			err := app.RunTask(context.Background(), func(context.Context) error {
				ran = true
				return nil
			})
			if err == nil || !strings.Contains(err.Error(), tt.want) || !errors.Is(err, boom) {
				t.Errorf("expected %q wrapping boom, got %v", tt.want, err)
			}
			if ran {
				t.Error("task must not run after a start-up failure")
			}
		})
	}
}

func TestRunTaskStopsStartedComponentsOnConfigureFailure(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("database")
	app.RegisterComponent(comp)
	app.OnConfigure(func(context.Context, *App[*testConfig]) error { return errors.New("bad wiring") })

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected error")
	}
	if !comp.stopped {
		t.Error("expected started component to be stopped")
	}
}

func TestRunTaskStopErrors(t *testing.T) {
	t.Run("stop hook error surfaces", func(t *testing.T) {
		app := newTestApp(t)
		app.OnStop(func(context.Context) error { return errors.New("drain failed") })
		err := app.RunTask(context.Background(), func(context.Context) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "drain failed") {
			t.Errorf("expected stop hook error, got %v", err)
		}
	})

	t.Run("task error wins over stop error", func(t *testing.T) {
		app := newTestApp(t)
		app.RegisterComponent(&mockComponent{name: "database", stopErr: errors.New("close failed")})
		err := app.RunTask(context.Background(), func(context.Context) error { return errors.New("task failed") })
		if err == nil || err.Error() != "task failed" {
			t.Errorf("expected task error, got %v", err)
		}
	})
}

func TestRunReturnsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("server")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})

	if err := app.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !comp.stopped {
		t.Error("expected component to be stopped")
	}
}

func TestSummaryDisplay(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(newTestConfig("fileupload", "2.1.0"), WithLogger(logger.Nop()), WithSummaryOutput(&buf))
	if err != nil {
		t.Fatal(err)
	}
	app.RegisterComponent(healthy("database"))
	app.RegisterComponent(&mockComponent{
		name:   "storage",
		health: component.Health{Name: "storage", Status: component.StatusDegraded, Message: "slow"},
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		a.Summary.TrackBusinessComponent("references", "service", "database", "storage")
		a.Summary.TrackRoute("POST", "/api/articles/:articleId/references", "Handler.uploadReference")
		return nil
	})

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"fileupload v2.1.0 started in",
		"├── ✅ [mock] database: in-memory",
		"└── ⚠️ [mock] storage: in-memory (slow)",
		"Some components have issues (1/2 healthy)",
		"references [service] -> database, storage",
		"Routes (1)",
		"/api/articles/:articleId/references -> Handler.uploadReference",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryWithoutComponents(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary("svc", "0.1")
	s.out = &buf
	s.Collect(context.Background(), nil)
	s.Display()
	if !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Error("unexpected tree prefixes")
	}
}
