package app

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/errors"
	"github.com/agentstation/storefront/pkg/logging"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	isolate(t)
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")
	config.JWT.Secret = "app-test-secret-with-enough-entropy"
	return config
}

func newTestApp(t *testing.T, config *Config) *App {
	t.Helper()
	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2026-01-01", "test", WithConfig(config), WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	t.Cleanup(func() {
		_ = app.Shutdown(context.Background())
		logging.SetDefault(zerolog.Nop())
	})
	return app
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	if app.Version() != "1.0.0" || app.Commit() != "abc123" || app.Date() != "2026-01-01" || app.BuiltBy() != "test" {
		t.Errorf("version info = %s %s %s %s", app.Version(), app.Commit(), app.Date(), app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
	if app.ServerConfig().Port != 8080 {
		t.Errorf("ServerConfig().Port = %d, want 8080", app.ServerConfig().Port)
	}
}

// TestApp_Services_Singleton verifies that accessors return the same instance.
func TestApp_Services_Singleton(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx := context.Background()

	st1, err := app.Store(ctx)
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	st2, _ := app.Store(ctx)
	if st1 != st2 {
		t.Error("Store() returned different instances")
	}

	s1, err := app.Syncer(ctx)
	if err != nil {
		t.Fatalf("Syncer() failed: %v", err)
	}
	s2, _ := app.Syncer(ctx)
	if s1 != s2 {
		t.Error("Syncer() returned different instances")
	}

	if _, err := app.Checkout(ctx); err != nil {
		t.Fatalf("Checkout() failed: %v", err)
	}
	if _, err := app.Accounts(ctx); err != nil {
		t.Fatalf("Accounts() failed: %v", err)
	}
	if app.Metrics() == nil || app.Metrics() != app.Metrics() {
		t.Error("Metrics() should return one registry")
	}
}

// TestApp_ThreadSafe verifies concurrent accessor calls are safe.
func TestApp_ThreadSafe(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx := context.Background()

	const goroutines = 50
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if _, err := app.Syncer(ctx); err != nil {
				errs[idx] = err
				return
			}
			_, errs[idx] = app.Accounts(ctx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: %v", i, err)
		}
	}
}

// TestApp_TokensRequireSecret verifies that a missing JWT secret is a
// configuration error.
func TestApp_TokensRequireSecret(t *testing.T) {
	config := testConfig(t)
	config.JWT.Secret = ""
	app := newTestApp(t, config)

	if _, err := app.Tokens(); !errors.IsConfigError(err) {
		t.Errorf("Tokens() error = %v, want a config error", err)
	}
	if _, err := app.Accounts(context.Background()); err == nil {
		t.Error("Accounts() should fail without a JWT secret")
	}
}

// TestApp_SchedulerOptions verifies that sync.enabled gates scheduling.
func TestApp_SchedulerOptions(t *testing.T) {
	config := testConfig(t)
	app := newTestApp(t, config)

	if opts, ok := app.SchedulerOptions(); !ok || len(opts) == 0 {
		t.Error("scheduled sync should be enabled by default")
	}

	config.Sync.Enabled = false
	if _, ok := app.SchedulerOptions(); ok {
		t.Error("scheduled sync should be disabled")
	}
}

// TestApp_Shutdown verifies shutdown closes the store and is idempotent.
func TestApp_Shutdown(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx := context.Background()

	if err := app.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() without services failed: %v", err)
	}
	if _, err := app.Store(ctx); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() failed: %v", err)
	}
	if err := app.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() failed: %v", err)
	}
}

// TestApp_Execute runs commands through the root command.
func TestApp_Execute(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	var out bytes.Buffer
	root := app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--verbose"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("storefront 1.0.0")) || !bytes.Contains(out.Bytes(), []byte("abc123")) {
		t.Errorf("version output = %q", out.String())
	}

	out.Reset()
	root = app.createRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"devices", "list", "-o", "json"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("devices list failed: %v", err)
	}
	if got := bytes.TrimSpace(out.Bytes()); string(got) != "[]" {
		t.Errorf("devices list = %q, want []", got)
	}
	if app.OutputFormat() != "json" {
		t.Errorf("OutputFormat() = %q, want json", app.OutputFormat())
	}
}

// TestApp_ExecuteRejectsUnknownFormat verifies --format validation.
func TestApp_ExecuteRejectsUnknownFormat(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	err := app.Execute(context.Background(), []string{"devices", "list", "-o", "csv"})
	if !errors.IsValidationError(err) {
		t.Errorf("Execute() error = %v, want a validation error", err)
	}
}
