package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/storefront/pkg/logging"
)

func TestDefaultLogger(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() { logging.SetDefault(original) })

	buf := &bytes.Buffer{}
	logging.SetDefault(zerolog.New(buf).Level(zerolog.InfoLevel))

	logging.Debug().Msg("debug message")
	logging.Info().Msg("info message")
	logging.Error().Msg("error message")

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "error message")
	assert.NotContains(t, output, "debug message")
}

func TestContextLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithSyncRun(ctx, "run-1")
	ctx = logging.WithDevice(ctx, 42)
	ctx = logging.WithUser(ctx, "admin")

	logging.FromContext(ctx).Info().Msg("device reconciled")

	testLogger.AssertContains(t, `"sync_run":"run-1"`)
	testLogger.AssertContains(t, `"device_id":42`)
	testLogger.AssertContains(t, `"login":"admin"`)
	testLogger.AssertContains(t, "device reconciled")
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	//nolint:staticcheck // nil context is handled explicitly
	assert.Equal(t, logging.Default(), logging.FromContext(nil))
}

func TestRequestID(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithRequestID(ctx, "req-123")

	assert.Equal(t, "req-123", logging.RequestID(ctx))
	assert.Empty(t, logging.RequestID(context.Background()))

	logging.Ctx(ctx).Info().Msg("handled")
	testLogger.AssertContains(t, `"request_id":"req-123"`)
}

func TestWithFields(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), testLogger.Logger)
	ctx = logging.WithFields(ctx, map[string]any{
		"added":   2,
		"updated": int64(1),
		"dry_run": false,
	})

	logging.FromContext(ctx).Info().Msg("sync finished")
	testLogger.AssertContains(t, `"added":2`)
	testLogger.AssertContains(t, `"updated":1`)
	testLogger.AssertContains(t, `"dry_run":false`)
}

func TestConfiguration(t *testing.T) {
	original := *logging.Default()
	originalLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(originalLevel)
	})

	path := filepath.Join(t.TempDir(), "storefront.log")
	logging.Configure(&logging.Config{
		Level:  "warn",
		Format: "json",
		Output: path,
		Fields: map[string]any{"service": "storefront"},
	})

	logging.Info().Msg("hidden")
	logging.Warn().Msg("visible")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	output := string(data)
	assert.Contains(t, output, `"level":"warn"`)
	assert.Contains(t, output, `"service":"storefront"`)
	assert.NotContains(t, output, "hidden")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, logging.ParseLevel(in))
		})
	}
}

func TestTestLogger(t *testing.T) {
	testLogger := logging.NewTestLogger(t)
	testLogger.Info().Msg("first")
	testLogger.Warn().Msg("second")

	lines := testLogger.Lines()
	require.Len(t, lines, 2)
	assert.True(t, strings.Contains(lines[0], "first"))
	testLogger.AssertNotContains(t, "third")

	testLogger.Clear()
	assert.Empty(t, testLogger.Lines())
}

func TestCaptureLoggingForTest(t *testing.T) {
	captured := logging.CaptureLoggingForTest(t)
	logging.Info().Str("component", "scheduler").Msg("tick")
	captured.AssertContains(t, `"component":"scheduler"`)
}
