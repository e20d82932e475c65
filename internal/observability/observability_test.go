package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
)

func TestNewLogger_Production(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production")

	logger.Debug("hidden")
	logger.Info("short code created", "code", "abc123")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "short code created", entry["msg"])
	assert.Equal(t, "abc123", entry["code"])
	assert.Contains(t, entry, "source")
}

func TestNewLogger_Development(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "development")

	logger.Debug("cache miss", "code", "abc123")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "code=abc123")
}

func TestNewLogger_TestQuiet(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "test")

	logger.Info("noise")
	assert.Empty(t, buf.String())
}

func TestNewMeterProvider_ExportsToRegistry(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()

	mp, err := NewMeterProvider(reg, resource.Default())
	require.NoError(t, err)
	defer func() { _ = mp.Shutdown(ctx) }()

	counter, err := mp.Meter("test").Int64Counter("shortcode.operations")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "shortcode_operations_total")
	assert.Contains(t, names, "go_goroutines")
}

func TestSetup(t *testing.T) {
	ctx := context.Background()

	obs, err := Setup(ctx, Config{ServiceName: "shortcodes", Environment: "test"})
	require.NoError(t, err)
	defer obs.Shutdown(ctx)

	assert.NotNil(t, obs.Logger)
	assert.NotNil(t, obs.TracerProvider)
	assert.NotNil(t, obs.MeterProvider)
	assert.NotNil(t, obs.Registry)
}
