package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wcabridge/internal/config"
	"wcabridge/internal/shared/testutil"
)

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "bridge-test",
		TracingEnabled: true,
		TraceExporter:  "stdout",
		MetricsEnabled: false,
	})

	assert.Equal(t, "bridge-test", cfg.ServiceName)
	assert.True(t, cfg.EnableTracing)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, "stdout", cfg.TraceExporter)

	defaults := OTelConfigFrom(config.TelemetryConfig{})
	assert.Equal(t, config.DefaultServiceName, defaults.ServiceName)
	assert.Equal(t, "none", defaults.TraceExporter)
}

func TestOTelInitialization(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
		TraceExporter:  "none",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Registry)
	assert.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider, "exporter none leaves tracing on the global provider")
}

func TestOTelInitializationUnsupportedExporter(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test",
		TraceExporter: "jaeger",
		EnableTracing: true,
		SampleRatio:   1.0,
	}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")
}

func TestOTelMetricsDisabled(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{ServiceName: "test", TraceExporter: "none"}, logger)
	require.NoError(t, err)

	assert.Nil(t, providers.Registry)
	assert.NotNil(t, providers.Meter, "no-op meter is still usable")
	assert.NoError(t, providers.WriteMetricsFile(filepath.Join(t.TempDir(), "m.prom")))

	m, err := NewConversionMetrics(providers.Meter)
	require.NoError(t, err)
	m.RecordConversion(context.Background(), ConversionOutcome{Dialect: "bom", Components: 2})
}

func TestConversionMetricsExposed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:   "test",
		TraceExporter: "none",
		EnableMetrics: true,
		SampleRatio:   1.0,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewConversionMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordConversion(ctx, ConversionOutcome{
		Dialect:    "ltspice",
		Components: 4,
		Warnings:   map[string]int{"unknown_suffix": 2},
		Duration:   15 * time.Millisecond,
	})
	metrics.RecordConversion(ctx, ConversionOutcome{Dialect: "bom", Err: errors.New("no header")})
	metrics.RecordPopulate(ctx, nil)
	metrics.RecordHTTPRequest(ctx, http.MethodPost, "/api/v1/conversions", http.StatusCreated, time.Millisecond)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, "wca_conversions_total")
	assert.Contains(t, text, `dialect="ltspice"`)
	assert.Contains(t, text, `status="failure"`)
	assert.Contains(t, text, "wca_components_extracted_total")
	assert.Contains(t, text, `kind="unknown_suffix"`)
	assert.Contains(t, text, "wca_populate_runs_total")
	assert.Contains(t, text, "http_requests_total")
	assert.Contains(t, text, "go_goroutines")

	path := filepath.Join(t.TempDir(), "wcaconv.prom")
	require.NoError(t, providers.WriteMetricsFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wca_conversions_total")
}

func TestNilConversionMetrics(t *testing.T) {
	var m *ConversionMetrics
	assert.NotPanics(t, func() {
		m.RecordConversion(context.Background(), ConversionOutcome{})
		m.RecordPopulate(context.Background(), errors.New("x"))
		m.RecordHTTPRequest(context.Background(), "GET", "/", 200, 0)
	})

	fromNil, err := NewConversionMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, fromNil.ConversionsTotal)
}

func TestSpanHelpersWithoutRecordingSpan(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "parsed", map[string]interface{}{"components": 3, "dialect": "bom"})
		SetSpanAttributes(ctx, map[string]interface{}{"ok": true, "ratio": 0.5})
		RecordError(ctx, errors.New("boom"))
	})
}

func TestToAttributes(t *testing.T) {
	attrs := toAttributes(map[string]interface{}{
		"s": "v",
		"i": 1,
		"f": 1.5,
		"b": true,
		"x": []int{1},
	})
	assert.Len(t, attrs, 5)
}
