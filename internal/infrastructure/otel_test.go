package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"exrecon/internal/config"
	"exrecon/pkg/contracts"
	"exrecon/pkg/contracts/domain"
)

func TestOTelInitialization_Disabled(t *testing.T) {
	providers, err := InitializeOTel(nil, nil)
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.Registry)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	path := filepath.Join(t.TempDir(), "recon.prom")
	require.NoError(t, providers.WriteMetricsFile(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no metrics file without a registry")

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelInitialization_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "otlp", MetricExporter: "none"}, nil)
	assert.Error(t, err)

	_, err = InitializeOTel(&OTelConfig{TraceExporter: "none", MetricExporter: "statsd"}, nil)
	assert.Error(t, err)
}

func TestNewOTelConfig(t *testing.T) {
	tel := config.Default().Telemetry
	tel.TraceExporter = "stdout"
	tel.SampleRatio = 0.5

	cfg := NewOTelConfig(tel)

	assert.Equal(t, config.DefaultServiceName, cfg.ServiceName)
	assert.Equal(t, contracts.Version, cfg.ServiceVersion)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, 0.5, cfg.SampleRatio)
}

func TestStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "exrecon-test",
		TraceExporter:  "stdout",
		MetricExporter: "none",
		SampleRatio:    1.0,
		TraceWriter:    &buf,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	_, span := providers.Tracer.Start(context.Background(), "combine")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))

	assert.Contains(t, buf.String(), `"Name": "combine"`)
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "reconcile")
	AddSpanEvent(ctx, "file skipped", attribute.String("path", "a.csv"))
	RecordError(ctx, errors.New("boom"))
	RecordError(ctx, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)

	events := ended[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "file skipped", events[0].Name)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)

	// Helpers are safe without a recording span.
	AddSpanEvent(context.Background(), "ignored")
	RecordError(context.Background(), errors.New("ignored"))
}

func TestReconMetrics_WriteMetricsFile(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    "exrecon-test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
	}, nil)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := CreateReconMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordCombination(ctx, domain.CombineResult{
		Pattern:       "**/a.csv",
		Status:        domain.CombineStatusWritten,
		FilesMatched:  3,
		FilesSkipped:  []string{"bad.csv"},
		RowsRead:      10,
		RowsWritten:   8,
		DuplicateRows: 2,
	}, 150*time.Millisecond)
	metrics.RecordReconciliation(ctx, "funding", 10*time.Millisecond, nil)
	metrics.RecordReconciliation(ctx, "spot", 10*time.Millisecond, errors.New("missing column"))

	path := filepath.Join(t.TempDir(), "recon.prom")
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)

	for _, name := range []string{
		"recon_files_matched",
		"recon_files_skipped",
		"recon_rows_read",
		"recon_duplicate_rows",
		"recon_rows_written",
		"recon_combinations",
		"recon_combine_duration",
		"recon_reconciliations",
	} {
		assert.Contains(t, text, name)
	}
	assert.Contains(t, text, `status="failure"`)
	assert.Contains(t, text, `pattern="**/a.csv"`)
}

func TestReconMetrics_NilSafe(t *testing.T) {
	var metrics *ReconMetrics
	metrics.RecordCombination(context.Background(), domain.CombineResult{}, time.Second)
	metrics.RecordReconciliation(context.Background(), "funding", time.Second, nil)
}

func TestCreateReconMetrics_Noop(t *testing.T) {
	metrics, err := CreateReconMetrics(metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	metrics.RecordCombination(context.Background(), domain.CombineResult{Status: domain.CombineStatusNoMatch}, 0)
}
