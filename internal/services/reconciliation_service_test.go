package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"exrecon/internal/config"
	apperrors "exrecon/internal/errors"
	"exrecon/internal/infrastructure"
	"exrecon/internal/shared/testutil"
	"exrecon/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.InputDir = t.TempDir()
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "combined")
	cfg.Combine.Workers = 2
	cfg.Combine.Combinations = []config.Combination{
		{Pattern: "**/Funding.csv", Output: "funding-combined.csv"},
		{Pattern: "**/Spot.csv", Output: "spot-combined.csv"},
	}
	cfg.Reconcile.FundingFile = "funding-combined.csv"
	cfg.Reconcile.SpotFile = "spot-combined.csv"
	require.NoError(t, cfg.Validate())
	return cfg
}

var exportTree = map[string]string{
	"2024-01/Funding.csv": "Time,Side,Type,Amount\nt1,Deposit,Deposit,100\nt2,Withdraw,withdrawal,40\n",
	"2024-02/Funding.csv": "Time,Side,Type,Amount\nt2,Withdraw,withdrawal,40\n",
	"2024-01/Spot.csv":    "Time,Symbol,Side,Filled Volume,Fee\nt1,BTC,buy,1,0.01\n",
	"2024-02/Spot.csv":    "Time,Symbol,Side,Filled Volume,Fee\nt1,BTC,buy,1,0.01\nt2,BTC,sell,1,0.02\n",
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.InputDir, exportTree)

	svc, err := NewReconciliationService(cfg, nil)
	require.NoError(t, err)

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Combine, 2)
	for _, r := range result.Combine {
		assert.Equal(t, domain.CombineStatusWritten, r.Status, r.Pattern)
		assert.Equal(t, 1, r.DuplicateRows, r.Pattern)
	}

	rep := result.Report
	assert.NotEmpty(t, rep.RunID)
	require.NotNil(t, rep.Funding)
	assert.True(t, rep.Funding.NetMovement.Equal(dec("60")))

	require.Len(t, rep.Spot, 1)
	assert.True(t, rep.Spot[0].NetVolume.Equal(dec("0.03")))
	require.NotNil(t, rep.SpotTotals)
	assert.Equal(t, 1, rep.SpotTotals.Symbols)

	require.NotNil(t, rep.Combined)
	assert.True(t, rep.Combined.CombinedNet.Equal(dec("60.03")))
}

func TestRun_KeepsRunIDFromContext(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.InputDir, exportTree)

	logger, logs := testutil.NewLogCapture(t)
	svc, err := NewReconciliationService(cfg, logger)
	require.NoError(t, err)

	ctx := infrastructure.WithTraceID(context.Background(), "run-42")
	result, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-42", result.Report.RunID)

	done := logs.AssertContains(t, slog.LevelInfo, "Reconciliation complete")
	assert.Equal(t, "run-42", done.Attrs["trace_id"])
	assert.Equal(t, "60.03", done.Attrs["combined_net"])
	logs.AssertNoErrors(t)
}

func TestReconcile_PartialFailure(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.OutputDir, map[string]string{
		"funding-combined.csv": "Side,Type,Amount\nDeposit,Deposit,10\n",
	})

	logger, logs := testutil.NewLogCapture(t)
	svc, err := NewReconciliationService(cfg, logger)
	require.NoError(t, err)

	rep, err := svc.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileRead))

	failed := logs.AssertContains(t, slog.LevelError, "Reconciliation failed")
	assert.Equal(t, KindSpot, failed.Attrs["kind"])
	assert.Contains(t, failed.Attrs["error"], "[FILE_READ]")

	require.NotNil(t, rep.Funding, "funding summary survives a spot failure")
	assert.True(t, rep.Funding.TotalDeposits.Equal(dec("10")))
	assert.Nil(t, rep.Spot)
	assert.Nil(t, rep.SpotTotals)
	assert.Nil(t, rep.Combined)
}

func TestReconcile_BothFail(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.OutputDir, map[string]string{
		"funding-combined.csv": "Side,Amount\nDeposit,10\n",
		"spot-combined.csv":    "Symbol,Side,Filled Volume,Fee\nBTC,BUY,many,0\n",
	})

	svc, err := NewReconciliationService(cfg, nil)
	require.NoError(t, err)

	rep, err := svc.Reconcile(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTypeConversion))
	assert.Nil(t, rep.Funding)
	assert.Nil(t, rep.Spot)
}

func TestCombine_NoMatchIsNotAFailure(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.InputDir, map[string]string{
		"a/Funding.csv": "Side,Type,Amount\nDeposit,Deposit,1\n",
	})

	svc, err := NewReconciliationService(cfg, nil)
	require.NoError(t, err)

	results := svc.Combine(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, domain.CombineStatusWritten, results[0].Status)
	assert.Equal(t, domain.CombineStatusNoMatch, results[1].Status)
	assert.NoError(t, CombineErrors(results))
}

func TestCombineErrors(t *testing.T) {
	results := []domain.CombineResult{
		{Pattern: "a", Status: domain.CombineStatusWritten},
		{Pattern: "b", Status: domain.CombineStatusNoMatch, Err: apperrors.NewNoMatchError("b")},
		{Pattern: "c", Status: domain.CombineStatusEmpty, Err: apperrors.NewEmptyResultError("c")},
		{Pattern: "d", Status: domain.CombineStatusWriteFailed, Err: apperrors.NewFileWriteError("d.csv", os.ErrPermission)},
		{Pattern: "e", Status: domain.CombineStatusCanceled, Err: context.Canceled},
	}

	err := CombineErrors(results)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeFileWrite))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.False(t, apperrors.IsType(err, apperrors.ErrTypeNoMatch))

	assert.NoError(t, CombineErrors(results[:3]))
}

func TestInventory(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.InputDir, exportTree)

	svc, err := NewReconciliationService(cfg, nil)
	require.NoError(t, err)

	counts, err := svc.Inventory(context.Background(), "**/*.csv")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Funding.csv", counts[0].Name)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, "**/Funding.csv", counts[0].Glob)

	_, err = svc.Inventory(context.Background(), "[")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	assert.Contains(t, err.Error(), `invalid pattern "["`)
}

func TestNewReconciliationService_RequiresConfig(t *testing.T) {
	_, err := NewReconciliationService(nil, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestRun_RecordsSpans(t *testing.T) {
	cfg := testConfig(t)
	testutil.WriteTree(t, cfg.Paths.InputDir, exportTree)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	providers := &infrastructure.OTelProviders{
		Tracer: tp.Tracer("test"),
		Meter:  metricnoop.NewMeterProvider().Meter("test"),
	}
	svc, err := NewReconciliationServiceWithTelemetry(cfg, nil, providers)
	require.NoError(t, err)

	_, err = svc.Run(context.Background())
	require.NoError(t, err)

	names := map[string]int{}
	for _, s := range recorder.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, 1, names["service.run"])
	assert.Equal(t, 1, names["service.combine"])
	assert.Equal(t, 2, names["aggregator.combine"])
	assert.Equal(t, 1, names["service.reconcile"])
	assert.Equal(t, 1, names["reconcile.funding"])
	assert.Equal(t, 1, names["reconcile.spot"])
}
