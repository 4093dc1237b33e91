package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"exrecon/internal/aggregator"
	"exrecon/internal/config"
	"exrecon/internal/dataset"
	apperrors "exrecon/internal/errors"
	"exrecon/internal/files"
	"exrecon/internal/infrastructure"
	"exrecon/internal/reconcile"
	"exrecon/pkg/contracts/domain"
)

// Reconciliation kinds used in spans and metrics.
const (
	KindFunding = "funding"
	KindSpot    = "spot"
)

// ReconciliationService runs the combine and reconcile stages from configuration.
type ReconciliationService struct {
	config     *config.Config
	logger     *slog.Logger
	tracer     trace.Tracer
	metrics    *infrastructure.ReconMetrics
	aggregator *aggregator.Aggregator
	funding    *reconcile.FundingReconciler
	spot       *reconcile.SpotReconciler
	discovery  *files.Discovery
}

// RunResult holds the output of a full combine-then-reconcile run.
type RunResult struct {
	Combine []domain.CombineResult      `json:"combine"`
	Report  domain.ReconciliationReport `json:"report"`
}

// NewReconciliationService creates a service using default telemetry
func NewReconciliationService(cfg *config.Config, logger *slog.Logger) (*ReconciliationService, error) {
	return NewReconciliationServiceWithTelemetry(cfg, logger, nil)
}

// NewReconciliationServiceWithTelemetry creates a service that records spans
// and metrics on providers. Nil providers disable both.
func NewReconciliationServiceWithTelemetry(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders) (*ReconciliationService, error) {
	if cfg == nil {
		return nil, apperrors.NewConfigError("configuration is required", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if providers == nil {
		var err error
		providers, err = infrastructure.InitializeOTel(&infrastructure.OTelConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			TraceExporter:  "none",
			MetricExporter: "none",
		}, logger)
		if err != nil {
			return nil, err
		}
	}

	metrics, err := infrastructure.CreateReconMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return &ReconciliationService{
		config:  cfg,
		logger:  logger,
		tracer:  providers.Tracer,
		metrics: metrics,
		aggregator: aggregator.New(logger, aggregator.Config{
			InputDir:  cfg.Paths.InputDir,
			OutputDir: cfg.Paths.OutputDir,
			Workers:   cfg.Combine.Workers,
			Tracer:    providers.Tracer,
			Metrics:   metrics,
		}),
		funding:   reconcile.NewFundingReconciler(logger),
		spot:      reconcile.NewSpotReconciler(logger),
		discovery: files.NewDiscovery(cfg.Paths.InputDir),
	}, nil
}

// Combine merges every configured combination. Per-combination failures are
// carried in the results; use CombineErrors to collect the fatal ones.
func (s *ReconciliationService) Combine(ctx context.Context) []domain.CombineResult {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "service.combine",
		trace.WithAttributes(attribute.Int("combinations", len(s.config.Combine.Combinations))))
	defer span.End()

	start := time.Now()
	results := s.aggregator.Combine(ctx, s.config.Combine.Combinations)

	written := 0
	for _, r := range results {
		if r.OK() {
			written++
		}
	}
	s.logger.InfoContext(ctx, "Combine finished",
		slog.Int("combinations", len(results)),
		slog.Int("written", written),
		slog.Duration("duration", time.Since(start)))

	return results
}

// CombineErrors joins the errors of combinations that failed to write or were
// canceled. Missing inputs and empty results are not failures.
func CombineErrors(results []domain.CombineResult) error {
	var errs []error
	for _, r := range results {
		switch r.Status {
		case domain.CombineStatusWriteFailed, domain.CombineStatusCanceled:
			errs = append(errs, fmt.Errorf("%s: %w", r.Pattern, r.Err))
		}
	}
	return stderrors.Join(errs...)
}

// Reconcile reads the combined funding and spot datasets and summarizes them.
// A failure in one reconciler does not stop the other; the combined result is
// only present when both succeed. Failures are joined into the returned error.
func (s *ReconciliationService) Reconcile(ctx context.Context) (domain.ReconciliationReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "service.reconcile")
	defer span.End()

	report := domain.ReconciliationReport{RunID: infrastructure.GetTraceID(ctx)}
	var errs []error

	funding, err := s.reconcileFunding(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		report.Funding = &funding
	}

	spot, err := s.reconcileSpot(ctx)
	if err != nil {
		errs = append(errs, err)
	} else {
		totals := reconcile.Totals(spot)
		report.Spot = spot
		report.SpotTotals = &totals
	}

	if report.Funding != nil && report.SpotTotals != nil {
		combined := reconcile.Combine(*report.Funding, report.Spot)
		report.Combined = &combined
		s.logger.InfoContext(ctx, "Reconciliation complete",
			slog.String("funding_net", combined.FundingNet.String()),
			slog.String("spot_net", combined.SpotNetTotal.String()),
			slog.String("combined_net", combined.CombinedNet.String()))
	}

	err = stderrors.Join(errs...)
	infrastructure.RecordError(ctx, err)
	return report, err
}

// Run combines every configured pattern, then reconciles the results.
func (s *ReconciliationService) Run(ctx context.Context) (RunResult, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "service.run")
	defer span.End()

	var result RunResult
	result.Combine = s.Combine(ctx)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	report, err := s.Reconcile(ctx)
	result.Report = report

	return result, stderrors.Join(CombineErrors(result.Combine), err)
}

// Inventory lists the files under the input directory matching pattern,
// grouped by base name.
func (s *ReconciliationService) Inventory(ctx context.Context, pattern string) ([]domain.FileCount, error) {
	counts, err := s.discovery.Inventory("", pattern)
	if err != nil {
		return nil, apperrors.NewInvalidPatternError(pattern, err)
	}
	s.logger.DebugContext(ctx, "Inventory complete",
		slog.String("pattern", pattern),
		slog.Int("names", len(counts)))
	return counts, nil
}

func (s *ReconciliationService) reconcileFunding(ctx context.Context) (domain.FundingSummary, error) {
	var summary domain.FundingSummary
	err := s.observe(ctx, KindFunding, s.config.FundingPath(), func(ctx context.Context, ds *dataset.Dataset) (err error) {
		summary, err = s.funding.Reconcile(ctx, ds)
		return err
	})
	return summary, err
}

func (s *ReconciliationService) reconcileSpot(ctx context.Context) ([]domain.SpotSymbolSummary, error) {
	var summaries []domain.SpotSymbolSummary
	err := s.observe(ctx, KindSpot, s.config.SpotPath(), func(ctx context.Context, ds *dataset.Dataset) (err error) {
		summaries, err = s.spot.Reconcile(ctx, ds)
		return err
	})
	return summaries, err
}

// observe reads the dataset at path and hands it to fn inside a span,
// recording duration and outcome.
func (s *ReconciliationService) observe(ctx context.Context, kind, path string, fn func(context.Context, *dataset.Dataset) error) (err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "reconcile."+kind, trace.WithAttributes(attribute.String("path", path)))
	defer func() {
		if err != nil {
			infrastructure.RecordError(ctx, err)
			infrastructure.WithError(s.logger, err).ErrorContext(ctx, "Reconciliation failed",
				slog.String("kind", kind),
				slog.String("path", path))
		}
		s.metrics.RecordReconciliation(ctx, kind, time.Since(start), err)
		span.End()
	}()

	ds, err := dataset.ReadFile(path)
	if err != nil {
		return apperrors.NewFileReadError(path, err)
	}
	return fn(ctx, ds)
}
