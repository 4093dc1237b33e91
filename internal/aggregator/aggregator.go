package aggregator

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"exrecon/internal/config"
	"exrecon/internal/dataset"
	apperrors "exrecon/internal/errors"
	"exrecon/internal/exporter"
	"exrecon/internal/files"
	"exrecon/internal/infrastructure"
	"exrecon/pkg/contracts/domain"
)

// Config holds the aggregator settings.
type Config struct {
	InputDir  string
	OutputDir string
	Workers   int // concurrent file loads per combination

	Tracer  trace.Tracer
	Metrics *infrastructure.ReconMetrics
}

// Aggregator merges the export shards matching each combination pattern into
// one deduplicated CSV file.
type Aggregator struct {
	logger    *slog.Logger
	discovery *files.Discovery
	writer    *exporter.CSVWriter
	workers   int
	tracer    trace.Tracer
	metrics   *infrastructure.ReconMetrics
}

// New creates an aggregator. A nil logger uses slog.Default.
func New(logger *slog.Logger, cfg Config) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = config.DefaultWorkers
	}
	if cfg.Workers > config.MaxWorkers {
		cfg.Workers = config.MaxWorkers
	}
	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)
	}

	logger = infrastructure.WithComponent(logger, "aggregator")
	return &Aggregator{
		logger:    logger,
		discovery: files.NewDiscovery(cfg.InputDir),
		writer:    exporter.NewCSVWriter(cfg.OutputDir, logger),
		workers:   cfg.Workers,
		tracer:    cfg.Tracer,
		metrics:   cfg.Metrics,
	}
}

// Combine processes every combination in order and returns one result per
// combination. A failing combination never stops the ones after it; only
// cancellation of ctx does, marking the remainder as canceled.
func (a *Aggregator) Combine(ctx context.Context, combinations []config.Combination) []domain.CombineResult {
	results := make([]domain.CombineResult, 0, len(combinations))
	for _, c := range combinations {
		if err := ctx.Err(); err != nil {
			results = append(results, domain.CombineResult{
				Pattern: c.Pattern,
				Output:  a.writer.ResolvePath(c.Output),
				Status:  domain.CombineStatusCanceled,
				Err:     err,
			})
			continue
		}
		results = append(results, a.CombineOne(ctx, c))
	}
	return results
}

// CombineOne discovers, loads, merges and writes a single combination.
func (a *Aggregator) CombineOne(ctx context.Context, c config.Combination) (result domain.CombineResult) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "aggregator.combine", trace.WithAttributes(
		attribute.String("pattern", c.Pattern),
		attribute.String("output", c.Output),
	))
	defer span.End()

	result = domain.CombineResult{
		Pattern: c.Pattern,
		Output:  a.writer.ResolvePath(c.Output),
	}
	defer func() {
		if result.Err != nil {
			infrastructure.RecordError(ctx, result.Err)
		}
		a.metrics.RecordCombination(ctx, result, time.Since(start))
	}()

	logger := a.logger.With(slog.String("pattern", c.Pattern), slog.String("output", result.Output))

	matches, err := a.discovery.FindFilesByPattern("", c.Pattern)
	if err != nil {
		result.Status = domain.CombineStatusNoMatch
		result.Err = apperrors.NewInvalidPatternError(c.Pattern, err)
		infrastructure.WithError(logger, err).WarnContext(ctx, "Invalid pattern")
		return result
	}
	result.FilesMatched = len(matches)

	if len(matches) == 0 {
		result.Status = domain.CombineStatusNoMatch
		result.Err = apperrors.NewNoMatchError(c.Pattern)
		logger.WarnContext(ctx, "No files matched pattern")
		return result
	}

	loaded, failures, err := a.load(ctx, matches)
	if err != nil {
		result.Status = domain.CombineStatusCanceled
		result.Err = err
		return result
	}

	for _, f := range failures {
		result.FilesSkipped = append(result.FilesSkipped, f.path)
		infrastructure.WithError(logger, f.err).WarnContext(ctx, "Skipping unreadable file",
			slog.String("file", f.path))
		infrastructure.AddSpanEvent(ctx, "file skipped", attribute.String("file", f.path))
	}
	result.FilesLoaded = len(matches) - len(failures)

	for _, ds := range loaded {
		if ds != nil {
			result.RowsRead += ds.Len()
		}
	}

	merged, dropped := dataset.Merge(loaded...)
	result.DuplicateRows = dropped

	if merged.Len() == 0 {
		result.Status = domain.CombineStatusEmpty
		result.Err = apperrors.NewEmptyResultError(c.Pattern)
		logger.WarnContext(ctx, "No valid data to combine",
			slog.Int("files_matched", result.FilesMatched),
			slog.Int("files_skipped", len(result.FilesSkipped)))
		return result
	}

	path, err := a.writer.WriteDataset(c.Output, merged)
	result.Output = path
	if err != nil {
		result.Status = domain.CombineStatusWriteFailed
		result.Err = err
		infrastructure.WithError(logger, err).ErrorContext(ctx, "Failed to write combined file")
		return result
	}

	result.Status = domain.CombineStatusWritten
	result.RowsWritten = merged.Len()
	logger.InfoContext(ctx, "Combined files",
		slog.Int("files_matched", result.FilesMatched),
		slog.Int("files_skipped", len(result.FilesSkipped)),
		slog.Int("rows_read", result.RowsRead),
		slog.Int("duplicates_dropped", result.DuplicateRows),
		slog.Int("rows_written", result.RowsWritten),
		slog.Duration("duration", time.Since(start)))

	return result
}

type loadFailure struct {
	path string
	err  error
}

// load reads the matched files on a bounded pool. The returned slice is in
// discovery order, with nil entries for files that failed to load.
func (a *Aggregator) load(ctx context.Context, matches []files.FileInfo) ([]*dataset.Dataset, []loadFailure, error) {
	loaded := make([]*dataset.Dataset, len(matches))
	errs := make([]error, len(matches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, f := range matches {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := dataset.ReadFile(f.Path)
			if err != nil {
				errs[i] = apperrors.NewFileReadError(f.Path, err)
				return nil
			}
			loaded[i] = ds
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var failures []loadFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, loadFailure{path: matches[i].Path, err: err})
		}
	}
	return loaded, failures, nil
}
