package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"exrecon/internal/config"
	apperrors "exrecon/internal/errors"
	"exrecon/internal/infrastructure"
	"exrecon/internal/report"
	"exrecon/internal/services"
	"exrecon/pkg/contracts"
)

// Output formats accepted by --format.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

const shutdownTimeout = 5 * time.Second

// options holds the persistent flags. Flags override the config file and
// RECON_* environment variables only when set.
type options struct {
	configPath  string
	inputDir    string
	outputDir   string
	logLevel    string
	format      string
	workers     int
	metricsFile string
}

// app is everything a subcommand needs for one invocation.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	providers *infrastructure.OTelProviders
	service   *services.ReconciliationService
	renderer  *report.Renderer
	format    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "recon",
		Short: "Combine exchange CSV exports and reconcile funding against spot trading",
		Long: `recon merges the many per-period CSV files an exchange produces into one
deduplicated file per export category, then reconciles the funding account
history against filled spot orders.

  recon combine     merge every configured pattern into its output file
  recon reconcile   summarize the combined funding and spot files
  recon run         combine, then reconcile
  recon inventory   count files per name under the input directory`,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file (default: recon.yaml or configs/recon.yaml if present)")
	flags.StringVarP(&opts.inputDir, "input-dir", "i", "", "Root directory searched by combination patterns")
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for combined files")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVarP(&opts.format, "format", "f", FormatTable, "Output format: table or json")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Files loaded in parallel per combination")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write a Prometheus text-format metrics snapshot to this file")

	root.AddCommand(
		newCombineCmd(opts),
		newReconcileCmd(opts),
		newRunCmd(opts),
		newInventoryCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration and usage problems to 2, everything else to 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case apperrors.IsType(err, apperrors.ErrTypeConfig):
		return 2
	default:
		return 1
	}
}

// withApp builds the application for one subcommand, runs fn and tears the
// telemetry down afterwards, whether fn failed or not.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}

	ctx := infrastructure.ContextWithTraceID(cmd.Context())
	defer func() {
		if werr := a.providers.WriteMetricsFile(a.cfg.Telemetry.MetricsFile); werr != nil {
			infrastructure.WithError(a.logger, werr).ErrorContext(ctx, "Failed to write metrics file")
		}
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if serr := a.providers.Shutdown(sctx); serr != nil {
			infrastructure.WithError(a.logger, serr).WarnContext(ctx, "Telemetry shutdown failed")
		}
		if cerr := infrastructure.CloseLogFile(); cerr != nil {
			fmt.Fprintln(os.Stderr, "Error: closing log file:", cerr)
		}
	}()

	start := time.Now()
	a.logger.InfoContext(ctx, "Command started",
		slog.String("command", cmd.Name()),
		slog.String("input_dir", a.cfg.Paths.InputDir),
		slog.String("output_dir", a.cfg.Paths.OutputDir))

	err = fn(ctx, a)

	attrs := []any{
		slog.String("command", cmd.Name()),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		infrastructure.WithError(a.logger, err).ErrorContext(ctx, "Command failed", attrs...)
	} else {
		a.logger.InfoContext(ctx, "Command finished", attrs...)
	}
	return err
}

func newApp(cmd *cobra.Command, opts *options) (*app, error) {
	if opts.format != FormatTable && opts.format != FormatJSON {
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown output format %q", opts.format), nil)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	opts.apply(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewConfigError("invalid flags", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize telemetry", err)
	}

	svc, err := services.NewReconciliationServiceWithTelemetry(cfg, logger, providers)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		providers: providers,
		service:   svc,
		renderer:  report.NewRenderer(cmd.OutOrStdout()),
		format:    opts.format,
	}, nil
}

// apply copies explicitly set flags onto cfg. A metrics file implies the
// prometheus exporter.
func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("input-dir") {
		cfg.Paths.InputDir = o.inputDir
	}
	if flags.Changed("output-dir") {
		cfg.Paths.OutputDir = o.outputDir
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if flags.Changed("workers") {
		cfg.Combine.Workers = o.workers
	}
	if flags.Changed("metrics-file") {
		cfg.Telemetry.MetricsFile = o.metricsFile
	}
	if cfg.Telemetry.MetricsFile != "" && cfg.Telemetry.MetricExporter == "none" {
		cfg.Telemetry.MetricExporter = "prometheus"
	}
}
