package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"exrecon/internal/services"
	"exrecon/pkg/contracts/domain"
)

func newCombineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "combine",
		Short: "Merge every configured pattern into one deduplicated CSV per output",
		Long: `Finds every file matching each configured pattern under the input
directory, merges them with duplicate rows removed, and writes the result to
the output directory. A pattern with no matches is reported and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				results := a.service.Combine(ctx)
				if err := a.printCombine(results); err != nil {
					return err
				}
				return services.CombineErrors(results)
			})
		},
	}
}

func newReconcileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Summarize the combined funding and spot files",
		Long: `Reads the combined funding account history and spot filled orders from
the output directory and prints the funding summary, per-symbol spot summary,
spot totals and the combined net result. Summaries that succeed are printed
even when the other one fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				rep, err := a.service.Reconcile(ctx)
				if perr := a.printReport(rep); perr != nil {
					return errors.Join(err, perr)
				}
				return err
			})
		},
	}
}

func newRunCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Combine, then reconcile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				result, err := a.service.Run(ctx)
				if perr := a.printRun(result); perr != nil {
					return errors.Join(err, perr)
				}
				return err
			})
		},
	}
}

func newInventoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inventory [pattern]",
		Short: "Count files per name under the input directory",
		Long: `Lists every file under the input directory matching pattern (default
"**/*.csv"), grouped by file name, with a recursive pattern that selects
each group. Useful for writing the combination list.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "**/*.csv"
			if len(args) == 1 {
				pattern = args[0]
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				counts, err := a.service.Inventory(ctx, pattern)
				if err != nil {
					return err
				}
				if a.format == FormatJSON {
					return a.renderer.JSON(counts)
				}
				return a.renderer.Inventory(counts)
			})
		},
	}
}

func (a *app) printCombine(results []domain.CombineResult) error {
	if a.format == FormatJSON {
		return a.renderer.JSON(results)
	}
	return a.renderer.CombineResults(results)
}

func (a *app) printReport(rep domain.ReconciliationReport) error {
	if a.format == FormatJSON {
		return a.renderer.JSON(rep)
	}
	return a.renderer.Report(rep)
}

func (a *app) printRun(result services.RunResult) error {
	if a.format == FormatJSON {
		return a.renderer.JSON(result)
	}
	if err := a.renderer.CombineResults(result.Combine); err != nil {
		return err
	}
	return a.renderer.Report(result.Report)
}
