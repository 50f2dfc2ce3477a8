package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chronoclean/internal/cleaner"
	"chronoclean/internal/services"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var (
		sel      selection
		only     string
		dryRun   bool
		noDryRun bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete sources whose copies passed verification",
		Long: "Cleanup reads a verification report and deletes the sources of entries that\n" +
			"verified with sha256 and whose copy still exists. Dry run is the default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if o := strings.ToLower(strings.TrimSpace(only)); o != "" && o != "ok" {
				return services.Wrap(services.ErrValidation, "cli", "cleanup", fmt.Sprintf("unsupported --only value %q (only \"ok\")", only), nil)
			}
			dry, err := resolveDryRun(cmd, cfg, dryRun, noDryRun)
			if err != nil {
				return err
			}

			report, path, err := selectReport(ctx, cmd, &sel)
			if err != nil {
				return err
			}

			c := cleaner.New(dry, cfg.Verify.AllowCleanupOnQuick, ctx.log())
			eligible := c.Eligible(report)
			if !dry && len(eligible) > 0 && !force {
				if sel.yes {
					return services.Wrap(services.ErrValidation, "cli", "cleanup", "live cleanup without a prompt requires --force", nil)
				}
				ok, err := confirm(cmd, fmt.Sprintf("Delete %d source files verified by %s?", len(eligible), report.VerifyID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cleanup cancelled")
					return nil
				}
			}

			progress := newProgress(ctx, cmd, "Cleaning")
			result, err := c.Cleanup(cmd.Context(), report, progress.Update)
			progress.Finish()
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"verify_id":      report.VerifyID,
					"report_path":    path,
					"dry_run":        result.DryRun,
					"total_eligible": result.TotalEligible,
					"deleted":        result.Deleted,
					"skipped":        result.Skipped,
					"failed":         result.Failed,
					"bytes_freed":    result.BytesFreed,
					"deleted_paths":  nonNil(result.DeletedPaths),
					"skipped_paths":  nonNil(result.SkippedPaths),
					"failed_paths":   nonNil(result.FailedPaths),
				}); err != nil {
					return err
				}
				return cleanupErr(result)
			}

			out := cmd.OutOrStdout()
			verb := "Deleted"
			if result.DryRun {
				verb = "Would delete"
				fmt.Fprintln(out, "Dry run: no files were deleted (pass --no-dry-run to delete)")
			}
			fmt.Fprintf(out, "Report %s: %d eligible\n", report.VerifyID, result.TotalEligible)
			fmt.Fprintf(out, "%s: %d (%s)  Skipped: %d  Failed: %d  Success: %.1f%%\n",
				verb, result.Deleted, humanize.IBytes(uint64(result.BytesFreed)), result.Skipped, result.Failed, result.SuccessRate())

			if len(result.FailedPaths) > 0 {
				rows := make([][]string, 0, len(result.FailedPaths))
				for i, f := range result.FailedPaths {
					if i == maxListedFailures {
						rows = append(rows, []string{fmt.Sprintf("… and %d more", len(result.FailedPaths)-maxListedFailures), ""})
						break
					}
					rows = append(rows, []string{f.Path, f.Reason})
				}
				fmt.Fprintln(out, renderTable([]string{"Path", "Reason"}, rows, []columnAlignment{alignLeft, alignLeft}))
			}
			skipped := make([]string, 0, len(result.SkippedPaths))
			for _, s := range result.SkippedPaths {
				skipped = append(skipped, fmt.Sprintf("%s: %s", s.Path, s.Reason))
			}
			printBounded(out, "Skipped", skipped)
			return cleanupErr(result)
		},
	}

	cmd.Flags().StringVar(&sel.file, "verify-file", "", "Verification report file")
	cmd.Flags().StringVar(&sel.id, "verify-id", "", "Verification id")
	cmd.Flags().BoolVar(&sel.last, "last", false, "Use the newest matching report")
	cmd.Flags().BoolVarP(&sel.yes, "yes", "y", false, "Never prompt; fail when the selection is ambiguous")
	cmd.Flags().StringVarP(&sel.source, "source", "s", "", "Filter reports by source root")
	cmd.Flags().StringVarP(&sel.destination, "destination", "d", "", "Filter reports by destination root")
	cmd.Flags().StringVar(&only, "only", "ok", "Status filter (only \"ok\" is supported)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be deleted")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Delete files even when dry run is the configured default")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}

func cleanupErr(result cleaner.Result) error {
	if result.Failed == 0 {
		return nil
	}
	return services.Wrap(services.ErrTransient, "cleaner", "cleanup", fmt.Sprintf("%d deletions failed", result.Failed), nil)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
