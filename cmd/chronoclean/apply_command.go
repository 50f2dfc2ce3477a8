package main

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chronoclean/internal/organizer"
	"chronoclean/internal/preflight"
)

func newApplyCommand(ctx *commandContext) *cobra.Command {
	var (
		source      string
		destination string
		move        bool
		dryRun      bool
		noDryRun    bool
		noRecord    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Copy or move dated media into the destination library",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := requirePath("source", source)
			if err != nil {
				return err
			}
			dst, err := requirePath("destination", destination)
			if err != nil {
				return err
			}
			dry, err := resolveDryRun(cmd, cfg, dryRun, noDryRun)
			if err != nil {
				return err
			}

			org := organizer.New(cfg, ctx.log())
			if !dry && !move {
				proposals, _, _, err := org.Propose(cmd.Context(), src, dst)
				if err != nil {
					return err
				}
				var need int64
				for _, p := range proposals {
					need += p.File.Size
				}
				if err := preflight.EnsureFreeSpace(dst, need); err != nil {
					return err
				}
			}

			progress := newProgress(ctx, cmd, "Applying")
			outcome, err := org.Apply(cmd.Context(), organizer.Options{
				SourceRoot:      src,
				DestinationRoot: dst,
				Move:            move,
				DryRun:          dry,
				WriteRecord:     cfg.Verify.WriteRunRecord && !noRecord,
			}, progress.Update)
			progress.Finish()
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				failures := make([]map[string]string, 0, len(outcome.Failures))
				for _, f := range outcome.Failures {
					failures = append(failures, map[string]string{
						"source":      f.Source,
						"destination": f.Destination,
						"error":       f.Err.Error(),
					})
				}
				if err := writeJSON(cmd, map[string]any{
					"run_id":      outcome.Record.RunID,
					"record_path": outcome.RecordPath,
					"mode":        outcome.Record.Mode,
					"scanned":     outcome.Scanned,
					"bytes":       outcome.Bytes,
					"summary":     outcome.Record.Summary,
					"entries":     outcome.Record.Entries,
					"failures":    failures,
				}); err != nil {
					return err
				}
				return outcome.Err()
			}

			out := cmd.OutOrStdout()
			if dry {
				rows := make([][]string, 0, len(outcome.Plan.Operations))
				for _, op := range outcome.Plan.Operations {
					rel, relErr := filepath.Rel(dst, op.Destination)
					if relErr != nil {
						rel = op.Destination
					}
					rows = append(rows, []string{filepath.Base(op.Source), rel, yesNo(op.Renamed)})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable([]string{"Source", "Destination", "Renamed"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
				}
				fmt.Fprintln(out, "Dry run: no files were changed")
			}

			summary := outcome.Record.Summary
			fmt.Fprintf(out, "Run %s (%s)\n", outcome.Record.RunID, label(string(outcome.Record.Mode)))
			fmt.Fprintf(out, "Scanned: %d  Copied: %d  Moved: %d  Skipped: %d  Errors: %d\n",
				outcome.Scanned, summary.CopiedFiles, summary.MovedFiles, summary.SkippedFiles, summary.ErrorFiles)
			if outcome.Plan.CollisionsRenamed > 0 || outcome.Plan.DuplicatesSkipped > 0 {
				fmt.Fprintf(out, "Collisions renamed: %d  Duplicates skipped: %d\n",
					outcome.Plan.CollisionsRenamed, outcome.Plan.DuplicatesSkipped)
			}
			fmt.Fprintf(out, "Data: %s\n", humanize.IBytes(uint64(outcome.Bytes)))
			if outcome.RecordPath != "" {
				fmt.Fprintf(out, "Run record: %s\n", outcome.RecordPath)
			}

			lines := make([]string, 0, len(outcome.Failures))
			for _, f := range outcome.Failures {
				lines = append(lines, fmt.Sprintf("%s: %v", f.Source, f.Err))
			}
			printBounded(out, "Failed", lines)
			return outcome.Err()
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Source directory to organize")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Destination library root")
	cmd.Flags().BoolVar(&move, "move", false, "Move files instead of copying them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan and record without touching files")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Execute even when dry run is the configured default")
	cmd.Flags().BoolVar(&noRecord, "no-run-record", false, "Do not persist a run record")
	return cmd
}
