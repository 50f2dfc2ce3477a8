package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chronoclean/internal/runrecord"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect apply run records",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *commandContext) *cobra.Command {
	var sel selection
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List run records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := sel.filter()
			if err != nil {
				return err
			}
			filter.Limit = limit
			runs, err := ctx.catalog().Runs(filter)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, nonNil(runs))
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No run records found")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID,
					run.Age(),
					label(string(run.Mode)),
					run.SourceRoot,
					run.DestinationRoot,
					fmt.Sprint(run.TotalFiles),
					fmt.Sprint(run.ErrorFiles),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Created", "Mode", "Source", "Destination", "Files", "Errors"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sel.source, "source", "s", "", "Only runs under this source root")
	cmd.Flags().StringVarP(&sel.destination, "destination", "d", "", "Only runs under this destination root")
	cmd.Flags().BoolVar(&sel.includeDryRuns, "include-dry-runs", false, "Include dry-run records")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				sel.id = args[0]
			}
			rec, path, err := selectRun(ctx, cmd, &sel)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, rec)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:         %s\n", rec.RunID)
			fmt.Fprintf(out, "File:        %s\n", path)
			fmt.Fprintf(out, "Created:     %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Mode:        %s\n", label(string(rec.Mode)))
			fmt.Fprintf(out, "Source:      %s\n", rec.SourceRoot)
			fmt.Fprintf(out, "Destination: %s\n", rec.DestinationRoot)
			s := rec.Summary
			fmt.Fprintf(out, "Summary:     %d total, %d copied, %d moved, %d skipped, %d errors in %.1fs\n",
				s.TotalFiles, s.CopiedFiles, s.MovedFiles, s.SkippedFiles, s.ErrorFiles, s.DurationSeconds)

			rows := make([][]string, 0, len(rec.Entries))
			for _, e := range rec.Entries {
				detail := e.Destination()
				if e.Operation == runrecord.OpSkip && e.Reason != nil {
					detail = *e.Reason
				}
				rows = append(rows, []string{label(string(e.Operation)), e.SourcePath, valueOrDash(detail)})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Operation", "Source", "Destination / Reason"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sel.file, "run-file", "", "Run record file")
	cmd.Flags().BoolVar(&sel.last, "last", false, "Show the newest run record")
	cmd.Flags().BoolVarP(&sel.yes, "yes", "y", false, "Never prompt; fail when the selection is ambiguous")
	cmd.Flags().BoolVar(&sel.includeDryRuns, "include-dry-runs", false, "Consider dry-run records")
	return cmd
}
