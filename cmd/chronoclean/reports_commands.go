package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportsCommand(ctx *commandContext) *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect verification reports",
	}

	reportsCmd.AddCommand(newReportsListCommand(ctx))
	reportsCmd.AddCommand(newReportsShowCommand(ctx))

	return reportsCmd
}

func newReportsListCommand(ctx *commandContext) *cobra.Command {
	var sel selection
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List verification reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := sel.filter()
			if err != nil {
				return err
			}
			filter.Limit = limit
			reports, err := ctx.catalog().Reports(filter)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, nonNil(reports))
			}
			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No verification reports found")
				return nil
			}
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					r.VerifyID,
					r.Age(),
					valueOrDash(r.RunID),
					string(r.Algorithm),
					fmt.Sprint(r.Summary.Total),
					fmt.Sprint(r.Eligible()),
					fmt.Sprint(r.Summary.Mismatch),
					fmt.Sprint(r.Missing()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Verify", "Created", "Run", "Algorithm", "Total", "OK", "Mismatch", "Missing"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&sel.source, "source", "s", "", "Only reports under this source root")
	cmd.Flags().StringVarP(&sel.destination, "destination", "d", "", "Only reports under this destination root")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of reports to list (0 for all)")
	return cmd
}

func newReportsShowCommand(ctx *commandContext) *cobra.Command {
	var sel selection

	cmd := &cobra.Command{
		Use:   "show [verify-id]",
		Short: "Show one verification report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				sel.id = args[0]
			}
			report, path, err := selectReport(ctx, cmd, &sel)
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verification: %s\n", report.VerifyID)
			fmt.Fprintf(out, "File:         %s\n", path)
			fmt.Fprintf(out, "Created:      %s\n", report.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Input:        %s\n", label(string(report.InputSource)))
			fmt.Fprintf(out, "Run:          %s\n", valueOrDash(report.RunIDValue()))
			fmt.Fprintf(out, "Algorithm:    %s\n", report.HashAlgorithm)
			fmt.Fprintln(out, renderSummary(report.Summary))

			rows := make([][]string, 0, len(report.Entries))
			for _, e := range report.Entries {
				rows = append(rows, []string{label(string(e.Status)), e.SourcePath, valueOrDash(e.ActualDestination())})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Status", "Source", "Destination"}, rows, []columnAlignment{alignLeft, alignLeft, alignLeft}))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sel.file, "verify-file", "", "Verification report file")
	cmd.Flags().BoolVar(&sel.last, "last", false, "Show the newest report")
	cmd.Flags().BoolVarP(&sel.yes, "yes", "y", false, "Never prompt; fail when the selection is ambiguous")
	return cmd
}
