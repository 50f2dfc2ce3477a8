package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chronoclean/internal/hashing"
	"chronoclean/internal/logging"
	"chronoclean/internal/organizer"
	"chronoclean/internal/runrecord"
	"chronoclean/internal/verify"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var (
		sel         selection
		algorithm   string
		reconstruct bool
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify that organized copies match their sources",
		Long: "Verify checks every copy recorded in a run record against its source and\n" +
			"writes a verification report. With --reconstruct the expected mapping is\n" +
			"re-derived from --source and --destination instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := cfg.Verify.Algorithm
			if strings.TrimSpace(algorithm) != "" {
				name = algorithm
			}
			mode, err := verify.ParseMode(name)
			if err != nil {
				return err
			}

			var cache *hashing.Cache
			if cfg.Duplicates.CacheHashes {
				cache = hashing.NewCache()
			}
			logger := ctx.log()
			progress := newProgress(ctx, cmd, "Verifying")

			var report *verify.Report
			if reconstruct {
				src, err := requirePath("source", sel.source)
				if err != nil {
					return err
				}
				dst, err := requirePath("destination", sel.destination)
				if err != nil {
					return err
				}
				pairs, err := organizer.New(cfg, logger).ExpectedMapping(cmd.Context(), src, dst)
				if err != nil {
					return err
				}
				verifier := verify.New(mode, cfg.Verify.ContentSearchOnReconstruct, cache, logger)
				report, err = verifier.Reconstruct(cmd.Context(), src, dst, pairs, progress.Update)
				progress.Finish()
				if err != nil {
					return err
				}
			} else {
				rec, _, err := selectRun(ctx, cmd, &sel)
				if err != nil {
					return err
				}
				if drift := runrecord.SignatureFor(cfg).Drift(rec.ConfigSignature); len(drift) > 0 {
					logging.WarnWithContext(logger, "configuration changed since the run", "config_drift",
						logging.String(logging.FieldRunID, rec.RunID),
						logging.String("fields", strings.Join(drift, ",")),
						logging.String(logging.FieldImpact, "reconstructed paths may differ from the recorded ones"),
					)
				}
				report, err = verify.New(mode, false, cache, logger).FromRunRecord(cmd.Context(), rec, progress.Update)
				progress.Finish()
				if err != nil {
					return err
				}
			}

			path, err := report.Save(cfg.VerificationDir())
			if err != nil {
				logging.ErrorWithContext(logger, "verification report not saved", "verify_report_write_failed",
					logging.String("verify_id", report.VerifyID),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check that the verification directory is writable"),
				)
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"verify_id":   report.VerifyID,
					"report_path": path,
					"run_id":      report.RunID,
					"algorithm":   report.HashAlgorithm,
					"summary":     report.Summary,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Verification %s (%s, %s)\n", report.VerifyID, report.HashAlgorithm, label(string(report.InputSource)))
			fmt.Fprintln(out, renderSummary(report.Summary))
			if mode == verify.ModeQuick {
				fmt.Fprintln(out, "Quick mode compares sizes only; cleanup requires sha256 unless verify.allow_cleanup_on_quick is set")
			}

			var problems []string
			for _, entry := range report.Entries {
				if entry.Status.Verified() {
					continue
				}
				line := fmt.Sprintf("%s: %s", entry.SourcePath, label(string(entry.Status)))
				if text := entry.ErrorText(); text != "" {
					line += " (" + text + ")"
				}
				problems = append(problems, line)
			}
			printBounded(out, "Problems", problems)
			fmt.Fprintf(out, "Report: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&sel.file, "run-file", "", "Run record file to verify")
	cmd.Flags().StringVar(&sel.id, "run-id", "", "Run id to verify")
	cmd.Flags().BoolVar(&sel.last, "last", false, "Use the newest matching run record")
	cmd.Flags().BoolVarP(&sel.yes, "yes", "y", false, "Never prompt; fail when the selection is ambiguous")
	cmd.Flags().StringVarP(&sel.source, "source", "s", "", "Filter runs by source root (required with --reconstruct)")
	cmd.Flags().StringVarP(&sel.destination, "destination", "d", "", "Filter runs by destination root (required with --reconstruct)")
	cmd.Flags().BoolVar(&sel.includeDryRuns, "include-dry-runs", false, "Consider dry-run records")
	cmd.Flags().StringVar(&algorithm, "algorithm", "", "Verification algorithm (sha256 or quick)")
	cmd.Flags().BoolVar(&reconstruct, "reconstruct", false, "Derive the expected mapping instead of reading a run record")
	return cmd
}

func renderSummary(s verify.Summary) string {
	rows := [][]string{
		{label(string(verify.StatusOK)), fmt.Sprint(s.OK)},
		{label(string(verify.StatusDuplicateElsewhere)), fmt.Sprint(s.DuplicateElsewhere)},
		{label(string(verify.StatusMismatch)), fmt.Sprint(s.Mismatch)},
		{label(string(verify.StatusMissingDestination)), fmt.Sprint(s.MissingDestination)},
		{label(string(verify.StatusMissingSource)), fmt.Sprint(s.MissingSource)},
		{label(string(verify.StatusError)), fmt.Sprint(s.Error)},
		{label(string(verify.StatusSkipped)), fmt.Sprint(s.Skipped)},
		{"Total", fmt.Sprint(s.Total)},
	}
	return renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}
