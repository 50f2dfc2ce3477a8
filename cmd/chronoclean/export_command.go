package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

type exportFlags struct {
	source      string
	destination string
	output      string
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export scan results with proposed destinations",
	}

	exportCmd.AddCommand(newExportFormatCommand(ctx, "json", writeExportJSON))
	exportCmd.AddCommand(newExportFormatCommand(ctx, "csv", writeExportCSV))

	return exportCmd
}

func newExportFormatCommand(ctx *commandContext, format string, write func(io.Writer, []scannedFile) error) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   format,
		Short: fmt.Sprintf("Export scan results as %s", strings.ToUpper(format)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := requirePath("source", flags.source)
			if err != nil {
				return err
			}
			dst, err := optionalPath(flags.destination)
			if err != nil {
				return err
			}
			files, _, err := collectScan(cmd.Context(), ctx, cfg, src, dst)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(flags.output)
			if target == "" || target == "-" {
				return write(cmd.OutOrStdout(), files)
			}
			f, err := os.Create(target)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			if err := write(f, files); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close export file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d files to %s\n", len(files), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.source, "source", "s", "", "Directory to scan")
	cmd.Flags().StringVarP(&flags.destination, "destination", "d", "", "Destination root for proposed paths")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func writeExportJSON(w io.Writer, files []scannedFile) error {
	return writeJSONTo(w, nonNil(files))
}

func writeExportCSV(w io.Writer, files []scannedFile) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "size", "date", "date_source", "destination"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, f := range files {
		record := []string{f.Source, strconv.FormatInt(f.Size, 10), f.Date, f.DateSource, f.Destination}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
