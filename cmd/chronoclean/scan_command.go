package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chronoclean/internal/config"
	"chronoclean/internal/hashing"
	"chronoclean/internal/organizer"
	"chronoclean/internal/scan"
)

// scannedFile is the flattened view shared by scan and export output.
type scannedFile struct {
	Source      string `json:"source"`
	Size        int64  `json:"size"`
	Date        string `json:"date"`
	DateSource  string `json:"date_source"`
	Destination string `json:"destination"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var (
		source      string
		destination string
		duplicates  bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List media files and their detected dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := requirePath("source", source)
			if err != nil {
				return err
			}
			dst, err := optionalPath(destination)
			if err != nil {
				return err
			}

			files, result, err := collectScan(cmd.Context(), ctx, cfg, src, dst)
			if err != nil {
				return err
			}

			var groups [][]string
			if duplicates {
				groups, err = duplicateGroups(cfg, files)
				if err != nil {
					return err
				}
			}

			if ctx.JSONMode() {
				payload := map[string]any{
					"source":      src,
					"files":       files,
					"total_bytes": result.TotalBytes(),
					"truncated":   result.Truncated,
					"errors":      len(result.Errors),
				}
				if duplicates {
					payload["duplicates"] = nonNil(groups)
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No media files found under %s\n", src)
				return nil
			}

			headers := []string{"File", "Size", "Date", "Source"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}
			if dst != "" {
				headers = append(headers, "Destination")
				aligns = append(aligns, alignLeft)
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rel, relErr := filepath.Rel(src, f.Source)
				if relErr != nil {
					rel = f.Source
				}
				row := []string{rel, humanize.IBytes(uint64(f.Size)), valueOrDash(f.Date), label(f.DateSource)}
				if dst != "" {
					row = append(row, valueOrDash(relativeTo(dst, f.Destination)))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))

			dated, undated := result.Dated()
			fmt.Fprintf(out, "Files: %d (%s)  Dated: %d  Undated: %d\n",
				len(files), humanize.IBytes(uint64(result.TotalBytes())), len(dated), len(undated))
			if result.Truncated {
				fmt.Fprintf(out, "Scan stopped at the configured limit of %s files\n", humanize.Comma(int64(cfg.Scan.Limit)))
			}
			errs := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Err))
			}
			printBounded(out, "Unreadable", errs)

			if duplicates {
				if len(groups) == 0 {
					fmt.Fprintln(out, "No duplicate content found")
				}
				for i, group := range groups {
					printBounded(out, fmt.Sprintf("Duplicate group %d", i+1), group)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Directory to scan")
	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Show proposed destinations under this root")
	cmd.Flags().BoolVar(&duplicates, "duplicates", false, "Group files with identical content")
	return cmd
}

// collectScan scans src and, when dst is set, attaches proposed destinations.
func collectScan(ctx context.Context, cc *commandContext, cfg *config.Config, src, dst string) ([]scannedFile, scan.Result, error) {
	org := organizer.New(cfg, cc.log())
	destinations := make(map[string]string)
	var result scan.Result
	if dst != "" {
		proposals, _, scanned, err := org.Propose(ctx, src, dst)
		if err != nil {
			return nil, scanned, err
		}
		for _, p := range proposals {
			destinations[p.File.Path] = p.Destination
		}
		result = scanned
	} else {
		scanner := scan.NewScanner(cfg.MediaExtensions(), cfg.General.Recursive, cfg.Scan.Limit, cc.log())
		scanned, err := scanner.Scan(ctx, src)
		if err != nil {
			return nil, scanned, err
		}
		result = scanned
	}

	files := make([]scannedFile, 0, len(result.Files))
	for _, f := range result.Files {
		entry := scannedFile{
			Source:      f.Path,
			Size:        f.Size,
			DateSource:  string(f.DateSource),
			Destination: destinations[f.Path],
		}
		if f.HasDate() {
			entry.Date = f.Date.Format("2006-01-02 15:04:05")
		}
		files = append(files, entry)
	}
	return files, result, nil
}

func duplicateGroups(cfg *config.Config, files []scannedFile) ([][]string, error) {
	algorithm, err := hashing.ParseAlgorithm(cfg.Duplicates.HashingAlgorithm)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Source)
	}
	found := hashing.NewChecker(algorithm, hashing.NewCache()).FindDuplicates(paths)
	groups := make([][]string, 0, len(found))
	for _, members := range found {
		sort.Strings(members)
		groups = append(groups, members)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups, nil
}

func relativeTo(root, path string) string {
	if path == "" {
		return ""
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
