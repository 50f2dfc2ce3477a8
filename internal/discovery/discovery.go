package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"chronoclean/internal/logging"
	"chronoclean/internal/runrecord"
	"chronoclean/internal/services"
	"chronoclean/internal/verify"
)

// Filter narrows listings. Empty roots match everything; Limit <= 0 means no
// limit.
type Filter struct {
	SourceRoot      string
	DestinationRoot string
	IncludeDryRuns  bool
	Limit           int
}

// RunSummary describes one run record on disk.
type RunSummary struct {
	RunID           string         `json:"run_id"`
	Path            string         `json:"path"`
	CreatedAt       time.Time      `json:"created_at"`
	SourceRoot      string         `json:"source_root"`
	DestinationRoot string         `json:"destination_root"`
	Mode            runrecord.Mode `json:"mode"`
	TotalFiles      int            `json:"total_files"`
	ErrorFiles      int            `json:"error_files"`
}

// DryRun reports whether the record came from a dry run.
func (s RunSummary) DryRun() bool {
	return s.Mode == runrecord.ModeDryRun
}

// Age renders how long ago the run happened.
func (s RunSummary) Age() string {
	return humanize.Time(s.CreatedAt)
}

// ReportSummary describes one verification report on disk.
type ReportSummary struct {
	VerifyID        string         `json:"verify_id"`
	Path            string         `json:"path"`
	CreatedAt       time.Time      `json:"created_at"`
	SourceRoot      string         `json:"source_root"`
	DestinationRoot string         `json:"destination_root"`
	RunID           string         `json:"run_id"`
	Algorithm       verify.Mode    `json:"hash_algorithm"`
	Summary         verify.Summary `json:"summary"`
}

// Eligible is the upper bound of entries cleanup could act on.
func (s ReportSummary) Eligible() int {
	return s.Summary.Verified()
}

// Missing counts missing sources and destinations together.
func (s ReportSummary) Missing() int {
	return s.Summary.MissingSource + s.Summary.MissingDestination
}

// Age renders how long ago the verification happened.
func (s ReportSummary) Age() string {
	return humanize.Time(s.CreatedAt)
}

// Catalog reads the run and verification directories.
type Catalog struct {
	RunsDir    string
	ReportsDir string
	logger     *slog.Logger
}

// New returns a catalog over the given directories.
func New(runsDir, reportsDir string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Catalog{RunsDir: runsDir, ReportsDir: reportsDir, logger: logging.NewComponentLogger(logger, "discovery")}
}

// Runs lists run records newest first. Malformed files are logged and
// skipped. Dry runs are excluded unless the filter asks for them.
func (c *Catalog) Runs(filter Filter) ([]RunSummary, error) {
	paths, err := listJSON(c.RunsDir, "_apply")
	if err != nil {
		return nil, err
	}
	src, dst, err := filter.roots()
	if err != nil {
		return nil, err
	}

	var out []RunSummary
	for _, path := range paths {
		rec, err := runrecord.Load(path)
		if err != nil {
			c.warnMalformed(path, err)
			continue
		}
		if rec.IsDryRun() && !filter.IncludeDryRuns {
			continue
		}
		if !underRoot(rec.SourceRoot, src) || !underRoot(rec.DestinationRoot, dst) {
			continue
		}
		out = append(out, RunSummary{
			RunID:           rec.RunID,
			Path:            path,
			CreatedAt:       rec.CreatedAt.Time,
			SourceRoot:      rec.SourceRoot,
			DestinationRoot: rec.DestinationRoot,
			Mode:            rec.Mode,
			TotalFiles:      rec.Summary.TotalFiles,
			ErrorFiles:      rec.Summary.ErrorFiles,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limit(out, filter.Limit), nil
}

// Reports lists verification reports newest first.
func (c *Catalog) Reports(filter Filter) ([]ReportSummary, error) {
	paths, err := listJSON(c.ReportsDir, "_verify")
	if err != nil {
		return nil, err
	}
	src, dst, err := filter.roots()
	if err != nil {
		return nil, err
	}

	var out []ReportSummary
	for _, path := range paths {
		report, err := verify.Load(path)
		if err != nil {
			c.warnMalformed(path, err)
			continue
		}
		if !underRoot(report.SourceRoot, src) || !underRoot(report.DestinationRoot, dst) {
			continue
		}
		out = append(out, ReportSummary{
			VerifyID:        report.VerifyID,
			Path:            path,
			CreatedAt:       report.CreatedAt.Time,
			SourceRoot:      report.SourceRoot,
			DestinationRoot: report.DestinationRoot,
			RunID:           report.RunIDValue(),
			Algorithm:       report.HashAlgorithm,
			Summary:         report.Summary,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return limit(out, filter.Limit), nil
}

// FindRun returns the path of the record with runID. The expected filenames
// are checked first, then every record is opened and compared.
func (c *Catalog) FindRun(runID string) (string, error) {
	runID = strings.TrimSpace(runID)
	for _, dry := range []bool{false, true} {
		candidate := filepath.Join(c.RunsDir, runrecord.Filename(runID, dry))
		if isFile(candidate) {
			return candidate, nil
		}
	}
	paths, err := listJSON(c.RunsDir, "_apply")
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		rec, err := runrecord.Load(path)
		if err == nil && rec.RunID == runID {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "discovery", "find run", fmt.Sprintf("no run record with id %q", runID), nil)
}

// FindReport returns the path of the report with verifyID.
func (c *Catalog) FindReport(verifyID string) (string, error) {
	verifyID = strings.TrimSpace(verifyID)
	candidate := filepath.Join(c.ReportsDir, verify.Filename(verifyID))
	if isFile(candidate) {
		return candidate, nil
	}
	paths, err := listJSON(c.ReportsDir, "_verify")
	if err != nil {
		return "", err
	}
	for _, path := range paths {
		report, err := verify.Load(path)
		if err == nil && report.VerifyID == verifyID {
			return path, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "discovery", "find report", fmt.Sprintf("no verification report with id %q", verifyID), nil)
}

func (c *Catalog) warnMalformed(path string, err error) {
	logging.WarnWithContext(c.logger, "skipping unreadable state file", "state_file_malformed",
		logging.String(logging.FieldPath, path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "remove or repair the file"),
	)
}

func (f Filter) roots() (string, string, error) {
	src, err := absOrEmpty(f.SourceRoot)
	if err != nil {
		return "", "", err
	}
	dst, err := absOrEmpty(f.DestinationRoot)
	if err != nil {
		return "", "", err
	}
	return src, dst, nil
}

func absOrEmpty(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "discovery", "resolve filter", path, err)
	}
	return abs, nil
}

// underRoot reports whether path equals root or lies beneath it.
func underRoot(path, root string) bool {
	if root == "" {
		return true
	}
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator))
}

// listJSON returns the names in dir ending in "<marker>*.json". A missing
// directory yields no entries.
func listJSON(dir, marker string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrPersistence, "discovery", "list", dir, err)
	}
	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.Contains(name, marker) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
