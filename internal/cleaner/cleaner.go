package cleaner

import (
	"context"
	"log/slog"
	"os"

	"chronoclean/internal/logging"
	"chronoclean/internal/verify"
)

// ProgressFunc receives the number of processed entries and the total.
type ProgressFunc func(done, total int)

// PathError pairs a source path with the reason it was not deleted.
type PathError struct {
	Path   string
	Reason string
}

// Result summarizes one cleanup pass. It is never persisted.
type Result struct {
	DryRun        bool
	TotalEligible int
	Deleted       int
	Skipped       int
	Failed        int
	BytesFreed    int64

	DeletedPaths []string
	SkippedPaths []PathError
	FailedPaths  []PathError
}

// SuccessRate returns deleted/eligible as a percentage.
func (r Result) SuccessRate() float64 {
	if r.TotalEligible == 0 {
		return 0
	}
	return float64(r.Deleted) / float64(r.TotalEligible) * 100
}

// Cleaner deletes verified sources.
type Cleaner struct {
	// DryRun reports intended deletions without touching the disk.
	DryRun bool
	// AllowQuick admits entries verified in quick mode.
	AllowQuick bool

	logger *slog.Logger
}

// New returns a cleaner. Dry-run is the safe default callers should pass
// unless the operator asked for deletion.
func New(dryRun, allowQuick bool, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cleaner{DryRun: dryRun, AllowQuick: allowQuick, logger: logging.NewComponentLogger(logger, "cleaner")}
}

// Eligible returns the entries of report that may be deleted now.
func (c *Cleaner) Eligible(report *verify.Report) []verify.Entry {
	if report == nil {
		return nil
	}
	var out []verify.Entry
	for _, entry := range report.Entries {
		if c.eligible(entry) {
			out = append(out, entry)
		}
	}
	return out
}

func (c *Cleaner) eligible(entry verify.Entry) bool {
	if !entry.Status.Verified() {
		return false
	}
	if entry.HashAlgorithm != verify.ModeSHA256 && !c.AllowQuick {
		return false
	}
	if !exists(entry.SourcePath) {
		return false
	}
	if dest := entry.ActualDestination(); dest != "" && !exists(dest) {
		return false
	}
	return true
}

// Cleanup deletes the eligible sources of report. Per-file failures are
// recorded and the batch continues. A destination that disappeared after the
// candidate list was built demotes its source to skipped.
func (c *Cleaner) Cleanup(ctx context.Context, report *verify.Report, progress ProgressFunc) (Result, error) {
	result := Result{DryRun: c.DryRun}
	if report != nil {
		ctx = logging.WithVerifyID(ctx, report.VerifyID)
	}
	logger := logging.WithContext(ctx, c.logger)

	eligible := c.Eligible(report)
	result.TotalEligible = len(eligible)
	sampler := logging.NewProgressSampler(10)

	for i, entry := range eligible {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress(i+1, len(eligible))
		}
		c.cleanOne(logger, &result, entry)
		if sampler.ShouldLog(i+1, len(eligible)) {
			logger.Info("cleanup progress",
				logging.Int("done", i+1),
				logging.Int("total", len(eligible)),
			)
		}
	}

	logger.Info("cleanup finished",
		logging.String(logging.FieldEventType, "cleanup_complete"),
		logging.Bool("dry_run", c.DryRun),
		logging.Int("eligible", result.TotalEligible),
		logging.Int("deleted", result.Deleted),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int64("bytes_freed", result.BytesFreed),
	)
	return result, nil
}

func (c *Cleaner) cleanOne(logger *slog.Logger, result *Result, entry verify.Entry) {
	source := entry.SourcePath
	if dest := entry.ActualDestination(); dest != "" && !exists(dest) {
		result.Skipped++
		result.SkippedPaths = append(result.SkippedPaths, PathError{Path: source, Reason: "destination no longer exists"})
		logging.WarnWithContext(logger, "destination vanished before cleanup", "cleanup_skipped",
			logging.String(logging.FieldPath, source),
			logging.String("destination", dest),
			logging.String(logging.FieldImpact, "source kept"),
		)
		return
	}

	var size int64
	if info, err := os.Stat(source); err == nil {
		size = info.Size()
	}

	if c.DryRun {
		result.Deleted++
		result.BytesFreed += size
		result.DeletedPaths = append(result.DeletedPaths, source)
		logger.Debug("would delete source", logging.String(logging.FieldPath, source))
		return
	}

	if err := os.Remove(source); err != nil {
		result.Failed++
		result.FailedPaths = append(result.FailedPaths, PathError{Path: source, Reason: err.Error()})
		logger.Warn("failed to delete source",
			logging.String(logging.FieldPath, source),
			logging.Error(err),
			logging.String(logging.FieldEventType, "cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check source permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return
	}
	result.Deleted++
	result.BytesFreed += size
	result.DeletedPaths = append(result.DeletedPaths, source)
	logger.Info("deleted source",
		logging.String(logging.FieldPath, source),
		logging.Int64("bytes", size),
		logging.String(logging.FieldEventType, "cleanup_deleted"),
	)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
