package verify

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chronoclean/internal/hashing"
	"chronoclean/internal/logging"
	"chronoclean/internal/runrecord"
)

// ProgressFunc receives the number of processed pairs and the total.
type ProgressFunc func(done, total int)

// Pair is one expected source to destination mapping.
type Pair struct {
	Source      string
	Destination string
}

// Verifier classifies source/destination pairs.
type Verifier struct {
	Mode Mode
	// ContentSearch enables locating destinations by content when the
	// expected path is absent. It only applies in sha256 mode.
	ContentSearch bool

	hasher *hashing.Hasher
	logger *slog.Logger
}

// New builds a verifier. The cache may be shared with other sha256 hashers.
func New(mode Mode, contentSearch bool, cache *hashing.Cache, logger *slog.Logger) *Verifier {
	if mode == "" {
		mode = ModeSHA256
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Verifier{
		Mode:          mode,
		ContentSearch: contentSearch,
		hasher:        hashing.NewHasher(hashing.SHA256, cache),
		logger:        logging.NewComponentLogger(logger, "verify"),
	}
}

// FromRunRecord verifies every copy and move entry of rec in record order.
// Move entries are reported as missing_source; their destination is only
// checked for presence, never hashed. Skip entries are not verified.
func (v *Verifier) FromRunRecord(ctx context.Context, rec *runrecord.Record, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	report := NewReport(rec.SourceRoot, rec.DestinationRoot, InputRunRecord, rec.RunID, v.Mode)
	ctx = logging.WithVerifyID(logging.WithRunID(ctx, rec.RunID), report.VerifyID)
	logger := logging.WithContext(ctx, v.logger)

	var work []runrecord.Entry
	for _, e := range rec.Entries {
		if e.Operation == runrecord.OpSkip || e.DestinationPath == nil {
			continue
		}
		work = append(work, e)
	}

	sampler := logging.NewProgressSampler(10)
	for i, e := range work {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var entry Entry
		if e.Operation == runrecord.OpMove {
			entry = v.newEntry(e.SourcePath, e.Destination(), MatchExpectedPath)
			entry.Status = StatusMissingSource
			if pathExists(e.Destination()) {
				entry.ActualDestinationPath = stringPtr(e.Destination())
			}
		} else {
			entry = v.VerifyPair(e.SourcePath, e.Destination())
		}
		v.logOutcome(logger, entry)
		report.AddEntry(entry)
		v.reportProgress(logger, sampler, progress, i+1, len(work))
	}

	report.DurationSeconds = time.Since(start).Seconds()
	return report, nil
}

// Reconstruct verifies a mapping derived without a run record. Each pair goes
// through WithContentSearch rooted at destinationRoot.
func (v *Verifier) Reconstruct(ctx context.Context, sourceRoot, destinationRoot string, pairs []Pair, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	report := NewReport(sourceRoot, destinationRoot, InputReconstructed, "", v.Mode)
	ctx = logging.WithVerifyID(ctx, report.VerifyID)
	logger := logging.WithContext(ctx, v.logger)

	sampler := logging.NewProgressSampler(10)
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := v.WithContentSearch(pair.Source, pair.Destination, destinationRoot)
		v.logOutcome(logger, entry)
		report.AddEntry(entry)
		v.reportProgress(logger, sampler, progress, i+1, len(pairs))
	}

	report.DurationSeconds = time.Since(start).Seconds()
	return report, nil
}

// VerifyPair classifies source against the destination at its expected path.
func (v *Verifier) VerifyPair(source, destination string) Entry {
	return v.verifyAt(source, destination, MatchExpectedPath)
}

// WithContentSearch checks the expected path first. When that file is absent
// and content search is enabled in sha256 mode, it looks under searchRoot for
// a file with the source's extension, size and digest.
func (v *Verifier) WithContentSearch(source, expected, searchRoot string) Entry {
	if expected != "" && pathExists(expected) {
		return v.verifyAt(source, expected, MatchExpectedPath)
	}

	entry := v.newEntry(source, expected, MatchExpectedPath)
	info, err := os.Stat(source)
	if err != nil {
		entry.MatchType = MatchUnknown
		entry.Status = StatusMissingSource
		return entry
	}

	entry.Status = StatusMissingDestination
	if !v.ContentSearch {
		return entry
	}
	if !v.Mode.Strong() {
		entry.Error = stringPtr("content search requires sha256")
		return entry
	}

	entry.MatchType = MatchContentSearch
	candidates, err := findCandidates(searchRoot, source, info.Size())
	if err != nil {
		entry.Status = StatusError
		entry.Error = stringPtr(err.Error())
		return entry
	}
	if len(candidates) == 0 {
		return entry
	}

	sourceHash, err := v.hasher.Hash(source)
	if err != nil {
		entry.Status = StatusError
		entry.Error = stringPtr(err.Error())
		return entry
	}
	entry.SourceHash = stringPtr(sourceHash)
	for _, candidate := range candidates {
		digest, err := v.hasher.Hash(candidate)
		if err != nil {
			continue
		}
		if digest == sourceHash {
			entry.Status = StatusDuplicateElsewhere
			entry.ActualDestinationPath = stringPtr(candidate)
			entry.DestinationHash = stringPtr(digest)
			return entry
		}
	}
	return entry
}

func (v *Verifier) verifyAt(source, destination string, match MatchType) Entry {
	if v.Mode.Strong() {
		return v.verifyHash(source, destination, match)
	}
	return v.verifySize(source, destination, match)
}

// verifySize treats equal sizes as OK regardless of content.
func (v *Verifier) verifySize(source, destination string, match MatchType) Entry {
	entry := v.newEntry(source, destination, match)
	srcInfo, err := os.Stat(source)
	if err != nil {
		entry.Status = StatusMissingSource
		return entry
	}
	if destination == "" {
		entry.Status = StatusMissingDestination
		return entry
	}
	dstInfo, err := os.Stat(destination)
	if err != nil {
		entry.Status = StatusMissingDestination
		return entry
	}
	entry.ActualDestinationPath = stringPtr(destination)
	if srcInfo.Size() != dstInfo.Size() {
		entry.Status = StatusMismatch
		entry.Error = stringPtr("size mismatch")
		return entry
	}
	entry.Status = StatusOK
	return entry
}

func (v *Verifier) verifyHash(source, destination string, match MatchType) Entry {
	entry := v.newEntry(source, destination, match)
	if _, err := os.Stat(source); errors.Is(err, fs.ErrNotExist) {
		entry.Status = StatusMissingSource
		return entry
	}
	if destination == "" {
		entry.Status = StatusMissingDestination
		return entry
	}
	if _, err := os.Stat(destination); errors.Is(err, fs.ErrNotExist) {
		entry.Status = StatusMissingDestination
		return entry
	}

	sourceHash, err := v.hasher.Hash(source)
	if err != nil {
		entry.Status = StatusError
		entry.Error = stringPtr("could not compute source hash: " + err.Error())
		return entry
	}
	entry.SourceHash = stringPtr(sourceHash)

	destHash, err := v.hasher.Hash(destination)
	if err != nil {
		entry.Status = StatusError
		entry.Error = stringPtr("could not compute destination hash: " + err.Error())
		return entry
	}
	entry.DestinationHash = stringPtr(destHash)
	entry.ActualDestinationPath = stringPtr(destination)
	if sourceHash == destHash {
		entry.Status = StatusOK
	} else {
		entry.Status = StatusMismatch
	}
	return entry
}

func (v *Verifier) newEntry(source, expected string, match MatchType) Entry {
	entry := Entry{
		SourcePath:    source,
		MatchType:     match,
		HashAlgorithm: v.Mode,
	}
	if expected != "" {
		entry.ExpectedDestinationPath = stringPtr(expected)
	}
	return entry
}

func (v *Verifier) logOutcome(logger *slog.Logger, entry Entry) {
	switch entry.Status {
	case StatusOK, StatusDuplicateElsewhere:
		logger.Debug("pair verified",
			logging.String(logging.FieldPath, entry.SourcePath),
			logging.String("status", string(entry.Status)),
			logging.String("match_type", string(entry.MatchType)),
		)
	case StatusMismatch:
		logging.WarnWithContext(logger, "destination content differs from source", "verify_mismatch",
			logging.String(logging.FieldPath, entry.SourcePath),
			logging.String("destination", entry.ActualDestination()),
			logging.String(logging.FieldImpact, "source is not eligible for cleanup"),
		)
	case StatusError:
		logging.WarnWithContext(logger, "pair could not be verified", "verify_error",
			logging.String(logging.FieldPath, entry.SourcePath),
			logging.String("error", entry.ErrorText()),
		)
	default:
		logger.Info("pair not verified",
			logging.String(logging.FieldPath, entry.SourcePath),
			logging.String("status", string(entry.Status)),
		)
	}
}

func (v *Verifier) reportProgress(logger *slog.Logger, sampler *logging.ProgressSampler, progress ProgressFunc, done, total int) {
	if progress != nil {
		progress(done, total)
	}
	if sampler.ShouldLog(done, total) {
		logger.Info("verification progress",
			logging.Int("done", done),
			logging.Int("total", total),
		)
	}
}

// findCandidates lists regular files under root whose extension and size
// match source. The source itself is never a candidate.
func findCandidates(root, source string, size int64) ([]string, error) {
	if root == "" {
		return nil, nil
	}
	ext := strings.ToLower(filepath.Ext(source))
	sourceAbs, _ := filepath.Abs(source)
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.ToLower(filepath.Ext(path)) != ext {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() != size {
			return nil
		}
		if abs, _ := filepath.Abs(path); abs == sourceAbs {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return out, err
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func stringPtr(s string) *string {
	return &s
}
