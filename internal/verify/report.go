package verify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"chronoclean/internal/fileutil"
	"chronoclean/internal/runrecord"
	"chronoclean/internal/services"
)

// Status classifies one verified pair.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusDuplicateElsewhere Status = "ok_existing_duplicate"
	StatusMismatch           Status = "mismatch"
	StatusMissingDestination Status = "missing_destination"
	StatusMissingSource      Status = "missing_source"
	StatusError              Status = "error"
	StatusSkipped            Status = "skipped"
)

// Verified reports whether s confirms an intact copy.
func (s Status) Verified() bool {
	return s == StatusOK || s == StatusDuplicateElsewhere
}

// MatchType records how the destination was located.
type MatchType string

const (
	MatchExpectedPath  MatchType = "expected_path"
	MatchContentSearch MatchType = "content_search"
	MatchUnknown       MatchType = "unknown"
)

// InputSource records where the verified mapping came from.
type InputSource string

const (
	InputRunRecord     InputSource = "run_record"
	InputReconstructed InputSource = "reconstructed"
)

// Entry is the verification outcome for one source file.
type Entry struct {
	SourcePath              string    `json:"source_path"`
	ExpectedDestinationPath *string   `json:"expected_destination_path"`
	ActualDestinationPath   *string   `json:"actual_destination_path"`
	Status                  Status    `json:"status"`
	MatchType               MatchType `json:"match_type"`
	HashAlgorithm           Mode      `json:"hash_algorithm"`
	SourceHash              *string   `json:"source_hash"`
	DestinationHash         *string   `json:"destination_hash"`
	Error                   *string   `json:"error"`
}

// ActualDestination returns the confirmed destination or "".
func (e Entry) ActualDestination() string {
	if e.ActualDestinationPath == nil {
		return ""
	}
	return *e.ActualDestinationPath
}

// ExpectedDestination returns the expected destination or "".
func (e Entry) ExpectedDestination() string {
	if e.ExpectedDestinationPath == nil {
		return ""
	}
	return *e.ExpectedDestinationPath
}

// ErrorText returns the recorded error or "".
func (e Entry) ErrorText() string {
	if e.Error == nil {
		return ""
	}
	return *e.Error
}

// Summary counts entries per status.
type Summary struct {
	Total              int `json:"total"`
	OK                 int `json:"ok"`
	DuplicateElsewhere int `json:"ok_existing_duplicate"`
	Mismatch           int `json:"mismatch"`
	MissingDestination int `json:"missing_destination"`
	MissingSource      int `json:"missing_source"`
	Error              int `json:"error"`
	Skipped            int `json:"skipped"`
}

// Verified returns the number of entries that confirmed an intact copy.
func (s Summary) Verified() int {
	return s.OK + s.DuplicateElsewhere
}

// Report is one persisted verification run.
type Report struct {
	VerifyID        string              `json:"verify_id"`
	CreatedAt       runrecord.Timestamp `json:"created_at"`
	SourceRoot      string              `json:"source_root"`
	DestinationRoot string              `json:"destination_root"`
	InputSource     InputSource         `json:"input_source"`
	RunID           *string             `json:"run_id"`
	HashAlgorithm   Mode                `json:"hash_algorithm"`
	Entries         []Entry             `json:"entries"`
	Summary         Summary             `json:"summary"`
	DurationSeconds float64             `json:"duration_seconds"`
}

// NewReport returns an empty report with a fresh verify id.
func NewReport(sourceRoot, destinationRoot string, input InputSource, runID string, mode Mode) *Report {
	now := time.Now()
	report := &Report{
		VerifyID:        runrecord.NewID(now),
		CreatedAt:       runrecord.Timestamp{Time: now},
		SourceRoot:      sourceRoot,
		DestinationRoot: destinationRoot,
		InputSource:     input,
		HashAlgorithm:   mode,
		Entries:         []Entry{},
	}
	if runID != "" {
		report.RunID = &runID
	}
	return report
}

// AddEntry appends e and bumps the matching counter.
func (r *Report) AddEntry(e Entry) {
	r.Entries = append(r.Entries, e)
	r.Summary.Total++
	switch e.Status {
	case StatusOK:
		r.Summary.OK++
	case StatusDuplicateElsewhere:
		r.Summary.DuplicateElsewhere++
	case StatusMismatch:
		r.Summary.Mismatch++
	case StatusMissingDestination:
		r.Summary.MissingDestination++
	case StatusMissingSource:
		r.Summary.MissingSource++
	case StatusError:
		r.Summary.Error++
	case StatusSkipped:
		r.Summary.Skipped++
	}
}

// RunIDValue returns the referenced run id or "".
func (r *Report) RunIDValue() string {
	if r.RunID == nil {
		return ""
	}
	return *r.RunID
}

// Filename returns the on-disk name of the report.
func (r *Report) Filename() string {
	return Filename(r.VerifyID)
}

// Filename returns the on-disk name for a verify id.
func Filename(verifyID string) string {
	return verifyID + "_verify.json"
}

// Encode writes the report as indented JSON.
func (r *Report) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes the report into dir and returns its path. Existing reports are
// never overwritten.
func (r *Report) Save(dir string) (string, error) {
	if dir == "" {
		return "", services.Wrap(services.ErrConfiguration, "verify", "save", "verification directory not configured", nil)
	}
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return "", services.Wrap(services.ErrPersistence, "verify", "encode", r.VerifyID, err)
	}
	path := filepath.Join(dir, r.Filename())
	if err := fileutil.WriteFileOnce(path, buf.Bytes(), 0o644); err != nil {
		return "", services.Wrap(services.ErrPersistence, "verify", "save", fmt.Sprintf("write %s", path), err)
	}
	return path, nil
}

// Decode reads a report from r.
func Decode(r io.Reader) (*Report, error) {
	var report Report
	if err := json.NewDecoder(r).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode verification report: %w", err)
	}
	if report.VerifyID == "" {
		return nil, fmt.Errorf("decode verification report: missing verify_id")
	}
	if report.Entries == nil {
		report.Entries = []Entry{}
	}
	return &report, nil
}

// Load reads the report stored at path.
func Load(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "verify", "load", path, err)
	}
	defer f.Close()
	return Decode(f)
}
