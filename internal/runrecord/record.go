package runrecord

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"chronoclean/internal/config"
	"chronoclean/internal/services"
)

// Mode describes how an apply run treated its sources.
type Mode string

const (
	ModeDryRun   Mode = "dry_run"
	ModeLiveCopy Mode = "live_copy"
	ModeLiveMove Mode = "live_move"
)

// ModeFor picks the record mode for an apply invocation.
func ModeFor(dryRun, move bool) Mode {
	switch {
	case dryRun:
		return ModeDryRun
	case move:
		return ModeLiveMove
	default:
		return ModeLiveCopy
	}
}

// Operation is the action recorded for one source file.
type Operation string

const (
	OpCopy Operation = "copy"
	OpMove Operation = "move"
	OpSkip Operation = "skip"
)

// ConfigSignature is the subset of configuration that shapes destination
// paths. It is recorded for later drift detection and never enforced.
type ConfigSignature struct {
	FolderStructure   string `json:"folder_structure"`
	RenamingEnabled   bool   `json:"renaming_enabled"`
	RenamingPattern   string `json:"renaming_pattern"`
	FolderTagsEnabled bool   `json:"folder_tags_enabled"`
	OnCollision       string `json:"on_collision"`
}

// SignatureFor extracts the path-shaping settings from cfg.
func SignatureFor(cfg *config.Config) ConfigSignature {
	if cfg == nil {
		return ConfigSignature{}
	}
	return ConfigSignature{
		FolderStructure:   cfg.Sorting.FolderStructure,
		RenamingEnabled:   cfg.Renaming.Enabled,
		RenamingPattern:   cfg.Renaming.Pattern,
		FolderTagsEnabled: cfg.FolderTags.Enabled,
		OnCollision:       cfg.Duplicates.OnCollision,
	}
}

// Drift lists the signature fields that differ between s and other.
func (s ConfigSignature) Drift(other ConfigSignature) []string {
	var fields []string
	if s.FolderStructure != other.FolderStructure {
		fields = append(fields, "folder_structure")
	}
	if s.RenamingEnabled != other.RenamingEnabled {
		fields = append(fields, "renaming_enabled")
	}
	if s.RenamingPattern != other.RenamingPattern {
		fields = append(fields, "renaming_pattern")
	}
	if s.FolderTagsEnabled != other.FolderTagsEnabled {
		fields = append(fields, "folder_tags_enabled")
	}
	if s.OnCollision != other.OnCollision {
		fields = append(fields, "on_collision")
	}
	return fields
}

// Entry is one recorded file decision. Skip entries never carry a destination.
type Entry struct {
	SourcePath      string    `json:"source_path"`
	DestinationPath *string   `json:"destination_path"`
	Operation       Operation `json:"operation"`
	Reason          *string   `json:"reason"`
}

// Destination returns the destination path or "" when there is none.
func (e Entry) Destination() string {
	if e.DestinationPath == nil {
		return ""
	}
	return *e.DestinationPath
}

// Summary aggregates entry counters. TotalFiles always equals
// CopiedFiles+MovedFiles+SkippedFiles; ErrorFiles counts execution failures
// among the copy and move entries.
type Summary struct {
	TotalFiles      int     `json:"total_files"`
	CopiedFiles     int     `json:"copied_files"`
	MovedFiles      int     `json:"moved_files"`
	SkippedFiles    int     `json:"skipped_files"`
	ErrorFiles      int     `json:"error_files"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Record is the provenance log of one apply invocation.
type Record struct {
	RunID           string          `json:"run_id"`
	CreatedAt       Timestamp       `json:"created_at"`
	SourceRoot      string          `json:"source_root"`
	DestinationRoot string          `json:"destination_root"`
	Mode            Mode            `json:"mode"`
	ConfigSignature ConfigSignature `json:"config_signature"`
	Entries         []Entry         `json:"entries"`
	Summary         Summary         `json:"summary"`
}

// New returns an empty record stamped with a fresh run id.
func New(sourceRoot, destinationRoot string, mode Mode, signature ConfigSignature) *Record {
	now := time.Now()
	return &Record{
		RunID:           NewID(now),
		CreatedAt:       Timestamp{Time: now},
		SourceRoot:      sourceRoot,
		DestinationRoot: destinationRoot,
		Mode:            mode,
		ConfigSignature: signature,
		Entries:         []Entry{},
	}
}

// IsDryRun reports whether the record describes a dry run.
func (r *Record) IsDryRun() bool {
	return r.Mode == ModeDryRun
}

// Filename returns the on-disk name for the record.
func (r *Record) Filename() string {
	return Filename(r.RunID, r.IsDryRun())
}

// Filename returns the on-disk name for a run id.
func Filename(runID string, dryRun bool) string {
	if dryRun {
		return runID + "_apply_dryrun.json"
	}
	return runID + "_apply.json"
}

// AddEntry appends e and updates the counters. Skip entries that carry a
// destination are rejected.
func (r *Record) AddEntry(e Entry) error {
	switch e.Operation {
	case OpCopy:
		r.Summary.CopiedFiles++
	case OpMove:
		r.Summary.MovedFiles++
	case OpSkip:
		if e.DestinationPath != nil {
			return services.Wrap(services.ErrValidation, "runrecord", "add entry",
				fmt.Sprintf("skip entry for %s must not have a destination", e.SourcePath), nil)
		}
		r.Summary.SkippedFiles++
	default:
		return services.Wrap(services.ErrValidation, "runrecord", "add entry",
			fmt.Sprintf("unknown operation %q", e.Operation), nil)
	}
	r.Summary.TotalFiles++
	r.Entries = append(r.Entries, e)
	return nil
}

// AddCopy records a copy of source to destination.
func (r *Record) AddCopy(source, destination string) {
	_ = r.AddEntry(Entry{SourcePath: source, DestinationPath: &destination, Operation: OpCopy})
}

// AddMove records a move of source to destination.
func (r *Record) AddMove(source, destination string) {
	_ = r.AddEntry(Entry{SourcePath: source, DestinationPath: &destination, Operation: OpMove})
}

// AddSkip records that source was not processed.
func (r *Record) AddSkip(source, reason string) {
	entry := Entry{SourcePath: source, Operation: OpSkip}
	if reason != "" {
		entry.Reason = &reason
	}
	_ = r.AddEntry(entry)
}

// AddError counts an execution failure. It does not add an entry.
func (r *Record) AddError() {
	r.Summary.ErrorFiles++
}

// CopyEntries returns the copy entries that have a destination.
func (r *Record) CopyEntries() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Operation == OpCopy && e.DestinationPath != nil {
			out = append(out, e)
		}
	}
	return out
}

// Encode writes the record as indented JSON.
func (r *Record) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Decode reads a record from r.
func Decode(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode run record: %w", err)
	}
	if rec.RunID == "" {
		return nil, fmt.Errorf("decode run record: missing run_id")
	}
	if rec.Entries == nil {
		rec.Entries = []Entry{}
	}
	return &rec, nil
}

// Load reads the record stored at path.
func Load(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "runrecord", "load", path, err)
	}
	defer f.Close()
	return Decode(f)
}
