package organizer

import (
	"context"
	"log/slog"

	"chronoclean/internal/config"
	"chronoclean/internal/fileutil"
	"chronoclean/internal/hashing"
	"chronoclean/internal/logging"
	"chronoclean/internal/planner"
	"chronoclean/internal/runrecord"
	"chronoclean/internal/scan"
	"chronoclean/internal/services"
	"chronoclean/internal/sorter"
	"chronoclean/internal/verify"
)

// ReasonNoDate marks sources skipped because no date could be detected.
const ReasonNoDate = "no date detected"

// ProgressFunc receives the number of executed operations and the total.
type ProgressFunc func(done, total int)

// Options selects what one apply invocation does.
type Options struct {
	SourceRoot      string
	DestinationRoot string
	Move            bool
	DryRun          bool
	// WriteRecord persists the run record on success.
	WriteRecord bool
}

// Failure is one operation that could not be executed.
type Failure struct {
	Source      string
	Destination string
	Err         error
}

// Outcome describes a finished apply.
type Outcome struct {
	Record     *runrecord.Record
	RecordPath string
	Scanned    int
	Undated    []string
	Plan       planner.Result
	Failures   []Failure
	Bytes      int64
}

// Organizer wires scanning, sorting, planning and execution together.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
	cache  *hashing.Cache
}

// New returns an organizer for cfg.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	var cache *hashing.Cache
	if cfg.Duplicates.CacheHashes {
		cache = hashing.NewCache()
	}
	return &Organizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "organizer"), cache: cache}
}

// Proposal pairs a scanned file with its proposed destination.
type Proposal struct {
	File        scan.File
	Destination string
}

// Propose scans sourceRoot and maps every dated file under destinationRoot.
// Undated files are returned separately.
func (o *Organizer) Propose(ctx context.Context, sourceRoot, destinationRoot string) ([]Proposal, []scan.File, scan.Result, error) {
	scanner := scan.NewScanner(o.cfg.MediaExtensions(), o.cfg.General.Recursive, o.cfg.Scan.Limit, o.logger)
	result, err := scanner.Scan(ctx, sourceRoot)
	if err != nil {
		return nil, nil, result, err
	}
	s, err := sorter.New(destinationRoot, o.cfg)
	if err != nil {
		return nil, nil, result, err
	}
	dated, undated := result.Dated()
	proposals := make([]Proposal, 0, len(dated))
	for _, f := range dated {
		proposals = append(proposals, Proposal{File: f, Destination: s.Destination(f.Path, f.Date)})
	}
	return proposals, undated, result, nil
}

// ExpectedMapping re-derives the source to destination mapping without
// collision handling. It backs verification when no run record exists.
func (o *Organizer) ExpectedMapping(ctx context.Context, sourceRoot, destinationRoot string) ([]verify.Pair, error) {
	proposals, _, _, err := o.Propose(ctx, sourceRoot, destinationRoot)
	if err != nil {
		return nil, err
	}
	pairs := make([]verify.Pair, 0, len(proposals))
	for _, p := range proposals {
		pairs = append(pairs, verify.Pair{Source: p.File.Path, Destination: p.Destination})
	}
	return pairs, nil
}

// Planner builds the collision planner configured for this organizer.
func (o *Organizer) Planner() (*planner.Planner, error) {
	policy, err := planner.ParsePolicy(o.cfg.Duplicates.OnCollision)
	if err != nil {
		return nil, err
	}
	var checker planner.DuplicateChecker
	if o.cfg.Duplicates.Enabled {
		algorithm, err := hashing.ParseAlgorithm(o.cfg.Duplicates.HashingAlgorithm)
		if err != nil {
			return nil, err
		}
		checker = hashing.NewChecker(algorithm, o.cache)
	}
	return planner.New(policy, checker, o.logger), nil
}

// Apply runs the pipeline. A dry run plans and records without touching the
// destination. The returned error is non-nil only for failures that abort
// the whole run; per-file failures are reported in Outcome.Failures.
func (o *Organizer) Apply(ctx context.Context, opts Options, progress ProgressFunc) (Outcome, error) {
	var outcome Outcome
	p, err := o.Planner()
	if err != nil {
		return outcome, err
	}

	rec := runrecord.New(opts.SourceRoot, opts.DestinationRoot, runrecord.ModeFor(opts.DryRun, opts.Move), runrecord.SignatureFor(o.cfg))
	outcome.Record = rec

	writer := runrecord.NewWriter(o.cfg.RunRecordDir(), o.logger)
	writer.Enabled = opts.WriteRecord

	path, err := writer.Run(ctx, rec, func(ctx context.Context, rec *runrecord.Record) error {
		return o.apply(ctx, opts, p, rec, &outcome, progress)
	})
	outcome.RecordPath = path
	return outcome, err
}

func (o *Organizer) apply(ctx context.Context, opts Options, p *planner.Planner, rec *runrecord.Record, outcome *Outcome, progress ProgressFunc) error {
	logger := logging.WithContext(ctx, o.logger)

	proposals, undated, scanned, err := o.Propose(ctx, opts.SourceRoot, opts.DestinationRoot)
	if err != nil {
		return err
	}
	outcome.Scanned = len(scanned.Files)
	for _, f := range undated {
		rec.AddSkip(f.Path, ReasonNoDate)
		outcome.Undated = append(outcome.Undated, f.Path)
	}

	planned := make([]planner.Proposal, 0, len(proposals))
	sizes := make(map[string]int64, len(proposals))
	for _, prop := range proposals {
		planned = append(planned, planner.Proposal{Source: prop.File.Path, Destination: prop.Destination})
		sizes[prop.File.Path] = prop.File.Size
	}
	plan, err := p.Plan(ctx, planned)
	if err != nil {
		return err
	}
	outcome.Plan = plan
	for _, skipped := range plan.Skipped {
		rec.AddSkip(skipped.Source, skipped.Reason)
	}

	logger.Info("apply plan ready",
		logging.String(logging.FieldEventType, "apply_planned"),
		logging.Int("operations", len(plan.Operations)),
		logging.Int("skipped", len(plan.Skipped)),
		logging.Int("undated", len(undated)),
		logging.Int("collisions_renamed", plan.CollisionsRenamed),
		logging.Bool("dry_run", opts.DryRun),
	)

	sampler := logging.NewProgressSampler(10)
	total := len(plan.Operations)
	for i, op := range plan.Operations {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case opts.DryRun:
			rec.AddCopy(op.Source, op.Destination)
			outcome.Bytes += sizes[op.Source]
		case opts.Move:
			rec.AddMove(op.Source, op.Destination)
			o.execute(logger, rec, outcome, op, sizes[op.Source], fileutil.MoveFile)
		default:
			rec.AddCopy(op.Source, op.Destination)
			o.execute(logger, rec, outcome, op, sizes[op.Source], fileutil.CopyFile)
		}
		if progress != nil {
			progress(i+1, total)
		}
		if sampler.ShouldLog(i+1, total) {
			logger.Info("apply progress", logging.Int("done", i+1), logging.Int("total", total))
		}
	}

	logger.Info("apply finished",
		logging.String(logging.FieldEventType, "apply_complete"),
		logging.Int("total", rec.Summary.TotalFiles),
		logging.Int("copied", rec.Summary.CopiedFiles),
		logging.Int("moved", rec.Summary.MovedFiles),
		logging.Int("skipped", rec.Summary.SkippedFiles),
		logging.Int("errors", rec.Summary.ErrorFiles),
	)
	return nil
}

func (o *Organizer) execute(logger *slog.Logger, rec *runrecord.Record, outcome *Outcome, op planner.Operation, size int64, fn func(src, dst string) error) {
	if err := fn(op.Source, op.Destination); err != nil {
		rec.AddError()
		outcome.Failures = append(outcome.Failures, Failure{Source: op.Source, Destination: op.Destination, Err: err})
		logging.WarnWithContext(logger, "file operation failed", "apply_file_failed",
			logging.String(logging.FieldPath, op.Source),
			logging.String("destination", op.Destination),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check destination permissions and free space"),
			logging.String(logging.FieldImpact, "entry will not verify"),
		)
		return
	}
	outcome.Bytes += size
	logger.Debug("file organized",
		logging.String(logging.FieldPath, op.Source),
		logging.String("destination", op.Destination),
		logging.Bool("renamed", op.Renamed),
	)
}

// ErrorCount is the number of failed operations.
func (o Outcome) ErrorCount() int {
	return len(o.Failures)
}

// Err summarizes per-file failures as a single error, or nil.
func (o Outcome) Err() error {
	if len(o.Failures) == 0 {
		return nil
	}
	first := o.Failures[0]
	return services.Wrap(services.ErrTransient, "organizer", "apply",
		"one or more file operations failed; first: "+first.Source, first.Err)
}
