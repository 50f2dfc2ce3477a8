package planner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"chronoclean/internal/logging"
	"chronoclean/internal/services"
)

// Skip reasons recorded for proposals the planner drops.
const (
	ReasonDuplicateExisting = "duplicate of existing file"
	ReasonDuplicateInBatch  = "duplicate in batch"
	ReasonCollisionSkipped  = "collision skipped"
)

// Proposal is a requested copy or move of Source to Destination.
type Proposal struct {
	Source      string
	Destination string
}

// Operation is an accepted proposal with its final destination.
type Operation struct {
	Source      string
	Destination string
	// Renamed is set when Destination differs from the proposed path.
	Renamed bool
}

// Skipped is a dropped proposal with the reason it was dropped.
type Skipped struct {
	Source string
	Reason string
}

// Result is the outcome of one planning pass.
type Result struct {
	Operations        []Operation
	Skipped           []Skipped
	DuplicatesSkipped int
	CollisionsRenamed int
}

// DuplicateChecker decides whether two files hold identical bytes.
type DuplicateChecker interface {
	AreDuplicates(a, b string) bool
}

// Planner resolves collisions for a batch of proposals.
type Planner struct {
	policy  CollisionPolicy
	checker DuplicateChecker
	logger  *slog.Logger
}

// New returns a planner. A nil checker makes CheckHash behave like Rename.
func New(policy CollisionPolicy, checker DuplicateChecker, logger *slog.Logger) *Planner {
	return &Planner{
		policy:  policy,
		checker: checker,
		logger:  logging.NewComponentLogger(logger, "planner"),
	}
}

// Policy reports the configured collision policy.
func (p *Planner) Policy() CollisionPolicy {
	return p.policy
}

// Plan processes proposals in order. Under the Fail policy the first collision
// aborts planning and no partial result is returned.
func (p *Planner) Plan(ctx context.Context, proposals []Proposal) (Result, error) {
	var result Result
	reserved := NewReservations()

	for _, proposal := range proposals {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		dest := filepath.Clean(proposal.Destination)
		if !taken(dest, reserved) {
			reserved.Reserve(dest, proposal.Source)
			result.Operations = append(result.Operations, Operation{Source: proposal.Source, Destination: dest})
			continue
		}

		switch p.policy {
		case Skip:
			p.skip(&result, proposal.Source, dest, ReasonCollisionSkipped)
			continue
		case Fail:
			return Result{}, services.Wrap(services.ErrCollision, "planner", "plan",
				fmt.Sprintf("destination exists or reserved: %s", dest), nil)
		case CheckHash:
			if reason, dup := p.duplicateOf(proposal.Source, dest, reserved); dup {
				p.skip(&result, proposal.Source, dest, reason)
				continue
			}
		}

		unique, err := UniquePath(dest, reserved)
		if err != nil {
			return Result{}, err
		}
		reserved.Reserve(unique, proposal.Source)
		result.CollisionsRenamed++
		result.Operations = append(result.Operations, Operation{Source: proposal.Source, Destination: unique, Renamed: true})
		p.logger.Debug("collision renamed",
			logging.String("source", proposal.Source),
			logging.String("proposed", dest),
			logging.String("destination", unique),
			logging.String(logging.FieldEventType, "collision_renamed"),
		)
	}

	return result, nil
}

// duplicateOf compares source against whatever occupies dest: the file on disk
// if there is one, otherwise the source that reserved it earlier in the batch.
func (p *Planner) duplicateOf(source, dest string, reserved *Reservations) (string, bool) {
	if p.checker == nil {
		return "", false
	}
	if exists(dest) {
		return ReasonDuplicateExisting, p.checker.AreDuplicates(source, dest)
	}
	if owner, ok := reserved.SourceFor(dest); ok {
		return ReasonDuplicateInBatch, p.checker.AreDuplicates(source, owner)
	}
	return "", false
}

func (p *Planner) skip(result *Result, source, dest, reason string) {
	result.DuplicatesSkipped++
	result.Skipped = append(result.Skipped, Skipped{Source: source, Reason: reason})
	p.logger.Debug("proposal skipped",
		logging.String("source", source),
		logging.String("destination", dest),
		logging.String("reason", reason),
		logging.String(logging.FieldEventType, "collision_skipped"),
	)
}
