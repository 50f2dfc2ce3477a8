package preflight

import (
	"fmt"
	"strings"

	"chronoclean/internal/config"
	"chronoclean/internal/hashing"
	"chronoclean/internal/planner"
	"chronoclean/internal/verify"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Roots are the optional directories an invocation will touch.
type Roots struct {
	Source      string
	Destination string
}

// RunAll executes the doctor checks for cfg. Root checks only run for the
// roots that are set.
func RunAll(cfg *config.Config, configPath string, roots Roots) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckConfig(cfg, configPath)}

	results = append(results,
		CheckWritableTarget("State directory", cfg.Verify.StateDir),
		CheckWritableTarget("Run record directory", cfg.RunRecordDir()),
		CheckWritableTarget("Verification directory", cfg.VerificationDir()),
	)

	if strings.TrimSpace(roots.Source) != "" {
		results = append(results, CheckReadable("Source root", roots.Source))
	}
	if strings.TrimSpace(roots.Destination) != "" {
		results = append(results,
			CheckWritableTarget("Destination root", roots.Destination),
			CheckFreeSpace("Destination free space", roots.Destination, 0),
		)
	}
	return results
}

// CheckConfig confirms the typed settings parse at the boundary.
func CheckConfig(cfg *config.Config, path string) Result {
	const name = "Configuration"
	if _, err := planner.ParsePolicy(cfg.Duplicates.OnCollision); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if _, err := hashing.ParseAlgorithm(cfg.Duplicates.HashingAlgorithm); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	mode, err := verify.ParseMode(cfg.Verify.Algorithm)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if path == "" {
		path = "built-in defaults"
	}
	detail := fmt.Sprintf("%s (policy %s, verify %s)", path, cfg.Duplicates.OnCollision, mode)
	if mode == verify.ModeQuick && cfg.Verify.AllowCleanupOnQuick {
		detail += "; cleanup allowed after quick verification"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
