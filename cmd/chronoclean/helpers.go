package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"chronoclean/internal/config"
	"chronoclean/internal/discovery"
	"chronoclean/internal/runrecord"
	"chronoclean/internal/services"
	"chronoclean/internal/verify"
)

// maxListedFailures bounds how many failing paths a command prints.
const maxListedFailures = 10

// selection holds the flags shared by commands that pick a run record or a
// verification report.
type selection struct {
	file           string
	id             string
	last           bool
	yes            bool
	source         string
	destination    string
	includeDryRuns bool
}

func (s *selection) filter() (discovery.Filter, error) {
	src, err := optionalPath(s.source)
	if err != nil {
		return discovery.Filter{}, err
	}
	dst, err := optionalPath(s.destination)
	if err != nil {
		return discovery.Filter{}, err
	}
	return discovery.Filter{SourceRoot: src, DestinationRoot: dst, IncludeDryRuns: s.includeDryRuns}, nil
}

// selectRun resolves the run record named by sel. Without an explicit file or
// id the newest matching record is used when it is the only one or --last is
// set; otherwise the operator is asked to choose.
func selectRun(ctx *commandContext, cmd *cobra.Command, sel *selection) (*runrecord.Record, string, error) {
	path := strings.TrimSpace(sel.file)
	switch {
	case path != "":
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, "", err
		}
		path = expanded
	case strings.TrimSpace(sel.id) != "":
		found, err := ctx.catalog().FindRun(sel.id)
		if err != nil {
			return nil, "", err
		}
		path = found
	default:
		filter, err := sel.filter()
		if err != nil {
			return nil, "", err
		}
		runs, err := ctx.catalog().Runs(filter)
		if err != nil {
			return nil, "", err
		}
		labels := make([]string, 0, len(runs))
		for _, run := range runs {
			labels = append(labels, fmt.Sprintf("%s  %s  %s -> %s (%d files)", run.RunID, run.Age(), run.SourceRoot, run.DestinationRoot, run.TotalFiles))
		}
		index, err := choose(cmd, sel, "run record", labels)
		if err != nil {
			return nil, "", err
		}
		path = runs[index].Path
	}

	rec, err := runrecord.Load(path)
	if err != nil {
		return nil, "", err
	}
	return rec, path, nil
}

// selectReport is selectRun for verification reports.
func selectReport(ctx *commandContext, cmd *cobra.Command, sel *selection) (*verify.Report, string, error) {
	path := strings.TrimSpace(sel.file)
	switch {
	case path != "":
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, "", err
		}
		path = expanded
	case strings.TrimSpace(sel.id) != "":
		found, err := ctx.catalog().FindReport(sel.id)
		if err != nil {
			return nil, "", err
		}
		path = found
	default:
		filter, err := sel.filter()
		if err != nil {
			return nil, "", err
		}
		reports, err := ctx.catalog().Reports(filter)
		if err != nil {
			return nil, "", err
		}
		labels := make([]string, 0, len(reports))
		for _, report := range reports {
			labels = append(labels, fmt.Sprintf("%s  %s  %s (%d eligible)", report.VerifyID, report.Age(), report.SourceRoot, report.Eligible()))
		}
		index, err := choose(cmd, sel, "verification report", labels)
		if err != nil {
			return nil, "", err
		}
		path = reports[index].Path
	}

	report, err := verify.Load(path)
	if err != nil {
		return nil, "", err
	}
	return report, path, nil
}

func choose(cmd *cobra.Command, sel *selection, kind string, labels []string) (int, error) {
	switch {
	case len(labels) == 0:
		return 0, services.Wrap(services.ErrNotFound, "cli", "select", fmt.Sprintf("no %s matches", kind), nil)
	case len(labels) == 1 || sel.last:
		return 0, nil
	case sel.yes:
		return 0, services.Wrap(services.ErrValidation, "cli", "select",
			fmt.Sprintf("%d candidates for %s; pass --last or an explicit id", len(labels), kind), nil)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Multiple %ss found:\n", kind)
	for i, label := range labels {
		fmt.Fprintf(out, "  %d) %s\n", i+1, label)
	}
	fmt.Fprintf(out, "Select [1-%d]: ", len(labels))
	answer, err := readLine(cmd.InOrStdin())
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(labels) {
		return 0, services.Wrap(services.ErrValidation, "cli", "select", fmt.Sprintf("invalid choice %q", answer), nil)
	}
	return n - 1, nil
}

// confirm asks a yes/no question on stderr and reads the answer from stdin.
// Anything but y or yes is a no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N]: ", question)
	answer, err := readLine(cmd.InOrStdin())
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// requirePath expands a mandatory root flag.
func requirePath(flag, value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve path", fmt.Sprintf("--%s is required", flag), nil)
	}
	return config.ExpandPath(strings.TrimSpace(value))
}

func optionalPath(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return config.ExpandPath(strings.TrimSpace(value))
}

// resolveDryRun applies --dry-run / --no-dry-run over the configured default.
func resolveDryRun(cmd *cobra.Command, cfg *config.Config, dryRun, noDryRun bool) (bool, error) {
	if dryRun && noDryRun {
		return false, services.Wrap(services.ErrValidation, "cli", "flags", "--dry-run and --no-dry-run are mutually exclusive", nil)
	}
	switch {
	case cmd.Flags().Changed("dry-run"):
		return dryRun, nil
	case cmd.Flags().Changed("no-dry-run"):
		return !noDryRun, nil
	default:
		return cfg.General.DryRunDefault, nil
	}
}

// printBounded writes at most maxListedFailures lines and a trailing count of
// the rest.
func printBounded(out io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(out, "%s:\n", title)
	for i, line := range lines {
		if i == maxListedFailures {
			fmt.Fprintf(out, "  … and %d more\n", len(lines)-maxListedFailures)
			break
		}
		fmt.Fprintf(out, "  %s\n", line)
	}
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
