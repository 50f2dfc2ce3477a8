package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chronoclean/internal/verify"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func entry(source, dest string, status verify.Status, mode verify.Mode) verify.Entry {
	e := verify.Entry{SourcePath: source, Status: status, HashAlgorithm: mode, MatchType: verify.MatchExpectedPath}
	if dest != "" {
		e.ExpectedDestinationPath = &dest
		e.ActualDestinationPath = &dest
	}
	return e
}

func reportWith(entries ...verify.Entry) *verify.Report {
	report := verify.NewReport("/src", "/dst", verify.InputRunRecord, "", verify.ModeSHA256)
	for _, e := range entries {
		report.AddEntry(e)
	}
	return report
}

func TestEligibleFiltersStatusAlgorithmAndDisk(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, filepath.Join(dir, "src", "ok.jpg"), "1")
	okDst := writeFile(t, filepath.Join(dir, "dst", "ok.jpg"), "1")
	dup := writeFile(t, filepath.Join(dir, "src", "dup.jpg"), "2")
	dupDst := writeFile(t, filepath.Join(dir, "dst", "elsewhere.jpg"), "2")
	quick := writeFile(t, filepath.Join(dir, "src", "quick.jpg"), "3")
	quickDst := writeFile(t, filepath.Join(dir, "dst", "quick.jpg"), "3")
	mismatch := writeFile(t, filepath.Join(dir, "src", "mismatch.jpg"), "4")
	gone := filepath.Join(dir, "src", "gone.jpg")
	orphan := writeFile(t, filepath.Join(dir, "src", "orphan.jpg"), "5")

	report := reportWith(
		entry(ok, okDst, verify.StatusOK, verify.ModeSHA256),
		entry(dup, dupDst, verify.StatusDuplicateElsewhere, verify.ModeSHA256),
		entry(quick, quickDst, verify.StatusOK, verify.ModeQuick),
		entry(mismatch, okDst, verify.StatusMismatch, verify.ModeSHA256),
		entry(gone, okDst, verify.StatusOK, verify.ModeSHA256),
		entry(orphan, filepath.Join(dir, "dst", "missing.jpg"), verify.StatusOK, verify.ModeSHA256),
	)

	strict := New(true, false, nil).Eligible(report)
	if len(strict) != 2 || strict[0].SourcePath != ok || strict[1].SourcePath != dup {
		t.Fatalf("unexpected strict eligibility: %+v", strict)
	}

	relaxed := New(true, true, nil).Eligible(report)
	if len(relaxed) != 3 || relaxed[2].SourcePath != quick {
		t.Fatalf("expected quick entry with override: %+v", relaxed)
	}
}

func TestMissingDestinationIsNeverEligible(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.jpg"), "x")
	report := reportWith(entry(src, filepath.Join(dir, "dst", "a.jpg"), verify.StatusMissingDestination, verify.ModeSHA256))
	if got := New(false, true, nil).Eligible(report); len(got) != 0 {
		t.Fatalf("missing destination must not be eligible, got %+v", got)
	}
}

func TestDryRunDeletesNothing(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "src", "a.jpg"), "12345")
	aDst := writeFile(t, filepath.Join(dir, "dst", "a.jpg"), "12345")

	result, err := New(true, false, nil).Cleanup(context.Background(), reportWith(entry(a, aDst, verify.StatusOK, verify.ModeSHA256)), nil)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.Deleted != 1 || result.BytesFreed != 5 || !result.DryRun {
		t.Fatalf("unexpected dry-run result %+v", result)
	}
	if _, err := os.Stat(a); err != nil {
		t.Fatalf("dry run must not delete source: %v", err)
	}
}

func TestLiveCleanupRemovesExactlyEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	var entries []verify.Entry
	var want int64
	for i, content := range []string{"a", "bb", "cccc"} {
		name := string(rune('a'+i)) + ".jpg"
		src := writeFile(t, filepath.Join(dir, "src", name), content)
		dst := writeFile(t, filepath.Join(dir, "dst", name), content)
		entries = append(entries, entry(src, dst, verify.StatusOK, verify.ModeSHA256))
		want += int64(len(content))
	}
	kept := writeFile(t, filepath.Join(dir, "src", "kept.jpg"), "zzz")
	entries = append(entries, entry(kept, "", verify.StatusMismatch, verify.ModeSHA256))

	var progress []int
	result, err := New(false, false, nil).Cleanup(context.Background(), reportWith(entries...), func(done, total int) {
		progress = append(progress, done)
	})
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.TotalEligible != 3 || result.Deleted != 3 || result.BytesFreed != want {
		t.Fatalf("unexpected result %+v (want %d bytes)", result, want)
	}
	if len(progress) != 3 {
		t.Fatalf("expected 3 progress callbacks, got %v", progress)
	}
	remaining, _ := os.ReadDir(filepath.Join(dir, "src"))
	if len(remaining) != 1 || remaining[0].Name() != "kept.jpg" {
		t.Fatalf("unexpected remaining sources %v", remaining)
	}
	if result.SuccessRate() != 100 {
		t.Fatalf("unexpected success rate %v", result.SuccessRate())
	}
}

func TestCleanupSkipsWhenDestinationVanishes(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "src", "a.jpg"), "data")
	aDst := writeFile(t, filepath.Join(dir, "dst", "a.jpg"), "data")

	c := New(false, false, nil)
	var result Result
	c.cleanOne(c.logger, &result, entry(a, aDst, verify.StatusOK, verify.ModeSHA256))
	if result.Deleted != 1 {
		t.Fatalf("expected deletion while destination exists: %+v", result)
	}

	b := writeFile(t, filepath.Join(dir, "src", "b.jpg"), "data")
	result = Result{}
	c.cleanOne(c.logger, &result, entry(b, filepath.Join(dir, "dst", "b.jpg"), verify.StatusOK, verify.ModeSHA256))
	if result.Skipped != 1 || result.Deleted != 0 {
		t.Fatalf("expected skip for vanished destination: %+v", result)
	}
	if _, err := os.Stat(b); err != nil {
		t.Fatalf("orphaned source must be kept: %v", err)
	}
}

func TestSuccessRateWithoutEligible(t *testing.T) {
	if got := (Result{}).SuccessRate(); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}

func TestLiveCleanupContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory passes the existence checks but cannot be removed.
	bad := filepath.Join(dir, "src", "bad.jpg")
	writeFile(t, filepath.Join(bad, "child"), "x")
	badDst := writeFile(t, filepath.Join(dir, "dst", "bad.jpg"), "x")
	good := writeFile(t, filepath.Join(dir, "src", "good.jpg"), "12345")
	goodDst := writeFile(t, filepath.Join(dir, "dst", "good.jpg"), "12345")

	result, err := New(false, false, nil).Cleanup(context.Background(), reportWith(
		entry(bad, badDst, verify.StatusOK, verify.ModeSHA256),
		entry(good, goodDst, verify.StatusOK, verify.ModeSHA256),
	), nil)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if result.TotalEligible != 2 || result.Failed != 1 || result.Deleted != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.FailedPaths) != 1 || result.FailedPaths[0].Path != bad {
		t.Fatalf("unexpected failed paths %+v", result.FailedPaths)
	}
	if !strings.Contains(result.FailedPaths[0].Reason, bad) {
		t.Fatalf("failure reason %q should carry the error text", result.FailedPaths[0].Reason)
	}
	if _, err := os.Stat(good); !os.IsNotExist(err) {
		t.Fatalf("expected good.jpg removed after the failure, stat err=%v", err)
	}
	if _, err := os.Stat(bad); err != nil {
		t.Fatalf("failed source must stay in place: %v", err)
	}
	if result.BytesFreed != 5 {
		t.Fatalf("expected only good.jpg bytes freed, got %d", result.BytesFreed)
	}
}
