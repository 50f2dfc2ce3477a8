package verify_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"chronoclean/internal/runrecord"
	"chronoclean/internal/services"
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

func TestVerifyPairSHA256(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "src", "a.jpg"), "same bytes")
	good := writeFile(t, filepath.Join(dir, "dst", "a.jpg"), "same bytes")
	bad := writeFile(t, filepath.Join(dir, "dst", "b.jpg"), "diff bytes")

	v := verify.New(verify.ModeSHA256, false, nil, nil)
	entry := v.VerifyPair(src, good)
	if entry.Status != verify.StatusOK {
		t.Fatalf("expected ok, got %s (%s)", entry.Status, entry.ErrorText())
	}
	if entry.SourceHash == nil || entry.DestinationHash == nil || *entry.SourceHash != *entry.DestinationHash {
		t.Fatalf("expected matching hashes, got %+v", entry)
	}
	if entry.ActualDestination() != good || entry.MatchType != verify.MatchExpectedPath {
		t.Fatalf("unexpected destination fields %+v", entry)
	}

	entry = v.VerifyPair(src, bad)
	if entry.Status != verify.StatusMismatch {
		t.Fatalf("expected mismatch, got %s", entry.Status)
	}
}

func TestQuickModeTreatsSameSizeAsOK(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.jpg"), "aaaa")
	dst := writeFile(t, filepath.Join(dir, "b.jpg"), "bbbb")
	short := writeFile(t, filepath.Join(dir, "c.jpg"), "bb")

	v := verify.New(verify.ModeQuick, true, nil, nil)
	entry := v.VerifyPair(src, dst)
	if entry.Status != verify.StatusOK {
		t.Fatalf("quick mode should accept same-size files with different content, got %s", entry.Status)
	}
	if entry.HashAlgorithm != verify.ModeQuick || entry.SourceHash != nil {
		t.Fatalf("quick mode should not hash: %+v", entry)
	}
	if got := v.VerifyPair(src, short).Status; got != verify.StatusMismatch {
		t.Fatalf("expected size mismatch, got %s", got)
	}
	if got := v.VerifyPair(filepath.Join(dir, "gone.jpg"), dst).Status; got != verify.StatusMissingSource {
		t.Fatalf("expected missing source, got %s", got)
	}
	if got := v.VerifyPair(src, filepath.Join(dir, "gone.jpg")).Status; got != verify.StatusMissingDestination {
		t.Fatalf("expected missing destination, got %s", got)
	}
}

func TestVerifyPairDestinationUnreadableIsError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.jpg"), "payload")
	dst := writeFile(t, filepath.Join(dir, "b.jpg"), "payload")
	if err := os.Chmod(dst, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dst, 0o644) })

	entry := verify.New(verify.ModeSHA256, false, nil, nil).VerifyPair(src, dst)
	if entry.Status != verify.StatusError {
		t.Fatalf("expected error for unreadable destination, got %s", entry.Status)
	}
	if entry.SourceHash == nil {
		t.Fatal("expected source hash to be kept")
	}
}

func TestVerifyPairSourceUnreadableIsError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "a.jpg"), "payload")
	dst := writeFile(t, filepath.Join(dir, "b.jpg"), "payload")
	if err := os.Chmod(src, 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(src, 0o644) })

	entry := verify.New(verify.ModeSHA256, false, nil, nil).VerifyPair(src, dst)
	requireSourceHashError(t, entry)
}

func TestVerifyPairSourceDirectoryIsError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeFile(t, filepath.Join(src, "child"), "payload")
	dst := writeFile(t, filepath.Join(dir, "b.jpg"), "payload")

	entry := verify.New(verify.ModeSHA256, false, nil, nil).VerifyPair(src, dst)
	requireSourceHashError(t, entry)
}

func requireSourceHashError(t *testing.T, entry verify.Entry) {
	t.Helper()
	if entry.Status != verify.StatusError {
		t.Fatalf("expected error for unreadable source, got %s", entry.Status)
	}
	if entry.SourceHash != nil {
		t.Fatalf("expected no source hash, got %q", *entry.SourceHash)
	}
	if !strings.HasPrefix(entry.ErrorText(), "could not compute source hash") {
		t.Fatalf("unexpected error text %q", entry.ErrorText())
	}
}

func TestFromRunRecordMoveKeepsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	srcRoot := filepath.Join(dir, "src")
	dstRoot := filepath.Join(dir, "dst")
	moved := writeFile(t, filepath.Join(dstRoot, "2024", "m.jpg"), "moved")
	gone := filepath.Join(dstRoot, "2024", "gone.jpg")

	rec := runrecord.New(srcRoot, dstRoot, runrecord.ModeLiveMove, runrecord.ConfigSignature{})
	rec.AddMove(filepath.Join(srcRoot, "m.jpg"), moved)
	rec.AddMove(filepath.Join(srcRoot, "gone.jpg"), gone)

	report, err := verify.New(verify.ModeSHA256, false, nil, nil).FromRunRecord(context.Background(), rec, nil)
	if err != nil {
		t.Fatalf("FromRunRecord: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(report.Entries))
	}
	first, second := report.Entries[0], report.Entries[1]
	if first.Status != verify.StatusMissingSource || first.ActualDestination() != moved {
		t.Fatalf("unexpected move entry %s %q", first.Status, first.ActualDestination())
	}
	if first.DestinationHash != nil {
		t.Fatal("move destinations must not be hashed")
	}
	if second.Status != verify.StatusMissingSource || second.ActualDestinationPath != nil {
		t.Fatalf("absent move destination must stay unset, got %s %v", second.Status, second.ActualDestinationPath)
	}
}

func TestFromRunRecordClassifiesEntries(t *testing.T) {
	dir := t.TempDir()
	srcRoot := filepath.Join(dir, "src")
	dstRoot := filepath.Join(dir, "dst")
	a := writeFile(t, filepath.Join(srcRoot, "a.jpg"), "alpha")
	aDst := writeFile(t, filepath.Join(dstRoot, "2024", "a.jpg"), "alpha")
	b := writeFile(t, filepath.Join(srcRoot, "b.jpg"), "bravo")
	bDst := writeFile(t, filepath.Join(dstRoot, "2024", "b.jpg"), "bravo")

	rec := runrecord.New(srcRoot, dstRoot, runrecord.ModeLiveCopy, runrecord.ConfigSignature{})
	rec.AddCopy(a, aDst)
	rec.AddCopy(b, bDst)
	rec.AddSkip(filepath.Join(srcRoot, "c.jpg"), "duplicate_existing")
	rec.AddMove(filepath.Join(srcRoot, "d.jpg"), filepath.Join(dstRoot, "2024", "d.jpg"))

	if err := os.Remove(bDst); err != nil {
		t.Fatalf("remove destination: %v", err)
	}

	var calls []int
	v := verify.New(verify.ModeSHA256, false, nil, nil)
	report, err := v.FromRunRecord(context.Background(), rec, func(done, total int) {
		if total != 3 {
			t.Fatalf("unexpected total %d", total)
		}
		calls = append(calls, done)
	})
	if err != nil {
		t.Fatalf("FromRunRecord: %v", err)
	}

	var statuses []verify.Status
	for _, e := range report.Entries {
		statuses = append(statuses, e.Status)
	}
	want := []verify.Status{verify.StatusOK, verify.StatusMissingDestination, verify.StatusMissingSource}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, calls); diff != "" {
		t.Fatalf("unexpected progress (-want +got):\n%s", diff)
	}
	wantSummary := verify.Summary{Total: 3, OK: 1, MissingDestination: 1, MissingSource: 1}
	if diff := cmp.Diff(wantSummary, report.Summary); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}
	if report.InputSource != verify.InputRunRecord || report.RunIDValue() != rec.RunID {
		t.Fatalf("unexpected provenance %s %q", report.InputSource, report.RunIDValue())
	}
}

func TestFromRunRecordHonoursCancellation(t *testing.T) {
	rec := runrecord.New("/src", "/dst", runrecord.ModeLiveCopy, runrecord.ConfigSignature{})
	rec.AddCopy("/src/a.jpg", "/dst/a.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := verify.New(verify.ModeSHA256, false, nil, nil).FromRunRecord(ctx, rec, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestContentSearchFindsRelocatedCopy(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "src", "IMG_1.JPG"), "picture bytes")
	dstRoot := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(dstRoot, "2023", "decoy.jpg"), "picture bytez")
	moved := writeFile(t, filepath.Join(dstRoot, "2024", "renamed.jpg"), "picture bytes")
	expected := filepath.Join(dstRoot, "2024", "IMG_1.jpg")

	v := verify.New(verify.ModeSHA256, true, nil, nil)
	entry := v.WithContentSearch(src, expected, dstRoot)
	if entry.Status != verify.StatusDuplicateElsewhere {
		t.Fatalf("expected duplicate elsewhere, got %s (%s)", entry.Status, entry.ErrorText())
	}
	if entry.MatchType != verify.MatchContentSearch || entry.ActualDestination() != moved {
		t.Fatalf("unexpected match %+v", entry)
	}
	if entry.ExpectedDestination() != expected {
		t.Fatalf("expected destination should be preserved, got %q", entry.ExpectedDestination())
	}
}

func TestContentSearchFallbacks(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, filepath.Join(dir, "src", "a.jpg"), "unique")
	dstRoot := filepath.Join(dir, "dst")
	writeFile(t, filepath.Join(dstRoot, "copy.jpg"), "unique")
	expected := filepath.Join(dstRoot, "a.jpg")

	disabled := verify.New(verify.ModeSHA256, false, nil, nil).WithContentSearch(src, expected, dstRoot)
	if disabled.Status != verify.StatusMissingDestination || disabled.MatchType != verify.MatchExpectedPath {
		t.Fatalf("disabled search should report missing destination, got %+v", disabled)
	}

	quick := verify.New(verify.ModeQuick, true, nil, nil).WithContentSearch(src, expected, dstRoot)
	if quick.Status != verify.StatusMissingDestination || quick.ErrorText() == "" {
		t.Fatalf("quick mode must not search, got %+v", quick)
	}

	missing := verify.New(verify.ModeSHA256, true, nil, nil).WithContentSearch(filepath.Join(dir, "nope.jpg"), expected, dstRoot)
	if missing.Status != verify.StatusMissingSource || missing.MatchType != verify.MatchUnknown {
		t.Fatalf("expected missing source with unknown match, got %+v", missing)
	}

	noHit := verify.New(verify.ModeSHA256, true, nil, nil).WithContentSearch(src, expected, filepath.Join(dir, "empty"))
	if noHit.Status != verify.StatusMissingDestination || noHit.MatchType != verify.MatchContentSearch {
		t.Fatalf("expected content search miss, got %+v", noHit)
	}
}

func TestReconstructUsesExpectedPathFirst(t *testing.T) {
	dir := t.TempDir()
	srcRoot := filepath.Join(dir, "src")
	dstRoot := filepath.Join(dir, "dst")
	a := writeFile(t, filepath.Join(srcRoot, "a.jpg"), "one")
	aDst := writeFile(t, filepath.Join(dstRoot, "a.jpg"), "one")

	v := verify.New(verify.ModeSHA256, true, nil, nil)
	report, err := v.Reconstruct(context.Background(), srcRoot, dstRoot, []verify.Pair{{Source: a, Destination: aDst}}, nil)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if report.InputSource != verify.InputReconstructed || report.RunID != nil {
		t.Fatalf("unexpected provenance %+v", report)
	}
	if report.Entries[0].Status != verify.StatusOK || report.Entries[0].MatchType != verify.MatchExpectedPath {
		t.Fatalf("unexpected entry %+v", report.Entries[0])
	}
}

func TestReportSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	report := verify.NewReport("/src", "/dst", verify.InputRunRecord, "20240101_120000_abcd", verify.ModeSHA256)
	dest := "/dst/a.jpg"
	report.AddEntry(verify.Entry{SourcePath: "/src/a.jpg", ExpectedDestinationPath: &dest, ActualDestinationPath: &dest, Status: verify.StatusOK, MatchType: verify.MatchExpectedPath, HashAlgorithm: verify.ModeSHA256})

	path, err := report.Save(dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != report.VerifyID+"_verify.json" {
		t.Fatalf("unexpected filename %q", path)
	}
	if _, err := report.Save(dir); !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected second save to fail, got %v", err)
	}

	loaded, err := verify.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	loaded.CreatedAt = report.CreatedAt
	if diff := cmp.Diff(report, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsMissingID(t *testing.T) {
	if _, err := verify.Decode(bytes.NewBufferString(`{"entries":[]}`)); err == nil {
		t.Fatal("expected error for report without verify_id")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := verify.ParseMode(" SHA256 "); err != nil || m != verify.ModeSHA256 {
		t.Fatalf("unexpected parse %q %v", m, err)
	}
	if _, err := verify.ParseMode("md5"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
