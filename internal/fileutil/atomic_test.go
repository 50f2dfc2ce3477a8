package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileOnce(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "state", "record.json")

	if err := WriteFileOnce(target, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("WriteFileOnce: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteFileOnceRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "record.json")
	if err := os.WriteFile(target, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := WriteFileOnce(target, []byte("replacement"), 0o644)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "original" {
		t.Fatalf("existing file modified: %q", got)
	}
}
