package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chronoclean/internal/config"
	"chronoclean/internal/services"
	"chronoclean/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	source     string
	library    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	configPath := filepath.Join(testsupport.BaseDir(cfg), "chronoclean.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		source:     testsupport.SourceDir(cfg),
		library:    testsupport.DestinationDir(cfg),
	}
	testsupport.WriteContent(t, filepath.Join(env.source, "IMG_20240315_101010.jpg"), []byte("holiday"))
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLI(t, "", append([]string{"--config", e.configPath}, args...))
}

func (e *cliTestEnv) apply(t *testing.T) {
	t.Helper()
	if _, _, err := e.run(t, "apply", "--source", e.source, "--destination", e.library, "--no-dry-run"); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func runCLI(t *testing.T, stdin string, args []string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestApplyVerifyCleanupWorkflow(t *testing.T) {
	env := setupCLITestEnv(t)
	source := filepath.Join(env.source, "IMG_20240315_101010.jpg")

	out, _, err := env.run(t, "apply", "--source", env.source, "--destination", env.library, "--no-dry-run")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	requireContains(t, out, "Copied: 1")
	requireContains(t, out, "Run record:")
	if _, err := os.Stat(filepath.Join(env.library, "2024", "03", "IMG_20240315_101010.jpg")); err != nil {
		t.Fatalf("expected copy in library: %v", err)
	}

	out, _, err = env.run(t, "verify", "--last", "--yes")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	requireContains(t, out, "Report:")

	_, _, err = env.run(t, "cleanup", "--last", "--yes")
	if err == nil {
		t.Fatal("expected live cleanup with --yes and no --force to fail")
	}
	requireContains(t, err.Error(), "--force")
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must survive refused cleanup: %v", err)
	}

	out, _, err = env.run(t, "cleanup", "--last", "--force")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Deleted: 1")
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err=%v", err)
	}
}

func TestCleanupDryRunKeepsSources(t *testing.T) {
	env := setupCLITestEnv(t)
	env.apply(t)
	if _, _, err := env.run(t, "verify", "--last"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	out, _, err := env.run(t, "cleanup", "--last", "--dry-run")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "Would delete: 1")
	if _, err := os.Stat(filepath.Join(env.source, "IMG_20240315_101010.jpg")); err != nil {
		t.Fatalf("dry run must keep source: %v", err)
	}
}

func TestCleanupPromptDeclined(t *testing.T) {
	env := setupCLITestEnv(t)
	env.apply(t)
	if _, _, err := env.run(t, "verify", "--last"); err != nil {
		t.Fatalf("verify: %v", err)
	}

	out, stderr, err := runCLI(t, "n\n", []string{"--config", env.configPath, "cleanup", "--last"})
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, stderr, "[y/N]")
	requireContains(t, out, "Cleanup cancelled")
	if _, err := os.Stat(filepath.Join(env.source, "IMG_20240315_101010.jpg")); err != nil {
		t.Fatalf("declined cleanup must keep source: %v", err)
	}
}

func TestVerifyReportsMissingDestination(t *testing.T) {
	env := setupCLITestEnv(t)
	env.apply(t)
	if err := os.Remove(filepath.Join(env.library, "2024", "03", "IMG_20240315_101010.jpg")); err != nil {
		t.Fatalf("remove copy: %v", err)
	}

	out, _, err := env.run(t, "--json", "verify", "--last")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var payload struct {
		Summary struct {
			MissingDestination int `json:"missing_destination"`
			OK                 int `json:"ok"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode verify json: %v\n%s", err, out)
	}
	if payload.Summary.MissingDestination != 1 || payload.Summary.OK != 0 {
		t.Fatalf("unexpected summary %+v", payload.Summary)
	}

	out, _, err = env.run(t, "cleanup", "--last", "--force")
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	requireContains(t, out, "0 eligible")
}

func TestVerifyRejectsAmbiguousSelection(t *testing.T) {
	env := setupCLITestEnv(t)
	env.apply(t)
	testsupport.WriteContent(t, filepath.Join(env.source, "IMG_20240316_101010.jpg"), []byte("second"))
	env.apply(t)

	_, _, err := env.run(t, "verify", "--yes")
	if err == nil {
		t.Fatal("expected ambiguous selection to fail")
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", code, err)
	}
	requireContains(t, err.Error(), "candidates")
}

func TestRunsListJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	env.apply(t)
	if _, _, err := env.run(t, "apply", "--source", env.source, "--destination", env.library, "--dry-run"); err != nil {
		t.Fatalf("dry-run apply: %v", err)
	}

	out, _, err := env.run(t, "--json", "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	var runs []map[string]any
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs json: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected dry runs hidden by default, got %d runs", len(runs))
	}

	out, _, err = env.run(t, "--json", "runs", "list", "--include-dry-runs")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs json: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected both runs, got %d", len(runs))
	}
}

func TestApplyRequiresSource(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "apply", "--destination", env.library)
	if err == nil {
		t.Fatal("expected missing --source to fail")
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestExportCSV(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "export", "csv", "--source", env.source, "--destination", env.library)
	if err != nil {
		t.Fatalf("export csv: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	if want := filepath.Join(env.library, "2024", "03", "IMG_20240315_101010.jpg"); rows[1][4] != want {
		t.Fatalf("unexpected destination %q want %q", rows[1][4], want)
	}
}

func TestScanListsDetectedDates(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "scan", "--source", env.source)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "2024-03-15 10:10:10")
	requireContains(t, out, "Dated: 1")
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "", []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, "", []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, "", []string{"--config", target, "config", "validate"})
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestDoctorPassesForFreshState(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := env.run(t, "doctor", "--source", env.source, "--destination", env.library)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "Configuration")
	requireContains(t, out, "Destination free space")
}
