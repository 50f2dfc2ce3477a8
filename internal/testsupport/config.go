package testsupport

import (
	"path/filepath"
	"testing"

	"chronoclean/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose state directory lives in a per-test temp
// directory, with source and destination roots created next to it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Verify.StateDir = filepath.Join(base, "state")
	cfgVal.General.DryRunDefault = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure state dirs: %v", err)
	}
	return builder.cfg
}

// WithCollisionPolicy overrides duplicates.on_collision.
func WithCollisionPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Duplicates.OnCollision = policy
	}
}

// WithFolderStructure overrides sorting.folder_structure.
func WithFolderStructure(structure string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sorting.FolderStructure = structure
	}
}

// WithRenaming enables renaming with the given pattern.
func WithRenaming(pattern string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Renaming.Enabled = true
		b.cfg.Renaming.Pattern = pattern
	}
}

// WithVerifyAlgorithm overrides verify.algorithm.
func WithVerifyAlgorithm(algorithm string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Verify.Algorithm = algorithm
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Verify.StateDir)
}

// SourceDir returns the conventional source root for cfg.
func SourceDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "source")
}

// DestinationDir returns the conventional destination root for cfg.
func DestinationDir(cfg *config.Config) string {
	return filepath.Join(BaseDir(cfg), "library")
}
