package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// General contains run-wide defaults applied by the CLI.
type General struct {
	DryRunDefault bool `toml:"dry_run_default" yaml:"dry_run_default"`
	Recursive     bool `toml:"recursive" yaml:"recursive"`
	IncludeVideos bool `toml:"include_videos" yaml:"include_videos"`
}

// Scan contains the media extension sets considered by the scanner.
type Scan struct {
	ImageExtensions []string `toml:"image_extensions" yaml:"image_extensions"`
	VideoExtensions []string `toml:"video_extensions" yaml:"video_extensions"`
	RawExtensions   []string `toml:"raw_extensions" yaml:"raw_extensions"`
	// Limit caps the number of scanned files; 0 means unlimited.
	Limit int `toml:"limit" yaml:"limit"`
}

// Sorting controls the date folder layout under the destination root.
type Sorting struct {
	FolderStructure string `toml:"folder_structure" yaml:"folder_structure"`
}

// Renaming controls filename generation. DateFormat and TimeFormat are Go
// time layouts.
type Renaming struct {
	Enabled             bool   `toml:"enabled" yaml:"enabled"`
	Pattern             string `toml:"pattern" yaml:"pattern"`
	DateFormat          string `toml:"date_format" yaml:"date_format"`
	TimeFormat          string `toml:"time_format" yaml:"time_format"`
	LowercaseExtensions bool   `toml:"lowercase_extensions" yaml:"lowercase_extensions"`
}

// FolderTags toggles folder-name tagging. Only its enabled flag matters here;
// it is carried into run record signatures.
type FolderTags struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
}

// Duplicates controls collision handling during apply.
type Duplicates struct {
	Enabled          bool   `toml:"enabled" yaml:"enabled"`
	HashingAlgorithm string `toml:"hashing_algorithm" yaml:"hashing_algorithm"`
	OnCollision      string `toml:"on_collision" yaml:"on_collision"`
	CacheHashes      bool   `toml:"cache_hashes" yaml:"cache_hashes"`
}

// Verify controls run records, verification reports, and cleanup gating.
type Verify struct {
	Enabled                    bool   `toml:"enabled" yaml:"enabled"`
	Algorithm                  string `toml:"algorithm" yaml:"algorithm"`
	StateDir                   string `toml:"state_dir" yaml:"state_dir"`
	RunRecordDir               string `toml:"run_record_dir" yaml:"run_record_dir"`
	VerificationDir            string `toml:"verification_dir" yaml:"verification_dir"`
	AllowCleanupOnQuick        bool   `toml:"allow_cleanup_on_quick" yaml:"allow_cleanup_on_quick"`
	ContentSearchOnReconstruct bool   `toml:"content_search_on_reconstruct" yaml:"content_search_on_reconstruct"`
	WriteRunRecord             bool   `toml:"write_run_record" yaml:"write_run_record"`
}

// Performance holds placeholders for parallel hashing. They are accepted and
// reported but every component runs sequentially.
type Performance struct {
	Multiprocessing bool `toml:"multiprocessing" yaml:"multiprocessing"`
	MaxWorkers      int  `toml:"max_workers" yaml:"max_workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
	File   string `toml:"file" yaml:"file"`
}

// Config encapsulates all configuration values for ChronoClean.
//
// Configuration sections by subsystem:
//   - General: dry-run default and scan recursion
//   - Scan: media extension sets
//   - Sorting / Renaming / FolderTags: destination path mapping
//   - Duplicates: collision policy and hashing for apply
//   - Verify: state directory layout and cleanup gating
//   - Performance: inert parallelism placeholders
//   - Logging: log format, level, and optional file
type Config struct {
	General     General     `toml:"general" yaml:"general"`
	Scan        Scan        `toml:"scan" yaml:"scan"`
	Sorting     Sorting     `toml:"sorting" yaml:"sorting"`
	Renaming    Renaming    `toml:"renaming" yaml:"renaming"`
	FolderTags  FolderTags  `toml:"folder_tags" yaml:"folder_tags"`
	Duplicates  Duplicates  `toml:"duplicates" yaml:"duplicates"`
	Verify      Verify      `toml:"verify" yaml:"verify"`
	Performance Performance `toml:"performance" yaml:"performance"`
	Logging     Logging     `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Files ending in
// .yaml or .yml are decoded as YAML, everything else as TOML. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return yaml.Unmarshal(data, cfg)
	default:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	candidates := []string{defaultPath}
	for _, local := range projectConfigNames {
		abs, err := filepath.Abs(local)
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, abs)
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state directory and its run record and
// verification subdirectories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Verify.StateDir, c.RunRecordDir(), c.VerificationDir()} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunRecordDir returns the directory that holds apply run records.
func (c *Config) RunRecordDir() string {
	return c.stateSubdir(c.Verify.RunRecordDir)
}

// VerificationDir returns the directory that holds verification reports.
func (c *Config) VerificationDir() string {
	return c.stateSubdir(c.Verify.VerificationDir)
}

func (c *Config) stateSubdir(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Verify.StateDir, name)
}

// MediaExtensions returns the lowercased extension set the scanner should
// accept, honouring general.include_videos.
func (c *Config) MediaExtensions() map[string]struct{} {
	set := make(map[string]struct{})
	groups := [][]string{c.Scan.ImageExtensions, c.Scan.RawExtensions}
	if c.General.IncludeVideos {
		groups = append(groups, c.Scan.VideoExtensions)
	}
	for _, group := range groups {
		for _, ext := range group {
			set[normalizeExtension(ext)] = struct{}{}
		}
	}
	delete(set, "")
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}
