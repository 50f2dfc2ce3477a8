package config

const (
	defaultConfigPath       = "~/.config/chronoclean/config.toml"
	defaultFolderStructure  = "YYYY/MM"
	defaultRenamePattern    = "{date}_{time}"
	defaultRenameDateFormat = "20060102"
	defaultRenameTimeFormat = "150405"
	defaultHashingAlgorithm = "sha256"
	defaultOnCollision      = "check_hash"
	defaultVerifyAlgorithm  = "sha256"
	defaultStateDir         = ".chronoclean"
	defaultRunRecordDir     = "runs"
	defaultVerificationDir  = "verifications"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultContentSearch    = true
)

var projectConfigNames = []string{
	"chronoclean.toml",
	"chronoclean.yaml",
	".chronoclean/config.yaml",
}

var (
	defaultImageExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".heic", ".heif", ".webp", ".bmp", ".gif"}
	defaultVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".m4v", ".3gp", ".wmv", ".webm", ".mts", ".m2ts"}
	defaultRawExtensions   = []string{".cr2", ".cr3", ".nef", ".arw", ".dng", ".orf", ".rw2", ".raf", ".pef", ".srw"}
)

// FolderStructures lists the supported date folder layouts.
var FolderStructures = []string{"YYYY", "YYYY/MM", "YYYY/MM/DD"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		General: General{
			DryRunDefault: true,
			Recursive:     true,
			IncludeVideos: true,
		},
		Scan: Scan{
			ImageExtensions: append([]string(nil), defaultImageExtensions...),
			VideoExtensions: append([]string(nil), defaultVideoExtensions...),
			RawExtensions:   append([]string(nil), defaultRawExtensions...),
		},
		Sorting: Sorting{
			FolderStructure: defaultFolderStructure,
		},
		Renaming: Renaming{
			Enabled:             false,
			Pattern:             defaultRenamePattern,
			DateFormat:          defaultRenameDateFormat,
			TimeFormat:          defaultRenameTimeFormat,
			LowercaseExtensions: true,
		},
		Duplicates: Duplicates{
			Enabled:          true,
			HashingAlgorithm: defaultHashingAlgorithm,
			OnCollision:      defaultOnCollision,
			CacheHashes:      true,
		},
		Verify: Verify{
			Enabled:                    true,
			Algorithm:                  defaultVerifyAlgorithm,
			StateDir:                   defaultStateDir,
			RunRecordDir:               defaultRunRecordDir,
			VerificationDir:            defaultVerificationDir,
			AllowCleanupOnQuick:        false,
			ContentSearchOnReconstruct: defaultContentSearch,
			WriteRunRecord:             true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
