package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeScan()
	c.normalizeSorting()
	c.normalizeRenaming()
	c.normalizeDuplicates()
	if err := c.normalizeVerify(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeScan() {
	for _, list := range []*[]string{&c.Scan.ImageExtensions, &c.Scan.VideoExtensions, &c.Scan.RawExtensions} {
		out := (*list)[:0]
		for _, ext := range *list {
			if normalized := normalizeExtension(ext); normalized != "" {
				out = append(out, normalized)
			}
		}
		*list = out
	}
}

func (c *Config) normalizeSorting() {
	structure := strings.ToUpper(strings.TrimSpace(c.Sorting.FolderStructure))
	structure = strings.Trim(strings.ReplaceAll(structure, "\\", "/"), "/")
	if structure == "" {
		structure = defaultFolderStructure
	}
	c.Sorting.FolderStructure = structure
}

func (c *Config) normalizeRenaming() {
	if strings.TrimSpace(c.Renaming.Pattern) == "" {
		c.Renaming.Pattern = defaultRenamePattern
	}
	if strings.TrimSpace(c.Renaming.DateFormat) == "" {
		c.Renaming.DateFormat = defaultRenameDateFormat
	}
	if strings.TrimSpace(c.Renaming.TimeFormat) == "" {
		c.Renaming.TimeFormat = defaultRenameTimeFormat
	}
}

func (c *Config) normalizeDuplicates() {
	c.Duplicates.HashingAlgorithm = strings.ToLower(strings.TrimSpace(c.Duplicates.HashingAlgorithm))
	if c.Duplicates.HashingAlgorithm == "" {
		c.Duplicates.HashingAlgorithm = defaultHashingAlgorithm
	}
	c.Duplicates.OnCollision = strings.ToLower(strings.TrimSpace(c.Duplicates.OnCollision))
	if c.Duplicates.OnCollision == "" {
		c.Duplicates.OnCollision = defaultOnCollision
	}
}

func (c *Config) normalizeVerify() error {
	c.Verify.Algorithm = strings.ToLower(strings.TrimSpace(c.Verify.Algorithm))
	if c.Verify.Algorithm == "" {
		c.Verify.Algorithm = defaultVerifyAlgorithm
	}
	if strings.TrimSpace(c.Verify.StateDir) == "" {
		c.Verify.StateDir = defaultStateDir
	}
	var err error
	if c.Verify.StateDir, err = expandPath(c.Verify.StateDir); err != nil {
		return fmt.Errorf("verify.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Verify.RunRecordDir) == "" {
		c.Verify.RunRecordDir = defaultRunRecordDir
	}
	if strings.TrimSpace(c.Verify.VerificationDir) == "" {
		c.Verify.VerificationDir = defaultVerificationDir
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		var err error
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
