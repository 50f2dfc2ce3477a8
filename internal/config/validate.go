package config

import (
	"fmt"
	"slices"
)

var (
	hashingAlgorithms = []string{"sha256", "md5"}
	collisionPolicies = []string{"check_hash", "rename", "skip", "fail"}
	verifyAlgorithms  = []string{"sha256", "quick"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSorting(); err != nil {
		return err
	}
	if err := c.validateDuplicates(); err != nil {
		return err
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Scan.Limit < 0 {
		return fmt.Errorf("scan.limit must be >= 0, got %d", c.Scan.Limit)
	}
	if c.Performance.MaxWorkers < 0 {
		return fmt.Errorf("performance.max_workers must be >= 0, got %d", c.Performance.MaxWorkers)
	}
	return nil
}

func (c *Config) validateSorting() error {
	if !slices.Contains(FolderStructures, c.Sorting.FolderStructure) {
		return fmt.Errorf("sorting.folder_structure must be one of %v, got %q", FolderStructures, c.Sorting.FolderStructure)
	}
	return nil
}

func (c *Config) validateDuplicates() error {
	if !slices.Contains(hashingAlgorithms, c.Duplicates.HashingAlgorithm) {
		return fmt.Errorf("duplicates.hashing_algorithm must be one of %v, got %q", hashingAlgorithms, c.Duplicates.HashingAlgorithm)
	}
	if !slices.Contains(collisionPolicies, c.Duplicates.OnCollision) {
		return fmt.Errorf("duplicates.on_collision must be one of %v, got %q", collisionPolicies, c.Duplicates.OnCollision)
	}
	return nil
}

func (c *Config) validateVerify() error {
	if !slices.Contains(verifyAlgorithms, c.Verify.Algorithm) {
		return fmt.Errorf("verify.algorithm must be one of %v, got %q", verifyAlgorithms, c.Verify.Algorithm)
	}
	if c.Verify.RunRecordDir == c.Verify.VerificationDir {
		return fmt.Errorf("verify.run_record_dir and verify.verification_dir must differ (both %q)", c.Verify.RunRecordDir)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
