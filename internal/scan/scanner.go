package scan

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"chronoclean/internal/logging"
	"chronoclean/internal/services"
)

// File is one scanned media file.
type File struct {
	Path       string
	Size       int64
	ModTime    time.Time
	Date       time.Time
	DateSource DateSource
}

// HasDate reports whether a date was detected.
func (f File) HasDate() bool {
	return f.DateSource != SourceNone
}

// PathError is a file that could not be inspected.
type PathError struct {
	Path string
	Err  error
}

// Result collects the files found under one root.
type Result struct {
	Root      string
	Files     []File
	Errors    []PathError
	Truncated bool
}

// TotalBytes sums the size of every scanned file.
func (r Result) TotalBytes() int64 {
	var total int64
	for _, f := range r.Files {
		total += f.Size
	}
	return total
}

// Dated splits files into those with and without a detected date.
func (r Result) Dated() (dated, undated []File) {
	for _, f := range r.Files {
		if f.HasDate() {
			dated = append(dated, f)
		} else {
			undated = append(undated, f)
		}
	}
	return dated, undated
}

// Scanner walks a source tree.
type Scanner struct {
	Extensions map[string]struct{}
	Recursive  bool
	// Limit stops the walk after this many files; 0 means no limit.
	Limit    int
	Detector *DateDetector

	logger *slog.Logger
}

// NewScanner returns a scanner accepting the given lowercased extensions.
func NewScanner(extensions map[string]struct{}, recursive bool, limit int, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		Extensions: extensions,
		Recursive:  recursive,
		Limit:      limit,
		Detector:   NewDateDetector(),
		logger:     logging.NewComponentLogger(logger, "scan"),
	}
}

// Scan walks root in lexical order. Hidden directories are skipped, which
// keeps the state directory out of the results when it lives under the
// source. Unreadable entries are collected in Result.Errors.
func (s *Scanner) Scan(ctx context.Context, root string) (Result, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "scan", "resolve root", root, err)
	}
	result := Result{Root: abs}

	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == abs {
				return err
			}
			result.Errors = append(result.Errors, PathError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == abs {
				return nil
			}
			if !s.Recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !s.accepts(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			result.Errors = append(result.Errors, PathError{Path: path, Err: err})
			return nil
		}
		file := File{Path: path, Size: info.Size(), ModTime: info.ModTime()}
		if s.Detector != nil {
			file.Date, file.DateSource, _ = s.Detector.Detect(path, info.ModTime())
		}
		result.Files = append(result.Files, file)
		if s.Limit > 0 && len(result.Files) >= s.Limit {
			result.Truncated = true
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return result, walkErr
		}
		if errors.Is(walkErr, fs.ErrNotExist) {
			return result, services.Wrap(services.ErrNotFound, "scan", "walk", abs, walkErr)
		}
		return result, services.Wrap(services.ErrTransient, "scan", "walk", abs, walkErr)
	}

	s.logger.Info("scan complete",
		logging.String(logging.FieldPath, abs),
		logging.Int("files", len(result.Files)),
		logging.Int("errors", len(result.Errors)),
		logging.Bool("truncated", result.Truncated),
	)
	return result, nil
}

func (s *Scanner) accepts(path string) bool {
	if len(s.Extensions) == 0 {
		return true
	}
	_, ok := s.Extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
