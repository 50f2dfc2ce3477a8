package runrecord

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"chronoclean/internal/fileutil"
	"chronoclean/internal/logging"
	"chronoclean/internal/services"
)

// Writer persists run records under Dir.
type Writer struct {
	Dir     string
	Enabled bool
	Logger  *slog.Logger
}

// NewWriter returns an enabled writer for dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{Dir: dir, Enabled: true, Logger: logging.NewComponentLogger(logger, "runrecord")}
}

// Run executes fn and writes rec only when fn returns nil. A panic inside fn
// propagates without a record being written. The returned path is empty when
// nothing was persisted.
func (w *Writer) Run(ctx context.Context, rec *Record, fn func(ctx context.Context, rec *Record) error) (string, error) {
	start := time.Now()
	ctx = logging.WithRunID(ctx, rec.RunID)
	if err := fn(ctx, rec); err != nil {
		w.logger().Debug("run failed; record discarded",
			logging.String(logging.FieldRunID, rec.RunID),
			logging.Error(err),
		)
		return "", err
	}
	rec.Summary.DurationSeconds = time.Since(start).Seconds()
	if !w.Enabled {
		return "", nil
	}
	return w.Save(rec)
}

// Save writes rec to Dir. Existing files are never replaced.
func (w *Writer) Save(rec *Record) (string, error) {
	if w.Dir == "" {
		return "", services.Wrap(services.ErrConfiguration, "runrecord", "save", "run record directory not configured", nil)
	}
	var buf bytes.Buffer
	if err := rec.Encode(&buf); err != nil {
		return "", services.Wrap(services.ErrPersistence, "runrecord", "encode", rec.RunID, err)
	}
	path := filepath.Join(w.Dir, rec.Filename())
	if err := fileutil.WriteFileOnce(path, buf.Bytes(), 0o644); err != nil {
		logging.ErrorWithContext(w.logger(), "run record not saved", "run_record_write_failed",
			logging.String(logging.FieldRunID, rec.RunID),
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the run record directory is writable"),
		)
		return "", services.Wrap(services.ErrPersistence, "runrecord", "save", fmt.Sprintf("write %s", path), err)
	}
	w.logger().Info("run record saved",
		logging.String(logging.FieldEventType, "run_record_saved"),
		logging.String(logging.FieldRunID, rec.RunID),
		logging.String(logging.FieldPath, path),
		logging.Int("entries", len(rec.Entries)),
	)
	return path, nil
}

func (w *Writer) logger() *slog.Logger {
	if w == nil || w.Logger == nil {
		return logging.NewNop()
	}
	return w.Logger
}
