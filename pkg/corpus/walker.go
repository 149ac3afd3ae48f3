// Package corpus walks a source metadata tree, pairs every eligible file with
// its counterpart in the target tree and aggregates the comparison results.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/imdidiff/pkg/compare"
	"github.com/sdejongh/imdidiff/pkg/exclude"
	"github.com/sdejongh/imdidiff/pkg/logging"
	"github.com/sdejongh/imdidiff/pkg/models"
	"github.com/sdejongh/imdidiff/pkg/normalize"
	"github.com/sdejongh/imdidiff/pkg/output"
	"github.com/sdejongh/imdidiff/pkg/storage"
)

// Pair error stages not produced by the normalizer
const (
	StageTimeout = "timeout"
	StageStat    = "stat"
	StageCompare = "compare"
)

// Recorder receives the outcome of every pair. *metrics.Metrics implements it.
type Recorder interface {
	FileCompared(r *models.FileResult)
	FileMissingTarget()
	FileSkipped()
	FileErrored(stage string)
}

// Walker orchestrates a corpus comparison in two phases: the source tree is
// scanned for eligible files, then the pairs are compared one at a time.
type Walker struct {
	source     storage.Backend
	target     storage.Backend
	comparator compare.Comparator
	registry   *exclude.Registry
	formatter  output.Formatter
	logger     logging.Logger
	operation  *models.CompareOperation

	recorder Recorder
	out      io.Writer
}

// NewWalker creates a corpus walker. registry, formatter and logger may be
// nil.
func NewWalker(
	source, target storage.Backend,
	comparator compare.Comparator,
	registry *exclude.Registry,
	formatter output.Formatter,
	logger logging.Logger,
	operation *models.CompareOperation,
) *Walker {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Walker{
		source:     source,
		target:     target,
		comparator: comparator,
		registry:   registry,
		formatter:  formatter,
		logger:     logger,
		operation:  operation,
	}
}

// SetRecorder registers a receiver for per-pair outcomes
func (w *Walker) SetRecorder(r Recorder) {
	w.recorder = r
}

// SetOutput sets the writer handed to the formatter. The formatter default
// applies when it is nil.
func (w *Walker) SetOutput(out io.Writer) {
	w.out = out
}

// Run compares the corpus. When ctx is cancelled the partial report is
// returned together with the context error.
func (w *Walker) Run(ctx context.Context) (*models.Report, error) {
	report := models.NewReport(w.operation.ID, w.source.Root(), w.target.Root())

	w.logger.Info(ctx, "Starting corpus comparison", logging.Fields{
		"run_id":     w.operation.ID,
		"source":     w.source.Root(),
		"target":     w.target.Root(),
		"extensions": w.extensions(),
		"exclusions": w.registry.Len(),
	})

	// Phase 1: scan the source tree
	pairs, err := w.scan(ctx, report)
	if err != nil {
		if ctx.Err() != nil {
			report.Finish(true)
			return report, ctx.Err()
		}
		return nil, fmt.Errorf("failed to scan source tree: %w", err)
	}

	if w.formatter != nil {
		w.formatter.Start(w.out, len(pairs))
	}

	// Phase 2: compare pairs sequentially
	cancelled := false
	for i, pair := range pairs {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		if !w.comparePair(ctx, report, pair, i+1, len(pairs)) {
			cancelled = true
			break
		}
	}

	report.Finish(cancelled)
	if w.formatter != nil {
		w.formatter.Complete(report)
	}

	stats := report.Stats.Snapshot()
	w.logger.Info(ctx, fmt.Sprintf("Total number of differences found: %d in %d of %d files",
		stats.DivergentDifferences, stats.FilesWithDifferences, stats.FilesCompared), logging.Fields{
		"duration":      report.Duration.String(),
		"status":        report.Status,
		"files_walked":  stats.FilesWalked,
		"files_missing": stats.FilesMissingTarget,
		"files_errored": stats.FilesErrored,
		"files_skipped": stats.FilesSkipped,
		"recoverable":   stats.RecoverableDifferences,
		"suppressed":    stats.SuppressedDifferences,
		"divergent":     stats.DivergentDifferences,
		"bytes_read":    stats.BytesRead,
		"cancelled":     cancelled,
	})

	if cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

func (w *Walker) extensions() []string {
	if len(w.operation.Extensions) == 0 {
		return DefaultExtensions
	}
	return w.operation.Extensions
}

// scan collects the eligible source files in lexical order
func (w *Walker) scan(ctx context.Context, report *models.Report) ([]*models.FilePair, error) {
	extensions := w.extensions()
	var pairs []*models.FilePair

	err := w.source.Walk(ctx, func(info storage.FileInfo) error {
		if info.IsDir {
			if w.registry.ShouldSkipDirectory(info.Path) || shouldExclude(info.RelativePath, w.operation.ExcludePatterns) {
				w.logger.Debug(ctx, "Skipping excluded directory", logging.Fields{"path": info.Path})
				return storage.SkipDir
			}
			return nil
		}

		if !hasExtension(info.RelativePath, extensions) {
			return nil
		}

		if w.registry.ShouldSkipFile(info.Path) {
			w.skip(ctx, report, info, "exclude list")
			return nil
		}
		if shouldExclude(info.RelativePath, w.operation.ExcludePatterns) {
			w.skip(ctx, report, info, "exclude pattern")
			return nil
		}

		report.Stats.FilesWalked.Add(1)
		pairs = append(pairs, &models.FilePair{
			RelativePath: info.RelativePath,
			Source: &models.FileEntry{
				RelativePath: info.RelativePath,
				AbsolutePath: info.Path,
				Size:         info.Size,
				ModTime:      info.ModTime,
			},
			TargetPath: w.target.Abs(info.RelativePath),
		})
		return nil
	})

	return pairs, err
}

func (w *Walker) skip(ctx context.Context, report *models.Report, info storage.FileInfo, reason string) {
	report.Stats.FilesSkipped.Add(1)
	if w.recorder != nil {
		w.recorder.FileSkipped()
	}
	w.logger.Debug(ctx, "Skipping excluded file", logging.Fields{"path": info.Path, "reason": reason})
}

// comparePair resolves the target of pair and compares it. It returns false
// when the run was cancelled while the pair was in progress.
func (w *Walker) comparePair(ctx context.Context, report *models.Report, pair *models.FilePair, index, total int) bool {
	w.progress(output.ProgressUpdate{Type: output.UpdateFileStart, FilePath: pair.RelativePath, CurrentFile: index, TotalFiles: total})

	info, err := w.target.Stat(ctx, pair.RelativePath)
	switch {
	case err == nil && !info.IsDir:
		pair.Target = &models.FileEntry{
			RelativePath: info.RelativePath,
			AbsolutePath: info.Path,
			Size:         info.Size,
			ModTime:      info.ModTime,
		}
	case err == nil || storage.IsNotFound(err):
		w.missing(ctx, report, pair, index, total)
		return true
	default:
		w.pairError(ctx, report, pair, StageStat, err, index, total)
		return true
	}

	pairCtx, cancel := ctx, context.CancelFunc(func() {})
	if w.operation.Timeout > 0 {
		pairCtx, cancel = context.WithTimeout(ctx, w.operation.Timeout)
	}
	result, err := w.comparator.Compare(pairCtx, w.source, w.target, pair.RelativePath, pair.RelativePath)
	cancel()

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		w.pairError(ctx, report, pair, stageOf(err), err, index, total)
		return true
	}

	report.Stats.Record(result)
	if w.recorder != nil {
		w.recorder.FileCompared(result)
	}
	if result.HasDifferences() || len(result.Suppressed) > 0 {
		report.Files = append(report.Files, *result)
	}
	if result.HasDifferences() {
		w.logger.Info(ctx, "Differences found", logging.Fields{
			"file":        pair.Source.AbsolutePath,
			"divergent":   len(result.Divergent),
			"recoverable": result.RecoverableCount,
			"suppressed":  result.SuppressedCount,
		})
		for _, d := range result.Divergent {
			w.logger.Debug(ctx, d.String(), logging.Fields{"file": pair.RelativePath})
		}
	}

	w.progress(output.ProgressUpdate{Type: output.UpdateFileComplete, FilePath: pair.RelativePath, CurrentFile: index, TotalFiles: total, Result: result})
	return true
}

func (w *Walker) missing(ctx context.Context, report *models.Report, pair *models.FilePair, index, total int) {
	report.Stats.FilesMissingTarget.Add(1)
	if w.recorder != nil {
		w.recorder.FileMissingTarget()
	}
	w.logger.Warn(ctx, "Target file missing", logging.Fields{
		"source": pair.Source.AbsolutePath,
		"target": pair.TargetPath,
	})
	w.progress(output.ProgressUpdate{Type: output.UpdateFileMissing, FilePath: pair.RelativePath, CurrentFile: index, TotalFiles: total})
}

func (w *Walker) pairError(ctx context.Context, report *models.Report, pair *models.FilePair, stage string, err error, index, total int) {
	report.Stats.FilesErrored.Add(1)
	report.Errors = append(report.Errors, models.PairError{
		FilePath:  pair.Source.AbsolutePath,
		Stage:     stage,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
	if w.recorder != nil {
		w.recorder.FileErrored(stage)
	}
	w.logger.Error(ctx, "Failed to compare file pair", err, logging.Fields{
		"file":  pair.Source.AbsolutePath,
		"stage": stage,
	})
	w.progress(output.ProgressUpdate{Type: output.UpdateFileError, FilePath: pair.RelativePath, CurrentFile: index, TotalFiles: total, Error: err})
}

func (w *Walker) progress(update output.ProgressUpdate) {
	if w.formatter != nil {
		w.formatter.Progress(update)
	}
}

// stageOf names the failing stage of a pair error
func stageOf(err error) string {
	var nerr *normalize.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StageTimeout
	case errors.As(err, &nerr):
		return string(nerr.Stage)
	default:
		return StageCompare
	}
}
