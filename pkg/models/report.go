package models

import (
	"sync/atomic"
	"time"
)

// Report represents the results of a corpus comparison
type Report struct {
	// Operation details
	RunID      string
	SourceRoot string
	TargetRoot string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Statistics
	Stats *Statistics

	// Files with at least one divergent (or, on request, suppressed) difference
	Files []FileResult

	// Errors encountered while comparing pairs
	Errors []PairError

	// Overall status
	Status ReportStatus
}

// NewReport creates an empty report with initialized statistics
func NewReport(runID, sourceRoot, targetRoot string) *Report {
	return &Report{
		RunID:      runID,
		SourceRoot: sourceRoot,
		TargetRoot: targetRoot,
		StartTime:  time.Now(),
		Stats:      &Statistics{},
		Status:     StatusSuccess,
	}
}

// Statistics holds corpus comparison counters. Fields are atomics so the
// counters can be shared with formatters and metrics while a run is active.
type Statistics struct {
	// Files the walker accepted (eligible extension, not excluded)
	FilesWalked atomic.Int64
	// Files with a target counterpart that were fully compared
	FilesCompared atomic.Int64
	// Compared files with at least one divergent difference
	FilesWithDifferences atomic.Int64
	FilesMissingTarget   atomic.Int64
	FilesErrored         atomic.Int64
	// Files dropped by an entire-file exclusion or glob pattern
	FilesSkipped atomic.Int64

	DivergentDifferences   atomic.Int64
	RecoverableDifferences atomic.Int64
	SuppressedDifferences  atomic.Int64

	BytesRead atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Statistics
type StatsSnapshot struct {
	FilesWalked            int64 `json:"files_walked"`
	FilesCompared          int64 `json:"files_compared"`
	FilesWithDifferences   int64 `json:"files_with_differences"`
	FilesMissingTarget     int64 `json:"files_missing_target"`
	FilesErrored           int64 `json:"files_errored"`
	FilesSkipped           int64 `json:"files_skipped"`
	DivergentDifferences   int64 `json:"divergent_differences"`
	RecoverableDifferences int64 `json:"recoverable_differences"`
	SuppressedDifferences  int64 `json:"suppressed_differences"`
	BytesRead              int64 `json:"bytes_read"`
}

// Snapshot copies the current counter values
func (s *Statistics) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FilesWalked:            s.FilesWalked.Load(),
		FilesCompared:          s.FilesCompared.Load(),
		FilesWithDifferences:   s.FilesWithDifferences.Load(),
		FilesMissingTarget:     s.FilesMissingTarget.Load(),
		FilesErrored:           s.FilesErrored.Load(),
		FilesSkipped:           s.FilesSkipped.Load(),
		DivergentDifferences:   s.DivergentDifferences.Load(),
		RecoverableDifferences: s.RecoverableDifferences.Load(),
		SuppressedDifferences:  s.SuppressedDifferences.Load(),
		BytesRead:              s.BytesRead.Load(),
	}
}

// Record adds the counts of a completed file result
func (s *Statistics) Record(r *FileResult) {
	s.FilesCompared.Add(1)
	if r.HasDifferences() {
		s.FilesWithDifferences.Add(1)
	}
	s.DivergentDifferences.Add(int64(len(r.Divergent)))
	s.RecoverableDifferences.Add(int64(r.RecoverableCount))
	s.SuppressedDifferences.Add(int64(r.SuppressedCount))
	s.BytesRead.Add(r.BytesRead)
}

// ReportStatus represents the overall result
type ReportStatus string

const (
	// StatusSuccess indicates every eligible pair was processed
	StatusSuccess ReportStatus = "success"
	// StatusPartial indicates some pairs failed to compare
	StatusPartial ReportStatus = "partial"
	// StatusCancelled indicates the run was interrupted
	StatusCancelled ReportStatus = "cancelled"
)

// PairError represents an error while comparing a file pair
type PairError struct {
	FilePath  string    `json:"path"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Finish stamps the end time and derives the final status
func (r *Report) Finish(cancelled bool) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	switch {
	case cancelled:
		r.Status = StatusCancelled
	case len(r.Errors) > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusSuccess
	}
}

// HasDifferences reports whether any divergent difference was found
func (r *Report) HasDifferences() bool {
	return r.Stats.DivergentDifferences.Load() > 0
}
