package models

import "time"

// FileResult is the outcome of comparing one file pair
type FileResult struct {
	RelativePath string `json:"path"`
	SourcePath   string `json:"source"`
	TargetPath   string `json:"target"`

	// Divergent holds the differences that survived equivalence and suppression
	Divergent []ClassifiedDifference `json:"divergent,omitempty"`

	// Suppressed is only populated when suppressed differences are requested
	Suppressed []ClassifiedDifference `json:"suppressed,omitempty"`

	RecoverableCount int `json:"recoverable_count"`
	SuppressedCount  int `json:"suppressed_count"`

	// SkippedByExclusion is set when an entire-file exclusion matched
	SkippedByExclusion bool `json:"skipped_by_exclusion,omitempty"`

	Duration time.Duration `json:"duration_ns"`

	// BytesRead is the size of both raw inputs
	BytesRead int64 `json:"-"`
}

// HasDifferences reports whether any divergent difference remains
func (r *FileResult) HasDifferences() bool {
	return len(r.Divergent) > 0
}

// Add records a classified difference in the matching bucket. Suppressed
// differences are only retained when keepSuppressed is set.
func (r *FileResult) Add(d ClassifiedDifference, keepSuppressed bool) {
	switch d.Classification {
	case Divergent:
		r.Divergent = append(r.Divergent, d)
	case Recoverable:
		r.RecoverableCount++
	case Suppressed:
		r.SuppressedCount++
		if keepSuppressed {
			r.Suppressed = append(r.Suppressed, d)
		}
	}
}
