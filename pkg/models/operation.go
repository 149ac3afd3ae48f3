package models

import (
	"time"
)

// CompareOperation describes one corpus comparison run
type CompareOperation struct {
	ID         string
	SourceRoot string
	TargetRoot string
	// ExcludeList is the operator exclude list path, empty when none was given
	ExcludeList     string
	Extensions      []string
	ExcludePatterns []string
	// Timeout bounds the comparison of a single file pair
	Timeout        time.Duration
	ShowSuppressed bool
	CreatedAt      time.Time
}

// Validate checks if the operation configuration is valid
func (op *CompareOperation) Validate() error {
	if op.SourceRoot == "" {
		return &ValidationError{Field: "SourceRoot", Message: "source directory is required"}
	}
	if op.TargetRoot == "" {
		return &ValidationError{Field: "TargetRoot", Message: "target directory is required"}
	}
	if len(op.Extensions) == 0 {
		return &ValidationError{Field: "Extensions", Message: "at least one metadata extension is required"}
	}
	if op.Timeout <= 0 {
		return &ValidationError{Field: "Timeout", Message: "pair timeout must be positive"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
