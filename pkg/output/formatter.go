package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// Progress update types
const (
	UpdateFileStart    = "file_start"
	UpdateFileComplete = "file_complete"
	UpdateFileMissing  = "file_missing"
	UpdateFileError    = "file_error"
)

// ProgressUpdate represents a progress notification during a comparison run
type ProgressUpdate struct {
	Type        string
	FilePath    string
	CurrentFile int
	TotalFiles  int
	// Result is set for file_complete updates
	Result *models.FileResult
	Error  error
}

// Formatter defines the interface for output formatting
// Implementations include human-readable, JSON and progress bar formatters
type Formatter interface {
	// Start initializes the formatter for a new run over totalFiles pairs
	Start(writer io.Writer, totalFiles int) error

	// Progress reports progress during the run
	Progress(update ProgressUpdate) error

	// Complete finalizes output and displays summary
	Complete(report *models.Report) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter registered under name: human, json or progress
func New(name string, showSuppressed bool) (Formatter, error) {
	switch name {
	case "", "human":
		return NewHumanFormatter(showSuppressed), nil
	case "json":
		return NewJSONFormatter(showSuppressed), nil
	case "progress":
		return NewProgressFormatter(showSuppressed), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want human, json or progress)", name)
	}
}
