package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct {
	writer         io.Writer
	totalFiles     int
	startTime      time.Time
	showSuppressed bool
	runErrors      []string
}

// JSONReportData represents the final report document
type JSONReportData struct {
	RunID      string               `json:"run_id"`
	Source     string               `json:"source"`
	Target     string               `json:"target"`
	Status     string               `json:"status"`
	Duration   string               `json:"duration"`
	DurationMs int64                `json:"duration_ms"`
	Stats      models.StatsSnapshot `json:"stats"`
	Files      []JSONFileData       `json:"files,omitempty"`
	Errors     []JSONErrorData      `json:"errors,omitempty"`
	RunErrors  []string             `json:"run_errors,omitempty"`
}

// JSONFileData represents the reported differences of one file
type JSONFileData struct {
	Path             string               `json:"path"`
	Divergent        []JSONDifferenceData `json:"divergent,omitempty"`
	Suppressed       []JSONDifferenceData `json:"suppressed,omitempty"`
	RecoverableCount int                  `json:"recoverable_count"`
	SuppressedCount  int                  `json:"suppressed_count"`
}

// JSONDifferenceData represents one classified difference
type JSONDifferenceData struct {
	Code           string `json:"code"`
	Kind           string `json:"kind"`
	Classification string `json:"classification"`
	Rule           string `json:"rule,omitempty"`
	SourceLocator  string `json:"source_locator,omitempty"`
	TargetLocator  string `json:"target_locator,omitempty"`
	SourceValue    string `json:"source_value,omitempty"`
	TargetValue    string `json:"target_value,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(showSuppressed bool) *JSONFormatter {
	return &JSONFormatter{showSuppressed: showSuppressed}
}

// Start initializes the formatter
func (f *JSONFormatter) Start(writer io.Writer, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles
	f.startTime = time.Now()
	return nil
}

// Progress is a no-op: the JSON document is written once on completion to
// keep the output parseable
func (f *JSONFormatter) Progress(update ProgressUpdate) error {
	return nil
}

// Complete writes the report as a single JSON document
func (f *JSONFormatter) Complete(report *models.Report) error {
	if f.writer == nil {
		f.writer = io.Discard
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.buildReport(report))
}

func (f *JSONFormatter) buildReport(report *models.Report) JSONReportData {
	data := JSONReportData{
		RunID:      report.RunID,
		Source:     report.SourceRoot,
		Target:     report.TargetRoot,
		Status:     string(report.Status),
		Duration:   report.Duration.Round(time.Millisecond).String(),
		DurationMs: report.Duration.Milliseconds(),
		Stats:      report.Stats.Snapshot(),
		RunErrors:  f.runErrors,
	}

	for i := range report.Files {
		data.Files = append(data.Files, fileData(&report.Files[i], f.showSuppressed))
	}
	for _, err := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{Path: err.FilePath, Stage: err.Stage, Error: err.Error})
	}
	return data
}

func fileData(r *models.FileResult, showSuppressed bool) JSONFileData {
	fd := JSONFileData{
		Path:             r.RelativePath,
		RecoverableCount: r.RecoverableCount,
		SuppressedCount:  r.SuppressedCount,
	}
	for _, d := range r.Divergent {
		fd.Divergent = append(fd.Divergent, differenceData(d))
	}
	if showSuppressed {
		for _, d := range r.Suppressed {
			fd.Suppressed = append(fd.Suppressed, differenceData(d))
		}
	}
	return fd
}

func differenceData(d models.ClassifiedDifference) JSONDifferenceData {
	dd := JSONDifferenceData{
		Code:           d.Code(),
		Kind:           d.Kind.String(),
		Classification: string(d.Classification),
		Rule:           d.Rule,
		SourceLocator:  d.SourceLocator,
		TargetLocator:  d.TargetLocator,
	}
	if d.Source != nil {
		dd.SourceValue = d.Source.Value
	}
	if d.Target != nil {
		dd.TargetValue = d.Target.Value
	}
	return dd
}

// Error records a run-level error, reported with the final document
func (f *JSONFormatter) Error(err error) error {
	f.runErrors = append(f.runErrors, err.Error())
	return nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
