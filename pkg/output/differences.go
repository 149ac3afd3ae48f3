package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// WriteDifferencesReport writes the files with differences to a report file
// Format can be "human" or "json"
func WriteDifferencesReport(report *models.Report, filepath, format string, showSuppressed bool) error {
	if len(report.Files) == 0 {
		// No differences - don't create empty file
		return nil
	}

	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create differences file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeDifferencesJSON(report, file, showSuppressed)
	default: // "human"
		err = writeDifferencesHuman(report, file, showSuppressed)
	}
	if err != nil {
		return fmt.Errorf("failed to write differences file: %w", err)
	}
	return file.Close()
}

// writeDifferencesHuman writes differences in human-readable format
func writeDifferencesHuman(report *models.Report, w io.Writer, showSuppressed bool) error {
	fmt.Fprintf(w, "Differences Report\n")
	fmt.Fprintf(w, "==================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Source: %s\n", report.SourceRoot)
	fmt.Fprintf(w, "Target: %s\n\n", report.TargetRoot)

	stats := report.Stats.Snapshot()
	label := fmt.Sprintf("Total differences: %d in %d of %d files",
		stats.DivergentDifferences, stats.FilesWithDifferences, stats.FilesCompared)
	fmt.Fprintf(w, "%s\n", label)
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

	// The report file is never a terminal
	s := newStyles(io.Discard)
	for i := range report.Files {
		writeFileResult(w, &report.Files[i], s, showSuppressed)
	}
	return nil
}

// writeDifferencesJSON writes differences in JSON format
func writeDifferencesJSON(report *models.Report, w io.Writer, showSuppressed bool) error {
	stats := report.Stats.Snapshot()
	output := struct {
		Generated  string         `json:"generated"`
		RunID      string         `json:"run_id"`
		SourcePath string         `json:"source_path"`
		TargetPath string         `json:"target_path"`
		TotalCount int64          `json:"total_count"`
		Files      []JSONFileData `json:"files"`
	}{
		Generated:  time.Now().Format(time.RFC3339),
		RunID:      report.RunID,
		SourcePath: report.SourceRoot,
		TargetPath: report.TargetRoot,
		TotalCount: stats.DivergentDifferences,
	}
	for i := range report.Files {
		output.Files = append(output.Files, fileData(&report.Files[i], showSuppressed))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
