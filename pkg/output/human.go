package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sdejongh/imdidiff/pkg/models"
)

// styles renders report headings. The renderer is bound to the output writer
// so colours are dropped when it is not a terminal.
type styles struct {
	heading lipgloss.Style
	path    lipgloss.Style
	code    lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		heading: r.NewStyle().Bold(true),
		path:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		code:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// HumanFormatter formats output in human-readable format
type HumanFormatter struct {
	writer         io.Writer
	totalFiles     int
	startTime      time.Time
	showSuppressed bool
	styles         styles
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(showSuppressed bool) *HumanFormatter {
	return &HumanFormatter{showSuppressed: showSuppressed}
}

// Start initializes the formatter
func (f *HumanFormatter) Start(writer io.Writer, totalFiles int) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles
	f.startTime = time.Now()
	f.styles = newStyles(writer)

	fmt.Fprintf(writer, "Comparing %d files\n", totalFiles)
	return nil
}

// Progress reports per-file outcomes. Only files with reportable
// differences, missing targets and errors are printed.
func (f *HumanFormatter) Progress(update ProgressUpdate) error {
	if f.writer == nil {
		return nil
	}

	switch update.Type {
	case UpdateFileComplete:
		if update.Result != nil && (update.Result.HasDifferences() || len(update.Result.Suppressed) > 0) {
			writeFileResult(f.writer, update.Result, f.styles, f.showSuppressed)
		}

	case UpdateFileMissing:
		fmt.Fprintf(f.writer, "[%d/%d] ? %s: target missing\n",
			update.CurrentFile, f.totalFiles, update.FilePath)

	case UpdateFileError:
		fmt.Fprintf(f.writer, "[%d/%d] ✗ %s: %v\n",
			update.CurrentFile, f.totalFiles, update.FilePath, update.Error)
	}

	return nil
}

// Complete finalizes output and displays summary
func (f *HumanFormatter) Complete(report *models.Report) error {
	if f.writer == nil {
		f.writer = io.Discard
	}
	writeSummary(f.writer, report, f.styles)
	return nil
}

// Error reports an error
func (f *HumanFormatter) Error(err error) error {
	if f.writer != nil {
		fmt.Fprintf(f.writer, "Error: %v\n", err)
	}
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeFileResult prints the surviving differences of one file
func writeFileResult(w io.Writer, r *models.FileResult, s styles, showSuppressed bool) {
	fmt.Fprintf(w, "\n%s %s\n", s.path.Render(r.RelativePath),
		s.muted.Render(fmt.Sprintf("(%d divergent, %d recoverable, %d suppressed)",
			len(r.Divergent), r.RecoverableCount, r.SuppressedCount)))

	for _, d := range r.Divergent {
		writeDifference(w, d, s)
	}
	if showSuppressed {
		for _, d := range r.Suppressed {
			fmt.Fprintf(w, "  %s\n", s.muted.Render("suppressed by "+d.Rule+":"))
			writeDifference(w, d, s)
		}
	}
}

func writeDifference(w io.Writer, d models.ClassifiedDifference, s styles) {
	fmt.Fprintf(w, "  %s %s\n", s.code.Render(d.Code()), d.Kind)
	fmt.Fprintf(w, "    source: %s\n", describeSide(d.SourceLocator, d.Source))
	fmt.Fprintf(w, "    target: %s\n", describeSide(d.TargetLocator, d.Target))
}

func describeSide(locator string, snap *models.NodeSnapshot) string {
	switch {
	case locator == "":
		return "absent"
	case snap == nil || snap.Value == "":
		return locator
	default:
		return fmt.Sprintf("%s = %q", locator, snap.Value)
	}
}

func writeSummary(w io.Writer, report *models.Report, s styles) {
	stats := report.Stats.Snapshot()

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Comparison completed in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "%s\n", s.heading.Render("Summary:"))
	fmt.Fprintf(w, "  Files:\n")
	fmt.Fprintf(w, "    Walked:            %d\n", stats.FilesWalked)
	fmt.Fprintf(w, "    Compared:          %d\n", stats.FilesCompared)
	fmt.Fprintf(w, "    With differences:  %d\n", stats.FilesWithDifferences)
	fmt.Fprintf(w, "    Missing target:    %d\n", stats.FilesMissingTarget)
	fmt.Fprintf(w, "    Errored:           %d\n", stats.FilesErrored)
	fmt.Fprintf(w, "    Skipped:           %d\n", stats.FilesSkipped)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Differences:\n")
	fmt.Fprintf(w, "    Divergent:         %d\n", stats.DivergentDifferences)
	fmt.Fprintf(w, "    Recoverable:       %d\n", stats.RecoverableDifferences)
	fmt.Fprintf(w, "    Suppressed:        %d\n", stats.SuppressedDifferences)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Data read:           %s\n", formatBytes(stats.BytesRead))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\n%s\n", s.heading.Render("Errors:"))
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  %s (%s): %s\n", err.FilePath, err.Stage, err.Error)
		}
	}
}

// formatBytes formats bytes in human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
