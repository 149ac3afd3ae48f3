package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/imdidiff/pkg/models"
)

const progressTemplate = `{{counters . }} {{bar . "[" "=" ">" " " "]"}} {{percent . }} {{etime . }} {{string . "file"}}`

// getUpdateInterval returns the progress refresh interval based on OS
// Windows terminals have higher latency with ANSI sequences, so we use a longer interval
func getUpdateInterval() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// ProgressFormatter shows a progress bar while pairs are compared and prints
// the per-file differences and summary once the run completes
type ProgressFormatter struct {
	writer         io.Writer
	totalFiles     int
	startTime      time.Time
	showSuppressed bool
	styles         styles

	mu          sync.Mutex
	bar         *pb.ProgressBar
	interactive bool
	termWidth   int
	results     []*models.FileResult
	notices     []string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter(showSuppressed bool) *ProgressFormatter {
	return &ProgressFormatter{showSuppressed: showSuppressed}
}

// Start initializes the bar
func (f *ProgressFormatter) Start(writer io.Writer, totalFiles int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	f.totalFiles = totalFiles
	f.startTime = time.Now()
	f.styles = newStyles(writer)

	// Detect terminal width to prevent line wrapping issues
	if file, ok := writer.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		f.interactive = true
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			f.termWidth = width
		}
	}
	if f.termWidth == 0 {
		f.termWidth = 120
	}

	f.bar = pb.New(totalFiles).
		SetTemplateString(progressTemplate).
		SetWriter(writer).
		SetMaxWidth(f.termWidth).
		SetRefreshRate(getUpdateInterval())
	if !f.interactive {
		f.bar.Set(pb.Static, true)
	}
	f.bar.Start()
	return nil
}

// Progress advances the bar and collects results for the final report
func (f *ProgressFormatter) Progress(update ProgressUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar == nil {
		return nil
	}

	switch update.Type {
	case UpdateFileStart:
		f.bar.Set("file", truncatePath(update.FilePath, f.termWidth/3))

	case UpdateFileComplete:
		if r := update.Result; r != nil && (r.HasDifferences() || len(r.Suppressed) > 0) {
			f.results = append(f.results, r)
		}
		f.bar.Increment()

	case UpdateFileMissing:
		f.notices = append(f.notices, fmt.Sprintf("? %s: target missing", update.FilePath))
		f.bar.Increment()

	case UpdateFileError:
		f.notices = append(f.notices, fmt.Sprintf("✗ %s: %v", update.FilePath, update.Error))
		f.bar.Increment()
	}
	return nil
}

// Complete stops the bar and writes the collected results and summary
func (f *ProgressFormatter) Complete(report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil {
		f.bar.Set("file", "")
		f.bar.Finish()
	}
	if f.writer == nil {
		f.writer = io.Discard
	}

	for _, r := range f.results {
		writeFileResult(f.writer, r, f.styles, f.showSuppressed)
	}
	if len(f.notices) > 0 {
		fmt.Fprintf(f.writer, "\n")
		for _, n := range f.notices {
			fmt.Fprintf(f.writer, "%s\n", n)
		}
	}

	writeSummary(f.writer, report, f.styles)
	if report.Duration > 0 {
		rate := float64(report.Stats.FilesCompared.Load()) / report.Duration.Seconds()
		fmt.Fprintf(f.writer, "Rate: %.1f files/s over %s\n", rate, formatDuration(report.Duration))
	}
	return nil
}

// Error reports an error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, "Error: "+err.Error())
	return nil
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}

// truncatePath shortens a path to max runes, keeping its tail
func truncatePath(path string, max int) string {
	runes := []rune(path)
	if max < 4 || len(runes) <= max {
		return path
	}
	return "..." + string(runes[len(runes)-max+3:])
}
