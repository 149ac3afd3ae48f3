package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sdejongh/imdidiff/pkg/compare"
	"github.com/sdejongh/imdidiff/pkg/config"
	"github.com/sdejongh/imdidiff/pkg/corpus"
	"github.com/sdejongh/imdidiff/pkg/equivalence"
	"github.com/sdejongh/imdidiff/pkg/exclude"
	"github.com/sdejongh/imdidiff/pkg/logging"
	"github.com/sdejongh/imdidiff/pkg/metrics"
	"github.com/sdejongh/imdidiff/pkg/output"
	"github.com/sdejongh/imdidiff/pkg/ratelimit"
	"github.com/sdejongh/imdidiff/pkg/storage"
)

// CompareFlags holds compare command flags
type CompareFlags struct {
	Output            string
	DiffReport        string
	DiffFormat        string
	Timeout           time.Duration
	Rules             string
	Stylesheet        string
	XSLTCommand       string
	Extensions        []string
	Exclude           []string
	ShowSuppressed    bool
	FailOnDifferences bool
	MetricsFile       string
	ReadLimit         string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

// NewCompareCommand creates the compare command
func NewCompareCommand() *cobra.Command {
	flags := &CompareFlags{}

	cmd := &cobra.Command{
		Use:   "compare <source-dir> <target-dir> [exclude-list-file]",
		Short: "Compare two metadata corpora",
		Long: `Compare every metadata file of the source tree with the file at the same
relative path in the target tree. Both records are normalized and diffed
structurally; semantically equivalent differences and differences excluded
by the exclude list are not reported.

Exclude list lines:
  path                  skip the file or directory entirely
  path *                same as above
  path pattern          suppress differences at locators matching pattern
  path ID<n>:pattern    same, restricted to difference code n`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "human", "output format: human, json, progress")
	cmd.Flags().StringVar(&flags.DiffReport, "diff-report", "", "write differences report to file")
	cmd.Flags().StringVar(&flags.DiffFormat, "diff-format", "human", "differences report format: human, json")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", config.Default().Compare.Timeout, "timeout for the comparison of one file pair")
	cmd.Flags().StringVar(&flags.Rules, "rules", "", "normalization rule set file (default: built-in IMDI rules)")
	cmd.Flags().StringVar(&flags.Stylesheet, "stylesheet", "", "XSLT stylesheet applied to both sides before comparison")
	cmd.Flags().StringVar(&flags.XSLTCommand, "xslt-command", "", "transformation command template (default: \"xsltproc {stylesheet} -\")")
	cmd.Flags().StringSliceVar(&flags.Extensions, "extension", nil, "metadata file extension, repeatable (default: .imdi)")
	cmd.Flags().StringSliceVar(&flags.Exclude, "exclude", nil, "glob patterns to exclude")
	cmd.Flags().BoolVar(&flags.ShowSuppressed, "show-suppressed", false, "list suppressed differences and the rule that suppressed them")
	cmd.Flags().BoolVar(&flags.FailOnDifferences, "fail-on-differences", false, "exit with status 5 when divergent differences are found")
	cmd.Flags().StringVar(&flags.MetricsFile, "metrics-file", "", "write Prometheus metrics to a textfile")
	cmd.Flags().StringVar(&flags.ReadLimit, "read-limit", "", "read rate limit over both trees (e.g., \"10M\", \"1G\")")

	// Logging flags
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "write logs to file")
	cmd.Flags().StringVar(&flags.LogFormat, "log-format", "text", "log format: text, json")
	cmd.Flags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd
}

// applyCompareFlags overrides config values with the flags set on cmd
func applyCompareFlags(cmd *cobra.Command, cfg *config.Config, flags *CompareFlags) error {
	changed := cmd.Flags().Changed

	if changed("output") {
		cfg.Output.Format = flags.Output
	}
	if changed("diff-report") {
		cfg.Output.DiffReport = flags.DiffReport
	}
	if changed("diff-format") {
		cfg.Output.DiffFormat = flags.DiffFormat
	}
	if changed("show-suppressed") {
		cfg.Output.ShowSuppressed = flags.ShowSuppressed
	}
	if globalFlags.Quiet {
		cfg.Output.Quiet = true
	}
	if changed("timeout") {
		cfg.Compare.Timeout = flags.Timeout
	}
	if changed("extension") {
		cfg.Compare.Extensions = flags.Extensions
	}
	if changed("fail-on-differences") {
		cfg.Compare.FailOnDifferences = flags.FailOnDifferences
	}
	if changed("rules") {
		cfg.Normalize.Rules = flags.Rules
	}
	if changed("stylesheet") {
		cfg.Normalize.Stylesheet = flags.Stylesheet
	}
	if changed("xslt-command") {
		cfg.Normalize.Command = flags.XSLTCommand
	}
	if changed("exclude") {
		cfg.Exclude.Patterns = flags.Exclude
	}
	if changed("read-limit") {
		cfg.Compare.ReadLimit = flags.ReadLimit
	}
	if changed("metrics-file") {
		cfg.Metrics.TextFile = flags.MetricsFile
	}
	if changed("log-file") {
		cfg.Logging.File = flags.LogFile
	}
	if changed("log-format") {
		cfg.Logging.Format = flags.LogFormat
	}
	if changed("log-level") {
		cfg.Logging.Level = flags.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return exitError(ExitUsage, fmt.Errorf("invalid configuration: %w", err))
	}
	return nil
}

func runCompare(cmd *cobra.Command, args []string, flags *CompareFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Override config with command-line flags
	if err := applyCompareFlags(cmd, cfg, flags); err != nil {
		return err
	}

	sourceDir, err := checkDirectory(args[0])
	if err != nil {
		return err
	}
	targetDir, err := checkDirectory(args[1])
	if err != nil {
		return err
	}
	if err := validatePair(sourceDir, targetDir); err != nil {
		return err
	}

	excludeList := cfg.Exclude.File
	if len(args) == 3 {
		excludeList = args[2]
	}
	entries, err := loadExcludeList(excludeList)
	if err != nil {
		return err
	}
	if excludeList != "" && !cfg.Output.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Found %d paths to exclude\n", len(entries))
	}

	// Create logger
	logger, err := createLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return exitError(ExitUsage, fmt.Errorf("failed to create logger: %w", err))
	}
	defer logger.Close()

	operation, err := createCompareOperation(cfg, sourceDir, targetDir, excludeList)
	if err != nil {
		return err
	}

	// Create storage backends, sharing one read limiter
	sourceLocal, err := storage.NewLocal(sourceDir)
	if err != nil {
		return exitError(ExitNotDirectory, fmt.Errorf("failed to create source backend: %w", err))
	}
	defer sourceLocal.Close()

	targetLocal, err := storage.NewLocal(targetDir)
	if err != nil {
		return exitError(ExitNotDirectory, fmt.Errorf("failed to create target backend: %w", err))
	}
	defer targetLocal.Close()

	rate, _ := ratelimit.ParseRate(cfg.Compare.ReadLimit) // validated with the config
	limiter := ratelimit.NewLimiter(rate)
	source := ratelimit.Throttle(sourceLocal, limiter)
	target := ratelimit.Throttle(targetLocal, limiter)

	// Create comparator
	normalizer, err := createNormalizer(cfg.Normalize, logger)
	if err != nil {
		return err
	}
	filter, err := equivalence.New(cfg.Equivalence)
	if err != nil {
		return exitError(ExitUsage, err)
	}
	registry := exclude.NewRegistry(entries, sourceDir)
	comparator := compare.NewXMLComparator(normalizer, filter, registry)
	comparator.SetKeepSuppressed(cfg.Output.ShowSuppressed)

	// Create output formatter
	var formatter output.Formatter
	if !cfg.Output.Quiet {
		if formatter, err = output.New(cfg.Output.Format, cfg.Output.ShowSuppressed); err != nil {
			return exitError(ExitUsage, err)
		}
	}

	walker := corpus.NewWalker(source, target, comparator, registry, formatter, logger, operation)
	walker.SetOutput(cmd.OutOrStdout())

	var m *metrics.Metrics
	if cfg.Metrics.TextFile != "" {
		m = metrics.New()
		walker.SetRecorder(m)
	}

	// Run comparison
	report, runErr := walker.Run(ctx)
	if runErr != nil && report == nil {
		return fmt.Errorf("comparison failed: %w", runErr)
	}

	if m != nil {
		if err := m.WriteTextfile(cfg.Metrics.TextFile); err != nil {
			logger.Error(ctx, "Failed to write metrics", err, logging.Fields{"path": cfg.Metrics.TextFile})
		}
	}

	// Write differences report if requested
	if cfg.Output.DiffReport != "" {
		if err := output.WriteDifferencesReport(report, cfg.Output.DiffReport, cfg.Output.DiffFormat, cfg.Output.ShowSuppressed); err != nil {
			return fmt.Errorf("failed to write differences report: %w", err)
		}
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return exitError(ExitInterrupted, errors.New("interrupted"))
		}
		return fmt.Errorf("comparison failed: %w", runErr)
	}

	stats := report.Stats.Snapshot()
	if cfg.Compare.FailOnDifferences && stats.DivergentDifferences > 0 {
		return exitError(ExitDifferences, fmt.Errorf("found %d divergent differences in %d files",
			stats.DivergentDifferences, stats.FilesWithDifferences))
	}
	return nil
}
