package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sdejongh/imdidiff/internal/platform"
	"github.com/sdejongh/imdidiff/pkg/logging"
	"github.com/sdejongh/imdidiff/pkg/normalize"
	"github.com/sdejongh/imdidiff/pkg/storage"
	"github.com/sdejongh/imdidiff/pkg/transform"
)

// TransformFlags holds transform command flags
type TransformFlags struct {
	Stylesheet  string
	XSLTCommand string
	InExt       string
	OutExt      string
}

// NewTransformCommand creates the transform command
func NewTransformCommand() *cobra.Command {
	flags := &TransformFlags{}

	cmd := &cobra.Command{
		Use:   "transform <input-dir> <output-dir>",
		Short: "Apply a stylesheet to every file of a tree",
		Long: `Transform every file below input-dir with the stylesheet and write the
result at the same relative path below output-dir, replacing the input
extension with the output extension. Existing output files are never
overwritten; a failing file is logged and skipped.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.Stylesheet, "stylesheet", "", "XSLT stylesheet (required)")
	cmd.Flags().StringVar(&flags.XSLTCommand, "xslt-command", normalize.DefaultCommandTemplate, "transformation command template")
	cmd.Flags().StringVar(&flags.InExt, "in-ext", ".cmdi", "input file extension")
	cmd.Flags().StringVar(&flags.OutExt, "out-ext", ".imdi", "output file extension")
	cmd.MarkFlagRequired("stylesheet")

	return cmd
}

func runTransform(cmd *cobra.Command, args []string, flags *TransformFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := createLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return exitError(ExitUsage, fmt.Errorf("failed to create logger: %w", err))
	}
	defer logger.Close()

	inputDir, err := checkDirectory(args[0])
	if err != nil {
		return err
	}
	outputDir, err := prepareOutputDir(ctx, args[1], logger)
	if err != nil {
		return err
	}
	if err := validatePair(inputDir, outputDir); err != nil {
		return err
	}

	command, err := normalize.NewCommand(flags.XSLTCommand, flags.Stylesheet, logger)
	if err != nil {
		return exitError(ExitUsage, err)
	}

	input, err := storage.NewLocal(inputDir)
	if err != nil {
		return exitError(ExitNotDirectory, err)
	}
	defer input.Close()
	output, err := storage.NewLocal(outputDir)
	if err != nil {
		return exitError(ExitNotDirectory, err)
	}
	defer output.Close()

	runner := transform.New(input, output, command, logger, transform.Options{
		InputExtension:  flags.InExt,
		OutputExtension: flags.OutExt,
	})
	stats, err := runner.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return exitError(ExitInterrupted, ctx.Err())
		}
		return fmt.Errorf("transformation aborted: %w", err)
	}

	if !globalFlags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Transformed %d files (%d failed)\n", stats.Transformed, stats.Failed)
	}
	return nil
}

// prepareOutputDir creates the output directory when missing and fails
// when the path exists but is not a directory
func prepareOutputDir(ctx context.Context, path string, logger logging.Logger) (string, error) {
	if err := platform.ValidatePath(path); err != nil {
		return "", exitError(ExitNotDirectory, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", exitError(ExitNotDirectory, fmt.Errorf("failed to resolve %s: %w", path, err))
	}

	info, err := os.Stat(abs)
	switch {
	case os.IsNotExist(err):
		logger.Info(ctx, fmt.Sprintf("Creating output directory %s", abs), nil)
		if err := os.MkdirAll(abs, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to access output directory: %w", err)
	case !info.IsDir():
		return "", exitError(ExitNotDirectory, fmt.Errorf("%s is not a directory", path))
	}
	return abs, nil
}
