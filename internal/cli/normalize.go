package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewNormalizeCommand creates the normalize command
func NewNormalizeCommand() *cobra.Command {
	var rules, stylesheet, xsltCommand string

	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Print the canonical form of a metadata record",
		Long: `Normalize a single record exactly as compare does before diffing, and
print its canonical serialization. Useful to inspect why two records differ.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rules") {
				cfg.Normalize.Rules = rules
			}
			if cmd.Flags().Changed("stylesheet") {
				cfg.Normalize.Stylesheet = stylesheet
			}
			if cmd.Flags().Changed("xslt-command") {
				cfg.Normalize.Command = xsltCommand
			}

			logger, err := createLogger(cmd.ErrOrStderr(), cfg.Logging)
			if err != nil {
				return exitError(ExitUsage, fmt.Errorf("failed to create logger: %w", err))
			}
			defer logger.Close()

			normalizer, err := createNormalizer(cfg.Normalize, logger)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			_, canonical, err := normalizer.Normalize(ctx, args[0], raw)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(canonical)
			return err
		},
	}

	cmd.Flags().StringVar(&rules, "rules", "", "normalization rule set file (default: built-in IMDI rules)")
	cmd.Flags().StringVar(&stylesheet, "stylesheet", "", "XSLT stylesheet applied before normalization")
	cmd.Flags().StringVar(&xsltCommand, "xslt-command", "", "transformation command template (default: \"xsltproc {stylesheet} -\")")

	return cmd
}
