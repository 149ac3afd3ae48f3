package cli

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// NewRootCommand assembles the imdidiff command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "imdidiff",
		Short: "Semantic comparison of IMDI metadata corpora",
		Long: `imdidiff compares two trees of IMDI/XML metadata records and reports the
differences that change meaning. Records are normalized first; differences
known to be harmless and differences excluded by the operator are left out.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// variables from .env in the working directory feed ${VAR} in the config file
			_ = godotenv.Load()
		},
	}

	// Add global flags
	AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(NewCompareCommand())
	rootCmd.AddCommand(NewNormalizeCommand())
	rootCmd.AddCommand(NewTransformCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
