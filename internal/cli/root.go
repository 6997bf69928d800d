// Package cli provides the command-line interface for trackstat.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/trackstat/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors keeps cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trackstat",
		Short: "Query music track datasets",
		Long: `trackstat loads comma separated music track datasets and answers
questions about them.

Each dataset line holds 15 fields. A field may be wrapped in double quotes
to carry commas. Rows that cannot be read are skipped and reported, or stop
the run with --on-error abort.

Settings come from trackstat.yaml (or --config), then TRACKSTAT_* environment
variables, then flags.

Exit codes:
  0 - Success
  1 - The query matched nothing, or the dataset has bad rows (validate)
  2 - Configuration or runtime error`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commands.ExitCode = 0
		},
	}

	commands.AddGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(commands.NewSplitCommand())
	rootCmd.AddCommand(commands.NewArtistCommand())
	rootCmd.AddCommand(commands.NewTopCommand())
	rootCmd.AddCommand(commands.NewCountCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
