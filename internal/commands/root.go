package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clearline-dev/clearline/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "clearline",
		Short:   "Bank statement reconciliation into a plain-text ledger",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newIngestCommand())
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newExceptionsCommand())

	return rootCmd
}
