package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/tui"
)

// interactive reports whether commands may prompt. Tests replace it.
var interactive = tui.ShouldPrompt

// NewRootCmd builds the complete command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docreview",
		Short: "Review documents from the terminal",
		Long: `docreview is a command-line client for the document review service.

Users upload PDF documents and send them to review; reviewers list everyone's
documents, filter them by status or creator and approve or decline them.

Run 'docreview panel' for the interactive document table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file (default is $HOME/.docreview/config.yaml)")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading DOCREVIEW_* variables")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("format", "text", "output format: text or json")
	root.PersistentFlags().Bool("ephemeral", false, "keep credentials in memory for this invocation only")

	root.AddCommand(
		newAuthCmd(),
		newDocumentsCmd(),
		newPanelCmd(),
		newConfigCmd(),
		newAPICmd(),
		newDoctorCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx, which is cancelled on
// interrupt by main.
func ExecuteContext(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
