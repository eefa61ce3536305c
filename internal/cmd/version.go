package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
	cmd.Flags().Bool("long", false, "show detailed version information")
	return cmd
}

func runVersion(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	info := version.GetInfo()
	out := cmd.OutOrStdout()

	if cc.JSON() {
		return printJSON(out, info)
	}

	if long, _ := cmd.Flags().GetBool("long"); long {
		fmt.Fprintln(out, info.String())
		return nil
	}

	fmt.Fprintf(out, "docreview %s\n", info.Version)
	return nil
}
