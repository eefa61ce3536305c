package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// CommandContext holds the persistent flags of a single invocation.
type CommandContext struct {
	// Output control
	Verbose bool
	Format  string

	// Configuration
	ConfigPath string
	EnvFile    string

	// Ephemeral keeps credentials in memory for this invocation only.
	Ephemeral bool
}

// NewCommandContext extracts command context from cobra.Command flags.
// Commands should call this in their RunE function to get their configuration:
//
//	func runCommand(cmd *cobra.Command, args []string) error {
//		cc, err := NewCommandContext(cmd)
//		if err != nil {
//			return err
//		}
//		// Use cc.Verbose, cc.Format, etc.
//	}
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "text" && format != "json" {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown output format %q", format)).
			WithSuggestion("Use --format text or --format json")
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}

	ephemeral, err := cmd.Flags().GetBool("ephemeral")
	if err != nil {
		return nil, err
	}

	return &CommandContext{
		Verbose:    verbose,
		Format:     format,
		ConfigPath: configPath,
		EnvFile:    envFile,
		Ephemeral:  ephemeral,
	}, nil
}

// JSON reports whether machine-readable output was requested.
func (c *CommandContext) JSON() bool {
	return c.Format == "json"
}
