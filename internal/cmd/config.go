package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/docreview/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit docreview configuration",
		Long: `Manage docreview configuration stored at ~/.docreview/config.yaml

Values are read from the file, then from a .env file, then from DOCREVIEW_*
environment variables, each overriding the previous. For example
DOCREVIEW_API_BASE_URL overrides api.base_url.

Examples:
  # View the effective configuration
  docreview config view

  # Point the CLI at another API
  docreview config set api.base_url https://review.example.com/api

  # Keep credentials in redis
  docreview config set credentials.backend redis
  docreview config set credentials.redis_addr localhost:6379
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "view",
			Short: "Display the effective configuration",
			Args:  cobra.NoArgs,
			RunE:  runConfigView,
		},
		&cobra.Command{
			Use:   "path",
			Short: "Show configuration file path",
			Args:  cobra.NoArgs,
			RunE:  runConfigPath,
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Get a configuration value",
			Long:      "Get a configuration value by dotted key.\n\nKeys:\n  " + strings.Join(config.Keys(), "\n  "),
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.Keys(),
			RunE:      runConfigGet,
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Set a configuration value in the config file",
			Long:  "Set a configuration value by dotted key. Environment overrides are not written back.\n\nKeys:\n  " + strings.Join(config.Keys(), "\n  "),
			Args:  cobra.ExactArgs(2),
			RunE:  runConfigSet,
		},
	)
	return configCmd
}

func configPath(cc *CommandContext) (string, error) {
	if cc.ConfigPath != "" {
		return cc.ConfigPath, nil
	}
	return config.DefaultPath()
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cc)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cc.JSON() {
		return printJSON(out, cfg)
	}

	path, _ := configPath(cc)
	fmt.Fprintf(out, "# Configuration file: %s\n", path)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	path, err := configPath(cc)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cc)
	if err != nil {
		return err
	}
	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	path, err := configPath(cc)
	if err != nil {
		return err
	}

	cfg, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}

	printSuccess(cmd.OutOrStdout(), "Set %s = %s", args[0], args[1])
	return nil
}
