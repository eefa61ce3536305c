package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/platform"
)

func newAPICmd() *cobra.Command {
	apiCmd := &cobra.Command{
		Use:   "api",
		Short: "Inspect the API the client talks to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check the client's endpoints against an OpenAPI document",
		Long: `Verify that every endpoint docreview calls is described by an OpenAPI
document. Without --spec the document bundled with the client is used.

Exits non-zero when an endpoint is missing.

Examples:
  docreview api check
  docreview api check --spec ./openapi.yaml`,
		Args: cobra.NoArgs,
		RunE: runAPICheck,
	}
	checkCmd.Flags().String("spec", "", "path to an OpenAPI 3 document")

	endpointsCmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List the endpoints the client calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cc.JSON() {
				return printJSON(out, platform.Endpoints())
			}
			for _, ep := range platform.Endpoints() {
				fmt.Fprintf(out, "%-7s %s\n", ep.Method, ep.Path)
			}
			return nil
		},
	}

	apiCmd.AddCommand(checkCmd, endpointsCmd)
	return apiCmd
}

// checkReport is the JSON output of 'api check'.
type checkReport struct {
	Source   string             `json:"source"`
	Checked  int                `json:"checked"`
	Findings []platform.Finding `json:"findings"`
}

func runAPICheck(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	specPath, _ := cmd.Flags().GetString("spec")

	validator, err := platform.LoadContract(cmd.Context(), specPath)
	if err != nil {
		return err
	}

	endpoints := platform.Endpoints()
	findings := validator.Check(endpoints)
	sort.SliceStable(findings, func(i, j int) bool { return findings[i].Path < findings[j].Path })

	out := cmd.OutOrStdout()
	if cc.JSON() {
		if err := printJSON(out, checkReport{Source: validator.Source(), Checked: len(endpoints), Findings: findings}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Checked %d endpoints against %s\n", len(endpoints), validator.Source())
		for _, f := range findings {
			fmt.Fprintf(out, "  %s %s\n", warnStyle.Render(f.Code), f.Message)
		}
		if len(findings) == 0 {
			printSuccess(out, "All endpoints are described")
		}
	}

	if len(findings) > 0 {
		return errors.New(errors.ErrCodeAPI, fmt.Sprintf("%d endpoint(s) missing from %s", len(findings), validator.Source())).
			WithSuggestion("Update the OpenAPI document or the client")
	}
	return nil
}
