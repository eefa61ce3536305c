package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/health"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the CLI's configuration and dependencies",
		Long: `Run diagnostics: API reachability, credential store, stored session and
the API contract bundled with the client.

Exits non-zero when a check is unhealthy.`,
		Args: cobra.NoArgs,
		RunE: runDoctor,
	}
	cmd.Flags().Duration("timeout", 5*time.Second, "timeout per check")
	cmd.Flags().String("spec", "", "OpenAPI document for the contract check (default bundled)")
	return cmd
}

// doctorReport is the JSON output of 'doctor'.
type doctorReport struct {
	Status health.Status    `json:"status"`
	Checks []*health.Result `json:"checks"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cc, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	timeout, _ := cmd.Flags().GetDuration("timeout")
	specPath, _ := cmd.Flags().GetString("spec")

	manager := health.NewManager(
		&health.APIChecker{BaseURL: a.client.BaseURL(), Client: &http.Client{Timeout: timeout}},
		&health.StoreChecker{Backend: a.cfg.Credentials.Backend, Path: a.cfg.Credentials.Path, Store: a.store},
		&health.SessionChecker{Session: a.session},
		&health.ContractChecker{Path: specPath},
	).WithTimeout(timeout)

	results := manager.Check(cmd.Context())
	overall := health.Overall(results)

	out := cmd.OutOrStdout()
	if cc.JSON() {
		if err := printJSON(out, doctorReport{Status: overall, Checks: results}); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			fmt.Fprintf(out, "%s %-18s %s\n", statusMark(r.Status), r.Name, r.Message)
			for k, v := range r.Details {
				fmt.Fprintf(out, "    %s: %v\n", k, v)
			}
		}
		fmt.Fprintf(out, "\nOverall: %s\n", overall)
	}

	if overall == health.StatusUnhealthy {
		return a.fail("doctor", errors.New(errors.ErrCodeConfigInvalid, "one or more checks are unhealthy"))
	}
	return nil
}

func statusMark(s health.Status) string {
	switch s {
	case health.StatusHealthy:
		return successStyle.Render("✓")
	case health.StatusDegraded:
		return warnStyle.Render("!")
	}
	return warnStyle.Render("✗")
}
