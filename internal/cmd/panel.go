package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/metrics"
	"github.com/felixgeelhaar/docreview/internal/tui"
)

func newPanelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panel",
		Short: "Open the interactive document table",
		Long: `Open the interactive document panel.

Without a session the panel starts at the login form. Reviewers get the
creator column and the status and creator filters; press ? for all keys.

--metrics-addr serves Prometheus metrics of the panel's API traffic while it
runs, e.g. --metrics-addr 127.0.0.1:9464.`,
		Args: cobra.NoArgs,
		RunE: runPanel,
	}
	cmd.Flags().String("metrics-addr", "", "serve /metrics on this address while the panel runs")
	return cmd
}

func runPanel(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	// The bridge exists before the app so the loader can navigate the panel.
	bridge := tui.NewBridge()
	a, err := newApp(cmd.Context(), cc, bridge)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		stop, err := serveMetrics(a, addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	model := tui.NewModel(tui.Deps{
		Session:   a.session,
		Loader:    a.loader,
		Guard:     a.guard,
		Documents: a.documents,
		Context:   cmd.Context(),
	}).WithFilter(a.defaultFilter())

	if err := tui.Run(model, bridge, tea.WithContext(cmd.Context())); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("panel failed: %w", err)
	}
	return nil
}

// serveMetrics starts a metrics endpoint and returns its shutdown function.
func serveMetrics(a *app, addr string) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HandlerFor(a.registry))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("metrics server stopped")
		}
	}()
	a.logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
