package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/docreview/internal/authz"
	"github.com/felixgeelhaar/docreview/internal/document"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, successStyle.Render("✓")+" "+fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("!")+" "+fmt.Sprintf(format, args...))
}

// printDocuments writes docs as a table with the given columns. The view
// column is replaced by the document id, which is what the other commands
// take.
func printDocuments(w io.Writer, docs []document.Document, columns []authz.Column) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	header := []string{"ID"}
	for _, c := range columns {
		if c == authz.ColumnView {
			continue
		}
		header = append(header, strings.ToUpper(string(c)))
	}
	header = append(header, "UPDATED")
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, d := range docs {
		row := []string{d.ID}
		for _, c := range columns {
			switch c {
			case authz.ColumnName:
				row = append(row, d.Name)
			case authz.ColumnStatus:
				row = append(row, string(d.Status))
			case authz.ColumnCreator:
				row = append(row, creatorLabel(d))
			case authz.ColumnActions:
				row = append(row, actionsLabel(d))
			}
		}
		row = append(row, formatTime(d.UpdatedAt))
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func creatorLabel(d document.Document) string {
	if d.Creator.Email != "" {
		return d.Creator.Email
	}
	if d.Creator.FullName != "" {
		return d.Creator.FullName
	}
	return "-"
}

func actionsLabel(d document.Document) string {
	var actions []string
	if document.CanSubmit(d) {
		actions = append(actions, "submit")
	}
	if document.CanRevoke(d) {
		actions = append(actions, "revoke")
	}
	if document.CanDelete(d) {
		actions = append(actions, "delete")
	}
	if len(actions) == 0 {
		return "-"
	}
	return strings.Join(actions, ",")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func printDocument(w io.Writer, d document.Document) {
	fmt.Fprintf(w, "%s\n", d.Name)
	fmt.Fprintf(w, "  ID:       %s\n", d.ID)
	fmt.Fprintf(w, "  Status:   %s\n", d.Status)
	fmt.Fprintf(w, "  Creator:  %s\n", creatorLabel(d))
	fmt.Fprintf(w, "  Created:  %s\n", formatTime(d.CreatedAt))
	fmt.Fprintf(w, "  Updated:  %s\n", formatTime(d.UpdatedAt))
	if d.FileURL != "" {
		fmt.Fprintf(w, "  File:     %s\n", d.FileURL)
	}
	fmt.Fprintf(w, "  Actions:  %s\n", mutedStyle.Render(actionsLabel(d)))
}
