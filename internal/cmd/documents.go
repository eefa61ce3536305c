package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/docreview/internal/authz"
	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/tui"
)

func newDocumentsCmd() *cobra.Command {
	docsCmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "doc"},
		Short:   "List and manage review documents",
		Long: `List, upload and manage review documents.

Users see their own documents. Reviewers see every document that is in the
review workflow and can filter by status and creator.

Examples:
  docreview documents list
  docreview documents list --status APPROVED,DECLINED --creator bob@example.com
  docreview documents create report.pdf --name "Q3 report"
  docreview documents submit <id>
  docreview documents status <id> APPROVED`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	docsCmd.AddCommand(
		newDocumentsListCmd(),
		newDocumentsGetCmd(),
		newDocumentsCreateCmd(),
		newDocumentsRenameCmd(),
		newDocumentsDeleteCmd(),
		newDocumentsSubmitCmd(),
		newDocumentsRevokeCmd(),
		newDocumentsStatusCmd(),
	)
	return docsCmd
}

// withSession builds the app and checks for a token before running fn.
func withSession(cmd *cobra.Command, fn func(cc *CommandContext, a *app) error) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cc, nil)
	if err != nil {
		return err
	}
	defer a.Close(cmd.Context())

	if err := a.guard.Check(); err != nil {
		return a.fail("documents", err)
	}
	return a.fail("documents", fn(cc, a))
}

// withProfile is withSession for commands whose result depends on the
// caller's role. The profile is loaded first.
func withProfile(cmd *cobra.Command, fn func(cc *CommandContext, a *app) error) error {
	return withSession(cmd, func(cc *CommandContext, a *app) error {
		if err := a.loader.Restore(cmd.Context()); err != nil {
			return err
		}
		return fn(cc, a)
	})
}

// listResult is the JSON output of 'documents list'.
type listResult struct {
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
	PageCount int                 `json:"pageCount"`
	Count     int                 `json:"count"`
	Results   []document.Document `json:"results"`
}

func newDocumentsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List documents",
		Long: `List one page of documents.

--status and --creator are reviewer filters. For other users the listing is
always restricted to their own documents and the filters are ignored.

--creator takes a user id (UUID) or an email address.`,
		Args: cobra.NoArgs,
		RunE: runDocumentsList,
	}
	cmd.Flags().Int("page", 1, "page number, starting at 1")
	cmd.Flags().Int("size", 0, "documents per page (default from config)")
	cmd.Flags().String("sort", "", "sort key, e.g. name,asc or updatedAt,desc (default from config)")
	cmd.Flags().String("status", "", "comma-separated statuses (reviewers)")
	cmd.Flags().String("creator", "", "creator id or email (reviewers)")
	return cmd
}

func runDocumentsList(cmd *cobra.Command, args []string) error {
	return withProfile(cmd, func(cc *CommandContext, a *app) error {
		filter := a.defaultFilter()

		page, _ := cmd.Flags().GetInt("page")
		filter.ChangePage(page)
		if cmd.Flags().Changed("size") {
			filter.Size, _ = cmd.Flags().GetInt("size")
		}
		if sort, _ := cmd.Flags().GetString("sort"); sort != "" {
			filter.ChangeSort(sort)
		}
		if raw, _ := cmd.Flags().GetString("status"); raw != "" {
			statuses, err := document.ParseStatusFilter(raw)
			if err != nil {
				return err
			}
			filter.FilterByStatus(statuses...)
		}
		creator, _ := cmd.Flags().GetString("creator")
		filter.FilterByCreator(creator)

		result, err := a.documents.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if cc.JSON() {
			return printJSON(out, listResult{
				Page:      filter.Page,
				Size:      filter.Size,
				PageCount: filter.PageCount(result.Count),
				Count:     result.Count,
				Results:   result.Results,
			})
		}

		if len(result.Results) == 0 {
			fmt.Fprintln(out, "No documents found.")
			return nil
		}
		if err := printDocuments(out, result.Results, authz.VisibleColumns(a.session.Snapshot())); err != nil {
			return err
		}
		fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("Page %d of %d (%d documents)",
			filter.Page, filter.PageCount(result.Count), result.Count)))
		return nil
	})
}

func newDocumentsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>...",
		Short: "Show one or more documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				docs, err := a.documents.GetMany(cmd.Context(), args)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if cc.JSON() {
					if len(docs) == 1 {
						return printJSON(out, docs[0])
					}
					return printJSON(out, docs)
				}
				for i, d := range docs {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printDocument(out, d)
				}
				return nil
			})
		},
	}
}

func newDocumentsCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <file.pdf>",
		Short: "Upload a PDF as a new draft",
		Long: `Upload a PDF as a new DRAFT document.

The file is checked locally before upload: it must exist and be a PDF with
at least one page. The name defaults to the file name without extension.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				path := args[0]
				name, _ := cmd.Flags().GetString("name")
				if name == "" {
					name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
				}

				d, err := a.documents.Create(cmd.Context(), name, path)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if cc.JSON() {
					return printJSON(out, d)
				}
				printSuccess(out, "Document added: %s (%s)", d.Name, d.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "document name")
	return cmd
}

func newDocumentsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				d, err := a.documents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				renamed, err := a.documents.Rename(cmd.Context(), d, strings.TrimSpace(args[1]))
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Renamed %q to %q", d.Name, renamed.Name)
				return nil
			})
		},
	}
}

func newDocumentsDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a DRAFT or REVOKE document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				d, err := a.documents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				yes, _ := cmd.Flags().GetBool("yes")
				if !yes && interactive() {
					ok, err := tui.PromptForConfirmation(fmt.Sprintf("Delete %q?", d.Name), false)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
						return nil
					}
				}

				if err := a.documents.Delete(cmd.Context(), d); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted %q", d.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newDocumentsSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit <id>",
		Short: "Send a document to review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				d, err := a.documents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.documents.SubmitForReview(cmd.Context(), d); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Sent %q to review", d.Name)
				return nil
			})
		},
	}
}

func newDocumentsRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Pull a document back from the review queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(cc *CommandContext, a *app) error {
				d, err := a.documents.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.documents.Revoke(cmd.Context(), d); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Revoked %q", d.Name)
				return nil
			})
		},
	}
}

func newDocumentsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a document's review status (reviewers)",
		Long: `Set the review status of a document. Reviewers only.

Statuses: DRAFT, READY_FOR_REVIEW, UNDER_REVIEW, APPROVED, DECLINED, REVOKE`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, func(cc *CommandContext, a *app) error {
				status, ok := document.ParseStatus(args[1])
				if !ok {
					return invalidValueError("status", args[1], document.StatusFilter(document.AllStatuses()).String())
				}
				if err := a.documents.ChangeStatus(cmd.Context(), args[0], status); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Document %s is now %s", args[0], status)
				return nil
			})
		},
	}
}
