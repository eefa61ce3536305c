package tui

import (
	"fmt"
	"strings"
)

// renderLogin renders the credential form
func (m Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("docreview · Sign in"))
	b.WriteString("\n\n")

	form := m.email.View() + "\n" + m.password.View()
	b.WriteString(m.styles.Border.Render(form))
	b.WriteString("\n")

	if m.loggingIn {
		b.WriteString(m.styles.Status.Render("Signing in..."))
		b.WriteString("\n")
	}
	if m.lastError != "" {
		b.WriteString(m.styles.Error.Render("✗ " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(m.renderKeys([][2]string{
		{"tab", "switch field"},
		{"enter", "sign in"},
		{"esc", "quit"},
	}))
	return b.String()
}

// renderDocuments renders the document table with its filter header
func (m Model) renderDocuments() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("docreview · Documents"))
	b.WriteString("\n")
	b.WriteString(m.renderIdentity())
	b.WriteString("\n")
	b.WriteString(m.renderFilter())
	b.WriteString("\n\n")

	switch {
	case !m.facts.Loaded:
		b.WriteString(m.styles.Muted.Render("Loading profile..."))
	case m.loading && len(m.docs) == 0:
		b.WriteString(m.styles.Muted.Render("Loading documents..."))
	case len(m.docs) == 0:
		b.WriteString(m.styles.Muted.Render("No documents found."))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")

	b.WriteString(m.styles.Muted.Render(fmt.Sprintf("Page %d of %d · %d documents",
		m.filter.Page, m.filter.PageCount(m.page.Count), m.page.Count)))
	b.WriteString("\n")

	if m.editingCreator {
		b.WriteString(m.creator.View())
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Success.Render("✓ " + m.status))
		b.WriteString("\n")
	}
	if m.lastError != "" {
		b.WriteString(m.styles.Error.Render("✗ " + m.lastError))
		b.WriteString("\n")
	}

	b.WriteString(m.renderHelpLine())
	return b.String()
}

func (m Model) renderIdentity() string {
	if m.snapshot.User == nil {
		return m.styles.Subtitle.Render("Signed in")
	}
	u := m.snapshot.User
	return m.styles.Subtitle.Render(fmt.Sprintf("%s <%s>", u.FullName, u.Email)) +
		" " + m.styles.Highlighted.Render(string(u.Role))
}

func (m Model) renderFilter() string {
	parts := []string{"sort: " + m.filter.Sort}
	if m.facts.Reviewer {
		status := "all (except drafts)"
		if len(m.filter.SelectedStatus) > 0 {
			status = m.filter.SelectedStatus.String()
		}
		parts = append(parts, "status: "+status)
		if m.filter.Creator != "" {
			parts = append(parts, "creator: "+m.filter.Creator)
		}
	}
	return m.styles.Muted.Render(strings.Join(parts, " · "))
}

// renderHelpLine renders the key hints below the table
func (m Model) renderHelpLine() string {
	keys := [][2]string{
		{"←/→", "page"},
		{"s", "sort"},
	}
	if m.facts.Reviewer {
		keys = append(keys, [2]string{"f", "status"}, [2]string{"c", "creator"})
	}
	keys = append(keys,
		[2]string{"r", "refresh"},
		[2]string{"?", "help"},
		[2]string{"L", "logout"},
		[2]string{"q", "quit"},
	)
	return m.renderKeys(keys)
}

func (m Model) renderKeys(keys [][2]string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = m.styles.Key.Render(k[0]) + " " + m.styles.KeyDesc.Render(k[1])
	}
	return m.styles.Help.Render(strings.Join(parts, "  "))
}

// renderHelp renders the full key reference
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Keyboard shortcuts"))
	b.WriteString("\n\n")

	rows := [][2]string{
		{"↑/↓", "select document"},
		{"←/→ or p/n", "previous / next page"},
		{"s", "cycle sort order"},
		{"t", "submit selected draft for review"},
		{"v", "revoke selected document from review"},
		{"x", "delete selected draft or revoked document"},
		{"r", "reload (retries the profile when it failed)"},
		{"L", "log out"},
	}
	if m.facts.Reviewer {
		rows = append(rows,
			[2]string{"f", "cycle status filter"},
			[2]string{"c", "filter by creator id or email"},
			[2]string{"a / D / u", "approve / decline / mark under review"},
		)
	}
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", m.styles.Key.Render(r[0]), r[1]))
	}
	b.WriteString(m.styles.Help.Render("Press ? or esc to return"))
	return m.styles.Border.Render(b.String())
}
