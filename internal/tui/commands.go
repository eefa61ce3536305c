package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Network calls run as commands; their results come back to Update as
// messages.

func (m Model) loginCmd(email, password string) tea.Cmd {
	ctx, loader := m.deps.Context, m.deps.Loader
	return func() tea.Msg {
		return loginDoneMsg{err: loader.Login(ctx, email, password)}
	}
}

func (m Model) profileCmd() tea.Cmd {
	ctx, loader := m.deps.Context, m.deps.Loader
	return func() tea.Msg {
		return profileDoneMsg{err: loader.FetchProfile(ctx)}
	}
}

func (m Model) restoreCmd() tea.Cmd {
	ctx, loader := m.deps.Context, m.deps.Loader
	return func() tea.Msg {
		return profileDoneMsg{err: loader.Restore(ctx)}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	loader := m.deps.Loader
	return func() tea.Msg {
		loader.Logout()
		return nil
	}
}

// startLoad issues a listing for the current filter. Responses to earlier
// loads are ignored once it is issued.
func (m *Model) startLoad() tea.Cmd {
	m.loadSeq++
	m.loading = true
	return m.fetchCmd(m.loadSeq)
}

func (m Model) fetchCmd(seq int) tea.Cmd {
	ctx, svc, filter := m.deps.Context, m.deps.Documents, m.filter
	return func() tea.Msg {
		page, err := svc.List(ctx, filter)
		return documentsLoadedMsg{seq: seq, page: page, err: err}
	}
}

func (m Model) actionCmd(done string, fn func(context.Context) error) tea.Cmd {
	ctx := m.deps.Context
	return func() tea.Msg {
		if err := fn(ctx); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: done}
	}
}
