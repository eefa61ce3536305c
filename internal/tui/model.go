package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/authz"
	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// ViewType represents the current view being displayed
type ViewType int

// View type constants
const (
	// ViewLogin is the credential form
	ViewLogin ViewType = iota
	// ViewDocuments is the document table
	ViewDocuments
	// ViewHelp is the help screen
	ViewHelp
)

// Deps are the services the panel drives.
type Deps struct {
	Session   *session.State
	Loader    *auth.Loader
	Guard     *auth.Guard
	Documents *document.Service
	Context   context.Context
}

// Model represents the panel state
type Model struct {
	deps Deps

	// Session facts as last pushed by the session listener
	snapshot session.Snapshot
	facts    authz.Facts

	// Listing state
	filter  document.Filter
	page    document.Page
	docs    []document.Document
	loadSeq int
	loading bool
	table   table.Model

	// Login form
	email      textinput.Model
	password   textinput.Model
	loginFocus int
	loggingIn  bool

	// Creator filter editor
	creator        textinput.Model
	editingCreator bool

	// UI state
	currentView ViewType
	prevView    ViewType
	width       int
	height      int
	ready       bool
	quitting    bool

	status    string
	lastError string

	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Help        lipgloss.Style
	Key         lipgloss.Style
	KeyDesc     lipgloss.Style
}

// NewModel creates the panel. The initial view follows the session: the
// document table when a token is held, the login form otherwise.
func NewModel(deps Deps) Model {
	if deps.Context == nil {
		deps.Context = context.Background()
	}

	email := textinput.New()
	email.Placeholder = "email"
	email.Prompt = "Email:    "
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password: "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	creator := textinput.New()
	creator.Placeholder = "creator id or email"
	creator.Prompt = "Creator: "

	m := Model{
		deps:     deps,
		filter:   document.NewFilter(),
		email:    email,
		password: password,
		creator:  creator,
		table: table.New(
			table.WithFocused(true),
			table.WithHeight(document.DefaultPageSize+1),
		),
		styles: DefaultStyles(),
	}
	m.applySnapshot(deps.Session.Snapshot())
	if m.facts.Authenticated {
		m.currentView = ViewDocuments
	}
	return m
}

// WithFilter replaces the initial filter, e.g. from config defaults.
func (m Model) WithFilter(f document.Filter) Model {
	m.filter = f
	return m
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).
			Foreground(lipgloss.Color("230")).
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")),
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// Messages

// SessionChangedMsg carries a committed session change.
type SessionChangedMsg struct {
	Snapshot session.Snapshot
}

// NavigateMsg carries a navigation intent from the auth layer.
type NavigateMsg struct {
	Route auth.Route
}

type loginDoneMsg struct {
	err error
}

type profileDoneMsg struct {
	err error
}

type documentsLoadedMsg struct {
	seq  int
	page document.Page
	err  error
}

type actionDoneMsg struct {
	status string
	err    error
}

// Init restores a persisted session or loads the first page.
func (m Model) Init() tea.Cmd {
	if !m.facts.Authenticated {
		return textinput.Blink
	}
	if !m.facts.Loaded {
		return m.restoreCmd()
	}
	return m.fetchCmd(m.loadSeq)
}

// Update handles messages and updates the model state (required by Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case SessionChangedMsg:
		m.applySnapshot(msg.Snapshot)
		if !m.facts.Authenticated {
			m.resetListing()
			m.currentView = ViewLogin
		}
		return m, nil

	case NavigateMsg:
		return m.navigate(msg.Route)

	case loginDoneMsg:
		m.loggingIn = false
		m.password.SetValue("")
		if msg.err != nil {
			m.lastError = firstLine(msg.err)
			return m, nil
		}
		m.lastError = ""
		if !m.deps.Session.IsLoaded() {
			m.status = "Logged in, but your profile could not be loaded. Press r to retry."
			m.currentView = ViewDocuments
		}
		return m, nil

	case profileDoneMsg:
		if msg.err != nil {
			m.lastError = firstLine(msg.err)
		}
		return m, nil

	case documentsLoadedMsg:
		if msg.seq != m.loadSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.lastError = firstLine(msg.err)
			return m, nil
		}
		m.lastError = ""
		m.page = msg.page
		m.docs = msg.page.Results
		m.refreshTable()
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.lastError = firstLine(msg.err)
			return m, nil
		}
		m.lastError = ""
		m.status = msg.status
		cmd := m.startLoad()
		return m, cmd
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentView {
	case ViewLogin:
		return m.renderLogin()
	case ViewDocuments:
		return m.renderDocuments()
	case ViewHelp:
		return m.renderHelp()
	default:
		return "Unknown view"
	}
}

func (m Model) navigate(route auth.Route) (tea.Model, tea.Cmd) {
	switch route {
	case auth.RouteLogin:
		m.resetListing()
		m.currentView = ViewLogin
		m.email.Focus()
		m.loginFocus = 0
		return m, textinput.Blink
	case auth.RouteDocuments:
		m.currentView = ViewDocuments
		m.status = ""
		cmd := m.startLoad()
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewHelp:
		switch msg.String() {
		case "?", "esc", "q":
			m.currentView = m.prevView
		}
		return m, nil
	}

	if m.editingCreator {
		return m.handleCreatorKey(msg)
	}
	return m.handleDocumentsKey(msg)
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "shift+tab", "up", "down":
		m.loginFocus = 1 - m.loginFocus
		if m.loginFocus == 0 {
			m.password.Blur()
			cmd := m.email.Focus()
			return m, cmd
		}
		m.email.Blur()
		cmd := m.password.Focus()
		return m, cmd
	case "enter":
		if m.loginFocus == 0 {
			m.loginFocus = 1
			m.email.Blur()
			cmd := m.password.Focus()
			return m, cmd
		}
		if m.loggingIn {
			return m, nil
		}
		m.loggingIn = true
		m.lastError = ""
		return m, m.loginCmd(m.email.Value(), m.password.Value())
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m Model) handleCreatorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingCreator = false
		m.creator.Blur()
		m.creator.SetValue(m.filter.Creator)
		return m, nil
	case "enter":
		m.editingCreator = false
		m.creator.Blur()
		m.filter.FilterByCreator(m.creator.Value())
		m.filter.ChangePage(1)
		cmd := m.startLoad()
		return m, cmd
	}
	var cmd tea.Cmd
	m.creator, cmd = m.creator.Update(msg)
	return m, cmd
}

// sortKeys is the cycle of the "s" key.
var sortKeys = []string{"name,asc", "name,desc", "updatedAt,desc", "updatedAt,asc", "status,asc"}

func (m Model) handleDocumentsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	reviewer := m.facts.Reviewer

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.prevView = m.currentView
		m.currentView = ViewHelp
		return m, nil
	case "r":
		if m.deps.Guard != nil && !m.deps.Guard.RequireAuthenticated() {
			return m, nil
		}
		if !m.facts.Loaded {
			return m, m.profileCmd()
		}
		cmd := m.startLoad()
		return m, cmd
	case "L":
		return m, m.logoutCmd()
	case "right", "n":
		if m.filter.Page < m.filter.PageCount(m.page.Count) {
			m.filter.ChangePage(m.filter.Page + 1)
			cmd := m.startLoad()
			return m, cmd
		}
		return m, nil
	case "left", "p":
		if m.filter.Page > 1 {
			m.filter.ChangePage(m.filter.Page - 1)
			cmd := m.startLoad()
			return m, cmd
		}
		return m, nil
	case "s":
		m.filter.ChangeSort(nextSort(m.filter.Sort))
		cmd := m.startLoad()
		return m, cmd
	case "f":
		if !reviewer {
			return m, nil
		}
		m.filter.FilterByStatus(nextStatus(m.filter.SelectedStatus)...)
		m.filter.ChangePage(1)
		cmd := m.startLoad()
		return m, cmd
	case "c":
		if !reviewer {
			return m, nil
		}
		m.editingCreator = true
		m.creator.SetValue(m.filter.Creator)
		cmd := m.creator.Focus()
		return m, cmd
	}

	if d, ok := m.selected(); ok {
		switch msg.String() {
		case "x":
			return m, m.actionCmd(fmt.Sprintf("Deleted %q", d.Name), func(ctx context.Context) error {
				return m.deps.Documents.Delete(ctx, d)
			})
		case "t":
			return m, m.actionCmd(fmt.Sprintf("Sent %q to review", d.Name), func(ctx context.Context) error {
				return m.deps.Documents.SubmitForReview(ctx, d)
			})
		case "v":
			return m, m.actionCmd(fmt.Sprintf("Revoked %q", d.Name), func(ctx context.Context) error {
				return m.deps.Documents.Revoke(ctx, d)
			})
		case "a", "D", "u":
			if !reviewer {
				return m, nil
			}
			target := map[string]document.Status{
				"a": document.StatusApproved,
				"D": document.StatusDeclined,
				"u": document.StatusUnderReview,
			}[msg.String()]
			return m, m.actionCmd(fmt.Sprintf("%q is now %s", d.Name, target), func(ctx context.Context) error {
				return m.deps.Documents.ChangeStatus(ctx, d.ID, target)
			})
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// applySnapshot recomputes every derived fact from s.
func (m *Model) applySnapshot(s session.Snapshot) {
	m.snapshot = s
	m.facts = authz.Evaluate(s)
	m.refreshTable()
}

func (m *Model) resetListing() {
	m.loadSeq++
	m.loading = false
	m.docs = nil
	m.page = document.Page{}
	m.status = ""
	m.refreshTable()
}

func (m *Model) refreshTable() {
	cols := make([]table.Column, len(m.facts.Columns))
	for i, c := range m.facts.Columns {
		cols[i] = table.Column{Title: columnTitle(c), Width: columnWidth(c)}
	}

	rows := make([]table.Row, len(m.docs))
	for i, d := range m.docs {
		row := make(table.Row, len(m.facts.Columns))
		for j, c := range m.facts.Columns {
			row[j] = cellValue(c, d)
		}
		rows[i] = row
	}

	// Rows must never be wider than the columns while swapping. Emptying
	// the table drops the cursor to -1, so it is restored afterwards.
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(min(max(cursor, 0), len(rows)-1))
	}
}

func (m Model) selected() (document.Document, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.docs) {
		return document.Document{}, false
	}
	return m.docs[i], true
}

func columnTitle(c authz.Column) string {
	switch c {
	case authz.ColumnName:
		return "Name"
	case authz.ColumnStatus:
		return "Status"
	case authz.ColumnCreator:
		return "Creator"
	case authz.ColumnActions:
		return "Actions"
	case authz.ColumnView:
		return "View"
	}
	return string(c)
}

func columnWidth(c authz.Column) int {
	switch c {
	case authz.ColumnName:
		return 30
	case authz.ColumnStatus:
		return 18
	case authz.ColumnCreator:
		return 28
	case authz.ColumnActions:
		return 22
	}
	return 40
}

func cellValue(c authz.Column, d document.Document) string {
	switch c {
	case authz.ColumnName:
		return d.Name
	case authz.ColumnStatus:
		return string(d.Status)
	case authz.ColumnCreator:
		if d.Creator.Email != "" {
			return d.Creator.Email
		}
		return d.Creator.FullName
	case authz.ColumnActions:
		return strings.Join(documentActions(d), " ")
	case authz.ColumnView:
		return d.FileURL
	}
	return ""
}

// documentActions lists the lifecycle keys available for d.
func documentActions(d document.Document) []string {
	var actions []string
	if document.CanSubmit(d) {
		actions = append(actions, "[t]submit")
	}
	if document.CanRevoke(d) {
		actions = append(actions, "[v]revoke")
	}
	if document.CanDelete(d) {
		actions = append(actions, "[x]delete")
	}
	return actions
}

func nextSort(current string) string {
	for i, s := range sortKeys {
		if s == current {
			return sortKeys[(i+1)%len(sortKeys)]
		}
	}
	return sortKeys[0]
}

// nextStatus cycles the reviewer status filter: all, then each status.
func nextStatus(current document.StatusFilter) []document.Status {
	all := document.AllStatuses()
	if len(current) != 1 {
		return []document.Status{all[0]}
	}
	for i, s := range all {
		if s == current[0] {
			if i == len(all)-1 {
				return nil
			}
			return []document.Status{all[i+1]}
		}
	}
	return nil
}

func firstLine(err error) string {
	msg := err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return msg[:i]
	}
	return msg
}
