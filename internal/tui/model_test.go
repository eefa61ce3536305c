package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/credstore"
	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/log"
	"github.com/felixgeelhaar/docreview/internal/session"
)

var (
	alice = session.UserProfile{
		ID:       "0f8fad5b-d9cb-469f-a165-70867728950e",
		Email:    "alice@example.com",
		FullName: "Alice User",
		Role:     session.RoleUser,
	}
	rita = session.UserProfile{
		ID:       "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Email:    "rita@example.com",
		FullName: "Rita Reviewer",
		Role:     session.RoleReviewer,
	}
)

type fakeAuth struct {
	user session.UserProfile
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (string, error) {
	if email != f.user.Email {
		return "", fmt.Errorf("invalid email or password")
	}
	return "tok", nil
}

func (f *fakeAuth) CurrentUser(context.Context) (session.UserProfile, error) {
	return f.user, nil
}

func (f *fakeAuth) Register(_ context.Context, req auth.RegisterRequest) (session.UserProfile, error) {
	return session.UserProfile{Email: req.Email, Role: req.Role}, nil
}

type fakeDocs struct {
	mu       sync.Mutex
	docs     []document.Document
	queries  []document.Query
	statuses []document.Status
	deleted  []string
}

func (f *fakeDocs) ListDocuments(_ context.Context, q document.Query) (document.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	return document.Page{Results: f.docs, Count: len(f.docs)}, nil
}

func (f *fakeDocs) GetDocument(context.Context, string) (document.Document, error) {
	return document.Document{}, nil
}

func (f *fakeDocs) CreateDocument(context.Context, document.CreateRequest) (document.Document, error) {
	return document.Document{}, nil
}

func (f *fakeDocs) UpdateDocument(_ context.Context, d document.Document) (document.Document, error) {
	return d, nil
}

func (f *fakeDocs) DeleteDocument(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDocs) SendToReview(context.Context, string) error { return nil }

func (f *fakeDocs) ChangeStatus(_ context.Context, _ string, s document.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, s)
	return nil
}

type harness struct {
	state *session.State
	docs  *fakeDocs
	deps  Deps
}

func newHarness(t *testing.T, profile *session.UserProfile) *harness {
	t.Helper()

	state := session.New(credstore.NewMemoryStore())
	user := alice
	if profile != nil {
		state.SetToken("tok")
		state.SetProfile(*profile)
		user = *profile
	}

	docs := &fakeDocs{docs: []document.Document{
		{ID: "d1", Name: "Draft plan", Status: document.StatusDraft, Creator: alice},
		{ID: "d2", Name: "Queued", Status: document.StatusReadyForReview, Creator: alice},
	}}

	return &harness{
		state: state,
		docs:  docs,
		deps: Deps{
			Session:   state,
			Loader:    auth.NewLoader(&fakeAuth{user: user}, state, nil, log.Nop()),
			Guard:     auth.NewGuard(state, nil),
			Documents: document.NewService(docs, state, log.Nop()),
			Context:   context.Background(),
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// loaded drives a fresh load through the model.
func loaded(t *testing.T, m Model) Model {
	t.Helper()
	cmd := m.startLoad()
	m, _ = update(t, m, cmd())
	return m
}

func TestNewModel_InitialView(t *testing.T) {
	assert.Equal(t, ViewLogin, NewModel(newHarness(t, nil).deps).currentView)
	assert.Equal(t, ViewDocuments, NewModel(newHarness(t, &alice).deps).currentView)
}

func TestModel_ColumnsFollowRole(t *testing.T) {
	user := loaded(t, NewModel(newHarness(t, &alice).deps))
	assert.Len(t, user.table.Columns(), 4)
	assert.NotContains(t, user.View(), "Creator")

	reviewer := loaded(t, NewModel(newHarness(t, &rita).deps))
	assert.Len(t, reviewer.table.Columns(), 5)
	assert.Contains(t, reviewer.View(), "Creator")
	assert.Len(t, reviewer.table.Rows(), 2)
}

func TestModel_StaleLoadIgnored(t *testing.T) {
	m := NewModel(newHarness(t, &alice).deps)

	_ = m.startLoad()
	fresh := m.startLoad()

	m, _ = update(t, m, fresh())
	require.Len(t, m.docs, 2)

	m, _ = update(t, m, documentsLoadedMsg{seq: m.loadSeq - 1, err: fmt.Errorf("late failure")})
	assert.Empty(t, m.lastError)
	assert.Len(t, m.docs, 2)

	assert.False(t, m.loading)
}

func TestModel_SessionClearedShowsLogin(t *testing.T) {
	m := loaded(t, NewModel(newHarness(t, &rita).deps))
	seq := m.loadSeq

	m, _ = update(t, m, SessionChangedMsg{Snapshot: session.Snapshot{}})

	assert.Equal(t, ViewLogin, m.currentView)
	assert.Empty(t, m.docs)
	assert.Len(t, m.facts.Columns, 4)
	assert.False(t, m.facts.Authenticated)
	assert.Greater(t, m.loadSeq, seq)
}

func TestModel_NavigateToDocumentsLoads(t *testing.T) {
	h := newHarness(t, &alice)
	m := NewModel(h.deps)
	m.currentView = ViewLogin

	m, cmd := update(t, m, NavigateMsg{Route: auth.RouteDocuments})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewDocuments, m.currentView)
	assert.True(t, m.loading)

	m, _ = update(t, m, cmd())
	assert.False(t, m.loading)
	assert.Len(t, m.docs, 2)

	require.Len(t, h.docs.queries, 1)
	assert.Equal(t, alice.ID, h.docs.queries[0].CreatorID)
}

func TestModel_LoginFlow(t *testing.T) {
	h := newHarness(t, nil)
	m := NewModel(h.deps)

	for _, r := range alice.Email {
		m, _ = update(t, m, key(string(r)))
	}
	m, _ = update(t, m, key("tab"))
	for _, r := range "secret" {
		m, _ = update(t, m, key(string(r)))
	}
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.True(t, m.loggingIn)

	m, _ = update(t, m, cmd())
	assert.False(t, m.loggingIn)
	assert.Empty(t, m.lastError)
	assert.Empty(t, m.password.Value())
	assert.True(t, h.state.IsLoaded())
}

func TestModel_LoginRejected(t *testing.T) {
	m := NewModel(newHarness(t, nil).deps)

	m, _ = update(t, m, loginDoneMsg{err: fmt.Errorf("invalid email or password\n\nSuggestions: retry")})
	assert.Equal(t, "invalid email or password", m.lastError)
	assert.Equal(t, ViewLogin, m.currentView)
}

func TestModel_LoginWithoutProfile(t *testing.T) {
	h := newHarness(t, nil)
	h.state.SetToken("tok")
	m := NewModel(h.deps)

	m, _ = update(t, m, loginDoneMsg{})
	assert.Equal(t, ViewDocuments, m.currentView)
	assert.Contains(t, m.status, "Press r to retry")

	_, cmd := update(t, m, key("r"))
	require.NotNil(t, cmd)
	_, ok := cmd().(profileDoneMsg)
	assert.True(t, ok)
}

func TestModel_ReviewerKeysIgnoredForUsers(t *testing.T) {
	h := newHarness(t, &alice)
	m := loaded(t, NewModel(h.deps))
	before := m.filter

	for _, k := range []string{"f", "c", "a", "D", "u"} {
		next, cmd := update(t, m, key(k))
		assert.Nil(t, cmd, "key %q", k)
		assert.Equal(t, before, next.filter, "key %q", k)
		assert.False(t, next.editingCreator, "key %q", k)
	}
	assert.Empty(t, h.docs.statuses)
}

func TestModel_ReviewerStatusFilterCycles(t *testing.T) {
	m := loaded(t, NewModel(newHarness(t, &rita).deps))

	m, cmd := update(t, m, key("f"))
	require.NotNil(t, cmd)
	assert.Equal(t, document.StatusFilter{document.StatusDraft}, m.filter.SelectedStatus)
	assert.Equal(t, 1, m.filter.Page)
}

func TestModel_ReviewerCreatorFilter(t *testing.T) {
	h := newHarness(t, &rita)
	m := loaded(t, NewModel(h.deps))

	m, _ = update(t, m, key("c"))
	require.True(t, m.editingCreator)
	for _, r := range "bob@example.com" {
		m, _ = update(t, m, key(string(r)))
	}
	m, cmd := update(t, m, key("enter"))
	require.NotNil(t, cmd)
	assert.False(t, m.editingCreator)
	assert.Equal(t, "bob@example.com", m.filter.Creator)

	_, _ = update(t, m, cmd())
	last := h.docs.queries[len(h.docs.queries)-1]
	assert.Equal(t, "bob@example.com", last.CreatorEmail)
}

func TestModel_ReviewerApprove(t *testing.T) {
	h := newHarness(t, &rita)
	m := loaded(t, NewModel(h.deps))

	m, cmd := update(t, m, key("a"))
	require.NotNil(t, cmd)
	m, reload := update(t, m, cmd())

	assert.Equal(t, []document.Status{document.StatusApproved}, h.docs.statuses)
	assert.Contains(t, m.status, "APPROVED")
	assert.NotNil(t, reload)
	assert.True(t, m.loading)
}

func TestModel_DeleteSelected(t *testing.T) {
	h := newHarness(t, &alice)
	m := loaded(t, NewModel(h.deps))

	_, cmd := update(t, m, key("x"))
	require.NotNil(t, cmd)
	_, _ = update(t, m, cmd())
	assert.Equal(t, []string{"d1"}, h.docs.deleted)
}

func TestModel_SelectionAfterLoad(t *testing.T) {
	h := newHarness(t, &alice)
	m := loaded(t, NewModel(h.deps))

	d, ok := m.selected()
	require.True(t, ok)
	assert.Equal(t, "d1", d.ID)

	m, _ = update(t, m, key("down"))
	m = loaded(t, m)
	d, ok = m.selected()
	require.True(t, ok)
	assert.Equal(t, "d2", d.ID)

	h.docs.docs = h.docs.docs[:1]
	m = loaded(t, m)
	d, ok = m.selected()
	require.True(t, ok)
	assert.Equal(t, "d1", d.ID)

	h.docs.docs = nil
	m = loaded(t, m)
	_, ok = m.selected()
	assert.False(t, ok)
}

func TestModel_SubmitAndRevokeSelected(t *testing.T) {
	h := newHarness(t, &alice)
	m := loaded(t, NewModel(h.deps))

	_, cmd := update(t, m, key("t"))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.status, "Sent")

	m, _ = update(t, m, key("down"))
	_, cmd = update(t, m, key("v"))
	require.NotNil(t, cmd)
	_, _ = update(t, m, cmd())
	assert.Equal(t, []document.Status{document.StatusRevoke}, h.docs.statuses)
}

func TestModel_HelpToggle(t *testing.T) {
	m := NewModel(newHarness(t, &alice).deps)

	m, _ = update(t, m, key("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	m, _ = update(t, m, key("?"))
	assert.Equal(t, ViewDocuments, m.currentView)
}

func TestDocumentActions(t *testing.T) {
	assert.Equal(t, []string{"[t]submit", "[x]delete"}, documentActions(document.Document{Status: document.StatusDraft}))
	assert.Equal(t, []string{"[v]revoke"}, documentActions(document.Document{Status: document.StatusReadyForReview}))
	assert.Empty(t, documentActions(document.Document{Status: document.StatusApproved}))
}

func TestNextSortAndStatus(t *testing.T) {
	assert.Equal(t, "name,desc", nextSort("name,asc"))
	assert.Equal(t, sortKeys[0], nextSort("unknown"))
	assert.Equal(t, sortKeys[0], nextSort(sortKeys[len(sortKeys)-1]))

	assert.Equal(t, []document.Status{document.StatusDraft}, nextStatus(nil))
	assert.Equal(t, []document.Status{document.StatusReadyForReview}, nextStatus(document.StatusFilter{document.StatusDraft}))
	assert.Nil(t, nextStatus(document.StatusFilter{document.StatusRevoke}))
}

func TestBridge_DropsBeforeAttach(t *testing.T) {
	b := NewBridge()
	for i := 0; i < 200; i++ {
		b.Navigate(auth.RouteLogin)
		b.SessionChanged(session.Snapshot{})
	}
	b.Close()
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "one", firstLine(fmt.Errorf("one\ntwo")))
	assert.Equal(t, "plain", firstLine(fmt.Errorf("plain")))
	assert.False(t, strings.Contains(firstLine(fmt.Errorf("a\nb")), "\n"))
}
