package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/docreview/internal/document"
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/exitcode"
	"github.com/felixgeelhaar/docreview/internal/session"
)

func TestMain(m *testing.M) {
	interactive = func() bool { return false }
	os.Exit(m.Run())
}

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

// backend is an in-memory document review API.
type backend struct {
	mu       sync.Mutex
	users    map[string]session.UserProfile
	tokens   map[string]session.UserProfile
	docs     map[string]document.Document
	queries  []url.Values
	calls    []string
	failUser bool
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{
		users:  map[string]session.UserProfile{alice.Email: alice, rita.Email: rita},
		tokens: map[string]session.UserProfile{},
		docs: map[string]document.Document{
			"d1": {ID: "d1", Name: "Draft plan", Status: document.StatusDraft, Creator: alice},
			"d2": {ID: "d2", Name: "Queued report", Status: document.StatusReadyForReview, Creator: alice},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", b.login)
	mux.HandleFunc("GET /user", b.authed(func(w http.ResponseWriter, r *http.Request, u session.UserProfile) {
		if b.failUser {
			writeJSON(w, http.StatusBadGateway, map[string]any{"message": "upstream down"})
			return
		}
		writeJSON(w, http.StatusOK, u)
	}))
	mux.HandleFunc("POST /user/register", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusCreated, session.UserProfile{ID: "new", Email: req["email"], FullName: req["fullName"], Role: session.Role(req["role"])})
	})
	mux.HandleFunc("GET /document", b.authed(func(w http.ResponseWriter, r *http.Request, _ session.UserProfile) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.queries = append(b.queries, r.URL.Query())
		var page document.Page
		for _, id := range []string{"d1", "d2"} {
			if d, ok := b.docs[id]; ok {
				page.Results = append(page.Results, d)
			}
		}
		page.Count = len(page.Results)
		writeJSON(w, http.StatusOK, page)
	}))
	mux.HandleFunc("GET /document/{id}", b.authed(func(w http.ResponseWriter, r *http.Request, _ session.UserProfile) {
		b.mu.Lock()
		d, ok := b.docs[r.PathValue("id")]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Document not found"})
			return
		}
		writeJSON(w, http.StatusOK, d)
	}))
	mux.HandleFunc("DELETE /document/{id}", b.authed(b.record("delete")))
	mux.HandleFunc("POST /document/{id}/send-to-review", b.authed(b.record("send-to-review")))
	mux.HandleFunc("POST /document/{id}/change-status", b.authed(func(w http.ResponseWriter, r *http.Request, u session.UserProfile) {
		var req struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.record("change-status:"+req.Status)(w, r, u)
	}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return b, server
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[req.Email]
	if !ok || req.Password != "secret" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"statusCode": 401, "message": "Unauthorized"})
		return
	}
	token := "tok-" + u.ID
	b.tokens[token] = u
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (b *backend) authed(next func(http.ResponseWriter, *http.Request, session.UserProfile)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		u, ok := b.tokens[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Unauthorized"})
			return
		}
		next(w, r, u)
	}
}

func (b *backend) record(action string) func(http.ResponseWriter, *http.Request, session.UserProfile) {
	return func(w http.ResponseWriter, r *http.Request, _ session.UserProfile) {
		b.mu.Lock()
		b.calls = append(b.calls, action+" "+r.PathValue("id"))
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *backend) LastQuery() url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return nil
	}
	return b.queries[len(b.queries)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cli runs docreview against one backend with its own config and
// credential file.
type cli struct {
	t          *testing.T
	configPath string
	credPath   string
}

func newCLI(t *testing.T, baseURL string) *cli {
	t.Helper()
	dir := t.TempDir()
	c := &cli{
		t:          t,
		configPath: filepath.Join(dir, "config.yaml"),
		credPath:   filepath.Join(dir, "credentials.json"),
	}
	cfg := "api:\n  base_url: " + baseURL + "\n" +
		"credentials:\n  backend: file\n  path: " + c.credPath + "\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(c.configPath, []byte(cfg), 0o600))
	return c
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.configPath, "--env-file="}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (c *cli) login(email string) {
	c.t.Helper()
	_, err := c.run("secret\n", "auth", "login", "--email", email, "--password-stdin")
	require.NoError(c.t, err)
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	want := map[string][]string{
		"auth":      {"login", "logout", "status", "register"},
		"documents": {"list", "get", "create", "rename", "delete", "submit", "revoke", "status"},
		"config":    {"view", "path", "get", "set"},
		"api":       {"check", "endpoints"},
		"panel":     nil,
		"doctor":    nil,
		"version":   nil,
	}
	for parent, children := range want {
		cmd, _, err := root.Find([]string{parent})
		require.NoError(t, err, parent)
		require.Equal(t, parent, cmd.Name())
		for _, child := range children {
			sub, _, err := cmd.Find([]string{child})
			require.NoError(t, err, "%s %s", parent, child)
			assert.Equal(t, child, sub.Name())
		}
	}
	for _, flag := range []string{"config", "env-file", "verbose", "format", "ephemeral"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestAuthLogin(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	out, err := c.run("secret\n", "auth", "login", "--email", alice.Email, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as alice@example.com (USER)")

	data, err := os.ReadFile(c.credPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tok-"+alice.ID)
}

func TestAuthLogin_Rejected(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	_, err := c.run("wrong\n", "auth", "login", "--email", alice.Email, "--password-stdin")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnauthorized))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	_, statErr := os.Stat(c.credPath)
	assert.True(t, os.IsNotExist(statErr), "no credentials written")
}

func TestAuthLogin_NonInteractiveNeedsFlags(t *testing.T) {
	c := newCLI(t, "http://127.0.0.1:1")

	_, err := c.run("", "auth", "login", "--email", alice.Email)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestAuthLogin_ProfileFailureKeepsToken(t *testing.T) {
	b, server := newBackend(t)
	b.failUser = true
	c := newCLI(t, server.URL)

	out, err := c.run("secret\n", "auth", "login", "--email", alice.Email, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "profile could not be loaded")

	out, err = c.run("", "--format", "json", "auth", "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Authenticated)
	assert.False(t, report.ProfileLoaded)
	assert.Nil(t, report.User)
	assert.Contains(t, report.ProfileError, "AUTH-002")
}

func TestAuthStatus(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	out, err := c.run("", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	c.login(rita.Email)

	out, err = c.run("", "--format", "json", "auth", "status")
	require.NoError(t, err)

	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Authenticated)
	assert.True(t, report.ProfileLoaded)
	require.NotNil(t, report.User)
	assert.Equal(t, rita.ID, report.User.ID)
	assert.False(t, report.Cached)
	require.NotNil(t, report.Token)
	assert.True(t, report.Token.Opaque)
}

func TestAuthStatus_FallsBackToCachedProfile(t *testing.T) {
	b, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	b.failUser = true
	out, err := c.run("", "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "profile could not be refreshed")
	assert.Contains(t, out, "Cached profile: alice@example.com (USER)")
}

func TestAuthLogout(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	out, err := c.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logging out: alice@example.com")
	assert.Contains(t, out, "Logged out.")

	out, err = c.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	_, err = c.run("", "documents", "list")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotAuthenticated))
}

func TestAuthLogout_RemovesLeftoverProfile(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	profile, err := json.Marshal(alice)
	require.NoError(t, err)
	leftover, err := json.Marshal(map[string]string{"user": string(profile)})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(c.credPath, leftover, 0o600))

	out, err := c.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	_, statErr := os.Stat(c.credPath)
	assert.True(t, os.IsNotExist(statErr), "profile entry must be removed")
}

func TestAuthRegister(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	out, err := c.run("pw\n", "auth", "register", "--email", "bob@example.com", "--name", "Bob", "--role", "reviewer", "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered bob@example.com (REVIEWER)")

	_, err = c.run("pw\n", "auth", "register", "--email", "bob@example.com", "--name", "Bob", "--role", "admin", "--password-stdin")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, statErr := os.Stat(c.credPath)
	assert.True(t, os.IsNotExist(statErr), "register does not log in")
}

func TestDocumentsList_User(t *testing.T) {
	b, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	out, err := c.run("", "documents", "list", "--status", "APPROVED", "--creator", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft plan")
	assert.Contains(t, out, "Page 1 of 1 (2 documents)")
	assert.NotContains(t, out, "CREATOR")

	q := b.LastQuery()
	assert.Equal(t, alice.ID, q.Get("creatorId"))
	assert.Empty(t, q.Get("status"))
	assert.Empty(t, q.Get("creatorEmail"))
}

func TestDocumentsList_Reviewer(t *testing.T) {
	b, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(rita.Email)

	out, err := c.run("", "documents", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATOR")
	assert.Contains(t, out, alice.Email)

	q := b.LastQuery()
	assert.Equal(t, "UNDER_REVIEW,APPROVED,DECLINED,READY_FOR_REVIEW,REVOKE", q.Get("status"))
	assert.Empty(t, q.Get("creatorId"))

	_, err = c.run("", "documents", "list", "--status", "approved", "--creator", "bob@example.com", "--size", "5", "--sort", "updatedAt,desc")
	require.NoError(t, err)
	q = b.LastQuery()
	assert.Equal(t, "APPROVED", q.Get("status"))
	assert.Equal(t, "bob@example.com", q.Get("creatorEmail"))
	assert.Equal(t, "5", q.Get("size"))
	assert.Equal(t, "updatedAt,desc", q.Get("sort"))

	_, err = c.run("", "documents", "list", "--creator", strings.ToUpper(alice.ID))
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(alice.ID), b.LastQuery().Get("creatorId"))
}

func TestDocumentsList_JSON(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	out, err := c.run("", "--format", "json", "documents", "list")
	require.NoError(t, err)

	var result listResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.PageCount)
	assert.Len(t, result.Results, 2)
}

func TestDocumentsList_InvalidInput(t *testing.T) {
	b, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(rita.Email)
	before := len(b.queries)

	_, err := c.run("", "documents", "list", "--status", "PUBLISHED")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	_, err = c.run("", "documents", "list", "--page", "0")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	assert.Len(t, b.queries, before, "invalid queries never reach the API")
}

func TestDocumentsGet(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	out, err := c.run("", "documents", "get", "d1", "d2")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Draft plan"), strings.Index(out, "Queued report"))

	_, err = c.run("", "documents", "get", "missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestDocumentsLifecycle(t *testing.T) {
	b, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	_, err := c.run("", "documents", "delete", "d2", "--yes")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDocument))

	_, err = c.run("", "documents", "revoke", "d1")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDocument))

	out, err := c.run("", "documents", "delete", "d1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Draft plan"`)

	_, err = c.run("", "documents", "submit", "d1")
	require.NoError(t, err)

	_, err = c.run("", "documents", "revoke", "d2")
	require.NoError(t, err)

	assert.Equal(t, []string{"delete d1", "send-to-review d1", "change-status:REVOKE d2"}, b.Calls())
}

func TestDocumentsStatus(t *testing.T) {
	b, server := newBackend(t)

	user := newCLI(t, server.URL)
	user.login(alice.Email)
	_, err := user.run("", "documents", "status", "d2", "APPROVED")
	assert.True(t, errors.IsCode(err, errors.ErrCodeForbidden))
	assert.Equal(t, exitcode.AuthError, exitcode.DetermineExitCode(err))

	reviewer := newCLI(t, server.URL)
	reviewer.login(rita.Email)
	_, err = reviewer.run("", "documents", "status", "d2", "bogus")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))

	out, err := reviewer.run("", "documents", "status", "d2", "under-review")
	require.NoError(t, err)
	assert.Contains(t, out, "UNDER_REVIEW")

	assert.Equal(t, []string{"change-status:UNDER_REVIEW d2"}, b.Calls())
}

func TestDocumentsCreate_RejectsNonPDF(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)
	c.login(alice.Email)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := c.run("", "documents", "create", path)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDocument))

	_, err = c.run("", "documents", "create", filepath.Join(t.TempDir(), "missing.pdf"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileNotFound))
}

func TestEphemeralSessionIsNotPersisted(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	out, err := c.run("secret\n", "--ephemeral", "auth", "login", "--email", alice.Email, "--password-stdin")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as")

	_, statErr := os.Stat(c.credPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigCommands(t *testing.T) {
	c := newCLI(t, "http://localhost:3000")

	out, err := c.run("", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, c.configPath, strings.TrimSpace(out))

	_, err = c.run("", "config", "set", "defaults.page_size", "25")
	require.NoError(t, err)

	out, err = c.run("", "config", "get", "defaults.page_size")
	require.NoError(t, err)
	assert.Equal(t, "25", strings.TrimSpace(out))

	out, err = c.run("", "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "page_size: 25")
	assert.Contains(t, out, "base_url: http://localhost:3000")

	_, err = c.run("", "config", "get", "nope.key")
	assert.Error(t, err)

	_, err = c.run("", "config", "set", "api.base_url", "ftp://example.com")
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}

func TestAPICheck(t *testing.T) {
	c := newCLI(t, "http://localhost:3000")

	out, err := c.run("", "api", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "All endpoints are described")

	partial := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte(`openapi: 3.0.3
info:
  title: partial
  version: "1"
paths:
  /auth/login:
    post:
      responses:
        "200":
          description: ok
`), 0o600))

	out, err = c.run("", "api", "check", "--spec", partial)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAPI))
	assert.Contains(t, out, "MISSING_API_PATH")

	out, err = c.run("", "--format", "json", "api", "endpoints")
	require.NoError(t, err)
	assert.Contains(t, out, "/document/{id}/change-status")
}

func TestVersion(t *testing.T) {
	c := newCLI(t, "http://localhost:3000")

	out, err := c.run("", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "docreview "))

	out, err = c.run("", "--format", "json", "version")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])
	assert.NotEmpty(t, info["go_version"])
}

func TestUnknownFormat(t *testing.T) {
	c := newCLI(t, "http://localhost:3000")

	_, err := c.run("", "--format", "xml", "version")
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
}

func TestDoctor(t *testing.T) {
	_, server := newBackend(t)
	c := newCLI(t, server.URL)

	out, err := c.run("", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "api-reachable")
	assert.Contains(t, out, "not logged in")
	assert.Contains(t, out, "Overall: degraded")

	c.login(alice.Email)
	out, err = c.run("", "--format", "json", "doctor")
	require.NoError(t, err)

	var report doctorReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "healthy", string(report.Status))
	assert.Len(t, report.Checks, 4)

	down := newCLI(t, "http://127.0.0.1:1")
	_, err = down.run("", "doctor", "--timeout", "1s")
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
}
