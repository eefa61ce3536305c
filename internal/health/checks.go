package health

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/platform"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// APIChecker checks that the API answers HTTP at all. Any status below 500
// counts as reachable; the probe carries no credentials.
type APIChecker struct {
	BaseURL string
	Client  *http.Client
}

func (c *APIChecker) Name() string { return "api-reachable" }

func (c *APIChecker) Check(ctx context.Context) *Result {
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/user", nil)
	if err != nil {
		return Unhealthy("invalid API URL").WithDetail("error", err.Error())
	}
	resp, err := client.Do(req)
	if err != nil {
		return Unhealthy("API not reachable").
			WithDetail("url", c.BaseURL).
			WithDetail("error", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return Degraded(fmt.Sprintf("API answered %d", resp.StatusCode)).WithDetail("url", c.BaseURL)
	}
	return Healthy("API reachable").WithDetail("url", c.BaseURL)
}

// Pinger is implemented by stores backed by a server.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker checks the credential store. Server-backed stores are
// pinged; the file store needs a writable directory.
type StoreChecker struct {
	Backend string
	Path    string
	Store   any
}

func (c *StoreChecker) Name() string { return "credential-store" }

func (c *StoreChecker) Check(ctx context.Context) *Result {
	if p, ok := c.Store.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return Unhealthy(c.Backend + " store not reachable").WithDetail("error", err.Error())
		}
		return Healthy(c.Backend + " store reachable")
	}
	if c.Path == "" {
		return Healthy(c.Backend + " store")
	}

	dir := filepath.Dir(c.Path)
	st, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return Degraded("credential directory does not exist yet").WithDetail("path", dir)
	case err != nil:
		return Unhealthy("credential directory not readable").WithDetail("error", err.Error())
	case !st.IsDir():
		return Unhealthy(dir + " is not a directory")
	case st.Mode().Perm()&0o200 == 0:
		return Unhealthy("credential directory is not writable").WithDetail("path", dir)
	}
	return Healthy("file store").WithDetail("path", c.Path)
}

// SessionChecker reports whether a token is held and, for JWTs, whether it
// has expired. Nothing is verified.
type SessionChecker struct {
	Session *session.State
	Now     func() time.Time
}

func (c *SessionChecker) Name() string { return "session" }

func (c *SessionChecker) Check(ctx context.Context) *Result {
	token, ok := c.Session.Token()
	if !ok {
		return Degraded("not logged in")
	}

	info, err := auth.InspectToken(token)
	if err != nil {
		return Healthy("token present (opaque)")
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if info.Expired(now()) {
		return Degraded("token expired").WithDetail("expires_at", info.ExpiresAt)
	}
	r := Healthy("token present")
	if !info.ExpiresAt.IsZero() {
		r.WithDetail("expires_at", info.ExpiresAt)
	}
	return r
}

// ContractChecker verifies the client's endpoints against an OpenAPI
// document; an empty Path uses the bundled one.
type ContractChecker struct {
	Path string
}

func (c *ContractChecker) Name() string { return "api-contract" }

func (c *ContractChecker) Check(ctx context.Context) *Result {
	v, err := platform.LoadContract(ctx, c.Path)
	if err != nil {
		return Unhealthy("OpenAPI document not usable").WithDetail("error", err.Error())
	}
	if findings := v.Check(platform.Endpoints()); len(findings) > 0 {
		r := Unhealthy(fmt.Sprintf("%d endpoint(s) missing from %s", len(findings), v.Source()))
		for _, f := range findings {
			r.WithDetail(f.Method+" "+f.Path, f.Code)
		}
		return r
	}
	return Healthy("all endpoints described").WithDetail("source", v.Source())
}
