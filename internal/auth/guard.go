package auth

import (
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// Guard protects views and commands that need a token.
type Guard struct {
	session *session.State
	nav     Navigator
}

// NewGuard creates a Guard. A nil nav discards redirects.
func NewGuard(state *session.State, nav Navigator) *Guard {
	if nav == nil {
		nav = NopNavigator()
	}
	return &Guard{session: state, nav: nav}
}

// RequireAuthenticated reports whether a token is present. When it is not,
// the caller is redirected to the login view.
//
// Only the token is checked; a missing profile is not a guard failure.
func (g *Guard) RequireAuthenticated() bool {
	if g.session.IsAuthenticated() {
		return true
	}
	g.nav.Navigate(RouteLogin)
	return false
}

// Check is RequireAuthenticated for commands that report errors.
func (g *Guard) Check() error {
	if !g.RequireAuthenticated() {
		return errors.NewNotAuthenticatedError()
	}
	return nil
}
