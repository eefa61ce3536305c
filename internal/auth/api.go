// Package auth drives the login lifecycle: exchanging credentials for a
// token, loading the caller's profile into the session and tearing both
// down again on logout.
package auth

import (
	"context"

	"github.com/felixgeelhaar/docreview/internal/session"
)

// API is the authentication backend.
type API interface {
	// Login exchanges credentials for an access token.
	Login(ctx context.Context, email, password string) (string, error)

	// CurrentUser returns the profile of the token holder.
	CurrentUser(ctx context.Context) (session.UserProfile, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, req RegisterRequest) (session.UserProfile, error)
}

// RegisterRequest is a new account.
type RegisterRequest struct {
	Email    string       `json:"email"`
	FullName string       `json:"fullName"`
	Role     session.Role `json:"role"`
	Password string       `json:"password"`
}

// EventRecorder receives auth lifecycle events, e.g. for metrics.
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// Event names passed to EventRecorder.
const (
	EventLogin    = "login"
	EventProfile  = "profile"
	EventLogout   = "logout"
	EventRegister = "register"
)

// Outcomes passed to EventRecorder.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDiscarded = "discarded"
)
