package platform

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/docreview/internal/auth"
	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/session"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, pathLogin, nil, LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", errors.New(errors.ErrCodeAPI, "login response carried no access token")
	}
	return resp.AccessToken, nil
}

// CurrentUser retrieves the profile of the token holder.
func (c *Client) CurrentUser(ctx context.Context) (session.UserProfile, error) {
	var user session.UserProfile
	if err := c.doJSON(ctx, http.MethodGet, pathUser, nil, nil, &user); err != nil {
		return session.UserProfile{}, err
	}
	return user, nil
}

// Register creates a new user account. It does not log in.
func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (session.UserProfile, error) {
	var user session.UserProfile
	if err := c.doJSON(ctx, http.MethodPost, pathRegister, nil, req, &user); err != nil {
		return session.UserProfile{}, err
	}
	return user, nil
}

var _ auth.API = (*Client)(nil)
