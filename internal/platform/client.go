// Package platform is the HTTP client of the document review API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/log"
)

// DefaultTimeout bounds every request unless the config says otherwise.
const DefaultTimeout = 30 * time.Second

// Client is the document review API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	userAgent  string
}

// NewClient creates a new API client. The bearer token is attached by the
// transport of httpClient, see NewTransport.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("component", "api"),
	}
}

// WithUserAgent sets the User-Agent header of every request.
func (c *Client) WithUserAgent(ua string) *Client {
	c.userAgent = ua
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doJSON performs a request with an optional JSON body and decodes the
// response into target when it is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, target any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := c.newRequest(ctx, method, path, query, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, target)
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, target any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		netErr := errors.NewNetworkError(err)
		if IsCircuitOpen(err) {
			netErr.WithSuggestion("The API is failing repeatedly; the service is unavailable, retry later")
		}
		return netErr
	}
	c.logger.Debug("request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return parseResponse(req, resp, target)
}

// ErrorResponse is the API's error body. Message is a string or a list of
// validation messages.
type ErrorResponse struct {
	StatusCode int             `json:"statusCode"`
	Error      string          `json:"error"`
	Message    json.RawMessage `json:"message"`
}

// Text returns the most specific message in the body.
func (e ErrorResponse) Text() string {
	var single string
	if err := json.Unmarshal(e.Message, &single); err == nil && single != "" {
		return single
	}
	var many []string
	if err := json.Unmarshal(e.Message, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return e.Error
}

// parseResponse maps non-2xx responses to coded errors and decodes the rest
// into target.
func parseResponse(req *http.Request, resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

		msg := strings.TrimSpace(string(body))
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			if text := errResp.Text(); text != "" {
				msg = text
			}
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		cause := fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, msg)

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			if strings.HasSuffix(req.URL.Path, pathLogin) {
				return errors.NewUnauthorizedError(cause)
			}
			return errors.Wrap(errors.ErrCodeUnauthorized, "the API rejected the session token", cause).
				WithSuggestion("Run 'docreview auth login' to start a new session")
		case http.StatusForbidden:
			return errors.Wrap(errors.ErrCodeForbidden, msg, cause)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return errors.Wrap(errors.ErrCodeValidation, msg, cause)
		case http.StatusNotFound:
			return errors.Wrap(errors.ErrCodeNotFound, "not found", cause)
		default:
			return errors.Wrap(errors.ErrCodeAPI, "unexpected API response", cause)
		}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return errors.Wrap(errors.ErrCodeAPI, "failed to decode response", err)
		}
	}
	return nil
}
