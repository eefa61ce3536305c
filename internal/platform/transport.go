package platform

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/docreview/internal/log"
)

// TokenSource yields the current access token, if any. *session.State
// satisfies it.
type TokenSource interface {
	Token() (string, bool)
}

// bearerTransport attaches the session token to every request.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

// NewBearerTransport returns a RoundTripper that sets
// "Authorization: Bearer <token>" when tokens holds a token and leaves the
// request untouched otherwise.
func NewBearerTransport(base http.RoundTripper, tokens TokenSource) http.RoundTripper {
	return &bearerTransport{base: base, tokens: tokens}
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.tokens.Token()
	if !ok {
		return t.base.RoundTrip(req)
	}
	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	(&oauth2.Token{AccessToken: token}).SetAuthHeader(r)
	return t.base.RoundTrip(r)
}

type rateLimitTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitTransport delays requests to at most limit per second with the
// given burst.
func NewRateLimitTransport(base http.RoundTripper, limit float64, burst int) http.RoundTripper {
	if burst < 1 {
		burst = 1
	}
	return &rateLimitTransport{base: base, limiter: rate.NewLimiter(rate.Limit(limit), burst)}
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return t.base.RoundTrip(req)
}

// errServerFailure marks a 5xx response as a breaker failure. It never
// leaves breakerTransport.
var errServerFailure = stderrors.New("server error")

type breakerTransport struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker[*http.Response]
}

// BreakerSettings configures NewBreakerTransport.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// NewBreakerTransport fails fast while the API keeps failing. Transport
// errors and 5xx responses count as failures. Requests are never retried.
func NewBreakerTransport(base http.RoundTripper, s BreakerSettings, logger *log.Logger) http.RoundTripper {
	if s.Failures == 0 {
		s.Failures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}

	settings := gobreaker.Settings{
		Name:        "document-api",
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.Failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerTransport{base: base, cb: gobreaker.NewCircuitBreaker[*http.Response](settings)}
}

func (t *breakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.cb.Execute(func() (*http.Response, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFailure
		}
		return resp, nil
	})
	if stderrors.Is(err, errServerFailure) {
		return resp, nil
	}
	return resp, err
}

// IsCircuitOpen reports whether err came from an open breaker.
func IsCircuitOpen(err error) bool {
	return stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests)
}

// TransportConfig selects the decorators NewTransport installs.
type TransportConfig struct {
	// RateLimit in requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	Breaker         bool
	BreakerSettings BreakerSettings

	// Instrument wraps the chain below the bearer decorator, e.g. with
	// metrics.
	Instrument func(http.RoundTripper) http.RoundTripper
}

// NewTransport builds the client transport chain. Outermost first: bearer,
// instrumentation, rate limit, circuit breaker, base.
func NewTransport(base http.RoundTripper, cfg TransportConfig, tokens TokenSource, logger *log.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	rt := base
	if cfg.Breaker {
		rt = NewBreakerTransport(rt, cfg.BreakerSettings, logger)
	}
	if cfg.RateLimit > 0 {
		rt = NewRateLimitTransport(rt, cfg.RateLimit, cfg.Burst)
	}
	if cfg.Instrument != nil {
		rt = cfg.Instrument(rt)
	}
	return NewBearerTransport(rt, tokens)
}
