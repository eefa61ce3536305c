package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/felixgeelhaar/docreview/internal/errors"
	"github.com/felixgeelhaar/docreview/internal/log"
	"github.com/felixgeelhaar/docreview/internal/session"
	"github.com/felixgeelhaar/docreview/internal/telemetry"
)

// ReadyFunc is called once a profile has been committed to the session.
type ReadyFunc func(session.UserProfile)

// Loader is the only writer of the session.
//
// Every profile fetch takes a sequence stamp. A response is committed only
// if no newer fetch, login or logout happened since the request was issued,
// so an in-flight fetch can never resurrect a profile after logout.
type Loader struct {
	api      API
	session  *session.State
	nav      Navigator
	logger   *log.Logger
	recorder EventRecorder

	// mu orders stamp checks against session writes. Session listeners run
	// while it is held and must not call back into the Loader.
	mu    sync.Mutex
	seq   uint64
	ready []ReadyFunc
}

// NewLoader creates a Loader. A nil nav discards navigation intents.
func NewLoader(api API, state *session.State, nav Navigator, logger *log.Logger) *Loader {
	if nav == nil {
		nav = NopNavigator()
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Loader{
		api:     api,
		session: state,
		nav:     nav,
		logger:  logger.With("service", "auth"),
	}
}

// WithRecorder attaches an EventRecorder.
func (l *Loader) WithRecorder(r EventRecorder) *Loader {
	l.recorder = r
	return l
}

// OnReady registers fn to run after every committed profile.
func (l *Loader) OnReady(fn ReadyFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready = append(l.ready, fn)
}

// Login exchanges credentials for a token, stores it and loads the profile.
//
// A rejected login leaves the session untouched. A nil return only means
// the token was stored: a failed profile fetch is logged, keeps the token
// and is not reported here. Check Session.IsLoaded or use OnReady.
func (l *Loader) Login(ctx context.Context, email, password string) error {
	ctx, span := telemetry.StartOperationSpan(ctx, "auth.login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		err := errors.NewValidationError("email and password are required")
		telemetry.RecordError(span, err)
		return err
	}

	token, err := l.api.Login(ctx, email, password)
	if err != nil {
		telemetry.RecordError(span, err)
		l.record(EventLogin, OutcomeFailure)
		l.logger.WithError(err).Warn("login failed", "email", email)
		return err
	}

	l.mu.Lock()
	l.seq++
	l.session.SetToken(token)
	l.mu.Unlock()

	l.record(EventLogin, OutcomeSuccess)
	l.logger.Info("login succeeded", "email", email)
	telemetry.RecordSuccess(span)

	// A fetch failure is logged by FetchProfile and keeps the token.
	_ = l.FetchProfile(ctx)
	return nil
}

// FetchProfile loads the token holder's profile into the session.
//
// On failure the token is kept and a ProfileFetchFailed error returned. A
// response overtaken by a newer fetch, login or logout is discarded and
// nil returned.
func (l *Loader) FetchProfile(ctx context.Context) error {
	ctx, span := telemetry.StartOperationSpan(ctx, "auth.fetch_profile")
	defer span.End()

	l.mu.Lock()
	if !l.session.IsAuthenticated() {
		l.mu.Unlock()
		err := errors.NewNotAuthenticatedError()
		telemetry.RecordError(span, err)
		return err
	}
	l.seq++
	stamp := l.seq
	l.mu.Unlock()

	user, err := l.api.CurrentUser(ctx)

	l.mu.Lock()
	if stamp != l.seq {
		l.mu.Unlock()
		l.record(EventProfile, OutcomeDiscarded)
		l.logger.Debug("discarding stale profile response", "stamp", stamp)
		return nil
	}
	if err != nil {
		l.mu.Unlock()
		fetchErr := errors.NewProfileFetchError(err)
		telemetry.RecordError(span, fetchErr)
		l.record(EventProfile, OutcomeFailure)
		l.logger.WithError(fetchErr).Error("error fetching profile")
		return fetchErr
	}
	if !user.Role.Valid() {
		l.mu.Unlock()
		fetchErr := errors.NewProfileFetchError(errors.NewValidationError("profile has unknown role " + string(user.Role)))
		telemetry.RecordError(span, fetchErr)
		l.record(EventProfile, OutcomeFailure)
		l.logger.WithError(fetchErr).Error("error fetching profile")
		return fetchErr
	}
	l.session.SetProfile(user)
	ready := append([]ReadyFunc(nil), l.ready...)
	l.mu.Unlock()

	telemetry.RecordSuccess(span)
	l.record(EventProfile, OutcomeSuccess)
	l.logger.Info("profile loaded", "user_id", user.ID, "role", string(user.Role))

	for _, fn := range ready {
		fn(user)
	}
	l.nav.Navigate(RouteDocuments)
	return nil
}

// Logout clears the session and redirects to the login view. Any profile
// fetch still in flight is discarded when it returns.
func (l *Loader) Logout() {
	l.mu.Lock()
	l.seq++
	l.session.Clear()
	l.mu.Unlock()

	l.record(EventLogout, OutcomeSuccess)
	l.logger.Info("logged out")
	l.nav.Navigate(RouteLogin)
}

// Restore reloads the profile for a persisted token. It is a no-op without
// a token or when a profile is already loaded.
func (l *Loader) Restore(ctx context.Context) error {
	if !l.session.IsAuthenticated() || l.session.IsLoaded() {
		return nil
	}
	return l.FetchProfile(ctx)
}

// Register creates an account. The session is not touched.
func (l *Loader) Register(ctx context.Context, req RegisterRequest) (session.UserProfile, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" || req.Password == "" {
		return session.UserProfile{}, errors.NewValidationError("email, full name and password are required")
	}
	if req.Role == "" {
		req.Role = session.RoleUser
	}
	if !req.Role.Valid() {
		return session.UserProfile{}, errors.NewValidationError("role must be USER or REVIEWER")
	}

	user, err := l.api.Register(ctx, req)
	if err != nil {
		l.record(EventRegister, OutcomeFailure)
		l.logger.WithError(err).Warn("registration failed", "email", req.Email)
		return session.UserProfile{}, err
	}
	l.record(EventRegister, OutcomeSuccess)
	l.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (l *Loader) record(event, outcome string) {
	if l.recorder != nil {
		l.recorder.RecordAuthEvent(event, outcome)
	}
}
