// Package session holds the process-wide authentication state: the access
// token (read through the credential store) and the loaded user profile.
//
// State has exactly three mutators (SetToken, SetProfile, Clear). Every
// other fact, such as role or identity, is derived on read.
package session

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/felixgeelhaar/docreview/internal/credstore"
)

// Role is the coarse authorization tag attached to a user.
type Role string

const (
	RoleUser     Role = "USER"
	RoleReviewer Role = "REVIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleReviewer
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// UserProfile is the profile returned by the current-user endpoint.
type UserProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

// Snapshot is a consistent copy of every session fact taken under one lock.
type Snapshot struct {
	Token  string
	User   *UserProfile
	Loaded bool
}

// Authenticated reports whether the snapshot holds a token.
func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

// Role returns the loaded user's role.
func (s Snapshot) Role() (Role, bool) {
	if s.User == nil {
		return "", false
	}
	return s.User.Role, true
}

// UserID returns the loaded user's id.
func (s Snapshot) UserID() (string, bool) {
	if s.User == nil {
		return "", false
	}
	return s.User.ID, true
}

// Listener receives a snapshot after every committed change.
type Listener func(Snapshot)

// State owns the session. Create one per process with New.
type State struct {
	store credstore.Store

	mu     sync.RWMutex
	user   *UserProfile
	loaded bool

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// New creates an empty session over store. A token already present in the
// store counts as authenticated; the profile always starts unloaded.
func New(store credstore.Store) *State {
	return &State{
		store:     store,
		listeners: make(map[int]Listener),
	}
}

// SetToken stores the access token.
func (s *State) SetToken(token string) {
	s.mu.Lock()
	s.store.Set(credstore.KeyToken, token)
	s.mu.Unlock()

	s.notify()
}

// Token returns the stored access token.
func (s *State) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token()
}

func (s *State) token() (string, bool) {
	t, ok := s.store.Get(credstore.KeyToken)
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// SetProfile records the loaded profile and marks the session loaded.
func (s *State) SetProfile(u UserProfile) {
	s.mu.Lock()
	profile := u
	s.user = &profile
	s.loaded = true
	if data, err := json.Marshal(profile); err == nil {
		s.store.Set(credstore.KeyProfile, string(data))
	}
	s.mu.Unlock()

	s.notify()
}

// Clear drops the token and profile and removes both stored entries.
// Calling Clear on an empty session is a no-op apart from notification.
func (s *State) Clear() {
	s.mu.Lock()
	s.user = nil
	s.loaded = false
	s.store.Remove(credstore.KeyToken)
	s.store.Remove(credstore.KeyProfile)
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns all session facts read under a single lock.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Loaded: s.loaded}
	snap.Token, _ = s.token()
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// Role returns the loaded user's role.
func (s *State) Role() (Role, bool) {
	return s.Snapshot().Role()
}

// ID returns the loaded user's id.
func (s *State) ID() (string, bool) {
	return s.Snapshot().UserID()
}

// Email returns the loaded user's email.
func (s *State) Email() (string, bool) {
	snap := s.Snapshot()
	if snap.User == nil {
		return "", false
	}
	return snap.User.Email, true
}

// IsAuthenticated reports whether a token is present.
func (s *State) IsAuthenticated() bool {
	_, ok := s.Token()
	return ok
}

// IsLoaded reports whether the profile has been loaded.
func (s *State) IsLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// CachedProfile returns the profile persisted by an earlier SetProfile.
// It is for display only and never feeds authorization decisions.
func (s *State) CachedProfile() (UserProfile, bool) {
	raw, ok := s.store.Get(credstore.KeyProfile)
	if !ok {
		return UserProfile{}, false
	}
	var u UserProfile
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return UserProfile{}, false
	}
	return u, true
}

// Subscribe registers fn to be called after every change. The returned
// function unregisters it.
func (s *State) Subscribe(fn Listener) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *State) notify() {
	s.listenersMu.Lock()
	fns := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}
