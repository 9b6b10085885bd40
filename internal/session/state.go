// Package session derives a single consistent view of "who is signed in and
// what is their profile" from two asynchronous capabilities: an identity
// source (the auth layer) and a profile source (the marketplace data layer).
// Consumers read snapshots or subscribe to changes; they never talk to the
// sources directly.
package session

import "github.com/procurehub/ui-api/internal/domain/auth"

// Status is the authentication status of the resolved state.
type Status string

const (
	// StatusAnonymous means no identity is present, or identity lookup failed.
	StatusAnonymous Status = "anonymous"
	// StatusLoading means a lookup is outstanding; consumers must not make
	// access decisions against a loading state.
	StatusLoading Status = "loading"
	// StatusAuthenticated means an identity resolved. Profile may still be
	// nil when the profile lookup failed or no profile row exists yet.
	StatusAuthenticated Status = "authenticated"
)

// State is an immutable snapshot of the resolved session.
type State struct {
	Status  Status        `json:"status"`
	UserID  string        `json:"user_id,omitempty"`
	Profile *auth.Profile `json:"profile,omitempty"`
}

// Settled reports whether the state is safe to make decisions against.
func (s State) Settled() bool { return s.Status != StatusLoading }

// Authenticated reports whether an identity resolved for this state.
func (s State) Authenticated() bool { return s.Status == StatusAuthenticated }

// Role returns the profile role, or ok=false for anonymous, loading and
// profile-less states. A missing profile never defaults to a role.
func (s State) Role() (auth.Role, bool) {
	if s.Status != StatusAuthenticated || s.Profile == nil {
		return "", false
	}
	return s.Profile.Role, true
}

// Anonymous is the canonical signed-out state.
func Anonymous() State { return State{Status: StatusAnonymous} }

// Loading is the canonical in-flight state.
func Loading() State { return State{Status: StatusLoading} }

// Authenticated builds a settled signed-in state. Profile may be nil.
func Authenticated(userID string, profile *auth.Profile) State {
	return State{Status: StatusAuthenticated, UserID: userID, Profile: profile}
}
