package ports

// Package ports defines interfaces (hexagonal ports) for auth and profile
// behavior. Implementations live in internal/adapters and internal/data;
// orchestration in internal/service.

import (
	"context"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to marketplace roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// ProfileStore persists marketplace profiles keyed by IdP user ID.
type ProfileStore interface {
	// Upsert creates the profile on first login and refreshes mutable fields
	// (email, display name, role) on subsequent logins. Verification status
	// is never touched by upserts.
	Upsert(ctx context.Context, profile domainauth.Profile) (*domainauth.Profile, error)

	// Get returns the profile for userID, or (nil, nil) when none exists.
	Get(ctx context.Context, userID string) (*domainauth.Profile, error)

	// SetVerificationStatus records the outcome of a verification review.
	SetVerificationStatus(ctx context.Context, userID string, status domainauth.VerificationStatus) error
}

// LoginLimiter throttles login attempts per client key (identifier + address).
type LoginLimiter interface {
	// Allow records an attempt and reports whether it is within the limit.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, key string) error
}
