package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	apperrors "github.com/procurehub/ui-api/internal/errors"
	"github.com/procurehub/ui-api/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	Profiles ports.ProfileStore
	Limiter  ports.LoginLimiter // optional; nil disables throttling
	Events   *SessionEventHub   // optional; nil disables sign-in/out fan-out
}

// AuthService orchestrates authentication flows by coordinating provider,
// role mapping, session persistence, and profile upkeep.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	roles    ports.RoleMapper
	profiles ports.ProfileStore
	limiter  ports.LoginLimiter
	events   *SessionEventHub
}

var errSessionExpired = errors.New("session expired")

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		profiles: opts.Profiles,
		limiter:  opts.Limiter,
		events:   opts.Events,
	}
}

// BeginLoginResult contains the result of beginning a login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin initiates an authentication flow and returns the provider auth
// URL with state and nonce. limiterKey identifies the caller (remote address)
// for attempt throttling; empty disables the check.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL, limiterKey string) (*BeginLoginResult, error) {
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}

	if s.limiter != nil && limiterKey != "" {
		ok, err := s.limiter.Allow(ctx, limiterKey)
		if err != nil {
			return nil, fmt.Errorf("check login limit: %w", err)
		}
		if !ok {
			return nil, apperrors.RateLimited("Too many login attempts. Please try again later.")
		}
	}

	input := ports.BeginInput{RedirectURL: redirectURL}
	authURL, state, nonce, err := s.provider.Begin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}

	return &BeginLoginResult{
		AuthURL: authURL,
		State:   state,
		Nonce:   nonce,
	}, nil
}

// CompleteLoginInput groups parameters for completing a login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
	// LimiterKey matches the key used in BeginLogin; reset on success.
	LimiterKey string
}

// CompleteLoginResult contains the result of completing a login flow.
type CompleteLoginResult struct {
	Session domainauth.Session
	Profile *domainauth.Profile
}

// CompleteLogin completes an authentication flow by exchanging the code for
// an identity, mapping roles, upserting the marketplace profile, and
// persisting a session.
func (s *AuthService) CompleteLogin(ctx context.Context, input CompleteLoginInput) (*CompleteLoginResult, error) {
	if input.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if input.State == "" {
		return nil, errors.New("state parameter is required")
	}
	if input.Nonce == "" {
		return nil, errors.New("nonce parameter is required")
	}

	exchangeInput := ports.ExchangeInput{
		Code:  input.Code,
		State: input.State,
		Nonce: input.Nonce,
	}
	identity, err := s.provider.Exchange(ctx, exchangeInput)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	role := s.roles.Map(identity.Groups)

	// First login creates the profile; later logins refresh identity fields
	// without touching verification state.
	var profile *domainauth.Profile
	if s.profiles != nil {
		profile, err = s.profiles.Upsert(ctx, domainauth.Profile{
			UserID:      identity.UserID,
			Email:       identity.Email,
			DisplayName: displayName(identity),
			Role:        role,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert profile: %w", err)
		}
	}

	session := domainauth.Session{
		ID:        generateSessionID(),
		UserID:    identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      role,
		ExpiresAt: identity.ExpiresAt,
	}

	if saveErr := s.sessions.Save(ctx, session); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	if s.limiter != nil && input.LimiterKey != "" {
		// Reset is best-effort; a failed reset only means earlier attempts
		// still count toward the window.
		_ = s.limiter.Reset(ctx, input.LimiterKey)
	}

	if s.events != nil {
		s.events.SignedIn(identity)
	}

	return &CompleteLoginResult{
		Session: session,
		Profile: profile,
	}, nil
}

// GetSession retrieves a session by ID.
func (s *AuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if sessionID == "" {
		return nil, errors.New("session ID is required")
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	// Check if session is expired
	if time.Now().After(session.ExpiresAt) {
		if deleteErr := s.sessions.Delete(ctx, sessionID); deleteErr != nil {
			return nil, errors.Join(errSessionExpired, fmt.Errorf("delete session: %w", deleteErr))
		}
		return nil, errSessionExpired
	}

	return &session, nil
}

// Logout removes a session and announces the sign-out to session watchers.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to logout
	}

	// Look up the user before deleting so watchers can be told who left.
	var userID string
	if sess, err := s.sessions.Get(ctx, sessionID); err == nil {
		userID = sess.UserID
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if s.events != nil && userID != "" {
		s.events.SignedOut(userID)
	}

	return nil
}

// IsSessionExpired reports whether err is the expired-session sentinel.
func IsSessionExpired(err error) bool {
	return errors.Is(err, errSessionExpired)
}

func displayName(id domainauth.Identity) string {
	switch {
	case id.FirstName != "" && id.LastName != "":
		return id.FirstName + " " + id.LastName
	case id.FirstName != "":
		return id.FirstName
	case id.LastName != "":
		return id.LastName
	default:
		return id.Email
	}
}

// generateSessionID creates a cryptographically secure random session ID.
func generateSessionID() string {
	// Use UUID for session ID - it's URL-safe and has good entropy
	id := uuid.New()
	return id.String()
}
