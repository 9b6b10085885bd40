package access

import (
	"context"
	"log/slog"
	"sync"

	"github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/session"
)

// KYCReader is the redirect policy's view of client verification records.
// GetSubmission returns (nil, nil) when the user has never submitted.
type KYCReader interface {
	GetSubmission(ctx context.Context, userID string) (*model.VerificationSubmission, error)
}

// Navigator performs a replace-navigation: the current history entry is
// replaced, so Back never returns the user to a route they were bounced off.
type Navigator interface {
	NavigateReplace(path string)
}

// entry routes are the only places the policy redirects away from. A user
// already inside the app is never yanked to their landing page.
var entryRoutes = map[string]bool{
	RouteRoot:    true,
	RouteLanding: true,
	RouteSignIn:  true,
}

// RedirectPolicyOptions groups dependencies for NewRedirectPolicy.
type RedirectPolicyOptions struct {
	KYC    KYCReader
	Logger *slog.Logger // defaults to slog.Default()
}

// RedirectPolicy computes where a settled session lands when it arrives at an
// entry route. The authenticated branch is evaluated before the anonymous
// root rule, so a fast sign-in never flashes the public landing page.
//
// The KYC lookup runs at most once per settled session: the outcome is
// remembered per user and forgotten when a different user settles.
type RedirectPolicy struct {
	kyc    KYCReader
	logger *slog.Logger

	mu           sync.Mutex
	checkedUser  string
	checkedRoute string // "" means fall through to the role landing
	checked      bool
}

// NewRedirectPolicy constructs a RedirectPolicy.
func NewRedirectPolicy(opts RedirectPolicyOptions) *RedirectPolicy {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedirectPolicy{kyc: opts.KYC, logger: logger.With("component", "redirect_policy")}
}

// Destination returns the route the session should land on and whether a
// navigation is needed. No navigation is ever produced for unsettled states,
// for non-entry paths, or when the session is already where it belongs.
func (p *RedirectPolicy) Destination(ctx context.Context, state session.State, currentPath string) (string, bool) {
	if !state.Settled() || !entryRoutes[currentPath] {
		return "", false
	}

	var dest string
	switch {
	case state.Authenticated() && state.Profile != nil:
		dest = p.authenticatedDestination(ctx, state)
	case state.Authenticated():
		// Signed in but profile unresolved: no role to land on, stay put.
		return "", false
	case currentPath == RouteRoot:
		dest = RouteLanding
	default:
		return "", false
	}

	if dest == "" || dest == currentPath {
		return "", false
	}
	return dest, true
}

// Apply computes the destination and performs the replace-navigation when one
// is needed. It reports whether a navigation happened.
func (p *RedirectPolicy) Apply(ctx context.Context, state session.State, currentPath string, nav Navigator) bool {
	dest, ok := p.Destination(ctx, state, currentPath)
	if !ok {
		return false
	}
	nav.NavigateReplace(dest)
	return true
}

// Forget drops the remembered outcome for userID so the next entry-route
// pass re-reads the verification record. Called when a new submission or a
// review decision changes the user's standing.
func (p *RedirectPolicy) Forget(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.checkedUser == userID {
		p.checked = false
		p.checkedUser = ""
		p.checkedRoute = ""
	}
}

func (p *RedirectPolicy) authenticatedDestination(ctx context.Context, state session.State) string {
	role := state.Profile.Role
	if role == auth.RoleClient {
		if route := p.clientVerificationRoute(ctx, state.UserID); route != "" {
			return route
		}
	}
	return LandingRoute(role)
}

// clientVerificationRoute returns the KYC route a client must visit, or ""
// when verification does not block landing. The underlying lookup runs once
// per user; a lookup failure logs and falls through to the role landing
// rather than trapping the user on a verification page.
func (p *RedirectPolicy) clientVerificationRoute(ctx context.Context, userID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.checked && p.checkedUser == userID {
		return p.checkedRoute
	}

	route := ""
	sub, err := p.kyc.GetSubmission(ctx, userID)
	switch {
	case err != nil:
		p.logger.ErrorContext(ctx, "kyc lookup failed, landing without verification redirect",
			"user_id", userID, "err", err)
	case sub == nil:
		route = RouteKYCIntake
	case sub.Status == auth.VerificationRejected:
		route = RouteKYCResubmit
	}

	p.checked = true
	p.checkedUser = userID
	p.checkedRoute = route
	return route
}
