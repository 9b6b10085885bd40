package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/procurehub/ui-api/internal/domain/access"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/ports"
	"github.com/procurehub/ui-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth          *service.AuthService
	Verifications *service.VerificationService
	RFQs          *service.RFQService
	Bids          *service.BidService
	Audit         *service.AuditService
	SessionHub    *service.SessionEventHub
	Profiles      ports.ProfileStore

	CookieDomain  string
	LookupTimeout time.Duration
	Logger        *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       services.Logger,
	}
	// One policy for the whole router, so the per-user KYC outcome survives
	// across entry-route requests. Verification handlers invalidate it when
	// a user's standing changes.
	policy := access.NewRedirectPolicy(access.RedirectPolicyOptions{
		KYC:    services.Verifications,
		Logger: services.Logger,
	})
	accessHandlers := &AccessHandlers{
		Auth:          services.Auth,
		Profiles:      services.Profiles,
		KYC:           services.Verifications,
		Policy:        policy,
		Audit:         services.Audit,
		Hub:           services.SessionHub,
		LookupTimeout: services.LookupTimeout,
		Logger:        services.Logger,
	}

	registerAuthRoutes(mux, authHandlers)
	registerAccessRoutes(mux, accessHandlers)
	registerVerificationRoutes(mux, &VerificationHandlers{Svc: services.Verifications, Policy: policy}, services.Auth)
	registerRFQRoutes(mux, &RFQHandlers{Svc: services.RFQs}, services.Auth)
	registerBidRoutes(mux, &BidHandlers{Svc: services.Bids}, services.Auth)
	registerAuditRoutes(mux, &AuditHandlers{Svc: services.Audit}, services.Auth)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /", http.HandlerFunc(accessHandlers.Root))

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	csrf := CSRFProtection(CSRFConfig{CookieDomain: services.CookieDomain})
	var handler http.Handler = csrf(mux)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerAccessRoutes(mux *http.ServeMux, h *AccessHandlers) {
	mux.HandleFunc("GET /api/access/state", h.State)
	mux.HandleFunc("POST /api/access/decide", h.Decide)
	mux.HandleFunc("GET /api/session/stream", h.Stream)
}

func registerVerificationRoutes(mux *http.ServeMux, h *VerificationHandlers, auth *service.AuthService) {
	authed := wrapWith(RequireAuth(auth))
	adminOnly := wrapWith(RequireRole(auth, domainauth.RoleAdmin))

	mux.Handle("POST /api/verification", authed(h.Submit))
	mux.Handle("GET /api/verification/me", authed(h.Mine))
	mux.Handle("GET /api/admin/verifications", adminOnly(h.List))
	mux.Handle("POST /api/admin/verifications/{id}/review", adminOnly(h.Review))
}

func registerRFQRoutes(mux *http.ServeMux, h *RFQHandlers, auth *service.AuthService) {
	authed := wrapWith(RequireAuth(auth))
	adminOnly := wrapWith(RequireRole(auth, domainauth.RoleAdmin))

	mux.Handle("POST /api/rfqs", authed(h.Create))
	mux.Handle("GET /api/rfqs", authed(h.List))
	mux.Handle("GET /api/rfqs/{id}", authed(h.GetByID))
	mux.Handle("POST /api/rfqs/{id}/close", authed(h.Close))
	mux.Handle("POST /api/rfqs/{id}/award", authed(h.Award))
	mux.Handle("GET /api/admin/rfqs/status-counts", adminOnly(h.StatusCounts))
}

func registerBidRoutes(mux *http.ServeMux, h *BidHandlers, auth *service.AuthService) {
	authed := wrapWith(RequireAuth(auth))

	mux.Handle("POST /api/rfqs/{id}/bids", authed(h.Place))
	mux.Handle("GET /api/rfqs/{id}/bids", authed(h.ListForRFQ))
	mux.Handle("GET /api/bids/mine", authed(h.ListMine))
	mux.Handle("POST /api/bids/{id}/withdraw", authed(h.Withdraw))
}

func registerAuditRoutes(mux *http.ServeMux, h *AuditHandlers, auth *service.AuthService) {
	adminOnly := wrapWith(RequireRole(auth, domainauth.RoleAdmin))
	mux.Handle("GET /api/admin/access-events", adminOnly(h.List))
}

// wrapWith applies a middleware to a handler func, tolerating a nil
// middleware during tests that exercise handlers directly.
func wrapWith(mw func(http.Handler) http.Handler) func(http.HandlerFunc) http.Handler {
	return func(h http.HandlerFunc) http.Handler {
		if mw == nil {
			return h
		}
		return mw(h)
	}
}
