package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	apperrors "github.com/procurehub/ui-api/internal/errors"
	"github.com/procurehub/ui-api/internal/service"
)

// fakeAuthService is a func-field test double for AuthServiceInterface.
type fakeAuthService struct {
	beginFunc    func(ctx context.Context, redirectURL, limiterKey string) (*service.BeginLoginResult, error)
	completeFunc func(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	getFunc      func(ctx context.Context, sessionID string) (*domainauth.Session, error)
	logoutFunc   func(ctx context.Context, sessionID string) error
}

func (f *fakeAuthService) BeginLogin(ctx context.Context, redirectURL, limiterKey string) (*service.BeginLoginResult, error) {
	if f.beginFunc != nil {
		return f.beginFunc(ctx, redirectURL, limiterKey)
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example/auth", State: "state-1", Nonce: "nonce-1"}, nil
}

func (f *fakeAuthService) CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
	if f.completeFunc != nil {
		return f.completeFunc(ctx, input)
	}
	return &service.CompleteLoginResult{
		Session: domainauth.Session{
			ID:        "sess-1",
			UserID:    "user-1",
			Email:     "user@example.com",
			Role:      domainauth.RoleClient,
			ExpiresAt: time.Now().Add(time.Hour),
		},
	}, nil
}

func (f *fakeAuthService) GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error) {
	if f.getFunc != nil {
		return f.getFunc(ctx, sessionID)
	}
	return nil, errors.New("not found")
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionID string) error {
	if f.logoutFunc != nil {
		return f.logoutFunc(ctx, sessionID)
	}
	return nil
}

func cookieByName(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandlers_Login_RedirectsToProvider(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}
	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/dashboard", nil)
	rec := httptest.NewRecorder()

	h.Login(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "https://idp.example/auth", res.Header.Get("Location"))

	state := cookieByName(t, res, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, "state-1", state.Value)
	assert.True(t, state.HttpOnly)
	nonce := cookieByName(t, res, "oauth_nonce")
	require.NotNil(t, nonce)
	assert.Equal(t, "nonce-1", nonce.Value)
	redirect := cookieByName(t, res, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/dashboard", redirect.Value)
}

func TestAuthHandlers_Login_SanitizesRedirect(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}
	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=https://evil.example/phish", nil)
	rec := httptest.NewRecorder()

	h.Login(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	redirect := cookieByName(t, res, "post_login_redirect")
	require.NotNil(t, redirect)
	assert.Equal(t, "/", redirect.Value)
}

func TestAuthHandlers_Login_RateLimited(t *testing.T) {
	svc := &fakeAuthService{
		beginFunc: func(_ context.Context, _, _ string) (*service.BeginLoginResult, error) {
			return nil, apperrors.RateLimited("too many login attempts")
		},
	}
	h := &AuthHandlers{Svc: svc}
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate_limited")
}

func TestAuthHandlers_Login_PassesClientAddrToLimiter(t *testing.T) {
	var gotKey string
	svc := &fakeAuthService{
		beginFunc: func(_ context.Context, _, limiterKey string) (*service.BeginLoginResult, error) {
			gotKey = limiterKey
			return &service.BeginLoginResult{AuthURL: "https://idp.example/auth"}, nil
		},
	}
	h := &AuthHandlers{Svc: svc}
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rec := httptest.NewRecorder()

	h.Login(rec, req)

	assert.Equal(t, "203.0.113.7", gotKey)
}

func TestAuthHandlers_Callback_Success(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "nonce-1"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/vendor-dashboard"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/vendor-dashboard", res.Header.Get("Location"))

	sess := cookieByName(t, res, "session_id")
	require.NotNil(t, sess)
	assert.Equal(t, "sess-1", sess.Value)
	assert.True(t, sess.HttpOnly)

	// The one-shot OAuth cookies must be gone after the exchange.
	state := cookieByName(t, res, "oauth_state")
	require.NotNil(t, state)
	assert.Equal(t, -1, state.MaxAge)
}

func TestAuthHandlers_Callback_StateMismatch(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=tampered", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_state")
}

func TestAuthHandlers_Callback_MissingParams(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		errCode string
	}{
		{"missing code", "/auth/callback?state=state-1", "missing_code"},
		{"missing state", "/auth/callback?code=abc", "missing_state"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AuthHandlers{Svc: &fakeAuthService{}}
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()

			h.Callback(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.errCode)
		})
	}
}

func TestAuthHandlers_Callback_ExchangeFailure(t *testing.T) {
	svc := &fakeAuthService{
		completeFunc: func(_ context.Context, _ service.CompleteLoginInput) (*service.CompleteLoginResult, error) {
			return nil, apperrors.Unauthorized("token exchange failed")
		},
	}
	h := &AuthHandlers{Svc: svc}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	rec := httptest.NewRecorder()

	h.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlers_Logout_ClearsSessionCookie(t *testing.T) {
	var loggedOut string
	svc := &fakeAuthService{
		logoutFunc: func(_ context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := &AuthHandlers{Svc: svc}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)
	res := rec.Result()
	defer res.Body.Close()

	assert.Equal(t, "sess-1", loggedOut)
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/landing", res.Header.Get("Location"))

	sess := cookieByName(t, res, "session_id")
	require.NotNil(t, sess)
	assert.Equal(t, -1, sess.MaxAge)
}

func TestAuthHandlers_Logout_AJAXGetsJSON(t *testing.T) {
	h := &AuthHandlers{Svc: &fakeAuthService{}}
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/landing")
}

func TestAuthHandlers_Status(t *testing.T) {
	svc := &fakeAuthService{
		getFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			if sessionID != "sess-1" {
				return nil, errors.New("not found")
			}
			return &domainauth.Session{
				ID: "sess-1", UserID: "user-1", Email: "user@example.com",
				Role: domainauth.RoleVendor, ExpiresAt: time.Now().Add(time.Hour),
			}, nil
		},
	}
	h := &AuthHandlers{Svc: svc}

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
		rec := httptest.NewRecorder()

		h.Status(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":true`)
		assert.Contains(t, rec.Body.String(), `"role":"vendor"`)
	})

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		rec := httptest.NewRecorder()

		h.Status(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})

	t.Run("dead session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
		rec := httptest.NewRecorder()

		h.Status(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"authenticated":false`)
	})
}
