package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
)

func sessionAuthService(sessions map[string]*domainauth.Session) *fakeAuthService {
	return &fakeAuthService{
		getFunc: func(_ context.Context, sessionID string) (*domainauth.Session, error) {
			if s, ok := sessions[sessionID]; ok {
				return s, nil
			}
			return nil, http.ErrNoCookie
		},
	}
}

func echoSessionHandler(t *testing.T, want *domainauth.Session) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := GetSessionFromContext(r.Context())
		if want == nil {
			assert.Nil(t, got)
		} else {
			require.NotNil(t, got)
			assert.Equal(t, want.ID, got.ID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	sess := &domainauth.Session{ID: "sess-1", UserID: "user-1", Role: domainauth.RoleClient, ExpiresAt: time.Now().Add(time.Hour)}
	svc := sessionAuthService(map[string]*domainauth.Session{"sess-1": sess})

	t.Run("valid session", func(t *testing.T) {
		handler := RequireAuth(svc)(echoSessionHandler(t, sess))
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no cookie", func(t *testing.T) {
		handler := RequireAuth(svc)(echoSessionHandler(t, nil))
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication_required")
	})

	t.Run("unknown session", func(t *testing.T) {
		handler := RequireAuth(svc)(echoSessionHandler(t, nil))
		req := httptest.NewRequest(http.MethodGet, "/api/rfqs", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "bogus"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	sessions := map[string]*domainauth.Session{
		"client-sess": {ID: "client-sess", UserID: "c1", Role: domainauth.RoleClient, ExpiresAt: time.Now().Add(time.Hour)},
		"vendor-sess": {ID: "vendor-sess", UserID: "v1", Role: domainauth.RoleVendor, ExpiresAt: time.Now().Add(time.Hour)},
		"admin-sess":  {ID: "admin-sess", UserID: "a1", Role: domainauth.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)},
	}
	svc := sessionAuthService(sessions)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		allowed  []domainauth.Role
		cookie   string
		wantCode int
	}{
		{"admin allowed on admin route", []domainauth.Role{domainauth.RoleAdmin}, "admin-sess", http.StatusOK},
		{"client forbidden on admin route", []domainauth.Role{domainauth.RoleAdmin}, "client-sess", http.StatusForbidden},
		{"vendor forbidden on admin route", []domainauth.Role{domainauth.RoleAdmin}, "vendor-sess", http.StatusForbidden},
		{"admin not implied by client route", []domainauth.Role{domainauth.RoleClient}, "admin-sess", http.StatusForbidden},
		{"multi-role set", []domainauth.Role{domainauth.RoleClient, domainauth.RoleVendor}, "vendor-sess", http.StatusOK},
		{"anonymous", []domainauth.Role{domainauth.RoleAdmin}, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireRole(svc, tt.allowed...)(ok)
			req := httptest.NewRequest(http.MethodGet, "/api/admin/verifications", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session_id", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	sess := &domainauth.Session{ID: "sess-1", UserID: "user-1", Role: domainauth.RoleVendor, ExpiresAt: time.Now().Add(time.Hour)}
	svc := sessionAuthService(map[string]*domainauth.Session{"sess-1": sess})

	t.Run("with session", func(t *testing.T) {
		handler := OptionalAuth(svc)(echoSessionHandler(t, sess))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		handler := OptionalAuth(svc)(echoSessionHandler(t, nil))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"remote addr only", "198.51.100.4:51234", "", "198.51.100.4"},
		{"single forwarded hop", "10.0.0.1:80", "203.0.113.7", "203.0.113.7"},
		{"first hop of chain", "10.0.0.1:80", "203.0.113.7, 10.0.0.2, 10.0.0.3", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, clientAddr(req))
		})
	}
}

func TestSafeRedirectPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/dashboard", "/dashboard"},
		{"/rfqs?status=open", "/rfqs?status=open"},
		{"https://evil.example/", "/"},
		{"//evil.example/", "/"},
		{"dashboard", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeRedirectPath(tt.in), "input %q", tt.in)
	}
}
