package httpx

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultCSRFCookieName is the cookie the SPA reads the token from.
	DefaultCSRFCookieName = "csrf_token"
	// DefaultCSRFHeaderName is the canonical form of the echo header.
	DefaultCSRFHeaderName = "X-Csrf-Token"
	// DefaultCSRFTokenLength is the token size in bytes before encoding.
	DefaultCSRFTokenLength = 32

	csrfCookieMaxAge = 3600 * 12
)

// CSRFConfig configures the double-submit cookie protection. Zero values fall
// back to the Default* constants.
type CSRFConfig struct {
	CookieName    string
	HeaderName    string
	FormFieldName string
	// CookieDomain scopes the cookie when the SPA and API live on different
	// subdomains of the same site.
	CookieDomain string
	TokenLength  int
}

// CSRFProtection guards state-changing requests (POST, PUT, PATCH, DELETE)
// with a double-submit cookie. The marketplace SPA reads the csrf_token
// cookie and echoes it in the X-Csrf-Token header; the logout form posts it
// as a csrf_token field instead. Safe methods pass through but still get a
// token issued so the first mutating request after a fresh page load works.
func CSRFProtection(cfg CSRFConfig) func(http.Handler) http.Handler {
	guard := csrfGuard{cfg: cfg}
	if guard.cfg.CookieName == "" {
		guard.cfg.CookieName = DefaultCSRFCookieName
	}
	if guard.cfg.HeaderName == "" {
		guard.cfg.HeaderName = DefaultCSRFHeaderName
	}
	if guard.cfg.FormFieldName == "" {
		guard.cfg.FormFieldName = DefaultCSRFCookieName
	}
	if guard.cfg.TokenLength == 0 {
		guard.cfg.TokenLength = DefaultCSRFTokenLength
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guard.serve(w, r, next)
		})
	}
}

type csrfGuard struct {
	cfg CSRFConfig
}

func (g csrfGuard) serve(w http.ResponseWriter, r *http.Request, next http.Handler) {
	token := g.tokenFromCookie(r)
	if token == "" {
		fresh, err := g.mintToken()
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusInternalServerError,
				ErrCode: "internal_error",
				Err:     errors.New("internal server error"),
			})
			return
		}
		token = fresh
		// Only a fresh token gets a Set-Cookie; re-issuing on every request
		// would race concurrent tabs.
		g.issueCookie(w, r, token)
	}

	r = r.WithContext(context.WithValue(r.Context(), csrfTokenKey{}, token))

	if mutatesState(r.Method) && !g.requestEchoesToken(r, token) {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "csrf_failed",
			Err:     errors.New("CSRF token validation failed"),
		})
		return
	}

	next.ServeHTTP(w, r)
}

// mutatesState reports whether the method needs the token echoed back.
// GET, HEAD, OPTIONS, and TRACE are exempt per RFC 9110 safe-method semantics.
func mutatesState(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	default:
		return true
	}
}

func (g csrfGuard) tokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(g.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// mintToken fails closed: a broken entropy source must never degrade into a
// predictable token.
func (g csrfGuard) mintToken() (string, error) {
	b := make([]byte, g.cfg.TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf token generation failed: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func (g csrfGuard) issueCookie(w http.ResponseWriter, r *http.Request, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   g.cfg.CookieDomain,
		HttpOnly: false, // the SPA must read it to echo it in the header
		Secure:   r.TLS != nil || forwardedHTTPS(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   csrfCookieMaxAge,
	})
}

// forwardedHTTPS reports whether a proxy terminated TLS in front of us.
// X-Forwarded-Proto may carry a comma-separated chain.
func forwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

// requestEchoesToken checks the header first (SPA requests), then the form
// field (the logout form). Comparisons are constant-time.
func (g csrfGuard) requestEchoesToken(r *http.Request, cookieToken string) bool {
	if cookieToken == "" {
		return false
	}

	if headerToken := r.Header.Get(g.cfg.HeaderName); headerToken != "" {
		return subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookieToken)) == 1
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return false
		}
		if formToken := r.FormValue(g.cfg.FormFieldName); formToken != "" {
			return subtle.ConstantTimeCompare([]byte(formToken), []byte(cookieToken)) == 1
		}
	}

	return false
}

type csrfTokenKey struct{}

// GetCSRFToken returns the token the middleware attached to the request
// context, or "" outside the middleware.
func GetCSRFToken(r *http.Request) string {
	if token, ok := r.Context().Value(csrfTokenKey{}).(string); ok {
		return token
	}
	return ""
}
