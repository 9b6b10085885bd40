package httpx

// Cookie names shared by the auth handlers and middleware.
const (
	sessionCookieName       = "session_id"
	oauthStateCookieName    = "oauth_state"
	oauthNonceCookieName    = "oauth_nonce"
	postLoginRedirectCookie = "post_login_redirect"
)

// oauthCookieMaxAge bounds how long the in-flight login cookies live.
const oauthCookieMaxAge = 600 // 10 minutes

// Default paging for list endpoints; individual handlers may override.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)
