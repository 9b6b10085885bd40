package config

import "time"

// LoginRateLimitConfig controls login attempt throttling.
type LoginRateLimitConfig struct {
	// MaxAttempts is the number of login starts allowed per key per window.
	MaxAttempts int `env:"LOGIN_RATE_LIMIT_MAX_ATTEMPTS" envDefault:"10"`

	// Window is the fixed counting window.
	Window time.Duration `env:"LOGIN_RATE_LIMIT_WINDOW" envDefault:"5m"`
}

// Sanitize applies guardrails to rate limit configuration values.
func (l *LoginRateLimitConfig) Sanitize() {
	if l.MaxAttempts < 1 {
		l.MaxAttempts = 1
	}
	if l.Window < time.Second {
		l.Window = time.Second
	}
}

// SessionConfig contains session resolution configuration.
type SessionConfig struct {
	// LookupTimeout bounds each identity and profile lookup issued while
	// resolving session state.
	LookupTimeout time.Duration `env:"SESSION_LOOKUP_TIMEOUT" envDefault:"5s"`

	// RateLimit throttles login starts per client address.
	RateLimit LoginRateLimitConfig
}

// Sanitize applies guardrails to session configuration values.
func (s *SessionConfig) Sanitize() {
	if s.LookupTimeout <= 0 {
		s.LookupTimeout = 5 * time.Second
	}
	s.RateLimit.Sanitize()
}
