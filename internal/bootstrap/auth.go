package bootstrap

import (
	"log/slog"

	"github.com/procurehub/ui-api/config"
	"github.com/procurehub/ui-api/internal/adapters/authroles"
	"github.com/procurehub/ui-api/internal/adapters/devauth"
	"github.com/procurehub/ui-api/internal/adapters/oidc"
	redisadapter "github.com/procurehub/ui-api/internal/adapters/redis"
	"github.com/procurehub/ui-api/internal/ports"
	"github.com/procurehub/ui-api/internal/service"
	"github.com/redis/go-redis/v9"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	Session     config.SessionConfig
	RedisClient redis.UniversalClient
	Profiles    ports.ProfileStore
	Events      *service.SessionEventHub
	Logger      *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
// Returns nil if auth is not configured or configuration is invalid.
func BuildAuthService(cfg AuthConfig) *service.AuthService {
	if cfg.RedisClient == nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("auth service disabled: redis client not configured", "mode", cfg.Auth.Mode)
		}
		return nil
	}

	// Redis session store and login limiter shared by both modes
	sessionStore := redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, "session:")
	limiter := redisadapter.NewLoginLimiter(redisadapter.LoginLimiterOptions{
		Client:      cfg.RedisClient,
		MaxAttempts: cfg.Session.RateLimit.MaxAttempts,
		Window:      cfg.Session.RateLimit.Window,
	})

	// Role mapper is shared
	roleMapper := authroles.StaticRoleMapper{
		AdminGroup:  cfg.Auth.AdminGroup,
		VendorGroup: cfg.Auth.VendorGroup,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		return buildDevAuthService(cfg, sessionStore, limiter, roleMapper)

	case config.AuthModeOAuth:
		return buildOAuthService(cfg, sessionStore, limiter, roleMapper)

	default:
		return nil
	}
}

func buildDevAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	limiter ports.LoginLimiter,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Explicitly enabled dev auth mode; build a local provider.
	prov, err := devauth.NewProvider(devauth.Config{
		UserID: cfg.Auth.DevAuth.UserID,
		Email:  cfg.Auth.DevAuth.Email,
		Groups: cfg.Auth.DevAuth.Groups,
		// session duration defaults inside provider
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create dev auth provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    roleMapper,
		Profiles: cfg.Profiles,
		Limiter:  limiter,
		Events:   cfg.Events,
	})
}

func buildOAuthService(
	cfg AuthConfig,
	sessionStore *redisadapter.SessionStore,
	limiter ports.LoginLimiter,
	roleMapper authroles.StaticRoleMapper,
) *service.AuthService {
	// Only enable when fully configured
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		if cfg.Logger != nil {
			cfg.Logger.Warn("AuthModeOAuth selected but required config missing; auth disabled",
				"discovery_url_empty", oauth.DiscoveryURL == "",
				"client_id_empty", oauth.ClientID == "",
				"client_secret_empty", oauth.ClientSecret == "",
			)
		}
		return nil
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
	})
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("failed to create OIDC provider, auth disabled", "error", err)
		}
		return nil
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: prov,
		Sessions: sessionStore,
		Roles:    roleMapper,
		Profiles: cfg.Profiles,
		Limiter:  limiter,
		Events:   cfg.Events,
	})
}
