package bootstrap

import (
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/procurehub/ui-api/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRedisClient(t *testing.T) redis.UniversalClient {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestBuildAuthServiceReturnsNilWithoutRedis(t *testing.T) {
	tests := []struct {
		name string
		auth config.AuthConfig
	}{
		{
			name: "dev auth mode",
			auth: config.AuthConfig{
				Mode:        config.AuthModeMock,
				AdminGroup:  "admins",
				VendorGroup: "vendors",
				DevAuth: config.DevAuthConfig{
					UserID: "dev",
					Email:  "dev@example.com",
					Groups: []string{"admins"},
				},
			},
		},
		{
			name: "oauth mode",
			auth: config.AuthConfig{
				Mode:        config.AuthModeOAuth,
				AdminGroup:  "admins",
				VendorGroup: "vendors",
				OAuth: config.OAuthConfig{
					ClientID:     "client-id",
					ClientSecret: "client-secret",
					DiscoveryURL: "https://issuer.example.com",
					RedirectURL:  "https://app.example.com/auth/callback",
					Scope:        "openid",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := BuildAuthService(AuthConfig{
				Auth:        tt.auth,
				RedisClient: nil,
				Logger:      testLogger(),
			})
			require.Nil(t, svc)
		})
	}
}

func TestBuildAuthServiceDevMode(t *testing.T) {
	svc := BuildAuthService(AuthConfig{
		Auth: config.AuthConfig{
			Mode:        config.AuthModeMock,
			AdminGroup:  "admins",
			VendorGroup: "vendors",
			DevAuth: config.DevAuthConfig{
				UserID: "dev",
				Email:  "dev@example.com",
				Groups: []string{"admins"},
			},
		},
		RedisClient: testRedisClient(t),
		Logger:      testLogger(),
	})
	require.NotNil(t, svc)
}

func TestBuildAuthServiceOAuthMissingConfig(t *testing.T) {
	svc := BuildAuthService(AuthConfig{
		Auth: config.AuthConfig{
			Mode:        config.AuthModeOAuth,
			AdminGroup:  "admins",
			VendorGroup: "vendors",
			OAuth: config.OAuthConfig{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				// DiscoveryURL intentionally unset
			},
		},
		RedisClient: testRedisClient(t),
		Logger:      testLogger(),
	})
	require.Nil(t, svc)
}
