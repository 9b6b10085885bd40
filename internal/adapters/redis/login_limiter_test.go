package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurehub/ui-api/internal/testutil"
)

func TestLoginLimiter_AllowWithinLimit(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	limiter := NewLoginLimiter(LoginLimiterOptions{Client: client, MaxAttempts: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "alice|10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}

	ok, err := limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok, "attempt over the limit must be throttled")
}

func TestLoginLimiter_KeysAreIndependent(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	limiter := NewLoginLimiter(LoginLimiterOptions{Client: client, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)

	// A different key is unaffected.
	ok, err = limiter.Allow(ctx, "bob|10.0.0.2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	srv, client := testutil.SetupTestRedisWithServer(t)
	limiter := NewLoginLimiter(LoginLimiterOptions{Client: client, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	require.False(t, ok)

	// Fast-forward past the window; the counter resets.
	srv.FastForward(2 * time.Minute)

	ok, err = limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLimiter_ResetClearsCounter(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	limiter := NewLoginLimiter(LoginLimiterOptions{Client: client, MaxAttempts: 1, Window: time.Minute})
	ctx := context.Background()

	ok, err := limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, limiter.Reset(ctx, "alice|10.0.0.1"))

	ok, err = limiter.Allow(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLoginLimiter_EmptyKeyAlwaysAllowed(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	limiter := NewLoginLimiter(LoginLimiterOptions{Client: client, MaxAttempts: 1, Window: time.Minute})

	ok, err := limiter.Allow(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, limiter.Reset(context.Background(), ""))
}
