package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleVendor}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
}

func TestIsAnonymous(t *testing.T) {
	assert.True(t, IsAnonymous(context.Background()))

	for _, role := range []domainauth.Role{domainauth.RoleClient, domainauth.RoleVendor, domainauth.RoleAdmin} {
		sess := &domainauth.Session{ID: "s", Role: role}
		assert.False(t, IsAnonymous(SetSessionInContext(context.Background(), sess)))
	}
}
