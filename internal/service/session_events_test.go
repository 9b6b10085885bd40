package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/session"
)

func testIdentity(userID string) domainauth.Identity {
	return domainauth.Identity{
		UserID:    userID,
		Email:     userID + "@example.com",
		Groups:    []string{"procurehub-clients"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func recvEvent(t *testing.T, ch <-chan session.IdentityEvent) session.IdentityEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return session.IdentityEvent{}
	}
}

func TestSessionEventHub_SignedInAndOut(t *testing.T) {
	hub := NewSessionEventHub()
	events, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.SignedIn(testIdentity("user-1"))
	ev := recvEvent(t, events)
	require.NotNil(t, ev.Identity)
	assert.Equal(t, "user-1", ev.Identity.UserID)

	hub.SignedOut("user-1")
	ev = recvEvent(t, events)
	assert.Nil(t, ev.Identity)
}

func TestSessionEventHub_ScopedToUser(t *testing.T) {
	hub := NewSessionEventHub()
	events, cancel := hub.Subscribe("user-1")
	defer cancel()

	hub.SignedIn(testIdentity("user-2"))
	hub.SignedOut("user-2")

	select {
	case ev := <-events:
		t.Fatalf("unexpected event for another user: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionEventHub_LatestWins(t *testing.T) {
	hub := NewSessionEventHub()
	events, cancel := hub.Subscribe("user-1")
	defer cancel()

	// Nobody reading: the sign-out must displace the queued sign-in.
	hub.SignedIn(testIdentity("user-1"))
	hub.SignedOut("user-1")

	ev := recvEvent(t, events)
	assert.Nil(t, ev.Identity, "latest event wins over the stale backlog")
}

func TestSessionEventHub_FansOutToAllSubscribers(t *testing.T) {
	hub := NewSessionEventHub()
	first, cancelFirst := hub.Subscribe("user-1")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("user-1")
	defer cancelSecond()

	hub.SignedOut("user-1")

	assert.Nil(t, recvEvent(t, first).Identity)
	assert.Nil(t, recvEvent(t, second).Identity)
}

func TestSessionEventHub_CancelClosesChannel(t *testing.T) {
	hub := NewSessionEventHub()
	events, cancel := hub.Subscribe("user-1")

	cancel()
	cancel() // idempotent

	_, open := <-events
	assert.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	hub.SignedOut("user-1")
}

func TestSessionIdentitySource_Authenticated(t *testing.T) {
	hub := NewSessionEventHub()
	identity := testIdentity("user-1")
	src := NewSessionIdentitySource(&identity, hub)
	defer src.Close()
	ctx := context.Background()

	got, err := src.CurrentIdentity(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user-1", got.UserID)

	watch := src.Watch(ctx)
	require.NotNil(t, watch)

	hub.SignedOut("user-1")
	ev := recvEvent(t, watch)
	assert.Nil(t, ev.Identity)
}

func TestSessionIdentitySource_Anonymous(t *testing.T) {
	src := NewSessionIdentitySource(nil, NewSessionEventHub())
	defer src.Close()
	ctx := context.Background()

	got, err := src.CurrentIdentity(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Nil(t, src.Watch(ctx), "anonymous connections have no watch channel")
}
