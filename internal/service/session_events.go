package service

import (
	"context"
	"sync"

	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/session"
)

// SessionEventHub fans sign-in/sign-out events out to session watchers.
// Each live session-stream connection subscribes for its own user so that a
// logout in one tab settles every other tab to anonymous.
type SessionEventHub struct {
	mu     sync.RWMutex
	subs   map[uint64]*hubSubscriber
	nextID uint64
}

type hubSubscriber struct {
	userID string
	ch     chan session.IdentityEvent
}

// NewSessionEventHub constructs an empty hub.
func NewSessionEventHub() *SessionEventHub {
	return &SessionEventHub{subs: make(map[uint64]*hubSubscriber)}
}

// Subscribe registers a watcher for events concerning userID. The returned
// cancel func unregisters and closes the channel. The channel is buffered and
// latest-wins: a slow consumer sees the newest event, never a stale backlog.
func (h *SessionEventHub) Subscribe(userID string) (<-chan session.IdentityEvent, func()) {
	sub := &hubSubscriber{
		userID: userID,
		ch:     make(chan session.IdentityEvent, 1),
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if s, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(s.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// SignedIn announces a completed login for the identity's user.
func (h *SessionEventHub) SignedIn(identity domainauth.Identity) {
	h.publish(identity.UserID, session.IdentityEvent{Identity: &identity})
}

// SignedOut announces that the user's session was removed.
func (h *SessionEventHub) SignedOut(userID string) {
	h.publish(userID, session.IdentityEvent{})
}

func (h *SessionEventHub) publish(userID string, ev session.IdentityEvent) {
	if userID == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.userID != userID {
			continue
		}
		// Latest-wins delivery: displace a pending event rather than block.
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}

// SessionIdentitySource adapts one authenticated (or anonymous) connection to
// the session.IdentitySource interface consumed by the resolver.
type SessionIdentitySource struct {
	identity *domainauth.Identity
	events   <-chan session.IdentityEvent
	cancel   func()
}

var _ session.IdentitySource = (*SessionIdentitySource)(nil)

// NewSessionIdentitySource builds a source seeded with the identity resolved
// from the request's session cookie (nil for anonymous visitors). When hub is
// non-nil and the identity is known, the source also watches for later
// sign-outs of the same user.
func NewSessionIdentitySource(identity *domainauth.Identity, hub *SessionEventHub) *SessionIdentitySource {
	src := &SessionIdentitySource{identity: identity}
	if hub != nil && identity != nil {
		src.events, src.cancel = hub.Subscribe(identity.UserID)
	}
	return src
}

// CurrentIdentity returns the identity captured at connection time.
func (s *SessionIdentitySource) CurrentIdentity(_ context.Context) (*domainauth.Identity, error) {
	return s.identity, nil
}

// Watch returns the hub channel, or nil when the connection is anonymous.
func (s *SessionIdentitySource) Watch(_ context.Context) <-chan session.IdentityEvent {
	return s.events
}

// Close unsubscribes from the hub.
func (s *SessionIdentitySource) Close() {
	if s.cancel != nil {
		s.cancel()
	}
}
