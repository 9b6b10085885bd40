package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/procurehub/ui-api/internal/domain/auth"
)

// DefaultLookupTimeout bounds each external lookup the resolver issues.
const DefaultLookupTimeout = 5 * time.Second

// IdentityEvent signals a sign-in (Identity set) or sign-out (Identity nil).
type IdentityEvent struct {
	Identity *auth.Identity
}

// IdentitySource exposes the auth layer to the resolver.
type IdentitySource interface {
	// CurrentIdentity returns the signed-in identity, or nil when anonymous.
	CurrentIdentity(ctx context.Context) (*auth.Identity, error)
	// Watch delivers sign-in/out events until ctx is done. The source owns
	// the channel and closes it when the watch ends.
	Watch(ctx context.Context) <-chan IdentityEvent
}

// ProfileSource exposes the marketplace profile lookup to the resolver.
type ProfileSource interface {
	// GetProfile returns the profile for userID, or (nil, nil) when the user
	// has authenticated but no profile row exists yet.
	GetProfile(ctx context.Context, userID string) (*auth.Profile, error)
}

// ResolverOptions groups dependencies for NewResolver.
type ResolverOptions struct {
	Identities    IdentitySource
	Profiles      ProfileSource
	LookupTimeout time.Duration // defaults to DefaultLookupTimeout
	Logger        *slog.Logger  // defaults to slog.Default()
}

// Resolver owns the session state machine. It is the single writer: every
// identity event starts a resolution pass tagged with a monotonically
// increasing epoch, and a pass may only publish its result while its epoch is
// still current. Results that lose the race are counted and dropped, so the
// published state always reflects the most recent identity event.
type Resolver struct {
	ids     IdentitySource
	profile ProfileSource
	timeout time.Duration
	logger  *slog.Logger

	// group collapses concurrent profile lookups for the same user into one
	// upstream call.
	group singleflight.Group

	mu      sync.Mutex
	state   State
	epoch   uint64
	closed  bool
	subs    map[uint64]chan State
	nextSub uint64

	staleDiscards atomic.Uint64
}

// NewResolver constructs a Resolver in the Loading state. Call Run to start
// resolving.
func NewResolver(opts ResolverOptions) (*Resolver, error) {
	if opts.Identities == nil {
		return nil, errors.New("IdentitySource is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("ProfileSource is required")
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		ids:     opts.Identities,
		profile: opts.Profiles,
		timeout: timeout,
		logger:  logger.With("component", "session_resolver"),
		state:   Loading(),
		subs:    make(map[uint64]chan State),
	}, nil
}

// Run resolves the initial identity, then follows Watch events until ctx is
// done or the source closes the event channel. It blocks; run it on its own
// goroutine. After Run returns, in-flight lookup results are no longer
// applied.
func (r *Resolver) Run(ctx context.Context) {
	events := r.ids.Watch(ctx)

	epoch := r.beginPass()
	go r.resolveFromLookup(ctx, epoch)

	for {
		select {
		case <-ctx.Done():
			r.close()
			return
		case ev, ok := <-events:
			if !ok {
				r.close()
				return
			}
			epoch := r.beginPass()
			go r.resolveIdentity(ctx, epoch, ev.Identity)
		}
	}
}

// Current returns the latest published state snapshot.
func (r *Resolver) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers for state change notifications. The channel has a
// one-slot buffer and is latest-wins: a slow consumer sees the newest state,
// never a backlog, and never blocks the resolver. The returned cancel func
// must be called when done.
func (r *Resolver) Subscribe() (<-chan State, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		ch := make(chan State)
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	ch := make(chan State, 1)
	// Deliver the current snapshot immediately so subscribers never start blind.
	ch <- r.state
	r.subs[id] = ch
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// StaleDiscards reports how many lookup results were dropped because a newer
// identity event superseded them. Diagnostic only.
func (r *Resolver) StaleDiscards() uint64 { return r.staleDiscards.Load() }

// beginPass invalidates any in-flight pass and publishes Loading.
func (r *Resolver) beginPass() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.state = Loading()
	r.broadcastLocked()
	return r.epoch
}

// resolveFromLookup asks the identity source who is signed in, then continues
// down the shared resolution path.
func (r *Resolver) resolveFromLookup(ctx context.Context, epoch uint64) {
	lctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ident, err := r.ids.CurrentIdentity(lctx)
	if err != nil {
		// Auth lookup failures resolve to Anonymous, never to an error state.
		r.logger.DebugContext(ctx, "identity lookup failed, resolving anonymous", "err", err)
		r.apply(epoch, Anonymous())
		return
	}
	r.resolveIdentity(ctx, epoch, ident)
}

// resolveIdentity settles the pass for a known identity (nil = signed out).
// Profile lookup only starts once the identity is in hand.
func (r *Resolver) resolveIdentity(ctx context.Context, epoch uint64, ident *auth.Identity) {
	if ident == nil {
		r.apply(epoch, Anonymous())
		return
	}

	userID := ident.UserID
	v, err, _ := r.group.Do(userID, func() (any, error) {
		pctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		return r.profile.GetProfile(pctx, userID)
	})
	if err != nil {
		// Profile failures leave the user signed in but role-less. The access
		// layer denies role-restricted routes for such states.
		r.logger.WarnContext(ctx, "profile lookup failed, continuing without profile",
			"user_id", userID, "err", err)
		r.apply(epoch, Authenticated(userID, nil))
		return
	}
	profile, _ := v.(*auth.Profile)
	r.apply(epoch, Authenticated(userID, profile))
}

// apply publishes the pass result unless a newer pass has started since.
func (r *Resolver) apply(epoch uint64, s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || epoch != r.epoch {
		r.staleDiscards.Add(1)
		return
	}
	r.state = s
	r.broadcastLocked()
}

func (r *Resolver) broadcastLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- r.state:
		default:
			// Replace the undelivered state so the subscriber sees the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- r.state:
			default:
			}
		}
	}
}

func (r *Resolver) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

// Resolve performs one synchronous resolution pass with the same failure
// semantics as the event-driven resolver: auth failure or no identity
// resolves Anonymous, profile failure resolves Authenticated without a
// profile. Used for per-request resolution in the HTTP layer.
func Resolve(ctx context.Context, opts ResolverOptions) State {
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ictx, cancel := context.WithTimeout(ctx, timeout)
	ident, err := opts.Identities.CurrentIdentity(ictx)
	cancel()
	if err != nil {
		logger.DebugContext(ctx, "identity lookup failed, resolving anonymous", "err", err)
		return Anonymous()
	}
	if ident == nil {
		return Anonymous()
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	profile, err := opts.Profiles.GetProfile(pctx, ident.UserID)
	if err != nil {
		logger.WarnContext(ctx, "profile lookup failed, continuing without profile",
			"user_id", ident.UserID, "err", err)
		return Authenticated(ident.UserID, nil)
	}
	return Authenticated(ident.UserID, profile)
}
