package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/procurehub/ui-api/internal/domain/access"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/ports"
	"github.com/procurehub/ui-api/internal/service"
	"github.com/procurehub/ui-api/internal/session"
)

// sseHeartbeatInterval keeps intermediaries from timing out idle streams.
const sseHeartbeatInterval = 30 * time.Second

// profileStoreSource adapts the profile store to the resolver's lookup shape.
type profileStoreSource struct {
	store ports.ProfileStore
}

func (p profileStoreSource) GetProfile(ctx context.Context, userID string) (*domainauth.Profile, error) {
	return p.store.Get(ctx, userID)
}

// AccessHandlers serves the session-state surface the SPA drives its routing
// from: one-shot state reads, route-access decisions, and a live stream that
// follows sign-in/sign-out events for the life of a connection.
type AccessHandlers struct {
	Auth     AuthServiceInterface
	Profiles ports.ProfileStore
	KYC      access.KYCReader
	Audit    *service.AuditService
	Hub      *service.SessionEventHub

	// Policy is the shared entry-route redirect policy. Left nil, one is
	// built lazily from KYC and Logger.
	Policy *access.RedirectPolicy

	// LookupTimeout bounds identity/profile lookups; zero means the
	// resolver default.
	LookupTimeout time.Duration
	Logger        *slog.Logger

	policyOnce sync.Once
}

// redirectPolicy returns the shared policy. Sharing it across requests is
// what makes the per-user KYC cache effective: a fresh policy per request
// would re-read the verification record on every visit to an entry route.
func (h *AccessHandlers) redirectPolicy() *access.RedirectPolicy {
	h.policyOnce.Do(func() {
		if h.Policy == nil {
			h.Policy = access.NewRedirectPolicy(access.RedirectPolicyOptions{KYC: h.KYC, Logger: h.Logger})
		}
	})
	return h.Policy
}

func (h *AccessHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// identityFromRequest maps the session cookie to an identity, or nil for
// anonymous visitors and dead sessions.
func (h *AccessHandlers) identityFromRequest(r *http.Request) *domainauth.Identity {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	sess, err := h.Auth.GetSession(r.Context(), cookie.Value)
	if err != nil {
		return nil
	}
	return &domainauth.Identity{
		UserID:    sess.UserID,
		FirstName: sess.FirstName,
		LastName:  sess.LastName,
		Email:     sess.Email,
		ExpiresAt: sess.ExpiresAt,
	}
}

// resolveState performs one synchronous resolution pass for the request.
func (h *AccessHandlers) resolveState(r *http.Request) session.State {
	src := service.NewSessionIdentitySource(h.identityFromRequest(r), nil)
	return session.Resolve(r.Context(), session.ResolverOptions{
		Identities:    src,
		Profiles:      profileStoreSource{store: h.Profiles},
		LookupTimeout: h.LookupTimeout,
		Logger:        h.Logger,
	})
}

// stateResponse is the JSON shape shared by the state endpoint and the stream.
type stateResponse struct {
	State      session.State `json:"state"`
	NavigateTo string        `json:"navigate_to,omitempty"`
}

// State returns the resolved session state, plus the entry-route destination
// when the caller's current path calls for one.
// GET /api/access/state?path=<current_spa_path>.
func (h *AccessHandlers) State(w http.ResponseWriter, r *http.Request) {
	state := h.resolveState(r)

	resp := stateResponse{State: state}
	path := safeRedirectPath(r.URL.Query().Get("path"))
	if dest, ok := h.redirectPolicy().Destination(r.Context(), state, path); ok {
		resp.NavigateTo = dest
	}

	WriteJSON(w, http.StatusOK, resp)
}

// decideRequest is the body of a route-access decision request.
type decideRequest struct {
	Path string `json:"path"`
}

// decideResponse pairs the decision with the path it was made for.
type decideResponse struct {
	Path     string          `json:"path"`
	Decision access.Decision `json:"decision"`
}

// Decide evaluates whether the caller's session may enter a route, records
// the outcome in the audit trail, and returns the decision.
// POST /api/access/decide.
func (h *AccessHandlers) Decide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_path",
			Err:     errors.New("path is required"),
		})
		return
	}

	state := h.resolveState(r)
	decision := access.Decide(state, access.RequirementFor(req.Path))
	h.recordDecision(r, state, req.Path, decision)

	WriteJSON(w, http.StatusOK, decideResponse{Path: req.Path, Decision: decision})
}

// recordDecision hands the outcome to the audit trail. Best-effort by design.
func (h *AccessHandlers) recordDecision(
	r *http.Request,
	state session.State,
	path string,
	decision access.Decision,
) {
	if h.Audit == nil {
		return
	}
	ev := model.AccessEvent{
		Path:       path,
		RemoteAddr: clientAddr(r),
	}
	if state.Authenticated() {
		userID := state.UserID
		ev.UserID = &userID
		if role, ok := state.Role(); ok {
			roleStr := string(role)
			ev.Role = &roleStr
		}
	}
	h.Audit.RecordDecision(r.Context(), ev, decision)
}

// Stream follows the caller's session over a server-sent-event connection.
// Every resolved state is emitted; denials for the watched path are emitted
// once per connection; entry-route redirects arrive as navigate events.
// GET /api/session/stream?path=<current_spa_path>.
func (h *AccessHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "streaming_unsupported",
			Err:     errors.New("streaming is not supported by this connection"),
		})
		return
	}

	path := safeRedirectPath(r.URL.Query().Get("path"))
	requirement := access.RequirementFor(path)

	src := service.NewSessionIdentitySource(h.identityFromRequest(r), h.Hub)
	defer src.Close()

	resolver, err := session.NewResolver(session.ResolverOptions{
		Identities:    src,
		Profiles:      profileStoreSource{store: h.Profiles},
		LookupTimeout: h.LookupTimeout,
		Logger:        h.Logger,
	})
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "stream_setup_failed",
			Err:     err,
		})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go resolver.Run(ctx)

	states, unsubscribe := resolver.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Connection-scoped bookkeeping: each stream notifies a denial kind once
	// and checks KYC once per settled user. The policy is deliberately not
	// the shared one, so a newly opened stream always starts from a fresh
	// verification read.
	gate := access.NewGate()
	policy := access.NewRedirectPolicy(access.RedirectPolicyOptions{KYC: h.KYC, Logger: h.Logger})

	heartbeat := time.NewTicker(sseHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case state, open := <-states:
			if !open {
				return
			}
			if !h.emitState(ctx, w, flusher, streamPass{
				state:       state,
				path:        path,
				requirement: requirement,
				gate:        gate,
				policy:      policy,
				remoteAddr:  clientAddr(r),
			}) {
				return
			}
		}
	}
}

// streamPass carries everything one state emission needs.
type streamPass struct {
	state       session.State
	path        string
	requirement access.RouteRequirement
	gate        *access.Gate
	policy      *access.RedirectPolicy
	remoteAddr  string
}

// emitState writes the events for one resolved state. Returns false when the
// client is gone.
func (h *AccessHandlers) emitState(
	ctx context.Context,
	w http.ResponseWriter,
	flusher http.Flusher,
	pass streamPass,
) bool {
	if !writeSSE(w, "state", stateResponse{State: pass.state}) {
		return false
	}

	decision, notify := pass.gate.Evaluate(pass.state, pass.requirement)
	if pass.state.Settled() && h.Audit != nil {
		ev := model.AccessEvent{Path: pass.path, RemoteAddr: pass.remoteAddr}
		if pass.state.Authenticated() {
			userID := pass.state.UserID
			ev.UserID = &userID
			if role, ok := pass.state.Role(); ok {
				roleStr := string(role)
				ev.Role = &roleStr
			}
		}
		h.Audit.RecordDecision(ctx, ev, decision)
	}
	if notify {
		if !writeSSE(w, "denial", decideResponse{Path: pass.path, Decision: decision}) {
			return false
		}
	}

	if dest, ok := pass.policy.Destination(ctx, pass.state, pass.path); ok {
		if !writeSSE(w, "navigate", map[string]string{"route": dest}) {
			return false
		}
	}

	flusher.Flush()
	return true
}

// writeSSE writes one named server-sent event with a JSON payload.
func writeSSE(w io.Writer, event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err == nil
}
