package access

import (
	"github.com/procurehub/ui-api/internal/session"
)

// DecisionKind classifies the outcome of a route-access check.
type DecisionKind string

const (
	// DecisionAdmit lets the request through.
	DecisionAdmit DecisionKind = "admit"
	// DecisionPending means the session has not settled; hold, do not deny.
	DecisionPending DecisionKind = "pending"
	// DecisionDenyUnauthenticated means sign-in is required.
	DecisionDenyUnauthenticated DecisionKind = "deny_unauthenticated"
	// DecisionDenyForbidden means the signed-in role may not enter; the
	// decision carries a suggested route for the user's own area.
	DecisionDenyForbidden DecisionKind = "deny_forbidden"
)

// Decision is the result of evaluating a session state against a route
// requirement.
type Decision struct {
	Kind           DecisionKind `json:"kind"`
	SuggestedRoute string       `json:"suggested_route,omitempty"`
}

// Admitted reports whether the decision lets the request proceed.
func (d Decision) Admitted() bool { return d.Kind == DecisionAdmit }

// Denied reports whether the decision is one of the two deny outcomes.
func (d Decision) Denied() bool {
	return d.Kind == DecisionDenyUnauthenticated || d.Kind == DecisionDenyForbidden
}

// Decide evaluates a session state against a route requirement. It is pure:
// the same state and requirement always produce the same decision, and
// re-evaluation has no side effects. Rules apply in order:
//
//  1. An unsettled session is Pending; never denied while lookups are out.
//  2. Routes without an auth requirement admit everyone.
//  3. Anonymous sessions are denied for sign-in.
//  4. Role-restricted routes deny sessions whose profile is missing or whose
//     role is not in the allowed set, suggesting the role's own home.
//  5. Everything else is admitted.
func Decide(state session.State, req RouteRequirement) Decision {
	if !state.Settled() {
		return Decision{Kind: DecisionPending}
	}
	if !req.RequiresAuth {
		return Decision{Kind: DecisionAdmit}
	}
	if !state.Authenticated() {
		return Decision{Kind: DecisionDenyUnauthenticated}
	}
	if len(req.AllowedRoles) > 0 {
		role, ok := state.Role()
		if !ok || !req.Allows(role) {
			suggested := RouteRoot
			if ok {
				suggested = DefaultHomeRoute(role)
			}
			return Decision{Kind: DecisionDenyForbidden, SuggestedRoute: suggested}
		}
	}
	return Decision{Kind: DecisionAdmit}
}

// Gate wraps Decide with per-instance notification bookkeeping: a user is
// told about a given denial kind once per gate lifetime, no matter how many
// times the same denial is re-evaluated. Create a fresh Gate per guarded
// surface (one SPA mount, one streaming connection). Not safe for concurrent
// use; each surface owns its own instance.
type Gate struct {
	notified map[DecisionKind]bool
}

// NewGate creates a gate with no notifications recorded.
func NewGate() *Gate {
	return &Gate{notified: make(map[DecisionKind]bool)}
}

// Evaluate runs Decide and reports whether the caller should surface a
// notification for the outcome. Notify is true at most once per denial kind
// for the life of the gate; admit and pending outcomes never notify.
func (g *Gate) Evaluate(state session.State, req RouteRequirement) (Decision, bool) {
	d := Decide(state, req)
	if !d.Denied() {
		return d, false
	}
	if g.notified[d.Kind] {
		return d, false
	}
	g.notified[d.Kind] = true
	return d, true
}
