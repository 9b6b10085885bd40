//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// AccessOutcome is the recorded result of a route-access decision.
type AccessOutcome string

const (
	AccessOutcomeAdmit               AccessOutcome = "admit"
	AccessOutcomeDenyUnauthenticated AccessOutcome = "deny_unauthenticated"
	AccessOutcomeDenyForbidden       AccessOutcome = "deny_forbidden"
)

// Valid reports whether the access outcome is supported.
func (o AccessOutcome) Valid() bool {
	switch o {
	case AccessOutcomeAdmit, AccessOutcomeDenyUnauthenticated, AccessOutcomeDenyForbidden:
		return true
	default:
		return false
	}
}

// AccessEvent is one entry in the access audit trail. Deny decisions are
// always recorded; admits only when the route is admin-scoped.
type AccessEvent struct {
	ID             string        `json:"id"              db:"id"`
	UserID         *string       `json:"user_id,omitempty" db:"user_id"`
	Role           *string       `json:"role,omitempty"  db:"role"`
	Path           string        `json:"path"            db:"path"`
	Outcome        AccessOutcome `json:"outcome"         db:"outcome"`
	SuggestedRoute *string       `json:"suggested_route,omitempty" db:"suggested_route"`
	RemoteAddr     string        `json:"remote_addr"     db:"remote_addr"`
	OccurredAt     time.Time     `json:"occurred_at"     db:"occurred_at"`
}

// AccessEventQuery controls paging and filtering for the admin audit feed.
// Filter is an optional JMESPath expression evaluated against each event;
// events where the expression yields a falsy result are dropped.
type AccessEventQuery struct {
	Limit   int
	Offset  int
	Outcome *AccessOutcome
	Since   *time.Time
	Until   *time.Time
	Filter  string
}

// Validate validates AccessEventQuery paging and enum fields. The Filter
// expression is validated separately by the audit service.
func (q *AccessEventQuery) Validate() error {
	if q.Limit < 0 || q.Offset < 0 {
		return errors.New("limit and offset must be >= 0")
	}
	if q.Outcome != nil && !q.Outcome.Valid() {
		return errors.New("invalid outcome")
	}
	if q.Since != nil && q.Until != nil && q.Until.Before(*q.Since) {
		return errors.New("until must not precede since")
	}
	if strings.TrimSpace(q.Filter) != q.Filter {
		q.Filter = strings.TrimSpace(q.Filter)
	}
	return nil
}
