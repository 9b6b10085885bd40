package auth

// Package auth contains domain-level types for authentication, sessions and
// marketplace profiles. It is pure and free of framework/adapter concerns.

import "time"

// Role represents a marketplace authorization role. The set is closed:
// every profile carries exactly one of the values below.
// Keep string form for easy persistence and cookies.
type Role string

const (
	RoleClient Role = "client"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

// ParseRole converts a raw string to a Role, reporting whether it is one of
// the known values.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleClient, RoleVendor, RoleAdmin:
		return Role(s), true
	default:
		return "", false
	}
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

// VerificationStatus tracks the KYC/KYV lifecycle of a profile.
type VerificationStatus string

const (
	VerificationNone     VerificationStatus = "none_submitted"
	VerificationPending  VerificationStatus = "pending"
	VerificationRejected VerificationStatus = "rejected"
	VerificationApproved VerificationStatus = "approved"
)

// ParseVerificationStatus converts a raw string to a VerificationStatus.
func ParseVerificationStatus(s string) (VerificationStatus, bool) {
	switch VerificationStatus(s) {
	case VerificationNone, VerificationPending, VerificationRejected, VerificationApproved:
		return VerificationStatus(s), true
	default:
		return "", false
	}
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (sub claim)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Profile is the marketplace-side record attached to an identity: the role
// the user acts under and how far through verification they are. A user that
// has authenticated but has no profile row yet is treated as role-less by
// the access layer.
type Profile struct {
	UserID             string             `json:"user_id" db:"user_id"`
	Email              string             `json:"email" db:"email"`
	DisplayName        string             `json:"display_name" db:"display_name"`
	Role               Role               `json:"role" db:"role"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	CreatedAt          time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
}

// Verified reports whether the profile has cleared verification.
func (p Profile) Verified() bool { return p.VerificationStatus == VerificationApproved }

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin returns true if the session role is admin.
func (s Session) IsAdmin() bool { return s.Role == RoleAdmin }
