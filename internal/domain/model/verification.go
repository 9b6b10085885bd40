//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/procurehub/ui-api/internal/domain/auth"
)

const (
	maxLegalNameLen = 255
	maxRegNumberLen = 64
	maxReasonLen    = 1000
)

// VerificationKind distinguishes client (KYC) from vendor (KYV) submissions.
type VerificationKind string

const (
	VerificationKindClient VerificationKind = "client"
	VerificationKindVendor VerificationKind = "vendor"
)

// Valid reports whether the verification kind is supported.
func (k VerificationKind) Valid() bool {
	switch k {
	case VerificationKindClient, VerificationKindVendor:
		return true
	default:
		return false
	}
}

// KindForRole returns the verification kind a role is subject to.
// Admins are exempt and get ok=false.
func KindForRole(role auth.Role) (VerificationKind, bool) {
	switch role {
	case auth.RoleClient:
		return VerificationKindClient, true
	case auth.RoleVendor:
		return VerificationKindVendor, true
	default:
		return "", false
	}
}

// VerificationSubmission is a KYC/KYV record. A user has at most one live
// submission per kind; resubmission after rejection replaces the record's
// payload and moves it back to pending.
type VerificationSubmission struct {
	ID           string                  `json:"id"            db:"id"`
	UserID       string                  `json:"user_id"       db:"user_id"`
	Kind         VerificationKind        `json:"kind"          db:"kind"`
	Status       auth.VerificationStatus `json:"status"        db:"status"`
	LegalName    string                  `json:"legal_name"    db:"legal_name"`
	Country      string                  `json:"country"       db:"country"`
	RegNumber    *string                 `json:"reg_number,omitempty"    db:"reg_number"`
	ContactEmail string                  `json:"contact_email" db:"contact_email"`
	// DomainFlag marks vendor submissions whose contact email resolves to a
	// free-mail provider; these queue for manual review.
	DomainFlag   bool       `json:"domain_flag"   db:"domain_flag"`
	RejectReason *string    `json:"reject_reason,omitempty" db:"reject_reason"`
	ReviewedBy   *string    `json:"reviewed_by,omitempty"   db:"reviewed_by"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"   db:"reviewed_at"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"    db:"updated_at"`
}

// SubmitVerificationRequest carries the fields a user provides when starting
// or redoing verification.
type SubmitVerificationRequest struct {
	LegalName    string  `json:"legal_name"`
	Country      string  `json:"country"`
	RegNumber    *string `json:"reg_number,omitempty"`
	ContactEmail string  `json:"contact_email"`
}

// Validate validates SubmitVerificationRequest.
func (r *SubmitVerificationRequest) Validate() error {
	name := strings.TrimSpace(r.LegalName)
	if name == "" {
		return errors.New("legal_name is required and cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxLegalNameLen {
		return errors.New("legal_name cannot exceed 255 characters")
	}
	if len(strings.TrimSpace(r.Country)) != 2 {
		return errors.New("country must be a two-letter code")
	}
	if r.RegNumber != nil && utf8.RuneCountInString(*r.RegNumber) > maxRegNumberLen {
		return errors.New("reg_number cannot exceed 64 characters")
	}
	email := strings.TrimSpace(r.ContactEmail)
	if email == "" || !strings.Contains(email, "@") {
		return errors.New("contact_email must be a valid email address")
	}
	return nil
}

// ReviewVerificationRequest is an admin approve/reject decision.
type ReviewVerificationRequest struct {
	Approve bool    `json:"approve"`
	Reason  *string `json:"reason,omitempty"`
}

// Validate validates ReviewVerificationRequest. Rejections must carry a reason.
func (r *ReviewVerificationRequest) Validate() error {
	if !r.Approve {
		if r.Reason == nil || strings.TrimSpace(*r.Reason) == "" {
			return errors.New("reason is required when rejecting")
		}
	}
	if r.Reason != nil && utf8.RuneCountInString(*r.Reason) > maxReasonLen {
		return errors.New("reason cannot exceed 1000 characters")
	}
	return nil
}

// VerificationListOptions controls paging and filtering for the admin review queue.
type VerificationListOptions struct {
	Limit    int
	Offset   int
	Kind     *VerificationKind         // exact match
	Statuses []auth.VerificationStatus // any of; empty means all
	Search   string                    // case-insensitive legal-name substring
}
