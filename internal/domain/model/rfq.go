//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxRFQTitleLen = 255
	maxRFQBodyLen  = 10000
)

// RFQStatus is the lifecycle state of a request-for-quote.
type RFQStatus string

const (
	RFQStatusOpen    RFQStatus = "open"
	RFQStatusClosed  RFQStatus = "closed"
	RFQStatusAwarded RFQStatus = "awarded"
)

// Valid reports whether the RFQ status is supported.
func (s RFQStatus) Valid() bool {
	switch s {
	case RFQStatusOpen, RFQStatusClosed, RFQStatusAwarded:
		return true
	default:
		return false
	}
}

// ParseRFQStatus normalizes a status string and reports whether it is supported.
func ParseRFQStatus(value string) (RFQStatus, bool) {
	st := RFQStatus(strings.ToLower(strings.TrimSpace(value)))
	if st.Valid() {
		return st, true
	}
	return "", false
}

// RFQ is a client's request-for-quote that vendors bid on.
type RFQ struct {
	ID           string     `json:"id"            db:"id"`
	ClientID     string     `json:"client_id"     db:"client_id"`
	Title        string     `json:"title"         db:"title"`
	Description  string     `json:"description"   db:"description"`
	Category     string     `json:"category"      db:"category"`
	BudgetCents  *int64     `json:"budget_cents,omitempty" db:"budget_cents"`
	Status       RFQStatus  `json:"status"        db:"status"`
	AwardedBidID *string    `json:"awarded_bid_id,omitempty" db:"awarded_bid_id"`
	ClosesAt     *time.Time `json:"closes_at,omitempty"      db:"closes_at"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"    db:"updated_at"`
}

// CreateRFQRequest represents parameters to create an RFQ.
type CreateRFQRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	BudgetCents *int64     `json:"budget_cents,omitempty"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
}

// Validate validates CreateRFQRequest.
func (r *CreateRFQRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return errors.New("title is required and cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxRFQTitleLen {
		return errors.New("title cannot exceed 255 characters")
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("description is required")
	}
	if utf8.RuneCountInString(r.Description) > maxRFQBodyLen {
		return errors.New("description cannot exceed 10000 characters")
	}
	if strings.TrimSpace(r.Category) == "" {
		return errors.New("category is required")
	}
	if r.BudgetCents != nil && *r.BudgetCents <= 0 {
		return errors.New("budget_cents must be > 0")
	}
	if r.ClosesAt != nil && r.ClosesAt.Before(time.Now()) {
		return errors.New("closes_at must be in the future")
	}
	return nil
}

// RFQListOptions controls paging and filtering for listing RFQs.
// ClientID scopes the list to one owner; Status matches exactly.
type RFQListOptions struct {
	Limit    int
	Offset   int
	ClientID *string
	Status   *RFQStatus
	Category *string
}

// RFQStatusCounts summarizes RFQ volume per status for the admin dashboard.
type RFQStatusCounts struct {
	Open    int64 `json:"open"    db:"open"`
	Closed  int64 `json:"closed"  db:"closed"`
	Awarded int64 `json:"awarded" db:"awarded"`
}
