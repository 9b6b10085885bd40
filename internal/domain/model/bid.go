//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxBidNoteLen = 5000

// BidStatus is the lifecycle state of a vendor bid.
type BidStatus string

const (
	BidStatusSubmitted BidStatus = "submitted"
	BidStatusWithdrawn BidStatus = "withdrawn"
	BidStatusAwarded   BidStatus = "awarded"
	BidStatusDeclined  BidStatus = "declined"
)

// Valid reports whether the bid status is supported.
func (s BidStatus) Valid() bool {
	switch s {
	case BidStatusSubmitted, BidStatusWithdrawn, BidStatusAwarded, BidStatusDeclined:
		return true
	default:
		return false
	}
}

// Bid is a vendor's offer on an open RFQ. One live bid per vendor per RFQ.
type Bid struct {
	ID          string    `json:"id"           db:"id"`
	RFQID       string    `json:"rfq_id"       db:"rfq_id"`
	VendorID    string    `json:"vendor_id"    db:"vendor_id"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	LeadDays    int       `json:"lead_days"    db:"lead_days"`
	Note        *string   `json:"note,omitempty" db:"note"`
	Status      BidStatus `json:"status"       db:"status"`
	CreatedAt   time.Time `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"   db:"updated_at"`
}

// PlaceBidRequest represents parameters to place a bid on an RFQ.
type PlaceBidRequest struct {
	AmountCents int64   `json:"amount_cents"`
	LeadDays    int     `json:"lead_days"`
	Note        *string `json:"note,omitempty"`
}

// Validate validates PlaceBidRequest.
func (r *PlaceBidRequest) Validate() error {
	if r.AmountCents <= 0 {
		return errors.New("amount_cents must be > 0")
	}
	if r.LeadDays <= 0 {
		return errors.New("lead_days must be > 0")
	}
	if r.Note != nil {
		if strings.TrimSpace(*r.Note) == "" {
			return errors.New("note cannot be blank")
		}
		if utf8.RuneCountInString(*r.Note) > maxBidNoteLen {
			return errors.New("note cannot exceed 5000 characters")
		}
	}
	return nil
}

// BidListOptions controls paging and filtering for listing bids.
type BidListOptions struct {
	Limit    int
	Offset   int
	RFQID    *string
	VendorID *string
	Status   *BidStatus
}
