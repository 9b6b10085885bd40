package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Profile repository sentinels.
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileEmailExists = errors.New("profile email already exists")

	// Verification repository sentinels.
	ErrSubmissionNotFound = errors.New("verification submission not found")
	ErrSubmissionExists   = errors.New("verification submission already exists")

	// RFQ repository sentinels.
	ErrRFQNotFound = errors.New("RFQ not found")

	// Bid repository sentinels.
	ErrBidNotFound = errors.New("bid not found")
	ErrBidExists   = errors.New("bid already exists for this RFQ")
)
