package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/procurehub/ui-api/internal/data"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	apperrors "github.com/procurehub/ui-api/internal/errors"
	"github.com/procurehub/ui-api/internal/ports"
)

// BidRepository is the persistence surface the service needs.
type BidRepository interface {
	Place(ctx context.Context, rfqID, vendorID string, req *model.PlaceBidRequest) (*model.Bid, error)
	GetByID(ctx context.Context, id string) (*model.Bid, error)
	List(ctx context.Context, opts model.BidListOptions) ([]*model.Bid, error)
	Withdraw(ctx context.Context, id, vendorID string) (*model.Bid, error)
}

// BidServiceOptions groups dependencies for BidService.
type BidServiceOptions struct {
	Repo     BidRepository
	RFQs     RFQRepository
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

// BidService enforces who may bid on what: only verified vendors, only on
// open RFQs, one live bid per vendor per RFQ.
type BidService struct {
	repo     BidRepository
	rfqs     RFQRepository
	profiles ports.ProfileStore
	logger   *slog.Logger
}

// NewBidService constructs a new BidService.
func NewBidService(opts BidServiceOptions) *BidService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BidService{
		repo:     opts.Repo,
		rfqs:     opts.RFQs,
		profiles: opts.Profiles,
		logger:   logger.With("component", "bid_service"),
	}
}

// Place submits a bid from the session's vendor on an open RFQ.
func (s *BidService) Place(
	ctx context.Context,
	sess domainauth.Session,
	rfqID string,
	req model.PlaceBidRequest,
) (*model.Bid, error) {
	if sess.Role != domainauth.RoleVendor {
		return nil, apperrors.Forbidden("Only vendors can bid on RFQs.")
	}
	if err := s.requireApproved(ctx, sess.UserID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	rfq, err := s.rfqs.GetByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, data.ErrRFQNotFound) {
			return nil, apperrors.NotFound("RFQ not found.")
		}
		return nil, fmt.Errorf("get RFQ: %w", err)
	}
	if rfq.Status != model.RFQStatusOpen {
		return nil, apperrors.Conflict("RFQ is no longer open for bids.")
	}

	bid, err := s.repo.Place(ctx, rfqID, sess.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrBidExists):
			return nil, apperrors.Conflict("You already have a live bid on this RFQ.")
		case errors.Is(err, data.ErrRFQNotFound):
			return nil, apperrors.NotFound("RFQ not found.")
		default:
			return nil, fmt.Errorf("place bid: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "bid placed", "bid_id", bid.ID, "rfq_id", rfqID, "vendor_id", sess.UserID)
	return bid, nil
}

// ListForRFQ returns the bids on one RFQ. The posting client and admins see
// all bids; a vendor sees only their own.
func (s *BidService) ListForRFQ(
	ctx context.Context,
	sess domainauth.Session,
	rfqID string,
	opts model.BidListOptions,
) ([]*model.Bid, error) {
	rfq, err := s.rfqs.GetByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, data.ErrRFQNotFound) {
			return nil, apperrors.NotFound("RFQ not found.")
		}
		return nil, fmt.Errorf("get RFQ: %w", err)
	}

	opts.RFQID = &rfqID
	switch sess.Role {
	case domainauth.RoleAdmin:
	case domainauth.RoleClient:
		if rfq.ClientID != sess.UserID {
			return nil, apperrors.NotFound("RFQ not found.")
		}
	case domainauth.RoleVendor:
		opts.VendorID = &sess.UserID
	default:
		return nil, apperrors.Forbidden("Unknown role.")
	}
	return s.repo.List(ctx, opts)
}

// ListMine returns the session vendor's own bids across RFQs.
func (s *BidService) ListMine(
	ctx context.Context,
	sess domainauth.Session,
	opts model.BidListOptions,
) ([]*model.Bid, error) {
	if sess.Role != domainauth.RoleVendor {
		return nil, apperrors.Forbidden("Only vendors have a bid book.")
	}
	opts.VendorID = &sess.UserID
	return s.repo.List(ctx, opts)
}

// Withdraw pulls the vendor's live bid.
func (s *BidService) Withdraw(ctx context.Context, sess domainauth.Session, bidID string) (*model.Bid, error) {
	if sess.Role != domainauth.RoleVendor {
		return nil, apperrors.Forbidden("Only vendors can withdraw bids.")
	}
	bid, err := s.repo.Withdraw(ctx, bidID, sess.UserID)
	if err != nil {
		if errors.Is(err, data.ErrBidNotFound) {
			return nil, apperrors.NotFound("Bid not found or no longer live.")
		}
		return nil, fmt.Errorf("withdraw bid: %w", err)
	}
	s.logger.InfoContext(ctx, "bid withdrawn", "bid_id", bidID, "vendor_id", sess.UserID)
	return bid, nil
}

func (s *BidService) requireApproved(ctx context.Context, userID string) error {
	if s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}
	if profile == nil || !profile.Verified() {
		return apperrors.Forbidden("Verification must be approved before using the marketplace.")
	}
	return nil
}
