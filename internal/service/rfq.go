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

// RFQRepository is the persistence surface the service needs.
type RFQRepository interface {
	Create(ctx context.Context, clientID string, req *model.CreateRFQRequest) (*model.RFQ, error)
	GetByID(ctx context.Context, id string) (*model.RFQ, error)
	List(ctx context.Context, opts model.RFQListOptions) ([]*model.RFQ, error)
	Close(ctx context.Context, id string) (*model.RFQ, error)
	Award(ctx context.Context, rfqID, bidID string) (*model.RFQ, error)
	StatusCounts(ctx context.Context) (*model.RFQStatusCounts, error)
}

// RFQServiceOptions groups dependencies for RFQService.
type RFQServiceOptions struct {
	Repo     RFQRepository
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

// RFQService enforces who may create, see, and settle requests-for-quote.
type RFQService struct {
	repo     RFQRepository
	profiles ports.ProfileStore
	logger   *slog.Logger
}

// NewRFQService constructs a new RFQService.
func NewRFQService(opts RFQServiceOptions) *RFQService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RFQService{
		repo:     opts.Repo,
		profiles: opts.Profiles,
		logger:   logger.With("component", "rfq_service"),
	}
}

// Create opens a new RFQ. Only verified clients may post.
func (s *RFQService) Create(
	ctx context.Context,
	sess domainauth.Session,
	req model.CreateRFQRequest,
) (*model.RFQ, error) {
	if sess.Role != domainauth.RoleClient {
		return nil, apperrors.Forbidden("Only clients can post RFQs.")
	}
	if err := s.requireApproved(ctx, sess.UserID); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	rfq, err := s.repo.Create(ctx, sess.UserID, &req)
	if err != nil {
		return nil, fmt.Errorf("create RFQ: %w", err)
	}
	s.logger.InfoContext(ctx, "rfq created", "rfq_id", rfq.ID, "client_id", sess.UserID)
	return rfq, nil
}

// Get returns one RFQ. Clients only see their own; vendors and admins see any.
func (s *RFQService) Get(ctx context.Context, sess domainauth.Session, id string) (*model.RFQ, error) {
	rfq, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrRFQNotFound) {
			return nil, apperrors.NotFound("RFQ not found.")
		}
		return nil, fmt.Errorf("get RFQ: %w", err)
	}
	if sess.Role == domainauth.RoleClient && rfq.ClientID != sess.UserID {
		return nil, apperrors.NotFound("RFQ not found.")
	}
	return rfq, nil
}

// List returns RFQs scoped by role: clients get their own, vendors get the
// open book, admins get everything (with whatever filters they pass).
func (s *RFQService) List(
	ctx context.Context,
	sess domainauth.Session,
	opts model.RFQListOptions,
) ([]*model.RFQ, error) {
	switch sess.Role {
	case domainauth.RoleClient:
		opts.ClientID = &sess.UserID
	case domainauth.RoleVendor:
		open := model.RFQStatusOpen
		opts.Status = &open
		opts.ClientID = nil
	case domainauth.RoleAdmin:
		// unrestricted
	default:
		return nil, apperrors.Forbidden("Unknown role.")
	}
	return s.repo.List(ctx, opts)
}

// Close settles an open RFQ without a winner. Owner only.
func (s *RFQService) Close(ctx context.Context, sess domainauth.Session, id string) (*model.RFQ, error) {
	if err := s.requireOwner(ctx, sess, id); err != nil {
		return nil, err
	}
	rfq, err := s.repo.Close(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrRFQNotFound) {
			return nil, apperrors.Conflict("RFQ is not open.")
		}
		return nil, fmt.Errorf("close RFQ: %w", err)
	}
	s.logger.InfoContext(ctx, "rfq closed", "rfq_id", id)
	return rfq, nil
}

// Award picks a winning bid. Owner only; losing live bids are declined.
func (s *RFQService) Award(ctx context.Context, sess domainauth.Session, rfqID, bidID string) (*model.RFQ, error) {
	if err := s.requireOwner(ctx, sess, rfqID); err != nil {
		return nil, err
	}
	rfq, err := s.repo.Award(ctx, rfqID, bidID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrBidNotFound):
			return nil, apperrors.NotFound("Bid not found on this RFQ or no longer live.")
		case errors.Is(err, data.ErrRFQNotFound):
			return nil, apperrors.Conflict("RFQ cannot be awarded in its current state.")
		default:
			return nil, fmt.Errorf("award RFQ: %w", err)
		}
	}
	s.logger.InfoContext(ctx, "rfq awarded", "rfq_id", rfqID, "bid_id", bidID)
	return rfq, nil
}

// StatusCounts summarizes RFQ volume for the admin dashboard.
func (s *RFQService) StatusCounts(ctx context.Context, sess domainauth.Session) (*model.RFQStatusCounts, error) {
	if !sess.IsAdmin() {
		return nil, apperrors.Forbidden("Admin only.")
	}
	return s.repo.StatusCounts(ctx)
}

func (s *RFQService) requireOwner(ctx context.Context, sess domainauth.Session, rfqID string) error {
	if sess.Role != domainauth.RoleClient {
		return apperrors.Forbidden("Only the posting client can settle an RFQ.")
	}
	rfq, err := s.repo.GetByID(ctx, rfqID)
	if err != nil {
		if errors.Is(err, data.ErrRFQNotFound) {
			return apperrors.NotFound("RFQ not found.")
		}
		return fmt.Errorf("get RFQ: %w", err)
	}
	if rfq.ClientID != sess.UserID {
		return apperrors.NotFound("RFQ not found.")
	}
	return nil
}

func (s *RFQService) requireApproved(ctx context.Context, userID string) error {
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
