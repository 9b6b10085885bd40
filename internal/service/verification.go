package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/procurehub/ui-api/internal/data"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	apperrors "github.com/procurehub/ui-api/internal/errors"
	"github.com/procurehub/ui-api/internal/ports"
)

// freeMailDomains lists providers whose addresses flag a vendor submission
// for closer manual review. Matching is on the registrable domain.
var freeMailDomains = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"outlook.com":    true,
	"hotmail.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"gmx.de":         true,
	"gmx.net":        true,
	"web.de":         true,
	"proton.me":      true,
	"protonmail.com": true,
	"icloud.com":     true,
}

// VerificationRepository is the persistence surface the service needs.
type VerificationRepository interface {
	Submit(ctx context.Context, p data.SubmitParams) (*model.VerificationSubmission, error)
	GetByUser(ctx context.Context, userID string) (*model.VerificationSubmission, error)
	GetByID(ctx context.Context, id string) (*model.VerificationSubmission, error)
	Review(ctx context.Context, id, reviewerID string, req model.ReviewVerificationRequest) (*model.VerificationSubmission, error)
	List(ctx context.Context, opts model.VerificationListOptions) ([]*model.VerificationSubmission, error)
}

// VerificationServiceOptions groups dependencies for VerificationService.
type VerificationServiceOptions struct {
	Repo     VerificationRepository
	Profiles ports.ProfileStore
	Logger   *slog.Logger
}

// VerificationService runs the KYC/KYV flow: submissions, admin review, and
// keeping the profile's verification status in step with the live submission.
type VerificationService struct {
	repo     VerificationRepository
	profiles ports.ProfileStore
	logger   *slog.Logger
}

// NewVerificationService constructs a new VerificationService.
func NewVerificationService(opts VerificationServiceOptions) *VerificationService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{
		repo:     opts.Repo,
		profiles: opts.Profiles,
		logger:   logger.With("component", "verification_service"),
	}
}

// Submit records a verification submission for the user and moves their
// profile to pending. Admins have nothing to verify and are rejected here.
func (s *VerificationService) Submit(
	ctx context.Context,
	userID string,
	role domainauth.Role,
	req model.SubmitVerificationRequest,
) (*model.VerificationSubmission, error) {
	kind, ok := model.KindForRole(role)
	if !ok {
		return nil, apperrors.Forbidden("This account is not subject to verification.")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	flag := false
	if kind == model.VerificationKindVendor {
		flag = isFreeMailAddress(req.ContactEmail)
	}

	sub, err := s.repo.Submit(ctx, data.SubmitParams{
		UserID:     userID,
		Kind:       kind,
		Req:        req,
		DomainFlag: flag,
	})
	if err != nil {
		return nil, fmt.Errorf("submit verification: %w", err)
	}

	if s.profiles != nil {
		if stErr := s.profiles.SetVerificationStatus(ctx, userID, domainauth.VerificationPending); stErr != nil {
			return nil, fmt.Errorf("update profile status: %w", stErr)
		}
	}

	s.logger.InfoContext(ctx, "verification submitted",
		"user_id", userID, "kind", kind, "domain_flag", flag)
	return sub, nil
}

// Review applies an admin decision and propagates the resulting status to the
// submitter's profile.
func (s *VerificationService) Review(
	ctx context.Context,
	submissionID string,
	reviewerID string,
	req model.ReviewVerificationRequest,
) (*model.VerificationSubmission, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	sub, err := s.repo.Review(ctx, submissionID, reviewerID, req)
	if err != nil {
		if errors.Is(err, data.ErrSubmissionNotFound) {
			return nil, apperrors.NotFound("Verification submission not found or already reviewed.")
		}
		return nil, fmt.Errorf("review verification: %w", err)
	}

	if s.profiles != nil {
		if stErr := s.profiles.SetVerificationStatus(ctx, sub.UserID, sub.Status); stErr != nil {
			return nil, fmt.Errorf("update profile status: %w", stErr)
		}
	}

	s.logger.InfoContext(ctx, "verification reviewed",
		"submission_id", sub.ID, "user_id", sub.UserID, "status", sub.Status, "reviewer", reviewerID)
	return sub, nil
}

// GetForUser returns the user's live submission, or (nil, nil) when they have
// never submitted.
func (s *VerificationService) GetForUser(ctx context.Context, userID string) (*model.VerificationSubmission, error) {
	return s.repo.GetByUser(ctx, userID)
}

// GetSubmission implements the access layer's KYC lookup: it reports the
// newest submission for redirect decisions.
func (s *VerificationService) GetSubmission(ctx context.Context, userID string) (*model.VerificationSubmission, error) {
	return s.repo.GetByUser(ctx, userID)
}

// List returns submissions for the admin review queue.
func (s *VerificationService) List(
	ctx context.Context,
	opts model.VerificationListOptions,
) ([]*model.VerificationSubmission, error) {
	return s.repo.List(ctx, opts)
}

// isFreeMailAddress reports whether the address's registrable domain belongs
// to a known free-mail provider.
func isFreeMailAddress(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	host := strings.ToLower(strings.TrimSpace(email[at+1:]))
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Unparseable hosts fall back to the literal domain.
		etld1 = host
	}
	return freeMailDomains[etld1]
}
