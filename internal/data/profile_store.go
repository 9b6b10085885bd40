package data

import (
	"context"

	"github.com/procurehub/ui-api/internal/domain/auth"
)

// ProfileStore adapts ProfileRepo to the ports.ProfileStore interface used by
// the service layer.
type ProfileStore struct {
	Repo *ProfileRepo
}

// NewProfileStore wraps a ProfileRepo.
func NewProfileStore(repo *ProfileRepo) ProfileStore {
	return ProfileStore{Repo: repo}
}

func (s ProfileStore) Upsert(ctx context.Context, p auth.Profile) (*auth.Profile, error) {
	return s.Repo.Upsert(ctx, &p)
}

func (s ProfileStore) Get(ctx context.Context, userID string) (*auth.Profile, error) {
	return s.Repo.Get(ctx, userID)
}

func (s ProfileStore) SetVerificationStatus(
	ctx context.Context,
	userID string,
	status auth.VerificationStatus,
) error {
	_, err := s.Repo.SetVerificationStatus(ctx, userID, status)
	return err
}
