package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/procurehub/ui-api/internal/data/pgxutil"
	"github.com/procurehub/ui-api/internal/domain/auth"
)

// ProfileRepo provides database operations for marketplace profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a new ProfileRepo with real time provider.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a new ProfileRepo with a custom time provider (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// SQL query constants for static queries.
const (
	profileGetQuery = `
		SELECT user_id, email, display_name, role, verification_status, created_at, updated_at
		FROM profiles
		WHERE user_id = $1`

	// Upsert refreshes identity-derived fields on every login but never
	// touches verification_status; that column is owned by the review flow.
	profileUpsertQuery = `
		INSERT INTO profiles (user_id, email, display_name, role, verification_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'none_submitted', $5, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			email        = EXCLUDED.email,
			display_name = EXCLUDED.display_name,
			role         = EXCLUDED.role,
			updated_at   = EXCLUDED.updated_at
		RETURNING user_id, email, display_name, role, verification_status, created_at, updated_at`

	profileSetVerificationQuery = `
		UPDATE profiles
		SET verification_status = $2, updated_at = $3
		WHERE user_id = $1
		RETURNING user_id, email, display_name, role, verification_status, created_at, updated_at`
)

// Upsert inserts or refreshes a profile for an authenticated identity.
func (r *ProfileRepo) Upsert(ctx context.Context, p *auth.Profile) (*auth.Profile, error) {
	if p == nil {
		return nil, errors.New("profile is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, errors.New("user_id is required")
	}
	if !p.Role.Valid() {
		return nil, fmt.Errorf("invalid role %q", p.Role)
	}

	now := r.timeProvider.Now().UTC()
	var out auth.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileUpsertQuery,
			strings.TrimSpace(p.UserID),
			strings.ToLower(strings.TrimSpace(p.Email)),
			strings.TrimSpace(p.DisplayName),
			p.Role,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[auth.Profile])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err)
	}
	return &out, nil
}

// Get retrieves a profile by user ID. Returns (nil, nil) when no profile row
// exists; callers treat that user as role-less rather than erroring.
func (r *ProfileRepo) Get(ctx context.Context, userID string) (*auth.Profile, error) {
	var out auth.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileGetQuery, userID)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[auth.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &out, nil
}

// SetVerificationStatus moves a profile to a new verification state.
func (r *ProfileRepo) SetVerificationStatus(
	ctx context.Context,
	userID string,
	status auth.VerificationStatus,
) (*auth.Profile, error) {
	if _, ok := auth.ParseVerificationStatus(string(status)); !ok {
		return nil, fmt.Errorf("invalid verification status %q", status)
	}

	var out auth.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, profileSetVerificationQuery, userID, status, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[auth.Profile])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to set verification status: %w", err)
	}
	return &out, nil
}

func (r *ProfileRepo) mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrProfileEmailExists
	}
	return err
}
