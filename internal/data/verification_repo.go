package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/procurehub/ui-api/internal/data/database"
	"github.com/procurehub/ui-api/internal/data/pgxutil"
	"github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
)

// VerificationRepo provides database operations for KYC/KYV submissions.
type VerificationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewVerificationRepo creates a new VerificationRepo with real time provider.
func NewVerificationRepo(db *sql.DB) *VerificationRepo {
	return &VerificationRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewVerificationRepoWithTimeProvider creates a new VerificationRepo with a custom time provider.
func NewVerificationRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *VerificationRepo {
	return &VerificationRepo{DB: db, timeProvider: tp}
}

const (
	verificationColumnsSQL = `id, user_id, kind, status, legal_name, country, reg_number,
	       contact_email, domain_flag, reject_reason, reviewed_by, reviewed_at, created_at, updated_at`

	verificationGetByUserQuery = `
		SELECT id, user_id, kind, status, legal_name, country, reg_number,
		       contact_email, domain_flag, reject_reason, reviewed_by, reviewed_at, created_at, updated_at
		FROM verification_submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	verificationGetByIDQuery = `
		SELECT id, user_id, kind, status, legal_name, country, reg_number,
		       contact_email, domain_flag, reject_reason, reviewed_by, reviewed_at, created_at, updated_at
		FROM verification_submissions
		WHERE id = $1`

	// Resubmission replaces the live record for (user, kind): payload fields
	// are overwritten, review fields reset, status returns to pending.
	verificationUpsertQuery = `
		INSERT INTO verification_submissions (
			user_id, kind, status, legal_name, country, reg_number, contact_email, domain_flag, created_at, updated_at
		) VALUES ($1, $2, 'pending', $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id, kind) DO UPDATE SET
			status        = 'pending',
			legal_name    = EXCLUDED.legal_name,
			country       = EXCLUDED.country,
			reg_number    = EXCLUDED.reg_number,
			contact_email = EXCLUDED.contact_email,
			domain_flag   = EXCLUDED.domain_flag,
			reject_reason = NULL,
			reviewed_by   = NULL,
			reviewed_at   = NULL,
			updated_at    = EXCLUDED.updated_at
		RETURNING id, user_id, kind, status, legal_name, country, reg_number,
		          contact_email, domain_flag, reject_reason, reviewed_by, reviewed_at, created_at, updated_at`

	// Review only lands on submissions still pending; a concurrent second
	// reviewer gets ErrSubmissionNotFound instead of silently overwriting.
	verificationReviewQuery = `
		UPDATE verification_submissions
		SET status = $2, reject_reason = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5
		WHERE id = $1 AND status = 'pending'
		RETURNING id, user_id, kind, status, legal_name, country, reg_number,
		          contact_email, domain_flag, reject_reason, reviewed_by, reviewed_at, created_at, updated_at`
)

// SubmitParams carries a validated submission ready for persistence.
type SubmitParams struct {
	UserID     string
	Kind       model.VerificationKind
	Req        model.SubmitVerificationRequest
	DomainFlag bool
}

// Submit inserts or replaces the live submission for (user, kind).
func (r *VerificationRepo) Submit(ctx context.Context, p SubmitParams) (*model.VerificationSubmission, error) {
	if strings.TrimSpace(p.UserID) == "" {
		return nil, errors.New("user_id is required")
	}
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("invalid verification kind %q", p.Kind)
	}
	if err := p.Req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.VerificationSubmission
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, verificationUpsertQuery,
			p.UserID,
			p.Kind,
			strings.TrimSpace(p.Req.LegalName),
			strings.ToUpper(strings.TrimSpace(p.Req.Country)),
			p.Req.RegNumber,
			strings.ToLower(strings.TrimSpace(p.Req.ContactEmail)),
			p.DomainFlag,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.VerificationSubmission])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to submit verification: %w", err)
	}
	return &out, nil
}

// GetByUser returns the newest submission for a user, or (nil, nil) when the
// user has never submitted.
func (r *VerificationRepo) GetByUser(ctx context.Context, userID string) (*model.VerificationSubmission, error) {
	sub, err := r.getByQuery(ctx, verificationGetByUserQuery, userID)
	if errors.Is(err, ErrSubmissionNotFound) {
		return nil, nil
	}
	return sub, err
}

// GetByID retrieves a submission by ID.
func (r *VerificationRepo) GetByID(ctx context.Context, id string) (*model.VerificationSubmission, error) {
	return r.getByQuery(ctx, verificationGetByIDQuery, id)
}

// Review applies an admin decision to a pending submission.
func (r *VerificationRepo) Review(
	ctx context.Context,
	id string,
	reviewerID string,
	req model.ReviewVerificationRequest,
) (*model.VerificationSubmission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	status := auth.VerificationApproved
	var reason *string
	if !req.Approve {
		status = auth.VerificationRejected
		reason = req.Reason
	}

	var out model.VerificationSubmission
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, verificationReviewQuery,
			id, status, reason, reviewerID, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.VerificationSubmission])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to review verification: %w", err)
	}
	return &out, nil
}

// List retrieves submissions for the admin review queue.
func (r *VerificationRepo) List(
	ctx context.Context,
	opts model.VerificationListOptions,
) ([]*model.VerificationSubmission, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(verificationColumns()...),
		database.WithOrderBy("created_at", sortDirAsc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.Kind != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("kind", database.Equal, *opts.Kind),
		))
	}
	if len(opts.Statuses) > 0 {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.In, opts.Statuses),
		))
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("legal_name", database.ILike, "%"+search+"%"),
		))
	}
	query, args := database.BuildListQuery(
		database.NewListQueryOptions("verification_submissions", queryOpts...))

	var rowsOut []model.VerificationSubmission
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.VerificationSubmission])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}

	res := make([]*model.VerificationSubmission, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func verificationColumns() []string {
	return []string{
		"id",
		"user_id",
		"kind",
		"status",
		"legal_name",
		"country",
		"reg_number",
		"contact_email",
		"domain_flag",
		"reject_reason",
		"reviewed_by",
		"reviewed_at",
		"created_at",
		"updated_at",
	}
}

func (r *VerificationRepo) getByQuery(
	ctx context.Context,
	q string,
	args ...any,
) (*model.VerificationSubmission, error) {
	var out model.VerificationSubmission
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.VerificationSubmission])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	return &out, nil
}
