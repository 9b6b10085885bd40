package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/procurehub/ui-api/internal/data/database"
	"github.com/procurehub/ui-api/internal/data/pgxutil"
	"github.com/procurehub/ui-api/internal/domain/model"
)

// BidRepo provides database operations for vendor bids.
type BidRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewBidRepo creates a new BidRepo with real time provider.
func NewBidRepo(db *sql.DB) *BidRepo {
	return &BidRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewBidRepoWithTimeProvider creates a new BidRepo with a custom time provider.
func NewBidRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *BidRepo {
	return &BidRepo{DB: db, timeProvider: tp}
}

const (
	bidGetByIDQuery = `
		SELECT id, rfq_id, vendor_id, amount_cents, lead_days, note, status, created_at, updated_at
		FROM bids
		WHERE id = $1`

	bidInsertQuery = `
		INSERT INTO bids (rfq_id, vendor_id, amount_cents, lead_days, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'submitted', $6, $6)
		RETURNING id, rfq_id, vendor_id, amount_cents, lead_days, note, status, created_at, updated_at`

	// Withdrawal is owner-scoped and only valid while the bid is live.
	bidWithdrawQuery = `
		UPDATE bids
		SET status = 'withdrawn', updated_at = $3
		WHERE id = $1 AND vendor_id = $2 AND status = 'submitted'
		RETURNING id, rfq_id, vendor_id, amount_cents, lead_days, note, status, created_at, updated_at`
)

// Place inserts a new bid from vendorID on rfqID.
func (r *BidRepo) Place(
	ctx context.Context,
	rfqID, vendorID string,
	req *model.PlaceBidRequest,
) (*model.Bid, error) {
	if req == nil {
		return nil, errors.New("place bid request is required")
	}
	if strings.TrimSpace(rfqID) == "" {
		return nil, errors.New("rfq_id is required")
	}
	if strings.TrimSpace(vendorID) == "" {
		return nil, errors.New("vendor_id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Bid
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, bidInsertQuery,
			rfqID, vendorID, req.AmountCents, req.LeadDays, req.Note, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Bid])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err)
	}
	return &out, nil
}

// GetByID retrieves a bid by ID.
func (r *BidRepo) GetByID(ctx context.Context, id string) (*model.Bid, error) {
	var out model.Bid
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, bidGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Bid])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return &out, nil
}

// List retrieves bids with optional filters, newest first.
func (r *BidRepo) List(ctx context.Context, opts model.BidListOptions) ([]*model.Bid, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(bidColumns()...),
		database.WithOrderBy("created_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.RFQID != nil && strings.TrimSpace(*opts.RFQID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("rfq_id", database.Equal, strings.TrimSpace(*opts.RFQID)),
		))
	}
	if opts.VendorID != nil && strings.TrimSpace(*opts.VendorID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("vendor_id", database.Equal, strings.TrimSpace(*opts.VendorID)),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, *opts.Status),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("bids", queryOpts...))

	var rowsOut []model.Bid
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Bid])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	res := make([]*model.Bid, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Withdraw moves a vendor's live bid to withdrawn. Returns ErrBidNotFound when
// the bid does not exist, belongs to another vendor, or is no longer live.
func (r *BidRepo) Withdraw(ctx context.Context, id, vendorID string) (*model.Bid, error) {
	var out model.Bid
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, bidWithdrawQuery, id, vendorID, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Bid])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to withdraw bid: %w", err)
	}
	return &out, nil
}

func bidColumns() []string {
	return []string{
		"id",
		"rfq_id",
		"vendor_id",
		"amount_cents",
		"lead_days",
		"note",
		"status",
		"created_at",
		"updated_at",
	}
}

func (r *BidRepo) mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrBidExists
		case "23503":
			return ErrRFQNotFound
		}
	}
	return err
}
