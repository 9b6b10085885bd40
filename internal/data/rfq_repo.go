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
	"github.com/procurehub/ui-api/internal/domain/model"
)

// Sort directions for ORDER BY clauses built via the database package.
const (
	sortDirAsc  = "ASC"
	sortDirDesc = "DESC"
)

// RFQRepo provides database operations for requests-for-quote.
type RFQRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewRFQRepo creates a new RFQRepo with real time provider.
func NewRFQRepo(db *sql.DB) *RFQRepo {
	return &RFQRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewRFQRepoWithTimeProvider creates a new RFQRepo with a custom time provider.
func NewRFQRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *RFQRepo {
	return &RFQRepo{DB: db, timeProvider: tp}
}

const (
	rfqGetByIDQuery = `
		SELECT id, client_id, title, description, category, budget_cents, status,
		       awarded_bid_id, closes_at, created_at, updated_at
		FROM rfqs
		WHERE id = $1`

	rfqInsertQuery = `
		INSERT INTO rfqs (client_id, title, description, category, budget_cents, status, closes_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'open', $6, $7, $7)
		RETURNING id, client_id, title, description, category, budget_cents, status,
		          awarded_bid_id, closes_at, created_at, updated_at`

	rfqCloseQuery = `
		UPDATE rfqs
		SET status = 'closed', updated_at = $2
		WHERE id = $1 AND status = 'open'
		RETURNING id, client_id, title, description, category, budget_cents, status,
		          awarded_bid_id, closes_at, created_at, updated_at`

	rfqStatusCountsQuery = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'open')    AS open,
			COUNT(*) FILTER (WHERE status = 'closed')  AS closed,
			COUNT(*) FILTER (WHERE status = 'awarded') AS awarded
		FROM rfqs`
)

// Create inserts a new open RFQ owned by clientID.
func (r *RFQRepo) Create(ctx context.Context, clientID string, req *model.CreateRFQRequest) (*model.RFQ, error) {
	if req == nil {
		return nil, errors.New("create RFQ request is required")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("client_id is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.RFQ
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, rfqInsertQuery,
			clientID,
			strings.TrimSpace(req.Title),
			req.Description,
			strings.TrimSpace(req.Category),
			req.BudgetCents,
			req.ClosesAt,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RFQ])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to create RFQ: %w", err)
	}
	return &out, nil
}

// GetByID retrieves an RFQ by ID.
func (r *RFQRepo) GetByID(ctx context.Context, id string) (*model.RFQ, error) {
	var out model.RFQ
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, rfqGetByIDQuery, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RFQ])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRFQNotFound
		}
		return nil, fmt.Errorf("failed to get RFQ: %w", err)
	}
	return &out, nil
}

// List retrieves RFQs with optional filters, newest first.
func (r *RFQRepo) List(ctx context.Context, opts model.RFQListOptions) ([]*model.RFQ, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := []database.ListQueryOption{
		database.WithColumns(rfqColumns()...),
		database.WithOrderBy("created_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}
	if opts.ClientID != nil && strings.TrimSpace(*opts.ClientID) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("client_id", database.Equal, strings.TrimSpace(*opts.ClientID)),
		))
	}
	if opts.Status != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, *opts.Status),
		))
	}
	if opts.Category != nil && strings.TrimSpace(*opts.Category) != "" {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("category", database.Equal, strings.TrimSpace(*opts.Category)),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("rfqs", queryOpts...))

	var rowsOut []model.RFQ
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.RFQ])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list RFQs: %w", err)
	}

	res := make([]*model.RFQ, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Close moves an open RFQ to closed. Returns ErrRFQNotFound when the RFQ does
// not exist or is no longer open.
func (r *RFQRepo) Close(ctx context.Context, id string) (*model.RFQ, error) {
	var out model.RFQ
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, rfqCloseQuery, id, r.timeProvider.Now().UTC())
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RFQ])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRFQNotFound
		}
		return nil, fmt.Errorf("failed to close RFQ: %w", err)
	}
	return &out, nil
}

// Award marks a bid as the winner and the RFQ as awarded in one transaction.
// Losing bids still in submitted state move to declined.
func (r *RFQRepo) Award(ctx context.Context, rfqID, bidID string) (*model.RFQ, error) {
	var out model.RFQ
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		now := r.timeProvider.Now().UTC()

		ct, err := tx.Exec(ctx, `
			UPDATE bids SET status = 'awarded', updated_at = $3
			WHERE id = $1 AND rfq_id = $2 AND status = 'submitted'`, bidID, rfqID, now)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			return ErrBidNotFound
		}

		if _, err = tx.Exec(ctx, `
			UPDATE bids SET status = 'declined', updated_at = $3
			WHERE rfq_id = $1 AND id <> $2 AND status = 'submitted'`, rfqID, bidID, now); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			UPDATE rfqs
			SET status = 'awarded', awarded_bid_id = $2, updated_at = $3
			WHERE id = $1 AND status IN ('open', 'closed')
			RETURNING id, client_id, title, description, category, budget_cents, status,
			          awarded_bid_id, closes_at, created_at, updated_at`, rfqID, bidID, now)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RFQ])
		return err
	}})
	if err != nil {
		if errors.Is(err, ErrBidNotFound) {
			return nil, ErrBidNotFound
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRFQNotFound
		}
		return nil, fmt.Errorf("failed to award RFQ: %w", err)
	}
	return &out, nil
}

// StatusCounts summarizes RFQ volume per status.
func (r *RFQRepo) StatusCounts(ctx context.Context) (*model.RFQStatusCounts, error) {
	var out model.RFQStatusCounts
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, rfqStatusCountsQuery)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.RFQStatusCounts])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count RFQs: %w", err)
	}
	return &out, nil
}

func rfqColumns() []string {
	return []string{
		"id",
		"client_id",
		"title",
		"description",
		"category",
		"budget_cents",
		"status",
		"awarded_bid_id",
		"closes_at",
		"created_at",
		"updated_at",
	}
}
