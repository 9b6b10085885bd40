package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/procurehub/ui-api/internal/data/database"
	"github.com/procurehub/ui-api/internal/data/pgxutil"
	"github.com/procurehub/ui-api/internal/domain/model"
)

// AccessEventRepo provides database operations for the access audit trail.
// The table is append-only; rows are never updated or deleted by the app.
type AccessEventRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAccessEventRepo creates a new AccessEventRepo with real time provider.
func NewAccessEventRepo(db *sql.DB) *AccessEventRepo {
	return &AccessEventRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAccessEventRepoWithTimeProvider creates a new AccessEventRepo with a custom time provider.
func NewAccessEventRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AccessEventRepo {
	return &AccessEventRepo{DB: db, timeProvider: tp}
}

const accessEventInsertQuery = `
	INSERT INTO access_events (user_id, role, path, outcome, suggested_route, remote_addr, occurred_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, user_id, role, path, outcome, suggested_route, remote_addr, occurred_at`

// Insert appends one access event. OccurredAt is stamped by the repo when zero.
func (r *AccessEventRepo) Insert(ctx context.Context, ev *model.AccessEvent) (*model.AccessEvent, error) {
	if ev == nil {
		return nil, errors.New("access event is required")
	}
	if ev.Path == "" {
		return nil, errors.New("path is required")
	}
	if !ev.Outcome.Valid() {
		return nil, fmt.Errorf("invalid outcome %q", ev.Outcome)
	}

	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = r.timeProvider.Now().UTC()
	}

	var out model.AccessEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, accessEventInsertQuery,
			ev.UserID, ev.Role, ev.Path, ev.Outcome, ev.SuggestedRoute, ev.RemoteAddr, occurredAt)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.AccessEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to insert access event: %w", err)
	}
	return &out, nil
}

// List retrieves access events, newest first. The query's JMESPath Filter is
// applied by the audit service after this SQL-level pass.
func (r *AccessEventRepo) List(ctx context.Context, q model.AccessEventQuery) ([]*model.AccessEvent, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	queryOpts := []database.ListQueryOption{
		database.WithColumns(accessEventColumns()...),
		database.WithOrderBy("occurred_at", sortDirDesc),
		database.WithLimit(limit),
		database.WithOffset(max(q.Offset, 0)),
	}
	if q.Outcome != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("outcome", database.Equal, *q.Outcome),
		))
	}
	if q.Since != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("occurred_at", database.GreaterThanOrEqual, q.Since.UTC()),
		))
	}
	if q.Until != nil {
		queryOpts = append(queryOpts, database.WithCondition(
			database.WhereCond("occurred_at", database.LessThanOrEqual, q.Until.UTC()),
		))
	}
	query, args := database.BuildListQuery(database.NewListQueryOptions("access_events", queryOpts...))

	var rowsOut []model.AccessEvent
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.AccessEvent])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list access events: %w", err)
	}

	res := make([]*model.AccessEvent, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

func accessEventColumns() []string {
	return []string{
		"id",
		"user_id",
		"role",
		"path",
		"outcome",
		"suggested_route",
		"remote_addr",
		"occurred_at",
	}
}
