// Package database assembles parameterized list queries for the marketplace
// repositories. Identifiers are sanitized through pgx; values always travel
// as placeholders.
package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ConditionType is the comparison applied between a column and its value.
type ConditionType string

// The comparisons the marketplace list endpoints need: exact match for
// enum/ID filters, range bounds for the audit feed, ILIKE for admin search,
// IN for multi-status filters.
const (
	Equal              ConditionType = "="
	GreaterThanOrEqual ConditionType = ">="
	LessThanOrEqual    ConditionType = "<="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
)

// unset marks Limit/Offset as "not requested" so zero stays a valid value.
const unset = -1

// Condition pairs a column with a comparison and the value to compare against.
type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

// WhereCond builds a WHERE condition on a single column.
func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

// ListQueryOptions describes a list query over a single table.
type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

// ListQueryOption mutates ListQueryOptions.
type ListQueryOption func(*ListQueryOptions)

// NewListQueryOptions builds options for table with the given functional options.
func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  unset,
		Offset: unset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select. Empty means SELECT *.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition appends one condition; conditions are ANDed together.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithOrderBy sets the ordering column and direction ("ASC"/"DESC").
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0; negative leaves it unset.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0; negative leaves it unset.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// sanitizeIdentifier quotes an identifier, splitting qualified names like
// "rfqs.status" so each part is quoted separately.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery renders options into a SQL string and positional args.
//
// Example:
//
//	opts := NewListQueryOptions("rfqs",
//		WithColumns("id", "client_id", "status"),
//		WithCondition(WhereCond("status", Equal, "open")),
//		WithOrderBy("created_at", "DESC"),
//		WithLimit(50),
//	)
//	query, args := BuildListQuery(opts)
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder
	query.WriteString(buildSelectClause(options.Columns))
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	whereClause, args, nextParam := buildWhereClause(options.Conditions, 1)
	if whereClause != "" {
		query.WriteString(" ")
		query.WriteString(whereClause)
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" ")
			query.WriteString(dir)
		}
	}
	if options.Limit != unset {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", nextParam))
		args = append(args, options.Limit)
		nextParam++
	}
	if options.Offset != unset {
		query.WriteString(fmt.Sprintf(" OFFSET $%d", nextParam))
		args = append(args, options.Offset)
	}

	return query.String(), args
}

func buildSelectClause(columns []string) string {
	if len(columns) == 0 {
		return "SELECT * "
	}
	sanitized := make([]string, len(columns))
	for i, col := range columns {
		sanitized[i] = sanitizeIdentifier(col)
	}
	return "SELECT " + strings.Join(sanitized, ", ") + " "
}

// buildWhereClause renders conditions into "WHERE ..." with placeholders
// numbered from startParam. Conditions with an empty field, and IN conditions
// with an empty slice, are skipped rather than rendered as invalid SQL.
func buildWhereClause(conditions []Condition, startParam int) (string, []any, int) {
	rendered := make([]string, 0, len(conditions))
	args := []any{}
	param := startParam

	for _, cond := range conditions {
		if cond.Field == "" {
			continue
		}
		field := sanitizeIdentifier(cond.Field)

		if cond.Type == In {
			inClause, inArgs, next := renderInCondition(field, cond.Value, param)
			if inClause == "" {
				continue
			}
			rendered = append(rendered, inClause)
			args = append(args, inArgs...)
			param = next
			continue
		}

		rendered = append(rendered, fmt.Sprintf("%s %s $%d", field, cond.Type, param))
		args = append(args, cond.Value)
		param++
	}

	if len(rendered) == 0 {
		return "", args, param
	}
	return "WHERE " + strings.Join(rendered, " AND "), args, param
}

// renderInCondition expands a slice value into "field IN ($n, $n+1, ...)".
// Reflection accepts typed slices like []auth.VerificationStatus directly.
func renderInCondition(field string, value any, startParam int) (string, []any, int) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, startParam
	}

	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	param := startParam
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", param)
		args[i] = rv.Index(i).Interface()
		param++
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(placeholders, ", ")), args, param
}
