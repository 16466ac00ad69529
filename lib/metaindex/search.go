// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package metaindex

import (
	"context"
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Query selects and orders rows. Zero-valued fields are unconstrained.
type Query struct {
	// Type and Category filter on exact match.
	Type     string
	Category string

	// Tags requires every listed tag to be present on the row.
	Tags []string

	// Limit caps the result count; zero means DefaultSearchLimit.
	// Offset skips rows for pagination.
	Limit  int
	Offset int

	// OrderBy is one of "priority", "created_at", "updated_at",
	// "last_accessed", "access_count", "file_size", "id". Empty means
	// "priority". Ordering by title is not done here: title collation
	// is a display concern handled by the caller after retrieval.
	OrderBy string

	// OrderDirection is "asc" or "desc". Empty means descending,
	// which suits every default ordering (highest priority, newest,
	// most accessed first).
	OrderDirection string
}

// DefaultSearchLimit caps result sets when the query does not say.
const DefaultSearchLimit = 100

// orderColumns whitelists OrderBy values. Queries are assembled with
// string concatenation for the ORDER BY clause, so only vetted column
// names may pass.
var orderColumns = map[string]string{
	"priority":      "priority",
	"created_at":    "created_at",
	"updated_at":    "updated_at",
	"last_accessed": "last_accessed",
	"access_count":  "access_count",
	"file_size":     "file_size",
	"id":            "id",
}

// Search returns the rows matching a query, ordered and paginated.
func (x *Index) Search(ctx context.Context, query Query) ([]*Row, error) {
	orderColumn := "priority"
	if query.OrderBy != "" {
		column, ok := orderColumns[query.OrderBy]
		if !ok {
			return nil, fmt.Errorf("metadata index: unsupported order column %q", query.OrderBy)
		}
		orderColumn = column
	}
	direction := "DESC"
	switch strings.ToLower(query.OrderDirection) {
	case "", "desc":
	case "asc":
		direction = "ASC"
	default:
		return nil, fmt.Errorf("metadata index: unsupported order direction %q", query.OrderDirection)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var conditions []string
	var args []any
	if query.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, query.Type)
	}
	if query.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, query.Category)
	}
	for _, tag := range query.Tags {
		conditions = append(conditions,
			"tags IS NOT NULL AND EXISTS (SELECT 1 FROM json_each(artifacts.tags) WHERE json_each.value = ?)")
		args = append(args, tag)
	}

	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(rowColumns)
	builder.WriteString(" FROM artifacts")
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	// Secondary id ordering makes pagination stable across rows that
	// tie on the order column.
	fmt.Fprintf(&builder, " ORDER BY %s %s, id ASC LIMIT ? OFFSET ?", orderColumn, direction)
	args = append(args, limit, query.Offset)

	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("metadata index: search: %w", err)
	}
	defer x.pool.Put(conn)

	var rows []*Row
	err = sqlitex.ExecuteTransient(conn, builder.String(), &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			row, err := scanRow(stmt)
			if err != nil {
				return err
			}
			rows = append(rows, row)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("metadata index: search: %w", err)
	}
	return rows, nil
}
