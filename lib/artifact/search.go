// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package artifact

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/depot-foundation/depot/lib/metaindex"
)

// SearchQuery selects artifacts. Type, category, tags, ordering, and
// pagination run in the index; free text, priority range, and date
// range are applied here after retrieval.
type SearchQuery struct {
	Type     string
	Category string

	// Tags requires every listed tag.
	Tags []string

	// Text matches case-insensitively as a substring of title,
	// description, or any tag.
	Text string

	// MinPriority and MaxPriority bound priority inclusively. Nil
	// means unbounded.
	MinPriority *int
	MaxPriority *int

	// CreatedAfter and CreatedBefore bound creation time inclusively.
	// Zero means unbounded.
	CreatedAfter  time.Time
	CreatedBefore time.Time

	// Limit, Offset, OrderBy, OrderDirection as in metaindex.Query,
	// plus "title" as an extra OrderBy handled by re-sorting results.
	Limit          int
	Offset         int
	OrderBy        string
	OrderDirection string
}

// Search returns matching records. When post-filters are present the
// index is queried without pagination and limit/offset apply after
// filtering, so pages stay dense.
func (s *Service) Search(ctx context.Context, query SearchQuery) ([]*Record, error) {
	postFiltered := query.Text != "" ||
		query.MinPriority != nil || query.MaxPriority != nil ||
		!query.CreatedAfter.IsZero() || !query.CreatedBefore.IsZero()
	titleOrder := query.OrderBy == "title"

	indexQuery := metaindex.Query{
		Type:           query.Type,
		Category:       query.Category,
		Tags:           query.Tags,
		Limit:          query.Limit,
		Offset:         query.Offset,
		OrderBy:        query.OrderBy,
		OrderDirection: query.OrderDirection,
	}
	if titleOrder {
		// The index cannot collate titles; order by priority there
		// and re-sort below.
		indexQuery.OrderBy = ""
	}
	if postFiltered || titleOrder {
		// Post-filters and title collation run here, so pagination
		// must too; pull the full candidate set from the index.
		indexQuery.Limit = int(^uint(0) >> 1)
		indexQuery.Offset = 0
	}

	rows, err := s.index.Search(ctx, indexQuery)
	if err != nil {
		return nil, &StorageError{Op: "search", ID: "", Err: err}
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		record, err := recordFromRow(row)
		if err != nil {
			return nil, &StorageError{Op: "search", ID: row.ID, Err: err}
		}
		if matchesPostFilters(record, query) {
			records = append(records, record)
		}
	}

	if titleOrder {
		ascending := strings.EqualFold(query.OrderDirection, "asc")
		sort.SliceStable(records, func(i, j int) bool {
			a := strings.ToLower(records[i].Title)
			b := strings.ToLower(records[j].Title)
			if ascending {
				return a < b
			}
			return a > b
		})
	}

	if postFiltered || titleOrder {
		records = paginate(records, query.Offset, query.Limit)
	}
	return records, nil
}

func matchesPostFilters(record *Record, query SearchQuery) bool {
	if query.MinPriority != nil && record.Priority < *query.MinPriority {
		return false
	}
	if query.MaxPriority != nil && record.Priority > *query.MaxPriority {
		return false
	}
	if !query.CreatedAfter.IsZero() && record.CreatedAt.Before(query.CreatedAfter) {
		return false
	}
	if !query.CreatedBefore.IsZero() && record.CreatedAt.After(query.CreatedBefore) {
		return false
	}
	if query.Text != "" && !matchesText(record, query.Text) {
		return false
	}
	return true
}

func matchesText(record *Record, text string) bool {
	needle := strings.ToLower(text)
	if strings.Contains(strings.ToLower(record.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(record.Description), needle) {
		return true
	}
	for _, tag := range record.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func paginate(records []*Record, offset, limit int) []*Record {
	if offset >= len(records) {
		return nil
	}
	records = records[offset:]
	if limit <= 0 {
		limit = metaindex.DefaultSearchLimit
	}
	if limit < len(records) {
		records = records[:limit]
	}
	return records
}
